package cmd

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"storefront/internal/models"
	"storefront/internal/services"

	"github.com/rs/zerolog"
	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestCreateAdmin(t *testing.T) {
	t.Setenv("JWT_SECRET", "test_jwt_secret")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DATABASE_DSN", filepath.Join(t.TempDir(), "storefront.db"))
	t.Setenv("LOG_LEVEL", "error")

	out, err := run(t, "create-admin", "--username", "root", "--password", "s3cret")
	require.NoError(t, err)
	assert.Contains(t, out, `admin "root" created`)

	_, err = run(t, "create-admin", "--username", "root", "--password", "other")
	assert.ErrorIs(t, err, models.ErrUsernameTaken)
}

func TestCreateAdminRequiresPersistentDatabase(t *testing.T) {
	t.Setenv("JWT_SECRET", "test_jwt_secret")
	t.Setenv("DB_DRIVER", "memory")

	_, err := run(t, "create-admin", "-u", "root", "-p", "s3cret")

	assert.ErrorContains(t, err, "create-admin needs a persistent database")
}

func TestCreateAdminRequiresFlags(t *testing.T) {
	_, err := run(t, "create-admin", "--username", "root")
	assert.ErrorContains(t, err, `required flag(s) "password" not set`)
}

func TestConfigErrorsSurface(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := run(t, "serve", "--config", filepath.Join(t.TempDir(), "absent.yaml"))

	assert.ErrorContains(t, err, "failed to load config")
}

func TestLogOrderEvent(t *testing.T) {
	handler := logOrderEvent(zerolog.Nop())

	body, err := json.Marshal(services.OrderPlacedEvent{OrderID: "abc", UserID: 1, Total: 3})
	require.NoError(t, err)
	assert.NoError(t, handler(amqp.Delivery{RoutingKey: services.OrderPlacedRoutingKey, Body: body}))

	assert.Error(t, handler(amqp.Delivery{Body: []byte("not json")}))
}
