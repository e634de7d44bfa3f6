package repositories_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"

	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/models"
	"storefront/internal/repositories"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newPostgresBackend connects to the database named by POSTGRES_DSN; the tests
// are skipped without one. Products are named per test so runs can share a
// database.
func newPostgresBackend(t *testing.T) backend {
	t.Helper()
	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_DSN not set")
	}
	db, err := database.Open(config.DatabaseConfig{Driver: config.DriverPostgres, DSN: dsn}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	return backend{
		products: repositories.NewGORMProductRepository(db),
		users:    repositories.NewGORMUserRepository(db),
		orders:   repositories.NewGORMOrderRepository(db),
	}
}

func TestPostgresPlaceOrder_LastUnitsSoldOnce(t *testing.T) {
	b := newPostgresBackend(t)
	ctx := context.Background()

	product := &models.Product{Name: "Console " + uuid.NewString(), Price: 500, Stock: 3}
	seed(t, b.products, product)

	results := runConcurrentCheckouts(ctx, b.orders, 25, []uint{product.ID})

	assert.Empty(t, results.other)
	assert.Equal(t, 3, results.succeeded)
	assert.Equal(t, 22, results.outOfStock)
	assert.Equal(t, 0, stockOf(t, b.products, product.ID))
}

func TestPostgresPlaceOrder_MultiLineAllOrNothing(t *testing.T) {
	b := newPostgresBackend(t)
	ctx := context.Background()

	keyboard := &models.Product{Name: "Keyboard " + uuid.NewString(), Price: 50, Stock: 4}
	mouse := &models.Product{Name: "Mouse " + uuid.NewString(), Price: 20, Stock: 2}
	seed(t, b.products, keyboard, mouse)

	results := runConcurrentCheckouts(ctx, b.orders, 10, []uint{keyboard.ID, mouse.ID})

	assert.Empty(t, results.other)
	assert.Equal(t, 2, results.succeeded)
	assert.Equal(t, 8, results.outOfStock)
	assert.Equal(t, 2, stockOf(t, b.products, keyboard.ID))
	assert.Equal(t, 0, stockOf(t, b.products, mouse.ID))
}

// Carts naming the same products in opposite orders must not deadlock.
func TestPostgresPlaceOrder_OppositeLineOrders(t *testing.T) {
	b := newPostgresBackend(t)
	ctx := context.Background()

	first := &models.Product{Name: "Cable " + uuid.NewString(), Price: 5, Stock: 100}
	second := &models.Product{Name: "Adapter " + uuid.NewString(), Price: 8, Stock: 100}
	seed(t, b.products, first, second)

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		errs  []error
		start = make(chan struct{})
	)
	for i := 0; i < 20; i++ {
		lines := []uint{first.ID, second.ID}
		if i%2 == 1 {
			lines = []uint{second.ID, first.ID}
		}
		wg.Add(1)
		go func(userID uint, lines []uint) {
			defer wg.Done()
			<-start
			if _, err := b.orders.PlaceOrder(ctx, userID, lines); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
		}(uint(i+1), lines)
	}
	close(start)
	wg.Wait()

	for _, err := range errs {
		assert.False(t, errors.As(err, new(*models.OutOfStockError)), "unexpected out of stock: %v", err)
	}
	assert.Empty(t, errs)
	assert.Equal(t, 80, stockOf(t, b.products, first.ID))
	assert.Equal(t, 80, stockOf(t, b.products, second.ID))
}
