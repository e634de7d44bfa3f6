package repositories

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"storefront/internal/models"

	"github.com/samber/lo"
)

// MemoryProductRepository is an in-memory implementation of ProductRepository.
type MemoryProductRepository struct {
	products map[uint]models.Product
	nextID   uint
	mu       sync.RWMutex
}

// NewMemoryProductRepository creates a new instance of MemoryProductRepository.
func NewMemoryProductRepository() *MemoryProductRepository {
	return &MemoryProductRepository{
		products: make(map[uint]models.Product),
		nextID:   1,
	}
}

// GetAll returns all products ordered by ID.
func (r *MemoryProductRepository) GetAll(_ context.Context) ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	productList := lo.Values(r.products)
	sort.Slice(productList, func(i, j int) bool { return productList[i].ID < productList[j].ID })
	return productList, nil
}

// GetByID returns a product by its ID.
func (r *MemoryProductRepository) GetByID(_ context.Context, id uint) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	product, ok := r.products[id]
	if !ok {
		return nil, fmt.Errorf("product with ID %d: %w", id, models.ErrNotFound)
	}
	return &product, nil
}

// GetByIDs returns the products with the given IDs that still exist.
func (r *MemoryProductRepository) GetByIDs(_ context.Context, ids []uint) ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var products []models.Product
	for _, id := range lo.Uniq(ids) {
		if p, ok := r.products[id]; ok {
			products = append(products, p)
		}
	}
	return products, nil
}

// Create adds a new product and assigns its ID.
func (r *MemoryProductRepository) Create(_ context.Context, product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if product.ID == 0 {
		product.ID = r.nextID
	}
	if product.ID >= r.nextID {
		r.nextID = product.ID + 1
	}
	now := time.Now()
	product.CreatedAt = now
	product.UpdatedAt = now
	r.products[product.ID] = *product
	return nil
}

// Update replaces name, price and stock of an existing product.
func (r *MemoryProductRepository) Update(_ context.Context, product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.products[product.ID]
	if !ok {
		return fmt.Errorf("product with ID %d: %w", product.ID, models.ErrNotFound)
	}
	existing.Name = product.Name
	existing.Price = product.Price
	existing.Stock = product.Stock
	existing.UpdatedAt = time.Now()
	r.products[product.ID] = existing
	return nil
}

// Delete removes a product by its ID.
func (r *MemoryProductRepository) Delete(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[id]; !ok {
		return fmt.Errorf("product with ID %d: %w", id, models.ErrNotFound)
	}
	delete(r.products, id)
	return nil
}

// MemoryUserRepository is an in-memory implementation of UserRepository.
type MemoryUserRepository struct {
	users  map[uint]models.User
	nextID uint
	mu     sync.RWMutex
}

// NewMemoryUserRepository creates a new instance of MemoryUserRepository.
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		users:  make(map[uint]models.User),
		nextID: 1,
	}
}

// Create stores a user; the username check and insert happen under one lock.
func (r *MemoryUserRepository) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Username == user.Username {
			return fmt.Errorf("username '%s': %w", user.Username, models.ErrUsernameTaken)
		}
	}
	user.ID = r.nextID
	r.nextID++
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.users[user.ID] = *user
	return nil
}

// GetByUsername returns a user by exact, case-sensitive username.
func (r *MemoryUserRepository) GetByUsername(_ context.Context, username string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, fmt.Errorf("user with username %s: %w", username, models.ErrNotFound)
}

// GetByID returns a user by its ID.
func (r *MemoryUserRepository) GetByID(_ context.Context, id uint) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, fmt.Errorf("user with ID %d: %w", id, models.ErrNotFound)
	}
	return &user, nil
}

// AdminExists reports whether at least one admin account is stored.
func (r *MemoryUserRepository) AdminExists(_ context.Context) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return lo.SomeBy(lo.Values(r.users), func(u models.User) bool { return u.IsAdmin }), nil
}

// MemoryOrderRepository is an in-memory implementation of OrderRepository.
// It shares the product store so that checkout can decrement stock.
type MemoryOrderRepository struct {
	products *MemoryProductRepository
	orders   map[string]models.Order
	mu       sync.RWMutex
}

// NewMemoryOrderRepository creates a new instance of MemoryOrderRepository.
func NewMemoryOrderRepository(products *MemoryProductRepository) *MemoryOrderRepository {
	return &MemoryOrderRepository{
		products: products,
		orders:   make(map[string]models.Order),
	}
}

// PlaceOrder validates and decrements under the product write lock, which
// serialises every checkout against every other.
func (r *MemoryOrderRepository) PlaceOrder(_ context.Context, userID uint, lines []uint) (*models.Order, error) {
	if len(lines) == 0 {
		return nil, models.ErrEmptyCart
	}

	r.products.mu.Lock()
	defer r.products.mu.Unlock()

	byID := make(map[uint]models.Product)
	for _, id := range lines {
		if p, ok := r.products.products[id]; ok {
			byID[id] = p
		}
	}
	if err := validateLines(lines, byID); err != nil {
		return nil, err
	}

	counts := lo.CountValues(lines)
	for id, n := range counts {
		if byID[id].Stock < n {
			return nil, &models.OutOfStockError{ProductID: id, ProductName: byID[id].Name}
		}
	}
	for id, n := range counts {
		p := byID[id]
		p.Stock -= n
		p.UpdatedAt = time.Now()
		r.products.products[id] = p
	}

	order := buildOrder(userID, lines, byID)

	r.mu.Lock()
	r.orders[order.ID] = *order
	r.mu.Unlock()

	return order, nil
}

// GetByID returns an order by its ID.
func (r *MemoryOrderRepository) GetByID(_ context.Context, id string) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, fmt.Errorf("order with ID %s: %w", id, models.ErrNotFound)
	}
	return &order, nil
}

// ListByUser returns a user's orders, newest first.
func (r *MemoryOrderRepository) ListByUser(_ context.Context, userID uint) ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	orders := lo.Filter(lo.Values(r.orders), func(o models.Order, _ int) bool { return o.UserID == userID })
	sort.Slice(orders, func(i, j int) bool { return orders[i].CreatedAt.After(orders[j].CreatedAt) })
	return orders, nil
}
