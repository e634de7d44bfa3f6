package services_test

import (
	"context"
	"fmt"
	"testing"

	"storefront/internal/models"
	"storefront/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestProductService_GetAllProducts(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo)

	expectedProducts := []models.Product{
		{ID: 1, Name: "Product A", Price: 10.0, Stock: 100},
		{ID: 2, Name: "Product B", Price: 20.0, Stock: 50},
	}
	mockRepo.On("GetAll", ctx).Return(expectedProducts, nil).Once()

	products, err := service.GetAllProducts(ctx)

	assert.NoError(t, err)
	assert.Equal(t, expectedProducts, products)
	mockRepo.AssertExpectations(t)
}

func TestProductService_GetProductByID(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo)

	mockRepo.On("GetByID", ctx, uint(1)).Return(&models.Product{ID: 1, Name: "Product A"}, nil).Once()
	mockRepo.On("GetByID", ctx, uint(9)).Return(nil, fmt.Errorf("product with ID 9: %w", models.ErrNotFound)).Once()

	product, err := service.GetProductByID(ctx, 1)
	assert.NoError(t, err)
	assert.Equal(t, "Product A", product.Name)

	product, err = service.GetProductByID(ctx, 9)
	assert.Nil(t, product)
	assert.ErrorIs(t, err, models.ErrNotFound)
	mockRepo.AssertExpectations(t)
}

func TestProductService_CreateProduct(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo)

	newProduct := &models.Product{Name: "New Product", Price: 15.0, Stock: 20}
	mockRepo.On("Create", ctx, newProduct).Return(nil).Once()

	assert.NoError(t, service.CreateProduct(ctx, newProduct))
	mockRepo.AssertExpectations(t)
}

func TestProductService_RejectsInvalidProduct(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo)

	invalid := []*models.Product{
		{Name: "", Price: 1, Stock: 1},
		{Name: "Negative price", Price: -1, Stock: 1},
		{Name: "Negative stock", Price: 1, Stock: -1},
	}
	for _, p := range invalid {
		assert.ErrorIs(t, service.CreateProduct(ctx, p), models.ErrInvalidInput, p.Name)
		p.ID = 1
		assert.ErrorIs(t, service.UpdateProduct(ctx, p), models.ErrInvalidInput, p.Name)
	}
	mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestProductService_UpdateProduct(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo)

	updated := &models.Product{ID: 1, Name: "Updated", Price: 12.5, Stock: 0}
	mockRepo.On("Update", ctx, updated).Return(nil).Once()

	missing := &models.Product{ID: 9, Name: "Ghost", Price: 1, Stock: 1}
	mockRepo.On("Update", ctx, missing).Return(fmt.Errorf("product with ID 9: %w", models.ErrNotFound)).Once()

	assert.NoError(t, service.UpdateProduct(ctx, updated))
	assert.ErrorIs(t, service.UpdateProduct(ctx, missing), models.ErrNotFound)
	mockRepo.AssertExpectations(t)
}

func TestProductService_DeleteProduct(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo)

	mockRepo.On("Delete", ctx, uint(1)).Return(nil).Once()
	mockRepo.On("Delete", ctx, uint(2)).Return(fmt.Errorf("product with ID 2: %w", models.ErrNotFound)).Once()

	assert.NoError(t, service.DeleteProduct(ctx, 1))
	assert.ErrorIs(t, service.DeleteProduct(ctx, 2), models.ErrNotFound)
	mockRepo.AssertExpectations(t)
}

func TestProductService_CartView(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo)

	// Product 3 has been deleted since it was added to the cart.
	mockRepo.On("GetByIDs", ctx, []uint{1, 3, 2}).Return([]models.Product{
		{ID: 1, Name: "Apple", Price: 1.5, Stock: 10},
		{ID: 2, Name: "Pear", Price: 2.0, Stock: 10},
	}, nil).Once()

	view, err := service.CartView(ctx, []uint{1, 3, 1, 2})

	require.NoError(t, err)
	assert.Equal(t, []models.CartLine{
		{ProductID: 1, Name: "Apple", Price: 1.5},
		{ProductID: 1, Name: "Apple", Price: 1.5},
		{ProductID: 2, Name: "Pear", Price: 2.0},
	}, view.Lines)
	assert.InDelta(t, 5.0, view.Total, 1e-9)
	mockRepo.AssertExpectations(t)
}

func TestProductService_CartViewEmpty(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo)

	view, err := service.CartView(context.Background(), nil)

	require.NoError(t, err)
	assert.Empty(t, view.Lines)
	assert.Zero(t, view.Total)
	mockRepo.AssertNotCalled(t, "GetByIDs", mock.Anything, mock.Anything)
}
