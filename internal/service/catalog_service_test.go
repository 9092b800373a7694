package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/commerce-service/internal/domain"
)

func newCatalogFixture(t *testing.T) (*CatalogService, *stubProductRepo) {
	t.Helper()
	repo := &stubProductRepo{products: map[string]*domain.Product{}}
	return NewCatalogService(repo, zap.NewNop()), repo
}

func TestCreateProductValidation(t *testing.T) {
	svc, _ := newCatalogFixture(t)
	sale := int64(-5)

	tests := []struct {
		name  string
		input ProductInput
	}{
		{"missing name", ProductInput{PriceCents: 1000}},
		{"zero price", ProductInput{Name: "Widget"}},
		{"negative price", ProductInput{Name: "Widget", PriceCents: -100}},
		{"negative sale price", ProductInput{Name: "Widget", PriceCents: 1000, SalePriceCents: &sale}},
		{"negative stock", ProductInput{Name: "Widget", PriceCents: 1000, Stock: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateProduct(context.Background(), tt.input)
			assert.Equal(t, "VALIDATION_FAILED", domainCode(t, err))
		})
	}
}

func TestGetProductUnknown(t *testing.T) {
	svc, _ := newCatalogFixture(t)

	_, err := svc.GetProduct(context.Background(), uuid.NewString(), false)
	assert.Equal(t, "NOT_FOUND", domainCode(t, err))
}

func TestUpdateProductUnknown(t *testing.T) {
	svc, _ := newCatalogFixture(t)

	_, err := svc.UpdateProduct(context.Background(), uuid.NewString(), ProductInput{Name: "Widget", PriceCents: 1000})
	assert.Equal(t, "NOT_FOUND", domainCode(t, err))
}

func TestCatalogRejectsMalformedProductID(t *testing.T) {
	svc, _ := newCatalogFixture(t)
	ctx := context.Background()

	_, err := svc.GetProduct(ctx, "not-a-uuid", false)
	assert.Equal(t, "VALIDATION_FAILED", domainCode(t, err))

	_, err = svc.UpdateProduct(ctx, "not-a-uuid", ProductInput{Name: "Widget", PriceCents: 1000})
	assert.Equal(t, "VALIDATION_FAILED", domainCode(t, err))

	err = svc.DeleteProduct(ctx, "not-a-uuid")
	assert.Equal(t, "VALIDATION_FAILED", domainCode(t, err))
}

func TestGetProductReturnsCatalogEntry(t *testing.T) {
	svc, repo := newCatalogFixture(t)
	id := uuid.NewString()
	repo.products[id] = &domain.Product{ID: id, Name: "Widget", PriceCents: 1000, IsActive: true}

	product, err := svc.GetProduct(context.Background(), id, false)
	require.NoError(t, err)
	assert.Equal(t, "Widget", product.Name)
}

func TestGetProductHidesInactiveFromPublic(t *testing.T) {
	svc, repo := newCatalogFixture(t)
	id := uuid.NewString()
	repo.products[id] = &domain.Product{ID: id, Name: "Retired", PriceCents: 1000, IsActive: false}

	_, err := svc.GetProduct(context.Background(), id, false)
	assert.Equal(t, "NOT_FOUND", domainCode(t, err))

	product, err := svc.GetProduct(context.Background(), id, true)
	require.NoError(t, err)
	assert.Equal(t, "Retired", product.Name)
}
