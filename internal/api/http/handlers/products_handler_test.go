package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/commerce-service/internal/auth"
	"github.com/spec-kit/commerce-service/internal/domain"
	"github.com/spec-kit/commerce-service/internal/repository"
	"github.com/spec-kit/commerce-service/internal/service"
)

// recordingProductRepo captures the filter the handler builds.
type recordingProductRepo struct {
	lastFilter repository.ProductFilter
}

func (r *recordingProductRepo) Create(ctx context.Context, product *domain.Product) error {
	return nil
}

func (r *recordingProductRepo) Update(ctx context.Context, product *domain.Product) error {
	return nil
}

func (r *recordingProductRepo) Delete(ctx context.Context, id string) error { return nil }

func (r *recordingProductRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	return nil, pgx.ErrNoRows
}

func (r *recordingProductRepo) List(ctx context.Context, filter repository.ProductFilter) ([]domain.Product, error) {
	r.lastFilter = filter
	return nil, nil
}

func (r *recordingProductRepo) IncrementViews(ctx context.Context, id string) error { return nil }

func newCatalogApp(repo repository.ProductRepository, principal *auth.Principal) *fiber.App {
	app := fiber.New()
	handler := NewProductsHandler(service.NewCatalogService(repo, zap.NewNop()))
	withPrincipal := func(c *fiber.Ctx) error {
		if principal != nil {
			auth.StorePrincipal(c, principal)
		}
		return c.Next()
	}
	app.Get("/products", withPrincipal, handler.List)
	return app
}

func TestListProductsAnonymousCannotIncludeInactive(t *testing.T) {
	repo := &recordingProductRepo{}
	app := newCatalogApp(repo, nil)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/products?include_inactive=true", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, repo.lastFilter.ActiveOnly, "anonymous listing must stay active-only")
}

func TestListProductsCustomerCannotIncludeInactive(t *testing.T) {
	repo := &recordingProductRepo{}
	customer := &auth.Principal{
		User: &domain.User{ID: "u-1", Role: domain.RoleCustomer},
		Role: domain.RoleCustomer,
	}
	app := newCatalogApp(repo, customer)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/products?include_inactive=true", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.True(t, repo.lastFilter.ActiveOnly)
}

func TestListProductsAdminMayIncludeInactive(t *testing.T) {
	repo := &recordingProductRepo{}
	admin := &auth.Principal{
		User: &domain.User{ID: "a-1", Role: domain.RoleAdmin},
		Role: domain.RoleAdmin,
	}
	app := newCatalogApp(repo, admin)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/products?include_inactive=true", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.False(t, repo.lastFilter.ActiveOnly)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/products", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.True(t, repo.lastFilter.ActiveOnly, "admin without the flag sees the public view")
}
