package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"storefront/internal/domain/model"
	"storefront/internal/repository"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubCatalog struct {
	products   []model.Product
	categories []string
	err        error
}

func (s stubCatalog) GetAllProducts(ctx context.Context) ([]model.Product, error) {
	return s.products, s.err
}

func (s stubCatalog) GetCategories(ctx context.Context) ([]string, error) {
	return s.categories, nil
}

func fixtureProducts() []model.Product {
	return []model.Product{
		{ID: 1, Title: "Red Shirt", Description: "cotton", Category: "clothing", Price: decimal.RequireFromString("19.9"), Image: "https://img/1.png"},
		{ID: 2, Title: "Blue Mug", Description: "ceramic", Category: "home", Price: decimal.RequireFromString("7.25"), Image: "https://img/2.png"},
	}
}

type testApp struct {
	e    *echo.Echo
	cart *usecase.CartStore
	page *usecase.PageUsecase
}

func newTestApp(t *testing.T, catalog repository.CatalogRepository) *testApp {
	t.Helper()
	log := zap.NewNop()
	cart := usecase.NewCartStore(log)
	page := usecase.NewPageUsecase(usecase.NewCatalogUsecase(catalog, log), cart, log)

	select {
	case <-page.Mount(context.Background()):
	case <-time.After(2 * time.Second):
		t.Fatal("mount did not settle")
	}
	t.Cleanup(page.Unmount)

	e := echo.New()
	NewPageHandler(page).RegisterRoutes(e)
	NewCartHandler(cart, page).RegisterRoutes(e)
	NewEventsHandler(cart, log).RegisterRoutes(e)
	return &testApp{e: e, cart: cart, page: page}
}

func (a *testApp) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), "body=%s", rec.Body.String())
	return v
}

var errCatalogDown = errors.New("catalog down")
