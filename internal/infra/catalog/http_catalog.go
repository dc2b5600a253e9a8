package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"storefront/internal/domain/model"
)

// 外部カタログAPI（Fake Store API形式）を読むリポジトリ。
//
//	GET {base}/products             -> []product
//	GET {base}/products/categories  -> []string
type HTTPCatalogRepository struct {
	baseURL string
	client  *http.Client
}

// DI
func NewHTTPCatalogRepository(baseURL string, timeout time.Duration) *HTTPCatalogRepository {
	return NewHTTPCatalogRepositoryWithClient(baseURL, &http.Client{Timeout: timeout})
}

func NewHTTPCatalogRepositoryWithClient(baseURL string, client *http.Client) *HTTPCatalogRepository {
	return &HTTPCatalogRepository{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

func (r *HTTPCatalogRepository) GetAllProducts(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	if err := r.getJSON(ctx, "/products", &products); err != nil {
		return nil, err
	}
	if products == nil {
		products = []model.Product{}
	}
	for _, p := range products {
		if p.Price.IsNegative() {
			return nil, fmt.Errorf("catalog: product %d has negative price", p.ID)
		}
	}
	return products, nil
}

func (r *HTTPCatalogRepository) GetCategories(ctx context.Context) ([]string, error) {
	var cats []string
	if err := r.getJSON(ctx, "/products/categories", &cats); err != nil {
		return nil, err
	}
	if cats == nil {
		cats = []string{}
	}
	return cats, nil
}

func (r *HTTPCatalogRepository) getJSON(ctx context.Context, path string, dst any) error {
	endpoint, err := url.JoinPath(r.baseURL, path)
	if err != nil {
		return fmt.Errorf("catalog: build url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("catalog: new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	res, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("catalog: GET %s: %w", path, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		// 本文は読み捨てて接続を再利用させる
		_, _ = io.Copy(io.Discard, res.Body)
		return fmt.Errorf("catalog: GET %s: unexpected status %d", path, res.StatusCode)
	}

	if err := json.NewDecoder(res.Body).Decode(dst); err != nil {
		return fmt.Errorf("catalog: decode %s: %w", path, err)
	}
	return nil
}
