package usecase

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const (
	timeout = 2 * time.Second
	tick    = 5 * time.Millisecond
)

// 呼び出し側が結果を流し込むまで返らないカタログ
type gatedCatalog struct {
	products   chan productsResult
	categories chan categoriesResult
}

type productsResult struct {
	items []model.Product
	err   error
}

type categoriesResult struct {
	items []string
	err   error
}

func newGatedCatalog() *gatedCatalog {
	return &gatedCatalog{
		products:   make(chan productsResult, 1),
		categories: make(chan categoriesResult, 1),
	}
}

func (g *gatedCatalog) GetAllProducts(ctx context.Context) ([]model.Product, error) {
	select {
	case r := <-g.products:
		return r.items, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (g *gatedCatalog) GetCategories(ctx context.Context) ([]string, error) {
	select {
	case r := <-g.categories:
		return r.items, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func storeCatalog() []model.Product {
	shirt := product(1, "15.50")
	shirt.Title, shirt.Description, shirt.Category = "Red Shirt", "soft cotton", "clothing"
	mug := product(2, "8")
	mug.Title, mug.Description, mug.Category = "Blue Mug", "ceramic", "home"
	return []model.Product{shirt, mug}
}

func newTestPage(t *testing.T, catalog *gatedCatalog) (*PageUsecase, *CartStore) {
	t.Helper()
	log := zaptest.NewLogger(t)
	cart := NewCartStore(log)
	return NewPageUsecase(NewCatalogUsecase(catalog, log), cart, log), cart
}

func waitDone(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(timeout):
		t.Fatal("catalog load did not settle")
	}
}

func mountReady(t *testing.T) (*PageUsecase, *CartStore) {
	t.Helper()
	catalog := newGatedCatalog()
	page, cart := newTestPage(t, catalog)
	catalog.products <- productsResult{items: storeCatalog()}
	catalog.categories <- categoriesResult{items: []string{"clothing", "home"}}
	waitDone(t, page.Mount(context.Background()))
	require.Equal(t, LoadStatusReady, page.View().Status)
	return page, cart
}

func TestPageUsecase_LoadingThenReady(t *testing.T) {
	catalog := newGatedCatalog()
	page, _ := newTestPage(t, catalog)

	done := page.Mount(context.Background())
	v := page.View()
	assert.Equal(t, LoadStatusLoading, v.Status)
	assert.Nil(t, v.Products)
	assert.True(t, v.CategoriesLoading)

	catalog.categories <- categoriesResult{items: []string{"clothing", "home"}}
	catalog.products <- productsResult{items: storeCatalog()}
	waitDone(t, done)

	v = page.View()
	assert.Equal(t, LoadStatusReady, v.Status)
	assert.Len(t, v.Products, 2)
	assert.Equal(t, []string{"clothing", "home"}, v.Categories)
	assert.False(t, v.CategoriesLoading)
	assert.Equal(t, "All Products", v.Heading)
}

func TestPageUsecase_ProductsErrorIsErrorState(t *testing.T) {
	catalog := newGatedCatalog()
	page, cart := newTestPage(t, catalog)
	cart.AddItem(product(9, "1"))

	catalog.products <- productsResult{err: errors.New("502")}
	catalog.categories <- categoriesResult{items: []string{"home"}}
	waitDone(t, page.Mount(context.Background()))

	v := page.View()
	assert.Equal(t, LoadStatusError, v.Status)
	assert.Error(t, v.Err)
	assert.Nil(t, v.Products)
	// カートは影響を受けない
	assert.Len(t, cart.Snapshot().Items, 1)
}

func TestPageUsecase_CategoriesErrorIsNotFatal(t *testing.T) {
	catalog := newGatedCatalog()
	page, _ := newTestPage(t, catalog)

	catalog.products <- productsResult{items: storeCatalog()}
	catalog.categories <- categoriesResult{err: errors.New("timeout")}
	waitDone(t, page.Mount(context.Background()))

	v := page.View()
	assert.Equal(t, LoadStatusReady, v.Status)
	assert.Empty(t, v.Categories)
	assert.False(t, v.CategoriesLoading)
}

func TestPageUsecase_Filter(t *testing.T) {
	page, _ := mountReady(t)

	page.SetSearch("shirt")
	v := page.View()
	require.Len(t, v.Products, 1)
	assert.Equal(t, "Red Shirt", v.Products[0].Title)

	page.SetSearch("")
	page.SetCategory("home")
	v = page.View()
	require.Len(t, v.Products, 1)
	assert.Equal(t, "Blue Mug", v.Products[0].Title)
	assert.Equal(t, "home Products", v.Heading)

	page.SetFilter(model.ProductFilter{Search: "shirt", Category: "home"})
	v = page.View()
	assert.Equal(t, LoadStatusReady, v.Status, "no matches is still ready, not loading")
	assert.NotNil(t, v.Products)
	assert.Empty(t, v.Products)

	page.SetFilter(model.ProductFilter{})
	assert.Len(t, page.View().Products, 2)
}

func TestPageUsecase_CartUsableWhileLoading(t *testing.T) {
	catalog := newGatedCatalog()
	page, cart := newTestPage(t, catalog)
	done := page.Mount(context.Background())

	cart.AddItem(product(5, "3"))
	cart.OpenCart()
	assert.Equal(t, LoadStatusLoading, page.View().Status)
	assert.Equal(t, 1, cart.Snapshot().ItemCount())

	catalog.products <- productsResult{items: storeCatalog()}
	catalog.categories <- categoriesResult{items: nil}
	waitDone(t, done)
}

func TestPageUsecase_UnmountDiscardsInFlightFetch(t *testing.T) {
	catalog := newGatedCatalog()
	page, _ := newTestPage(t, catalog)

	done := page.Mount(context.Background())
	page.Unmount()
	waitDone(t, done)

	// 破棄された取得の結果は反映されない
	assert.Equal(t, LoadStatusLoading, page.View().Status)
}

func TestPageUsecase_RemountReusesCache(t *testing.T) {
	page, _ := mountReady(t)
	page.SetSearch("mug")

	// 2回目は gatedCatalog に何も流さなくてもキャッシュから読み込める
	waitDone(t, page.Mount(context.Background()))
	v := page.View()
	assert.Equal(t, LoadStatusReady, v.Status)
	assert.Equal(t, "", v.Search, "mount starts from a fresh page")
	assert.Len(t, v.Products, 2)
}

func TestPageUsecase_RemountWhileLoading(t *testing.T) {
	catalog := newGatedCatalog()
	page, _ := newTestPage(t, catalog)

	// 1回目の取得が終わる前にもう一度Mountしても、2回目は取り消された取得に巻き込まれない
	first := page.Mount(context.Background())
	second := page.Mount(context.Background())

	catalog.products <- productsResult{items: storeCatalog()}
	catalog.categories <- categoriesResult{items: []string{"clothing", "home"}}
	waitDone(t, first)
	waitDone(t, second)

	v := page.View()
	assert.Equal(t, LoadStatusReady, v.Status)
	assert.NoError(t, v.Err)
	assert.Len(t, v.Products, 2)
	assert.Equal(t, []string{"clothing", "home"}, v.Categories)
	assert.False(t, v.CategoriesLoading)
}

func TestPageUsecase_Reload(t *testing.T) {
	catalog := newGatedCatalog()
	page, _ := newTestPage(t, catalog)
	catalog.products <- productsResult{err: errors.New("502")}
	catalog.categories <- categoriesResult{items: []string{"home"}}
	waitDone(t, page.Mount(context.Background()))
	require.Equal(t, LoadStatusError, page.View().Status)

	catalog.products <- productsResult{items: storeCatalog()}
	catalog.categories <- categoriesResult{items: []string{"clothing", "home"}}
	waitDone(t, page.Reload(context.Background()))

	v := page.View()
	assert.Equal(t, LoadStatusReady, v.Status)
	assert.Equal(t, []string{"clothing", "home"}, v.Categories, "categories are fetched again")
}

func TestPageUsecase_DetailSelection(t *testing.T) {
	page, _ := mountReady(t)

	p, err := page.ViewDetails(2)
	require.NoError(t, err)
	assert.Equal(t, "Blue Mug", p.Title)
	require.NotNil(t, page.View().Selected)
	assert.Equal(t, int64(2), page.View().Selected.ID)

	_, err = page.ViewDetails(1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.View().Selected.ID, "only one product is inspected at a time")

	page.CloseDetails()
	assert.Nil(t, page.View().Selected)

	_, err = page.ViewDetails(404)
	assert.ErrorIs(t, err, repo.ErrNotFound)
	assert.Nil(t, page.View().Selected)

	_, err = page.ViewDetails(0)
	he, ok := AsHTTPError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, he.Status)
}

func TestPageUsecase_AddSelectedToCart_AddsThenCloses(t *testing.T) {
	page, cart := mountReady(t)

	notified := 0
	cart.Subscribe(func(model.CartState) { notified++ })

	_, err := page.ViewDetails(1)
	require.NoError(t, err)

	p, err := page.AddSelectedToCart()
	require.NoError(t, err)
	assert.Equal(t, int64(1), p.ID)

	assert.Nil(t, page.View().Selected)
	assert.Equal(t, 1, notified)
	it, ok := cart.Snapshot().Find(1)
	require.True(t, ok)
	assert.Equal(t, 1, it.Quantity)

	_, err = page.AddSelectedToCart()
	he, ok := AsHTTPError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, he.Status)
	assert.Equal(t, 1, cart.Snapshot().ItemCount())
}

func TestPageUsecase_AddToCart(t *testing.T) {
	page, cart := mountReady(t)

	_, err := page.ViewDetails(2)
	require.NoError(t, err)

	_, err = page.AddToCart(1)
	require.NoError(t, err)
	_, err = page.AddToCart(1)
	require.NoError(t, err)

	it, _ := cart.Snapshot().Find(1)
	assert.Equal(t, 2, it.Quantity)
	assert.NotNil(t, page.View().Selected, "card add keeps the detail view as is")

	_, err = page.AddToCart(77)
	assert.ErrorIs(t, err, repo.ErrNotFound)
}

func TestPageUsecase_AddToCart_NotReady(t *testing.T) {
	catalog := newGatedCatalog()
	page, _ := newTestPage(t, catalog)
	done := page.Mount(context.Background())

	_, err := page.AddToCart(1)
	assert.ErrorIs(t, err, repo.ErrNotFound)

	page.Unmount()
	waitDone(t, done)
}

func TestPageUsecase_CartListenerCanReadPage(t *testing.T) {
	page, cart := mountReady(t)

	// リスナーからページを読んでもデッドロックしない
	var seen []int
	var selectedDuringAdd []bool
	cart.Subscribe(func(model.CartState) {
		v := page.View()
		seen = append(seen, len(v.Products))
		selectedDuringAdd = append(selectedDuringAdd, v.Selected != nil)
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := page.AddToCart(1)
		assert.NoError(t, err)
		_, err = page.ViewDetails(2)
		assert.NoError(t, err)
		_, err = page.AddSelectedToCart()
		assert.NoError(t, err)
	}()

	select {
	case <-done:
	case <-time.After(timeout):
		t.Fatal("add to cart blocked on the page lock")
	}
	assert.Equal(t, []int{2, 2}, seen)
	// 詳細からの追加は、追加が先で閉じるのが後
	assert.Equal(t, []bool{false, true}, selectedDuringAdd)
	assert.Nil(t, page.View().Selected)
	assert.Equal(t, 2, cart.Snapshot().ItemCount())
}
