// Package catalog caches the active categories and products that feed the sale
// form's product pickers.
package catalog

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"salesdesk/api"
)

// Messages surfaced when a fetch fails. The cache stays usable and empty.
const (
	MsgCategoriesFailed = "Error loading categories"
	MsgProductsFailed   = "Error loading products"
)

// Source is the backend view the cache reads from.
type Source interface {
	ListActiveCategories(ctx context.Context) ([]api.Category, error)
	ListActiveProducts(ctx context.Context) ([]api.Product, error)
}

// Cache holds one fetch of the catalog plus the picker's current filter.
// It is safe for concurrent use.
type Cache struct {
	source          Source
	defaultCategory int64
	logger          *zap.Logger

	mu         sync.RWMutex
	categories []api.Category
	products   []api.Product
	byID       map[int64]int
	category   int64
	query      string
	message    string
	loads      int
}

// New creates an empty cache. defaultCategory is applied as the category filter
// on every load; zero means no filter.
func New(source Source, defaultCategory int64, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{
		source:          source,
		defaultCategory: defaultCategory,
		logger:          logger,
		byID:            make(map[int64]int),
	}
}

// Load fetches categories and products concurrently and replaces the cache.
// A failed fetch leaves its list empty, sets Message, and is returned; the
// other fetch still completes.
func (c *Cache) Load(ctx context.Context) error {
	var (
		categories []api.Category
		products   []api.Product
		catErr     error
		prodErr    error
	)

	var g errgroup.Group
	g.Go(func() error {
		categories, catErr = c.source.ListActiveCategories(ctx)
		return nil
	})
	g.Go(func() error {
		products, prodErr = c.source.ListActiveProducts(ctx)
		return nil
	})
	_ = g.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.loads++
	c.message = ""
	c.category = c.defaultCategory
	c.query = ""

	if catErr != nil {
		c.logger.Warn("loading categories failed", zap.Error(catErr))
		categories = nil
		c.message = MsgCategoriesFailed
	}
	if prodErr != nil {
		c.logger.Warn("loading products failed", zap.Error(prodErr))
		products = nil
		c.message = MsgProductsFailed
	}

	c.categories = categories
	c.products = products
	c.byID = make(map[int64]int, len(products))
	for i, p := range products {
		c.byID[p.ID] = i
	}

	c.logger.Debug("catalog loaded",
		zap.Int("categories", len(categories)),
		zap.Int("products", len(products)),
		zap.Int64("default_category", c.defaultCategory),
	)
	return errors.Join(catErr, prodErr)
}

// Reload refetches after the server-side stock has changed.
func (c *Cache) Reload(ctx context.Context) error {
	return c.Load(ctx)
}

// Loads counts completed Load calls.
func (c *Cache) Loads() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loads
}

// Message is the non-fatal error text from the last load, or "".
func (c *Cache) Message() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.message
}

// Categories returns every cached category.
func (c *Cache) Categories() []api.Category {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]api.Category(nil), c.categories...)
}

// Products returns every cached product.
func (c *Cache) Products() []api.Product {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]api.Product(nil), c.products...)
}

// Product looks up a product by id.
func (c *Cache) Product(id int64) (api.Product, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i, ok := c.byID[id]
	if !ok {
		return api.Product{}, false
	}
	return c.products[i], true
}

// AvailableQuantity is the cached stock of a product, zero when unknown.
func (c *Cache) AvailableQuantity(id int64) int {
	p, ok := c.Product(id)
	if !ok {
		return 0
	}
	return p.Quantity
}

// ByCategory returns the products in a category. Zero returns all products.
func (c *Cache) ByCategory(categoryID int64) []api.Product {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return filter(c.products, categoryID, "")
}

// SearchByName returns products whose name contains query, ignoring case.
// An empty query returns all products.
func (c *Cache) SearchByName(query string) []api.Product {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return filter(c.products, 0, query)
}

// SetCategory changes the picker's category filter; zero clears it.
func (c *Cache) SetCategory(categoryID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.category = categoryID
}

// SetQuery changes the picker's name filter.
func (c *Cache) SetQuery(query string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.query = query
}

// Category is the picker's active category filter.
func (c *Cache) Category() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.category
}

// Filtered applies the picker's category and name filters.
func (c *Cache) Filtered() []api.Product {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return filter(c.products, c.category, c.query)
}

func filter(products []api.Product, categoryID int64, query string) []api.Product {
	query = strings.ToLower(strings.TrimSpace(query))
	out := make([]api.Product, 0, len(products))
	for _, p := range products {
		if categoryID != 0 && p.CategoryID != categoryID {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(p.Name), query) {
			continue
		}
		out = append(out, p)
	}
	return out
}
