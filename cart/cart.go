// Package cart is the in-progress sale: an ordered list of product lines whose
// subtotals always follow quantity and unit price.
package cart

import (
	"fmt"

	"github.com/shopspring/decimal"

	"salesdesk/api"
	"salesdesk/pos"
)

// Line is one entry of the cart. ProductID is zero until a product is selected.
type Line struct {
	ProductID int64
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
	Subtotal  decimal.Decimal
}

// HasProduct reports whether a product has been chosen for the line.
func (l Line) HasProduct() bool {
	return l.ProductID != 0
}

// StockSource resolves the latest known state of a product.
type StockSource interface {
	Product(id int64) (api.Product, bool)
}

// Cart holds the lines of one sale in display order.
// It is not safe for concurrent use.
type Cart struct {
	lines []Line
}

// New creates an empty cart.
func New() *Cart {
	return &Cart{}
}

// AddOrIncrement adds qty units of p. The quantity is clamped to the product's
// available stock; zero is a no-op. When p already has a line its quantity grows,
// and the call is rejected, leaving the line unchanged, if the result would
// exceed the available stock.
func (c *Cart) AddOrIncrement(p api.Product, qty int) error {
	if p.ID == 0 {
		return pos.NewInvalidArgument(ErrMsgProductRequired)
	}
	qty = clamp(qty, 0, p.Quantity)
	if qty == 0 {
		return nil
	}

	if i := c.indexOf(p.ID); i >= 0 {
		line := &c.lines[i]
		if line.Quantity+qty > p.Quantity {
			return pos.NewFailedPreconditionf(ErrMsgInsufficientStock, p.Name, p.Quantity)
		}
		line.Quantity += qty
		recomputeLine(line)
		return nil
	}

	line := Line{
		ProductID: p.ID,
		Name:      p.Name,
		Quantity:  qty,
		UnitPrice: p.SalePrice,
	}
	recomputeLine(&line)
	c.lines = append(c.lines, line)
	return nil
}

// AddLine appends a line with no product and quantity 1, returning its index.
func (c *Cart) AddLine() int {
	c.lines = append(c.lines, Line{Quantity: 1})
	return len(c.lines) - 1
}

// SelectProduct sets the product of line i and resets its unit price to the
// product's sale price. A product may appear on one line only.
func (c *Cart) SelectProduct(i int, p api.Product) error {
	line, err := c.line(i)
	if err != nil {
		return err
	}
	if p.ID == 0 {
		return pos.NewInvalidArgument(ErrMsgProductRequired)
	}
	if j := c.indexOf(p.ID); j >= 0 && j != i {
		return pos.NewFailedPreconditionf(ErrMsgProductInCart, p.Name)
	}

	line.ProductID = p.ID
	line.Name = p.Name
	line.UnitPrice = p.SalePrice
	if line.Quantity < 1 {
		line.Quantity = 1
	}
	recomputeLine(line)
	return nil
}

// SetQuantity changes the quantity of line i. Values below 1 are rejected.
func (c *Cart) SetQuantity(i, qty int) error {
	line, err := c.line(i)
	if err != nil {
		return err
	}
	if err := pos.RequirePositive(qty, ErrMsgQuantityPositive); err != nil {
		return err
	}
	line.Quantity = qty
	recomputeLine(line)
	return nil
}

// SetUnitPrice changes the unit price of line i. Non-positive prices and
// fractions of a cent are rejected.
func (c *Cart) SetUnitPrice(i int, price decimal.Decimal) error {
	line, err := c.line(i)
	if err != nil {
		return err
	}
	if err := pos.RequirePositiveAmount(price, ErrMsgPricePositive); err != nil {
		return err
	}
	if !isCents(price) {
		return pos.NewInvalidArgument(ErrMsgPricePrecision)
	}
	line.UnitPrice = price
	recomputeLine(line)
	return nil
}

// Remove deletes line i.
func (c *Cart) Remove(i int) error {
	if _, err := c.line(i); err != nil {
		return err
	}
	c.lines = append(c.lines[:i], c.lines[i+1:]...)
	return nil
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.lines = nil
}

// Total is the sum of all line subtotals.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.lines {
		total = total.Add(l.Subtotal)
	}
	return total
}

// Lines returns a copy of the lines in display order.
func (c *Cart) Lines() []Line {
	return append([]Line(nil), c.lines...)
}

// Line returns line i.
func (c *Cart) Line(i int) (Line, bool) {
	if i < 0 || i >= len(c.lines) {
		return Line{}, false
	}
	return c.lines[i], true
}

// Len is the number of lines.
func (c *Cart) Len() int {
	return len(c.lines)
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.lines) == 0
}

// Incomplete returns the first structural problem in the cart, or nil.
// Line numbers in messages are 1-based.
func (c *Cart) Incomplete() error {
	if len(c.lines) == 0 {
		return pos.NewFailedPrecondition(ErrMsgCartEmpty)
	}
	for i, l := range c.lines {
		n := i + 1
		switch {
		case !l.HasProduct():
			return pos.NewFailedPreconditionf(ErrMsgLineNoProduct, n)
		case l.Quantity < 1:
			return pos.NewFailedPreconditionf(ErrMsgLineQuantity, n)
		case !l.UnitPrice.IsPositive(), !isCents(l.UnitPrice):
			return pos.NewFailedPreconditionf(ErrMsgLinePrice, n)
		case !l.Subtotal.Equal(subtotal(l)):
			return pos.NewFailedPreconditionf(ErrMsgLineSubtotal, n)
		}
	}
	return nil
}

// IsComplete reports whether the cart is non-empty and every line is valid.
func (c *Cart) IsComplete() bool {
	return c.Incomplete() == nil
}

// ValidateStock checks every line against the latest stock in src and reports
// the first line asking for more than is available. Unknown products count as
// having no stock.
func (c *Cart) ValidateStock(src StockSource) error {
	for _, l := range c.lines {
		if !l.HasProduct() {
			continue
		}
		p, ok := src.Product(l.ProductID)
		available := 0
		name := l.Name
		if ok {
			available = p.Quantity
			if p.Name != "" {
				name = p.Name
			}
		}
		if name == "" {
			name = fmt.Sprintf(ErrMsgUnknownProductName, l.ProductID)
		}
		if l.Quantity > available {
			return pos.NewFailedPreconditionf(ErrMsgInsufficientStock, name, available)
		}
	}
	return nil
}

func (c *Cart) line(i int) (*Line, error) {
	if i < 0 || i >= len(c.lines) {
		return nil, pos.NewInvalidArgument(ErrMsgLineNotFound)
	}
	return &c.lines[i], nil
}

func (c *Cart) indexOf(productID int64) int {
	for i, l := range c.lines {
		if l.ProductID == productID {
			return i
		}
	}
	return -1
}

func recomputeLine(l *Line) {
	l.Subtotal = subtotal(*l)
}

func subtotal(l Line) decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		hi = lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// isCents reports whether d has at most two decimal places.
func isCents(d decimal.Decimal) bool {
	return d.Equal(d.Round(2))
}
