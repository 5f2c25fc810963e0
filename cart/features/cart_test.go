package features

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"salesdesk/api"
	"salesdesk/cart"
	"salesdesk/pos"

	"github.com/cucumber/godog"
	"github.com/shopspring/decimal"
)

type cartTestContext struct {
	cart     *cart.Cart
	products map[int64]api.Product
	err      error
}

func (c *cartTestContext) reset() {
	c.cart = cart.New()
	c.products = make(map[int64]api.Product)
	c.err = nil
}

func (c *cartTestContext) Product(id int64) (api.Product, bool) {
	p, ok := c.products[id]
	return p, ok
}

func (c *cartTestContext) aProductPricedWithInStock(id int64, name, price string, stock int) error {
	c.products[id] = api.Product{
		ID:        id,
		Name:      name,
		Quantity:  stock,
		SalePrice: decimal.RequireFromString(price),
	}
	return nil
}

func (c *cartTestContext) product(id int64) (api.Product, error) {
	p, ok := c.products[id]
	if !ok {
		return api.Product{}, fmt.Errorf("product %d not seeded", id)
	}
	return p, nil
}

func (c *cartTestContext) iAddOfProduct(qty int, id int64) error {
	p, err := c.product(id)
	if err != nil {
		return err
	}
	c.err = c.cart.AddOrIncrement(p, qty)
	return nil
}

func (c *cartTestContext) iAddABlankLine() error {
	c.cart.AddLine()
	return nil
}

func (c *cartTestContext) iSelectProductOnLine(id int64, line int) error {
	p, err := c.product(id)
	if err != nil {
		return err
	}
	c.err = c.cart.SelectProduct(line-1, p)
	return nil
}

func (c *cartTestContext) iSetTheQuantityOfLineTo(line, qty int) error {
	c.err = c.cart.SetQuantity(line-1, qty)
	return nil
}

func (c *cartTestContext) iSetTheUnitPriceOfLineTo(line int, price string) error {
	c.err = c.cart.SetUnitPrice(line-1, decimal.RequireFromString(price))
	return nil
}

func (c *cartTestContext) iRemoveLine(line int) error {
	c.err = c.cart.Remove(line - 1)
	return nil
}

func (c *cartTestContext) theStockOfProductDropsTo(id int64, stock int) error {
	p, err := c.product(id)
	if err != nil {
		return err
	}
	p.Quantity = stock
	c.products[id] = p
	return nil
}

func (c *cartTestContext) theCartHasLines(n int) error {
	if c.cart.Len() != n {
		return fmt.Errorf("expected %d lines, got %d", n, c.cart.Len())
	}
	return nil
}

func (c *cartTestContext) theCartIsEmpty() error {
	if !c.cart.IsEmpty() {
		return fmt.Errorf("expected empty cart, got %d lines", c.cart.Len())
	}
	return nil
}

func (c *cartTestContext) lineHasQuantityAndUnitPrice(line, qty int, price string) error {
	l, ok := c.cart.Line(line - 1)
	if !ok {
		return fmt.Errorf("line %d does not exist", line)
	}
	if l.Quantity != qty {
		return fmt.Errorf("expected quantity %d, got %d", qty, l.Quantity)
	}
	if !l.UnitPrice.Equal(decimal.RequireFromString(price)) {
		return fmt.Errorf("expected unit price %s, got %s", price, l.UnitPrice)
	}
	return nil
}

func (c *cartTestContext) lineHasSubtotal(line int, subtotal string) error {
	l, ok := c.cart.Line(line - 1)
	if !ok {
		return fmt.Errorf("line %d does not exist", line)
	}
	if !l.Subtotal.Equal(decimal.RequireFromString(subtotal)) {
		return fmt.Errorf("expected subtotal %s, got %s", subtotal, l.Subtotal)
	}
	return nil
}

func (c *cartTestContext) theCartTotalIs(total string) error {
	if got := c.cart.Total(); !got.Equal(decimal.RequireFromString(total)) {
		return fmt.Errorf("expected total %s, got %s", total, got.StringFixed(2))
	}
	return nil
}

func (c *cartTestContext) theCartIsComplete() error {
	if err := c.cart.Incomplete(); err != nil {
		return fmt.Errorf("expected complete cart: %v", err)
	}
	return nil
}

func (c *cartTestContext) theCartIsNotComplete() error {
	if c.cart.IsComplete() {
		return errors.New("expected incomplete cart")
	}
	return nil
}

func (c *cartTestContext) stockValidationFailsWith(message string) error {
	err := c.cart.ValidateStock(c)
	if err == nil {
		return errors.New("expected stock validation to fail")
	}
	if err.Error() != message {
		return fmt.Errorf("expected %q, got %q", message, err.Error())
	}
	return nil
}

func (c *cartTestContext) theCommandFailsWithStatus(statusName string) error {
	if c.err == nil {
		return errors.New("expected command to fail but it succeeded")
	}
	cmdErr := pos.AsCommandError(c.err)
	if cmdErr == nil {
		return fmt.Errorf("expected CommandError, got %T", c.err)
	}
	if cmdErr.Code.String() != statusName {
		return fmt.Errorf("expected status %s, got %s", statusName, cmdErr.Code.String())
	}
	return nil
}

func (c *cartTestContext) theErrorMessageContains(substring string) error {
	if c.err == nil {
		return errors.New("expected error but command succeeded")
	}
	if !strings.Contains(strings.ToLower(c.err.Error()), strings.ToLower(substring)) {
		return fmt.Errorf("expected error message to contain %q, got %q", substring, c.err.Error())
	}
	return nil
}

func InitializeScenario(ctx *godog.ScenarioContext) {
	tc := &cartTestContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		tc.reset()
		return ctx, nil
	})

	// Given steps
	ctx.Step(`^a product (\d+) "([^"]*)" priced ([\d.]+) with (\d+) in stock$`, tc.aProductPricedWithInStock)

	// When steps
	ctx.Step(`^I add (\d+) of product (\d+)$`, tc.iAddOfProduct)
	ctx.Step(`^I add a blank line$`, tc.iAddABlankLine)
	ctx.Step(`^I select product (\d+) on line (\d+)$`, tc.iSelectProductOnLine)
	ctx.Step(`^I set the quantity of line (\d+) to (-?\d+)$`, tc.iSetTheQuantityOfLineTo)
	ctx.Step(`^I set the unit price of line (\d+) to (-?[\d.]+)$`, tc.iSetTheUnitPriceOfLineTo)
	ctx.Step(`^I remove line (\d+)$`, tc.iRemoveLine)
	ctx.Step(`^the stock of product (\d+) drops to (\d+)$`, tc.theStockOfProductDropsTo)

	// Then steps
	ctx.Step(`^the cart has (\d+) lines?$`, tc.theCartHasLines)
	ctx.Step(`^the cart is empty$`, tc.theCartIsEmpty)
	ctx.Step(`^line (\d+) has quantity (\d+) and unit price ([\d.]+)$`, tc.lineHasQuantityAndUnitPrice)
	ctx.Step(`^line (\d+) has subtotal ([\d.]+)$`, tc.lineHasSubtotal)
	ctx.Step(`^the cart total is ([\d.]+)$`, tc.theCartTotalIs)
	ctx.Step(`^the cart is complete$`, tc.theCartIsComplete)
	ctx.Step(`^the cart is not complete$`, tc.theCartIsNotComplete)
	ctx.Step(`^stock validation fails with "([^"]*)"$`, tc.stockValidationFailsWith)
	ctx.Step(`^the command fails with status "([^"]*)"$`, tc.theCommandFailsWithStatus)
	ctx.Step(`^the error message contains "([^"]*)"$`, tc.theErrorMessageContains)
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"../../features/cart.feature"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
