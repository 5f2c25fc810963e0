package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"salesdesk/api"
	"salesdesk/cart"
	"salesdesk/catalog"
	"salesdesk/customer"
	"salesdesk/pos"
	"salesdesk/pricing"
	"salesdesk/sale"
)

// lineItem is one --item flag: ID:QTY with an optional @PRICE override.
type lineItem struct {
	productID int64
	quantity  int
	price     *decimal.Decimal
}

func parseItem(s string) (lineItem, error) {
	var item lineItem
	body, priceText, hasPrice := strings.Cut(strings.TrimSpace(s), "@")
	idText, qtyText, ok := strings.Cut(body, ":")
	if !ok {
		return item, pos.NewInvalidArgumentf("invalid item %q: want ID:QTY[@PRICE]", s)
	}
	id, err := strconv.ParseInt(idText, 10, 64)
	if err != nil || id <= 0 {
		return item, pos.NewInvalidArgumentf("invalid product id in %q", s)
	}
	qty, err := strconv.Atoi(qtyText)
	if err != nil {
		return item, pos.NewInvalidArgumentf("invalid quantity in %q", s)
	}
	item.productID = id
	item.quantity = qty
	if hasPrice {
		price, err := decimal.NewFromString(priceText)
		if err != nil {
			return item, pos.NewInvalidArgumentf("invalid price in %q", s)
		}
		item.price = &price
	}
	return item, nil
}

func (a *app) saleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sale",
		Short: "Create, list and cancel sales",
	}
	cmd.AddCommand(a.saleNewCmd(), a.saleListCmd(), a.saleShowCmd(), a.saleCancelCmd())
	return cmd
}

func (a *app) saleNewCmd() *cobra.Command {
	var (
		dni    string
		draft  customer.Draft
		items  []string
		pay    string
		dryRun bool
	)
	cmd := &cobra.Command{
		Use:   "new",
		Short: "Register a sale",
		Long: `Builds a sale for the client with --dni and submits it. When the DNI is not
registered the client is created first from --name, --address and the optional
--email and --phone.

Items are ID:QTY, optionally ID:QTY@PRICE to override the unit price. Quantities
above the available stock are reduced to it.`,
		Example: `  salesdesk sale new --dni 12345678 --item 7:3 --item 8:1@4.00 --pay YAPE`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cache := catalog.New(a.client, a.cfg.Catalog.DefaultCategoryID, a.logger)
			if err := cache.Load(ctx); err != nil {
				fmt.Fprintln(a.out, warningStyle.Render(cache.Message()))
			}

			assembler := sale.NewAssembler(a.session, a.client, cache, cart.New(),
				customer.NewResolver(a.client, a.logger),
				sale.WithLogger(a.logger),
				sale.WithDefaultPaymentMethod(a.cfg.PaymentMethod()),
			)

			resolver := assembler.Resolver()
			if err := resolver.Search(ctx, dni); err != nil {
				return err
			}
			switch resolver.State() {
			case customer.Found:
				c, _ := resolver.Client()
				fmt.Fprintf(a.out, "Client: %s (DNI %s)\n", c.Name, c.DNI)
			case customer.Registering:
				draft.DNI = dni
				if err := resolver.UpdateDraft(draft); err != nil {
					return err
				}
				fmt.Fprintf(a.out, "New client: %s (DNI %s)\n", draft.Name, dni)
			}

			if err := a.fillCart(assembler.Cart(), cache, items); err != nil {
				return err
			}
			if pay != "" {
				if err := assembler.SetPaymentMethod(sale.PaymentMethod(pay)); err != nil {
					return err
				}
			}

			fmt.Fprint(a.out, cartSummary(assembler.Cart(), assembler.Totals(), assembler.PaymentMethod()))

			if dryRun {
				if _, err := assembler.Check(); err != nil {
					return err
				}
				fmt.Fprintln(a.out, successStyle.Render("Sale is ready to submit"))
				return nil
			}

			res, err := assembler.Submit(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, successStyle.Render(res.Message))
			fmt.Fprintln(a.out, sale.FormatReceipt(res))
			return nil
		},
	}
	cmd.Flags().StringVar(&dni, "dni", "", "Client DNI, 8 digits (required)")
	cmd.Flags().StringVar(&draft.Name, "name", "", "New client name")
	cmd.Flags().StringVar(&draft.Email, "email", "", "New client email")
	cmd.Flags().StringVar(&draft.Phone, "phone", "", "New client phone, 9 digits")
	cmd.Flags().StringVar(&draft.Address, "address", "", "New client address")
	cmd.Flags().StringArrayVar(&items, "item", nil, "Line item ID:QTY[@PRICE], repeatable (required)")
	cmd.Flags().StringVar(&pay, "pay", "", "Payment method: EFECTIVO, TARJETA, YAPE, PLIN or TRANSFERENCIA")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Validate without submitting")
	_ = cmd.MarkFlagRequired("dni")
	_ = cmd.MarkFlagRequired("item")
	return cmd
}

func (a *app) fillCart(c *cart.Cart, cache *catalog.Cache, items []string) error {
	for _, raw := range items {
		item, err := parseItem(raw)
		if err != nil {
			return err
		}
		p, ok := cache.Product(item.productID)
		if !ok {
			return pos.NewInvalidArgumentf("product %d is not in the active catalog", item.productID)
		}
		if item.quantity > p.Quantity {
			fmt.Fprintln(a.out, warningStyle.Render(fmt.Sprintf("Only %d of %s available", p.Quantity, p.Name)))
		}
		if err := c.AddOrIncrement(p, item.quantity); err != nil {
			return err
		}
		a.logger.Debug("line added", zap.Int64("product_id", p.ID), zap.Int("quantity", item.quantity))
		if item.price == nil {
			continue
		}
		for i, l := range c.Lines() {
			if l.ProductID == p.ID {
				if err := c.SetUnitPrice(i, *item.price); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func cartSummary(c *cart.Cart, totals pricing.Totals, pay sale.PaymentMethod) string {
	rows := make([][]string, 0, c.Len())
	for _, l := range c.Lines() {
		rows = append(rows, []string{
			l.Name,
			strconv.Itoa(l.Quantity),
			"S/. " + l.UnitPrice.StringFixed(2),
			"S/. " + l.Subtotal.StringFixed(2),
		})
	}
	t := totals.Rounded()
	var b strings.Builder
	b.WriteString(renderTable([]string{"PRODUCT", "QTY", "PRICE", "SUBTOTAL"}, rows))
	fmt.Fprintf(&b, "Net: S/. %s  IGV: S/. %s  Total: S/. %s  Payment: %s\n",
		t.Net.StringFixed(2), t.Tax.StringFixed(2), t.Grand.StringFixed(2), pay)
	return b.String()
}

func (a *app) saleListCmd() *cobra.Command {
	var (
		today    bool
		clientID int64
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List sales",
		RunE: func(cmd *cobra.Command, args []string) error {
			h := sale.NewHistory(a.client, a.logger)
			var (
				sales []api.Sale
				err   error
			)
			switch {
			case cmd.Flags().Changed("client"):
				sales, err = h.ByClient(cmd.Context(), clientID)
			case today:
				sales, err = h.Today(cmd.Context())
			default:
				sales, err = h.List(cmd.Context())
			}
			if err != nil {
				return err
			}
			if len(sales) == 0 {
				fmt.Fprintln(a.out, mutedStyle.Render("No sales"))
				return nil
			}
			rows := make([][]string, 0, len(sales))
			for _, s := range sales {
				client := strconv.FormatInt(s.ClientID, 10)
				if s.Client != nil {
					client = s.Client.Name
				}
				rows = append(rows, []string{
					strconv.FormatInt(s.ID, 10),
					s.Date,
					client,
					s.PaymentMethod,
					s.Status,
					"S/. " + s.Total.StringFixed(2),
				})
			}
			fmt.Fprint(a.out, renderTable([]string{"ID", "DATE", "CLIENT", "PAYMENT", "STATUS", "TOTAL"}, rows))
			return nil
		},
	}
	cmd.Flags().BoolVar(&today, "today", false, "Only today's sales")
	cmd.Flags().Int64Var(&clientID, "client", 0, "Only sales of this client id")
	cmd.MarkFlagsMutuallyExclusive("today", "client")
	return cmd
}

func parseSaleID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, pos.NewInvalidArgumentf("invalid sale id %q", s)
	}
	return id, nil
}

func (a *app) saleShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show one sale",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseSaleID(args[0])
			if err != nil {
				return err
			}
			s, err := sale.NewHistory(a.client, a.logger).Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, sale.FormatReceipt(receiptOf(s)))
			fmt.Fprintf(a.out, "Status: %s\n", s.Status)
			return nil
		},
	}
}

func (a *app) saleCancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel ID",
		Short: "Cancel a sale and return its stock",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseSaleID(args[0])
			if err != nil {
				return err
			}
			s, err := sale.NewHistory(a.client, a.logger).Cancel(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, successStyle.Render(fmt.Sprintf("Sale #%d cancelled (status %s)", s.ID, s.Status)))
			return nil
		},
	}
}

// receiptOf rebuilds receipt input from a stored sale.
func receiptOf(s api.Sale) sale.Result {
	res := sale.Result{
		Sale:          s,
		PaymentMethod: sale.PaymentMethod(s.PaymentMethod),
		Totals:        pricing.Breakdown(s.Total),
	}
	if s.Client != nil {
		res.Client = *s.Client
	}
	for _, l := range s.Lines {
		name := fmt.Sprintf("product %d", l.ProductID)
		if l.Product != nil && l.Product.Name != "" {
			name = l.Product.Name
		}
		res.Lines = append(res.Lines, cart.Line{
			ProductID: l.ProductID,
			Name:      name,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			Subtotal:  l.Subtotal,
		})
	}
	return res
}
