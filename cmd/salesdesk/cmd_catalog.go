package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"salesdesk/api"
	"salesdesk/catalog"
)

func (a *app) categoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List active categories",
		RunE: func(cmd *cobra.Command, args []string) error {
			categories, err := a.client.ListActiveCategories(cmd.Context())
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(categories))
			for _, c := range categories {
				rows = append(rows, []string{strconv.FormatInt(c.ID, 10), c.Name, c.Description})
			}
			fmt.Fprint(a.out, renderTable([]string{"ID", "NAME", "DESCRIPTION"}, rows))
			return nil
		},
	}
}

func (a *app) catalogCmd() *cobra.Command {
	var (
		category int64
		all      bool
		search   string
		lowStock bool
	)
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List active products",
		Long: `Lists active products, filtered by the configured default category unless
--category or --all is given. --low-stock asks the server for products at or
below their minimum stock instead.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if lowStock {
				products, err := a.client.LowStockProducts(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprint(a.out, productTable(products))
				return nil
			}

			cache := catalog.New(a.client, a.cfg.Catalog.DefaultCategoryID, a.logger)
			if err := cache.Load(cmd.Context()); err != nil {
				fmt.Fprintln(a.out, warningStyle.Render(cache.Message()))
			}
			if cmd.Flags().Changed("category") {
				cache.SetCategory(category)
			}
			if all {
				cache.SetCategory(0)
			}
			cache.SetQuery(search)

			products := cache.Filtered()
			if len(products) == 0 {
				fmt.Fprintln(a.out, mutedStyle.Render("No products match"))
				return nil
			}
			fmt.Fprint(a.out, productTable(products))
			return nil
		},
	}
	cmd.Flags().Int64Var(&category, "category", 0, "Category id to list (0 for all)")
	cmd.Flags().BoolVar(&all, "all", false, "Ignore the default category")
	cmd.Flags().StringVar(&search, "search", "", "Case-insensitive name filter")
	cmd.Flags().BoolVar(&lowStock, "low-stock", false, "Only products at or below minimum stock")
	cmd.MarkFlagsMutuallyExclusive("category", "all")
	return cmd
}

func productTable(products []api.Product) string {
	rows := make([][]string, 0, len(products))
	for _, p := range products {
		rows = append(rows, []string{
			strconv.FormatInt(p.ID, 10),
			p.Name,
			strconv.FormatInt(p.CategoryID, 10),
			"S/. " + p.SalePrice.StringFixed(2),
			strconv.Itoa(p.Quantity),
		})
	}
	return renderTable([]string{"ID", "NAME", "CATEGORY", "PRICE", "STOCK"}, rows)
}
