package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"salesdesk/customer"
)

func (a *app) clientCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "client",
		Short: "Client lookups",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "lookup DNI",
		Short: "Find a client by DNI",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r := customer.NewResolver(a.client, a.logger)
			if err := r.Search(cmd.Context(), args[0]); err != nil {
				return err
			}
			if r.State() == customer.Registering {
				fmt.Fprintln(a.out, warningStyle.Render(fmt.Sprintf("No client with DNI %s. Pass --name and --address to 'sale new' to register one.", args[0])))
				return nil
			}
			c, _ := r.Client()
			fmt.Fprintln(a.out, titleStyle.Render(c.Name))
			fmt.Fprintf(a.out, "ID:      %d\n", c.ID)
			fmt.Fprintf(a.out, "DNI:     %s\n", c.DNI)
			fmt.Fprintf(a.out, "Email:   %s\n", orDash(c.Email))
			fmt.Fprintf(a.out, "Phone:   %s\n", orDash(c.Phone))
			fmt.Fprintf(a.out, "Address: %s\n", orDash(c.Address))
			return nil
		},
	})
	return cmd
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
