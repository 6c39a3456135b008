package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/fjod/go_cart/storefront/internal/app"
	"github.com/fjod/go_cart/storefront/internal/catalog"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/spf13/cobra"
)

func formatCurrency(v float64) string {
	return fmt.Sprintf("R$ %.2f", v)
}

func printCart(out io.Writer, items domain.Cart) {
	if len(items) == 0 {
		fmt.Fprintln(out, "cart is empty")
		return
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPRODUCT\tQTY\tPRICE\tSUBTOTAL")
	for _, item := range items {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n",
			item.ID, item.Name, item.Quantity, formatCurrency(item.Price), formatCurrency(item.Subtotal()))
	}
	fmt.Fprintf(tw, "\t\t%d\t\t%s\n", items.ItemCount(), formatCurrency(items.Total()))
	_ = tw.Flush()
}

func newCartCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Show or change the cart",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app.App) error {
				printCart(cmd.OutOrStdout(), a.Cart.Snapshot())
				return nil
			})
		},
	}

	var quantity int
	add := &cobra.Command{
		Use:   "add [product-id]",
		Short: "Add a catalogue product to the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			product, err := catalog.Lookup(args[0])
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			return withApp(cmd, opts, func(ctx context.Context, a *app.App) error {
				items, err := a.Cart.AddItem(ctx, product.Item(quantity))
				if err != nil {
					return err
				}
				printCart(cmd.OutOrStdout(), items)
				return nil
			})
		},
	}
	add.Flags().IntVarP(&quantity, "quantity", "q", 1, "Quantity to add")

	remove := &cobra.Command{
		Use:   "remove [product-id]",
		Short: "Remove a line from the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app.App) error {
				printCart(cmd.OutOrStdout(), a.Cart.RemoveItem(ctx, args[0]))
				return nil
			})
		},
	}

	set := &cobra.Command{
		Use:   "set [product-id] [quantity]",
		Short: "Set a line's quantity; 0 removes it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("quantity %q: %w", args[1], err)
			}
			return withApp(cmd, opts, func(ctx context.Context, a *app.App) error {
				printCart(cmd.OutOrStdout(), a.Cart.UpdateQuantity(ctx, args[0], n))
				return nil
			})
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Empty the cart",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app.App) error {
				a.Cart.Clear(ctx)
				printCart(cmd.OutOrStdout(), domain.Cart{})
				return nil
			})
		},
	}

	cmd.AddCommand(add, remove, set, clearCmd)
	return cmd
}

func newProductsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "products",
		Short: "List the catalogue",
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tPRODUCT\tPRICE")
			for _, p := range catalog.All() {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", p.ID, p.Name, formatCurrency(p.Price))
			}
			return tw.Flush()
		},
	}
}
