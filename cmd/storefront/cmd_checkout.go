package main

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/fjod/go_cart/storefront/internal/app"
	"github.com/fjod/go_cart/storefront/internal/checkout"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/spf13/cobra"
)

func newOrdersCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "orders",
		Short: "List the signed-in customer's orders",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app.App) error {
				orders, err := a.Checkout.Orders(ctx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(orders) == 0 {
					fmt.Fprintln(out, "no orders yet")
					return nil
				}
				tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ORDER\tSTATUS\tITEMS\tTOTAL")
				for _, o := range orders {
					fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", o.ID, o.Status.Label(), o.Items.ItemCount(), formatCurrency(o.Total))
				}
				return tw.Flush()
			})
		},
	}
}

func newCheckoutCmd(opts *options) *cobra.Command {
	var form checkout.Form
	var payment, platform string

	cmd := &cobra.Command{
		Use:   "checkout",
		Short: "Place an order for the current cart",
		Long: `Places an order for the cart. Customer and address default to the
signed-in account; a postal code without a street is resolved first.
On success the cart is cleared. A refused order leaves the cart intact.`,
		Example: `  storefront checkout --payment pix --platform itau
  storefront checkout --payment credit_card --platform mercadopago --cep 01310-100 --number 1000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			form.Payment = domain.Payment{Type: domain.PaymentType(payment), Platform: platform}

			return withApp(cmd, opts, func(ctx context.Context, a *app.App) error {
				if id := a.Session.State().Identity; id != nil {
					fillFromIdentity(&form, id)
				}
				if form.Address.PostalCode != "" && form.Address.Street == "" {
					addr, err := a.Checkout.LookupAddress(ctx, form.Address.PostalCode)
					if err != nil {
						return err
					}
					addr.Number = form.Address.Number
					form.Address = addr
				}

				conf, err := a.Checkout.PlaceOrder(ctx, form)
				if err != nil {
					return err
				}
				if !conf.Success {
					return errors.New(conf.Message)
				}

				out := cmd.OutOrStdout()
				fmt.Fprintln(out, conf.Message)
				fmt.Fprintf(out, "payment id: %s\n", conf.PaymentID)
				if conf.PaymentURL != "" {
					fmt.Fprintf(out, "pay at: %s\n", conf.PaymentURL)
				}
				return nil
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&payment, "payment", string(domain.PaymentPix), "Payment type: credit_card, paypal, pix, boleto, transferencia")
	f.StringVar(&platform, "platform", "", "Payment platform for the type")
	f.StringVar(&form.Customer.Name, "name", "", "Customer name")
	f.StringVar(&form.Customer.Email, "email", "", "Customer email")
	f.StringVar(&form.Customer.Phone, "phone", "", "Customer phone")
	f.StringVar(&form.Customer.TaxID, "tax-id", "", "Customer CPF")
	f.StringVar(&form.Address.PostalCode, "cep", "", "Delivery postal code")
	f.StringVar(&form.Address.Number, "number", "", "Delivery street number")
	return cmd
}

// fillFromIdentity fills blank form fields from the account.
func fillFromIdentity(form *checkout.Form, id *domain.Identity) {
	c := &form.Customer
	c.Name = firstNonEmpty(c.Name, id.FullName)
	c.Email = firstNonEmpty(c.Email, id.Email)
	c.Phone = firstNonEmpty(c.Phone, id.Phone)
	c.TaxID = firstNonEmpty(c.TaxID, id.TaxID)

	if form.Address.PostalCode == "" {
		number := form.Address.Number
		form.Address = id.Address
		form.Address.Number = firstNonEmpty(number, id.Number)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func newPostalCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "postal [cep]",
		Short: "Resolve a postal code to an address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app.App) error {
				addr, err := a.Checkout.LookupAddress(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s, %s, %s - %s (%s)\n",
					addr.Street, addr.District, addr.City, addr.State, addr.PostalCode)
				return nil
			})
		},
	}
}

func newShippingCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "shipping [state]",
		Short: "Quote shipping for a state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app.App) error {
				cost, err := a.Checkout.QuoteShipping(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), formatCurrency(cost))
				return nil
			})
		},
	}
}
