package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/fjod/go_cart/storefront/internal/app"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/spf13/cobra"
)

func newLoginCmd(opts *options) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in; the cart is replaced by the account's saved cart",
		Example: `  storefront login --email ana@example.com --password s3cret
  STOREFRONT_PASSWORD=s3cret storefront login --email ana@example.com`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv("STOREFRONT_PASSWORD")
			}
			if password == "" {
				return errors.New("password is required (--password or STOREFRONT_PASSWORD)")
			}
			return withApp(cmd, opts, func(ctx context.Context, a *app.App) error {
				res := a.Session.Login(ctx, email, password)
				if !res.Success {
					return errors.New(res.Message)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, res.Message)
				printCart(out, a.Cart.Snapshot())
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email (required)")
	cmd.Flags().StringVar(&password, "password", "", "Account password")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newLogoutCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and drop the cart kept on this device",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app.App) error {
				a.Session.Logout()
				fmt.Fprintln(cmd.OutOrStdout(), "signed out")
				return nil
			})
		},
	}
}

func newRegisterCmd(opts *options) *cobra.Command {
	var reg domain.Registration

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account (does not sign in)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if reg.Secret == "" {
				reg.Secret = os.Getenv("STOREFRONT_PASSWORD")
			}
			return withApp(cmd, opts, func(ctx context.Context, a *app.App) error {
				res := a.Session.Register(ctx, reg)
				if !res.Success {
					return errors.New(res.Message)
				}
				fmt.Fprintln(cmd.OutOrStdout(), res.Message)
				return nil
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&reg.FullName, "name", "", "Full name (required)")
	f.StringVar(&reg.Email, "email", "", "Email (required)")
	f.StringVar(&reg.Secret, "password", "", "Password (or STOREFRONT_PASSWORD)")
	f.StringVar(&reg.Phone, "phone", "", "Phone")
	f.StringVar(&reg.TaxID, "tax-id", "", "CPF or CNPJ (required)")
	f.StringVar(&reg.PostalCode, "cep", "", "Postal code")
	f.StringVar(&reg.Street, "street", "", "Street")
	f.StringVar(&reg.Number, "number", "", "Number")
	f.StringVar(&reg.District, "district", "", "District")
	f.StringVar(&reg.City, "city", "", "City")
	f.StringVar(&reg.State, "state", "", "State code")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("tax-id")
	return cmd
}

func newWhoamiCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the restored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app.App) error {
				state := a.Session.State()
				out := cmd.OutOrStdout()
				if !state.Authenticated() {
					fmt.Fprintln(out, "anonymous")
					return nil
				}
				id := state.Identity
				fmt.Fprintf(out, "%s <%s>\n", id.FullName, id.Email)
				return nil
			})
		},
	}
}
