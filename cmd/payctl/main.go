// payctl is a small operator CLI over the paylink SDK.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/paylink-dev/paylink-go/config"
	"github.com/paylink-dev/paylink-go/pkg/paylink"
)

var (
	cfgPath  string
	password string
)

func main() {
	root := &cobra.Command{
		Use:           "payctl",
		Short:         "Interact with a paylink custodial payment backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "", "path to config file")

	login := &cobra.Command{
		Use:   "login <user-id>",
		Short: "Exchange credentials for a session token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(func(ctx context.Context, client *paylink.Client) error {
				var (
					user *paylink.User
					err  error
				)
				if password != "" {
					user, err = client.Session.LoginWithPassword(ctx, args[0], password)
				} else {
					user, err = client.Session.Login(ctx, args[0])
				}
				if err != nil {
					return err
				}
				fmt.Printf("logged in as %s (account %s, %s on %s)\n",
					user.UserID, user.AccountID, user.AccountType, user.Network)
				return nil
			})
		},
	}
	login.Flags().StringVar(&password, "password", "", "account password")

	balance := &cobra.Command{
		Use:   "balance",
		Short: "Show balances for the authenticated account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(func(ctx context.Context, client *paylink.Client, user *paylink.User) error {
				bal, err := client.Balances.Get(ctx, user.AccountID)
				if err != nil {
					return err
				}
				for _, b := range bal.Balances {
					fmt.Printf("%-8s available %s pending %s\n", b.Asset, b.Available, b.Pending)
				}
				return nil
			})
		},
	}

	transactions := &cobra.Command{
		Use:   "transactions",
		Short: "Show transaction history for the authenticated account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(func(ctx context.Context, client *paylink.Client, user *paylink.User) error {
				history, err := client.Transactions.List(ctx, user.AccountID, nil)
				if err != nil {
					return err
				}
				for _, tx := range history.Transactions {
					fmt.Printf("%s  %-9s %-10s %s %s\n",
						tx.CreatedAt.Format("2006-01-02 15:04"), tx.Type, tx.Status, tx.Amount, tx.Asset)
				}
				return nil
			})
		},
	}

	send := &cobra.Command{
		Use:   "send <to-address> <asset> <amount>",
		Short: "Send a payment from the authenticated account",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(func(ctx context.Context, client *paylink.Client, user *paylink.User) error {
				payment, err := client.Session.SendPayment(ctx, &paylink.SendPaymentParams{
					ToAddress: args[0],
					Asset:     args[1],
					Amount:    args[2],
				})
				if err != nil {
					return err
				}
				fmt.Printf("payment %s %s\n", payment.Transaction.ID, payment.Transaction.Status)
				return nil
			})
		},
	}

	logout := &cobra.Command{
		Use:   "logout",
		Short: "Invalidate the session and purge persisted state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(func(ctx context.Context, client *paylink.Client) error {
				client.Session.Restore(ctx)
				return client.Session.Logout(ctx)
			})
		},
	}

	root.AddCommand(login, balance, transactions, send, logout)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// withClient builds a client from configuration and runs fn.
func withClient(fn func(ctx context.Context, client *paylink.Client) error) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	storageDir := cfg.Session.StorageDir
	if storageDir == "" {
		home, herr := os.UserHomeDir()
		if herr != nil {
			home = "."
		}
		storageDir = filepath.Join(home, ".paylink")
	}

	client, err := paylink.NewClient(&paylink.ClientOptions{
		BaseURL:                    cfg.API.BaseURL,
		Timeout:                    cfg.API.Timeout,
		RetryAttempts:              cfg.API.RetryAttempts,
		RetryBaseDelay:             cfg.API.RetryBaseDelay,
		DisableCache:               !cfg.API.CacheEnabled,
		CacheTTL:                   cfg.API.CacheTTL,
		BalanceRefreshInterval:     cfg.Session.BalanceRefreshInterval,
		TransactionRefreshInterval: cfg.Session.TransactionRefreshInterval,
		StorageDir:                 storageDir,
		Logger:                     paylink.NewZerologLogger(cfg.Log.Level, cfg.Log.Pretty),
		SentryDSN:                  cfg.Sentry.DSN,
	})
	if err != nil {
		return err
	}
	defer client.Close()

	return fn(context.Background(), client)
}

// withSession restores the persisted session first and requires an
// authenticated user.
func withSession(fn func(ctx context.Context, client *paylink.Client, user *paylink.User) error) error {
	return withClient(func(ctx context.Context, client *paylink.Client) error {
		client.Session.Restore(ctx)
		state := client.Session.State()
		if !state.IsAuthenticated {
			return paylink.ErrNotAuthenticated
		}
		return fn(ctx, client, state.User)
	})
}
