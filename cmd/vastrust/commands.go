/**
 * @description
 * This file contains the vastrust subcommands. Each command wires the shared
 * stack, performs one user-facing action and renders the result. Server
 * rejections are printed verbatim; transport failures fall back to cached
 * data where the session store has any.
 */

package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vastrust/banking-client/internal/domain"
	"github.com/vastrust/banking-client/internal/flow"
	"github.com/vastrust/banking-client/internal/reveal"
	"github.com/vastrust/banking-client/internal/session"
	"github.com/vastrust/banking-client/internal/txview"
)

func loginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login <email>",
		Short: "Authenticate and start a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			password, err := promptSecret("Password")
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			userID, err := a.client.Login(ctx, args[0], password)
			if err != nil {
				return err
			}
			if err := a.session.SetUserID(ctx, userID); err != nil {
				return err
			}

			// Warm the profile cache so the next screen renders offline too.
			if _, err := a.session.Refresh(ctx); err != nil {
				fmt.Printf("Logged in, but the profile fetch failed: %v\n", err)
				return nil
			}
			fmt.Println("Logged in.")
			return nil
		},
	}
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session and wipe cached data",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.session.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Println("Logged out.")
			return nil
		},
	}
}

func profileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "profile",
		Short: "Show the account profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			snap, err := a.session.Snapshot(cmd.Context())
			if err != nil {
				if errors.Is(err, session.ErrNotAuthenticated) {
					return errors.New("not logged in; run `vastrust login <email>` first")
				}
				return err
			}
			if snap.Stale {
				fmt.Println("Offline: showing last saved data.")
			}

			p := snap.Profile
			fmt.Printf("Name:           %s\n", p.DisplayName())
			fmt.Printf("Email:          %s\n", p.Email)
			fmt.Printf("Account number: %s\n", p.AccountNumber)
			fmt.Printf("Phone:          %s\n", p.PhoneNumber)
			return nil
		},
	}
}

func balanceCmd() *cobra.Command {
	var doReveal bool
	cmd := &cobra.Command{
		Use:   "balance",
		Short: "Show the account balance (masked unless --reveal)",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()
			ctx := cmd.Context()

			snap, err := a.session.Snapshot(ctx)
			if err != nil {
				if errors.Is(err, session.ErrNotAuthenticated) {
					return errors.New("not logged in; run `vastrust login <email>` first")
				}
				return err
			}

			if !doReveal {
				fmt.Printf("Balance: %s\n", reveal.MaskedPlaceholder)
				fmt.Println("Run with --reveal to unmask.")
				return nil
			}

			// Revealing requires a fresh step-up check against the server.
			password, err := promptSecret("Password")
			if err != nil {
				return err
			}
			if err := a.gate.Unlock(ctx, snap.Profile.ID, password); err != nil {
				return fmt.Errorf("reveal denied: %w", err)
			}
			if err := a.gate.Require(); err != nil {
				return err
			}

			balance, err := a.client.Balance(ctx, snap.Profile.AccountNumber)
			if err != nil {
				return err
			}
			fmt.Printf("Balance: %s\n", txview.FormatNaira(balance))
			return nil
		},
	}
	cmd.Flags().BoolVar(&doReveal, "reveal", false, "Unmask the balance after a password check")
	return cmd
}

func transactionsCmd() *cobra.Command {
	var (
		page   int
		search string
		window string
	)
	cmd := &cobra.Command{
		Use:   "transactions",
		Short: "List transactions with optional search and recency filters",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()
			ctx := cmd.Context()

			snap, err := a.session.Snapshot(ctx)
			if err != nil {
				if errors.Is(err, session.ErrNotAuthenticated) {
					return errors.New("not logged in; run `vastrust login <email>` first")
				}
				return err
			}
			viewer := snap.Profile.AccountNumber

			win, err := parseWindow(window)
			if err != nil {
				return err
			}

			fetched, err := a.client.Transactions(ctx, viewer, page)
			var transactions []domain.Transaction
			if fetched != nil {
				transactions = fetched.Transactions
			}
			switch txview.StateFor(err, transactions) {
			case txview.StateFailed:
				return fmt.Errorf("could not load transactions: %w", err)
			case txview.StateEmpty:
				fmt.Println("No transactions yet.")
				return nil
			}

			transactions = txview.FilterByText(transactions, search)
			transactions = txview.FilterByRecency(transactions, win, time.Now())
			if len(transactions) == 0 {
				fmt.Println("No transactions match the filter.")
				return nil
			}

			for _, tx := range transactions {
				row := txview.PresentationRow(tx, viewer)
				fmt.Printf("%-19s  %-9s  %-30s  %s\n", row.CreatedAt, row.Direction, row.Title, row.AmountLabel)
			}

			summary, err := txview.Summarize(transactions, viewer)
			if err != nil {
				// A malformed record poisons the totals, not the listing.
				fmt.Printf("Totals unavailable: %v\n", err)
				return nil
			}
			fmt.Printf("\nIn:  %s\nOut: %s\n",
				txview.FormatNaira(fmt.Sprintf("%.2f", summary.TotalCredits)),
				txview.FormatNaira(fmt.Sprintf("%.2f", summary.TotalDebits)),
			)
			return nil
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "Page number")
	cmd.Flags().StringVar(&search, "search", "", "Filter by description or account number")
	cmd.Flags().StringVar(&window, "window", "all", "Recency window: all, 7d or 30d")
	return cmd
}

func parseWindow(s string) (txview.Window, error) {
	switch s {
	case "", "all":
		return txview.AllTime, nil
	case "7d":
		return txview.Last7Days, nil
	case "30d":
		return txview.Last30Days, nil
	}
	return txview.AllTime, fmt.Errorf("unknown window %q (use all, 7d or 30d)", s)
}

func transferCmd() *cobra.Command {
	var (
		toAccount    string
		amount       string
		externalBank string
		note         string
	)
	cmd := &cobra.Command{
		Use:   "transfer",
		Short: "Send money to another account",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()
			ctx := cmd.Context()

			snap, err := a.session.Snapshot(ctx)
			if err != nil {
				if errors.Is(err, session.ErrNotAuthenticated) {
					return errors.New("not logged in; run `vastrust login <email>` first")
				}
				return err
			}

			pin, err := promptSecret("Transaction PIN")
			if err != nil {
				return err
			}

			transfer := domain.PendingTransfer{
				FromAccount:  snap.Profile.AccountNumber,
				ToAccount:    toAccount,
				Amount:       amount,
				PIN:          pin,
				ExternalBank: externalBank,
				Note:         note,
			}
			if err := transfer.Validate(); err != nil {
				return err
			}

			message, err := a.client.Transfer(ctx, snap.Profile.ID, transfer)
			if err != nil {
				return err
			}
			fmt.Println(message)
			return nil
		},
	}
	cmd.Flags().StringVar(&toAccount, "to", "", "Receiver account number")
	cmd.Flags().StringVar(&amount, "amount", "", "Amount to send")
	cmd.Flags().StringVar(&externalBank, "bank", "", "Receiver's bank, for transfers outside Vastrust")
	cmd.Flags().StringVar(&note, "note", "", "Optional note")
	cmd.MarkFlagRequired("to")
	cmd.MarkFlagRequired("amount")
	return cmd
}

func verifyEmailCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify-email <email>",
		Short: "Verify an email address with the mailed 6-digit code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()
			ctx := cmd.Context()
			email := args[0]

			if err := a.session.SetVerifyEmail(ctx, email); err != nil {
				return err
			}

			cooldown := flow.NewCooldown(time.Duration(a.cfg.ResendCooldown) * time.Second)
			defer cooldown.Stop()

			for {
				code, err := promptLine("Code (or 'r' to resend)")
				if err != nil {
					return err
				}
				if code == "r" {
					if err := cooldown.Allow(); err != nil {
						fmt.Println(err)
						continue
					}
					if err := a.client.ResendCode(ctx, email); err != nil {
						fmt.Printf("Resend failed: %v\n", err)
						continue
					}
					cooldown.Start()
					fmt.Println("A new code has been sent.")
					continue
				}

				if err := flow.ValidateOTP(code); err != nil {
					fmt.Println("The code must be 6 digits.")
					continue
				}
				if err := a.client.VerifyEmail(ctx, email, code); err != nil {
					return err
				}
				fmt.Println("Email verified.")
				return nil
			}
		},
	}
}
