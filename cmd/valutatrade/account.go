package main

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"valutatrade/internal/portfolio"
)

func currentSession() (portfolio.Session, error) {
	sess, ok := portfolio.LoadSession(cfg.DataDir)
	if !ok {
		return portfolio.Session{}, errors.New("not logged in; run `valutatrade login <username> <password>`")
	}
	return sess, nil
}

func parseAmount(s string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("amount %q is not a number", s)
	}
	if amount.Sign() <= 0 {
		return decimal.Zero, errors.New("amount must be positive")
	}
	return amount, nil
}

func printPortfolio(p portfolio.Portfolio) {
	fmt.Printf("portfolio (base %s):\n", p.Base)
	codes := make([]string, 0, len(p.Balances))
	for code := range p.Balances {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	if len(codes) == 0 {
		fmt.Println("  (empty)")
		return
	}
	for _, code := range codes {
		fmt.Printf("  %-5s %s\n", code, p.Balances[code].String())
	}
}

var registerCmd = &cobra.Command{
	Use:   "register USERNAME PASSWORD",
	Short: "Create an account with an empty portfolio",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		user, err := accounts.Register(args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Printf("registered %s (id %s)\n", user.Username, user.ID)
		return nil
	},
}

var loginCmd = &cobra.Command{
	Use:   "login USERNAME PASSWORD",
	Short: "Log in and remember the session",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		user, err := accounts.Login(args[0], args[1])
		if err != nil {
			return err
		}
		sess := portfolio.Session{UserID: user.ID, Username: user.Username, LoggedInAt: time.Now().UTC().Truncate(time.Second)}
		if err := portfolio.SaveSession(cfg.DataDir, sess); err != nil {
			return err
		}
		fmt.Printf("logged in as %s\n", user.Username)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the current session",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := portfolio.ClearSession(cfg.DataDir); err != nil {
			return err
		}
		fmt.Println("logged out")
		return nil
	},
}

var portfolioCmd = &cobra.Command{
	Use:   "portfolio",
	Short: "Show the logged-in user's balances",
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := currentSession()
		if err != nil {
			return err
		}
		p, err := accounts.Get(sess.UserID)
		if err != nil {
			return err
		}
		printPortfolio(p)
		return nil
	},
}

var depositCmd = &cobra.Command{
	Use:   "deposit CODE AMOUNT",
	Short: "Credit a currency balance",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := currentSession()
		if err != nil {
			return err
		}
		amount, err := parseAmount(args[1])
		if err != nil {
			return err
		}
		p, err := accounts.Deposit(sess.UserID, args[0], amount)
		if err != nil {
			return err
		}
		printPortfolio(p)
		return nil
	},
}

var withdrawCmd = &cobra.Command{
	Use:   "withdraw CODE AMOUNT",
	Short: "Debit a currency balance",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := currentSession()
		if err != nil {
			return err
		}
		amount, err := parseAmount(args[1])
		if err != nil {
			return err
		}
		p, err := accounts.Withdraw(sess.UserID, args[0], amount)
		if err != nil {
			return err
		}
		printPortfolio(p)
		return nil
	},
}

var buyCmd = &cobra.Command{
	Use:   "buy CODE AMOUNT",
	Short: "Buy a currency at the current rate, paying in the base currency",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := currentSession()
		if err != nil {
			return err
		}
		amount, err := parseAmount(args[1])
		if err != nil {
			return err
		}
		p, err := accounts.Buy(cmd.Context(), sess.UserID, args[0], amount)
		if err != nil {
			return err
		}
		printPortfolio(p)
		return nil
	},
}

var sellCmd = &cobra.Command{
	Use:   "sell CODE AMOUNT",
	Short: "Sell a currency at the current rate, crediting the base currency",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := currentSession()
		if err != nil {
			return err
		}
		amount, err := parseAmount(args[1])
		if err != nil {
			return err
		}
		p, err := accounts.Sell(cmd.Context(), sess.UserID, args[0], amount)
		if err != nil {
			return err
		}
		printPortfolio(p)
		return nil
	},
}
