package portfolio

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"valutatrade/internal/currency"
)

// Pricer is the rate accessor the trade operations price against. The
// refresh orchestrator satisfies it via a thin adapter in the CLI.
type Pricer interface {
	Rate(ctx context.Context, from, to string) (float64, error)
}

var (
	ErrUserExists         = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUserNotFound       = errors.New("user not found")
)

// Service implements register/login and the wallet and trade operations.
type Service struct {
	store  *Store
	pricer Pricer
	base   string
	log    *slog.Logger
}

func NewService(store *Store, pricer Pricer, baseCurrency string, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	if baseCurrency == "" {
		baseCurrency = "USD"
	}
	return &Service{store: store, pricer: pricer, base: baseCurrency, log: log}
}

func hashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

// Register creates a user with an empty portfolio in the base currency.
func (s *Service) Register(username, password string) (User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return User{}, errors.New("username and password must be non-empty")
	}
	users, err := s.store.ReadUsers()
	if err != nil {
		return User{}, err
	}
	for _, u := range users {
		if strings.EqualFold(u.Username, username) {
			return User{}, ErrUserExists
		}
	}
	user := User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: hashPassword(password),
		RegisteredAt: time.Now().UTC().Truncate(time.Second),
	}
	if err := s.store.WriteUsers(append(users, user)); err != nil {
		return User{}, err
	}

	rows, err := s.store.ReadPortfolios()
	if err != nil {
		return User{}, err
	}
	rows = append(rows, Portfolio{UserID: user.ID, Base: s.base, Balances: map[string]decimal.Decimal{}})
	if err := s.store.WritePortfolios(rows); err != nil {
		return User{}, err
	}
	s.audit("REGISTER", user.ID, username, "", decimal.Zero, nil)
	return user, nil
}

// Login verifies credentials and returns the user.
func (s *Service) Login(username, password string) (User, error) {
	users, err := s.store.ReadUsers()
	if err != nil {
		return User{}, err
	}
	for _, u := range users {
		if strings.EqualFold(u.Username, username) {
			if u.PasswordHash != hashPassword(password) {
				return User{}, ErrInvalidCredentials
			}
			s.audit("LOGIN", u.ID, username, "", decimal.Zero, nil)
			return u, nil
		}
	}
	return User{}, ErrInvalidCredentials
}

// Get returns the user's portfolio.
func (s *Service) Get(userID string) (Portfolio, error) {
	rows, err := s.store.ReadPortfolios()
	if err != nil {
		return Portfolio{}, err
	}
	for _, p := range rows {
		if p.UserID == userID {
			return p, nil
		}
	}
	return Portfolio{}, ErrUserNotFound
}

// Deposit credits the given currency.
func (s *Service) Deposit(userID, code string, amount decimal.Decimal) (Portfolio, error) {
	code = currency.Normalize(code)
	if _, err := currency.Get(code); err != nil {
		return Portfolio{}, err
	}
	if amount.Sign() <= 0 {
		return Portfolio{}, errors.New("amount must be positive")
	}
	p, err := s.mutate(userID, func(p *Portfolio) error {
		p.Balances[code] = p.Balance(code).Add(amount)
		return nil
	})
	if err == nil {
		s.audit("DEPOSIT", userID, "", code, amount, nil)
	}
	return p, err
}

// Withdraw debits the given currency, failing on insufficient funds.
func (s *Service) Withdraw(userID, code string, amount decimal.Decimal) (Portfolio, error) {
	code = currency.Normalize(code)
	if _, err := currency.Get(code); err != nil {
		return Portfolio{}, err
	}
	if amount.Sign() <= 0 {
		return Portfolio{}, errors.New("amount must be positive")
	}
	p, err := s.mutate(userID, func(p *Portfolio) error {
		have := p.Balance(code)
		if have.LessThan(amount) {
			return &InsufficientFundsError{Code: code, Available: have, Required: amount}
		}
		p.Balances[code] = have.Sub(amount)
		return nil
	})
	if err == nil {
		s.audit("WITHDRAW", userID, "", code, amount, nil)
	}
	return p, err
}

// Buy purchases amount units of code, paying in the portfolio base currency
// at the current snapshot rate.
func (s *Service) Buy(ctx context.Context, userID, code string, amount decimal.Decimal) (Portfolio, error) {
	code = currency.Normalize(code)
	if _, err := currency.Get(code); err != nil {
		return Portfolio{}, err
	}
	if amount.Sign() <= 0 {
		return Portfolio{}, errors.New("amount must be positive")
	}
	rate, err := s.pricer.Rate(ctx, code, s.base)
	if err != nil {
		return Portfolio{}, err
	}
	cost := amount.Mul(decimal.NewFromFloat(rate))
	p, err := s.mutate(userID, func(p *Portfolio) error {
		have := p.Balance(p.Base)
		if have.LessThan(cost) {
			return &InsufficientFundsError{Code: p.Base, Available: have, Required: cost}
		}
		p.Balances[p.Base] = have.Sub(cost)
		p.Balances[code] = p.Balance(code).Add(amount)
		return nil
	})
	if err == nil {
		s.audit("BUY", userID, "", code, amount, &rate)
	}
	return p, err
}

// Sell disposes of amount units of code, crediting the base currency at the
// current snapshot rate.
func (s *Service) Sell(ctx context.Context, userID, code string, amount decimal.Decimal) (Portfolio, error) {
	code = currency.Normalize(code)
	if _, err := currency.Get(code); err != nil {
		return Portfolio{}, err
	}
	if amount.Sign() <= 0 {
		return Portfolio{}, errors.New("amount must be positive")
	}
	rate, err := s.pricer.Rate(ctx, code, s.base)
	if err != nil {
		return Portfolio{}, err
	}
	proceeds := amount.Mul(decimal.NewFromFloat(rate))
	p, err := s.mutate(userID, func(p *Portfolio) error {
		have := p.Balance(code)
		if have.LessThan(amount) {
			return &InsufficientFundsError{Code: code, Available: have, Required: amount}
		}
		p.Balances[code] = have.Sub(amount)
		p.Balances[p.Base] = p.Balance(p.Base).Add(proceeds)
		return nil
	})
	if err == nil {
		s.audit("SELL", userID, "", code, amount, &rate)
	}
	return p, err
}

// mutate loads, edits, and atomically rewrites the portfolio rows.
func (s *Service) mutate(userID string, fn func(*Portfolio) error) (Portfolio, error) {
	rows, err := s.store.ReadPortfolios()
	if err != nil {
		return Portfolio{}, err
	}
	for i := range rows {
		if rows[i].UserID != userID {
			continue
		}
		if rows[i].Balances == nil {
			rows[i].Balances = map[string]decimal.Decimal{}
		}
		if err := fn(&rows[i]); err != nil {
			return Portfolio{}, err
		}
		if err := s.store.WritePortfolios(rows); err != nil {
			return Portfolio{}, err
		}
		return rows[i], nil
	}
	return Portfolio{}, ErrUserNotFound
}

func (s *Service) audit(action, userID, username, code string, amount decimal.Decimal, rate *float64) {
	attrs := []any{"action", action, "user_id", userID, "result", "OK"}
	if username != "" {
		attrs = append(attrs, "username", username)
	}
	if code != "" {
		attrs = append(attrs, "currency", code, "amount", amount.String())
	}
	if rate != nil {
		attrs = append(attrs, "rate", fmt.Sprintf("%g", *rate), "base", s.base)
	}
	s.log.Info("account action", attrs...)
}
