// Package portfolio persists users and their currency holdings as flat JSON
// files and implements the simulator's wallet and trade operations. Trades
// are priced through the rate accessor exposed by the refresh orchestrator.
package portfolio

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"valutatrade/internal/storage"
)

// User is one registered account.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"password_hash"`
	RegisteredAt time.Time `json:"registered_at"`
}

// Portfolio holds one user's balances per currency code.
type Portfolio struct {
	UserID   string                     `json:"user_id"`
	Base     string                     `json:"base_currency"`
	Balances map[string]decimal.Decimal `json:"balances"`
}

// Balance returns the holding for a code, zero when absent.
func (p *Portfolio) Balance(code string) decimal.Decimal {
	if p.Balances == nil {
		return decimal.Zero
	}
	return p.Balances[code]
}

// InsufficientFundsError reports an operation that needs more than the user
// holds.
type InsufficientFundsError struct {
	Code      string
	Available decimal.Decimal
	Required  decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: available %s %s, required %s %s",
		e.Available.String(), e.Code, e.Required.String(), e.Code)
}

// Store reads and writes users.json and portfolios.json in the data dir.
type Store struct {
	usersPath      string
	portfoliosPath string
}

func NewStore(dataDir string) *Store {
	return &Store{
		usersPath:      filepath.Join(dataDir, "users.json"),
		portfoliosPath: filepath.Join(dataDir, "portfolios.json"),
	}
}

func (s *Store) ReadUsers() ([]User, error) {
	var users []User
	if err := storage.ReadJSON(s.usersPath, &users); err != nil {
		if storage.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return users, nil
}

func (s *Store) WriteUsers(users []User) error {
	if users == nil {
		users = []User{}
	}
	return storage.WriteJSONAtomic(s.usersPath, users)
}

func (s *Store) ReadPortfolios() ([]Portfolio, error) {
	var rows []Portfolio
	if err := storage.ReadJSON(s.portfoliosPath, &rows); err != nil {
		if storage.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return rows, nil
}

func (s *Store) WritePortfolios(rows []Portfolio) error {
	if rows == nil {
		rows = []Portfolio{}
	}
	return storage.WriteJSONAtomic(s.portfoliosPath, rows)
}
