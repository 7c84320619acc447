package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultDescription replaces an empty description on new expenses.
const DefaultDescription = "Bez opisu"

type (
	Category string

	Author struct {
		ID   int64
		Name string
	}

	// Draft is an expense that has not been stored yet.
	Draft struct {
		Author      Author
		Category    Category
		Amount      decimal.Decimal
		Description string
		CreatedAt   time.Time
	}

	// Expense is a stored record. The ID is assigned by the store.
	Expense struct {
		ID          int64
		Author      Author
		Category    Category
		Amount      decimal.Decimal
		Description string
		CreatedAt   time.Time
	}
)

var (
	ErrNoAmount        = errors.New("no amount at the start of the message")
	ErrNegativeAmount  = errors.New("amount cannot be negative")
	ErrEmptyCategory   = errors.New("empty category")
	ErrUnknownCategory = errors.New("unknown category")
	ErrInvalidAuthor   = errors.New("invalid author")
)

func (d Draft) Validate() error {
	if d.Author.ID == 0 {
		return ErrInvalidAuthor
	}
	if strings.TrimSpace(string(d.Category)) == "" {
		return ErrEmptyCategory
	}
	if d.Amount.IsNegative() {
		return ErrNegativeAmount
	}
	if d.CreatedAt.IsZero() {
		return errors.New("creation time cannot be zero")
	}
	return nil
}

// WithID turns the draft into the record the store created for it.
func (d Draft) WithID(id int64) Expense {
	return Expense{
		ID:          id,
		Author:      d.Author,
		Category:    d.Category,
		Amount:      d.Amount,
		Description: d.Description,
		CreatedAt:   d.CreatedAt,
	}
}

// Categories is the closed, ordered set of labels offered to users.
type Categories []Category

func NewCategories(names []string) Categories {
	seen := make(map[string]struct{}, len(names))
	out := make(Categories, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, Category(n))
	}
	return out
}

// Lookup matches a keyboard label against the set. Only exact labels match,
// so free text such as "30 prezent Inne" is never taken for a category.
func (c Categories) Lookup(label string) (Category, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return "", ErrEmptyCategory
	}
	for _, cat := range c {
		if label == string(cat) {
			return cat, nil
		}
	}
	return "", ErrUnknownCategory
}

func (c Categories) Strings() []string {
	out := make([]string, len(c))
	for i, cat := range c {
		out[i] = string(cat)
	}
	return out
}
