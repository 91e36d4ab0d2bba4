package core

import (
	"errors"
	"strings"
	"time"
)

// DefaultCategory is used when an expense is recorded without a category label.
const DefaultCategory = "Other"

const isoDateLayout = "2006-01-02"

type (
	// Date is a calendar date in ISO form (YYYY-MM-DD), without a time component.
	Date string

	Money struct {
		Cents int64
	}

	Expense struct {
		ID          string
		Description string
		Amount      Money
		Category    string
		Date        Date
	}
)

var (
	ErrEmptyDescription = errors.New("empty description")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidBudget    = errors.New("invalid budget")
	ErrInvalidIncome    = errors.New("invalid income")
)

// NewDate returns the ISO date of t in t's own location.
func NewDate(t time.Time) Date {
	return Date(t.Format(isoDateLayout))
}

func (d Date) String() string {
	return string(d)
}

// HasPrefix reports whether the ISO text of d starts with prefix, so "2024-05"
// matches every day of May 2024.
func (d Date) HasPrefix(prefix string) bool {
	return strings.HasPrefix(string(d), prefix)
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// NewExpense builds a validated expense dated at now. The description is trimmed
// and an empty category falls back to DefaultCategory.
func NewExpense(id, description string, amount Money, category string, now time.Time) (Expense, error) {
	e := Expense{
		ID:          id,
		Description: strings.TrimSpace(description),
		Amount:      amount,
		Category:    strings.TrimSpace(category),
		Date:        NewDate(now),
	}
	if e.Category == "" {
		e.Category = DefaultCategory
	}
	if err := e.Validate(); err != nil {
		return Expense{}, err
	}
	return e, nil
}

func (e Expense) Validate() error {
	if len(strings.TrimSpace(e.Description)) == 0 {
		return ErrEmptyDescription
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	return nil
}
