package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"smartexpense/internal/core"
	"smartexpense/internal/log"
)

// State is everything the tracker persists.
type State struct {
	Expenses []core.Expense
	Budget   core.Money
	Income   core.Money
}

// record is the wire shape of one expense inside the "expenses" value. Amount
// is a plain decimal number so lists written by the browser app still load.
type record struct {
	ID          string  `json:"id,omitempty"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Category    string  `json:"category"`
	Date        string  `json:"date"`
}

// Repository loads and saves State through a KV backend.
type Repository struct {
	kv     KV
	logger *log.Logger
}

func NewRepository(kv KV, logger *log.Logger) *Repository {
	if logger == nil {
		logger = log.Discard()
	}
	return &Repository{kv: kv, logger: logger.WithComponent(log.ComponentStorage)}
}

// Load reads the three keys. A missing or unparsable value falls back to its
// zero default (empty list, 0, 0) on its own; only backend failures are errors.
func (r *Repository) Load(ctx context.Context) (State, error) {
	var st State

	raw, ok, err := r.kv.Get(ctx, KeyExpenses)
	if err != nil {
		return State{}, fmt.Errorf("load %s: %w", KeyExpenses, err)
	}
	if ok {
		expenses, err := decodeExpenses(raw)
		if err != nil {
			r.logger.WarnContext(ctx, "Discarding unparsable expense list",
				log.FieldKey, KeyExpenses, log.FieldError, err)
		}
		st.Expenses = expenses
	}

	if st.Budget, err = r.loadScalar(ctx, KeyBudget); err != nil {
		return State{}, err
	}
	if st.Income, err = r.loadScalar(ctx, KeyIncome); err != nil {
		return State{}, err
	}

	r.logger.DebugContext(ctx, "State loaded",
		log.FieldCount, len(st.Expenses),
		"budget_cents", st.Budget.Cents,
		"income_cents", st.Income.Cents)
	return st, nil
}

// Save writes all three keys unconditionally. There is no partial-write
// protection: the first failing key aborts and is returned.
func (r *Repository) Save(ctx context.Context, st State) error {
	raw, err := encodeExpenses(st.Expenses)
	if err != nil {
		return fmt.Errorf("encode expenses: %w", err)
	}
	writes := []struct{ key, value string }{
		{KeyExpenses, raw},
		{KeyBudget, st.Budget.Text()},
		{KeyIncome, st.Income.Text()},
	}
	for _, w := range writes {
		if err := r.kv.Set(ctx, w.key, w.value); err != nil {
			return fmt.Errorf("save %s: %w", w.key, err)
		}
	}
	return nil
}

// Ping reports whether the backend is reachable.
func (r *Repository) Ping(ctx context.Context) error {
	return r.kv.Ping(ctx)
}

func (r *Repository) loadScalar(ctx context.Context, key string) (core.Money, error) {
	raw, ok, err := r.kv.Get(ctx, key)
	if err != nil {
		return core.Money{}, fmt.Errorf("load %s: %w", key, err)
	}
	if !ok {
		return core.Money{}, nil
	}
	m, err := core.ParseAmount(raw)
	if err != nil {
		r.logger.WarnContext(ctx, "Discarding unparsable scalar", log.FieldKey, key, "value", raw)
		return core.Money{}, nil
	}
	return m, nil
}

func decodeExpenses(raw string) ([]core.Expense, error) {
	var records []record
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		return nil, err
	}
	out := make([]core.Expense, 0, len(records))
	for _, rec := range records {
		out = append(out, core.Expense{
			ID:          rec.ID,
			Description: rec.Description,
			Amount:      core.MoneyFromFloat(rec.Amount),
			Category:    rec.Category,
			Date:        core.Date(rec.Date),
		})
	}
	return out, nil
}

func encodeExpenses(expenses []core.Expense) (string, error) {
	records := make([]record, 0, len(expenses))
	for _, e := range expenses {
		records = append(records, record{
			ID:          e.ID,
			Description: e.Description,
			Amount:      e.Amount.Float(),
			Category:    e.Category,
			Date:        e.Date.String(),
		})
	}
	b, err := json.Marshal(records)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
