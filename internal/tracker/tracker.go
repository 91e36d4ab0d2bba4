// Package tracker owns the expense store for a session: the ordered expense
// list plus budget and income. Every mutating operation validates, mutates,
// then persists the full state before returning.
package tracker

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"smartexpense/internal/core"
	"smartexpense/internal/log"
	"smartexpense/internal/storage"
)

// Persister loads and saves the whole tracker state.
type Persister interface {
	Load(ctx context.Context) (storage.State, error)
	Save(ctx context.Context, st storage.State) error
}

type Tracker struct {
	mu       sync.Mutex
	expenses []core.Expense
	budget   core.Money
	income   core.Money

	store  Persister
	now    func() time.Time
	newID  func() string
	hue    core.HueSource
	logger *log.Logger
}

type Option func(*Tracker)

// WithClock overrides the clock used to date new expenses.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// WithIDGenerator overrides the expense identity generator.
func WithIDGenerator(newID func() string) Option {
	return func(t *Tracker) { t.newID = newID }
}

// WithHueSource overrides the random source for chart colours.
func WithHueSource(hue core.HueSource) Option {
	return func(t *Tracker) { t.hue = hue }
}

func WithLogger(logger *log.Logger) Option {
	return func(t *Tracker) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// Open loads the persisted state. Records stored without an identity (lists
// written by the browser app) are given one and written back once.
func Open(ctx context.Context, store Persister, opts ...Option) (*Tracker, error) {
	t := &Tracker{
		store:  store,
		now:    time.Now,
		newID:  uuid.NewString,
		logger: log.Discard(),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.logger = t.logger.WithComponent(log.ComponentTracker)

	st, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}
	t.expenses = st.Expenses
	t.budget = st.Budget
	t.income = st.Income

	rekeyed := 0
	for i := range t.expenses {
		if t.expenses[i].ID == "" {
			t.expenses[i].ID = t.newID()
			rekeyed++
		}
	}
	if rekeyed > 0 {
		if err := t.persist(ctx); err != nil {
			return nil, err
		}
		t.logger.InfoContext(ctx, "Assigned identities to stored expenses", log.FieldCount, rekeyed)
	}

	t.logger.InfoContext(ctx, "Tracker opened",
		log.FieldCount, len(t.expenses),
		"budget_cents", t.budget.Cents,
		"income_cents", t.income.Cents)
	return t, nil
}

// Add validates and appends an expense dated today. Validation failures return a
// *ValidationError and leave the store untouched. A persistence failure is
// returned after the expense has been appended in memory.
func (t *Tracker) Add(ctx context.Context, description, amountText, category string) (core.Expense, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	amount, err := core.ParseAmount(amountText)
	if err != nil {
		return core.Expense{}, &ValidationError{Field: FieldExpense, Err: err}
	}
	e, err := core.NewExpense(t.newID(), description, amount, category, t.now())
	if err != nil {
		return core.Expense{}, &ValidationError{Field: FieldExpense, Err: err}
	}

	t.expenses = append(t.expenses, e)
	if err := t.persist(ctx); err != nil {
		return e, err
	}

	fields := log.NewFields().
		WithExpense(e.ID, e.Description, e.Amount.Cents, e.Category).
		WithOperation(log.OpCreate)
	t.logger.InfoContext(ctx, "Expense added", fields.ToSlice()...)
	return e, nil
}

// AddVoice parses a spoken command and hands the result to Add.
func (t *Tracker) AddVoice(ctx context.Context, transcript string) (core.Expense, error) {
	cmd := core.ParseVoiceCommand(transcript)
	t.logger.DebugContext(ctx, "Voice command parsed",
		log.FieldOperation, log.OpVoice,
		"amount_text", cmd.AmountText,
		log.FieldCategory, cmd.Category)
	return t.Add(ctx, cmd.Description, cmd.AmountText, cmd.Category)
}

// Delete removes the expense with the given identity from the full store,
// regardless of any month filter applied to the view that listed it.
func (t *Tracker) Delete(ctx context.Context, id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	i := slices.IndexFunc(t.expenses, func(e core.Expense) bool { return e.ID == id })
	if i < 0 {
		return fmt.Errorf("delete %q: %w", id, ErrNotFound)
	}
	t.expenses = slices.Delete(t.expenses, i, i+1)
	if err := t.persist(ctx); err != nil {
		return err
	}

	t.logger.InfoContext(ctx, "Expense deleted",
		log.FieldExpenseID, id,
		log.FieldOperation, log.OpDelete)
	return nil
}

// SetBudget overwrites the budget with a positive amount.
func (t *Tracker) SetBudget(ctx context.Context, text string) (core.Money, error) {
	return t.setScalar(ctx, text, FieldBudget, core.ErrInvalidBudget, &t.budget, log.OpSetBudget)
}

// SetIncome overwrites the income with a positive amount.
func (t *Tracker) SetIncome(ctx context.Context, text string) (core.Money, error) {
	return t.setScalar(ctx, text, FieldIncome, core.ErrInvalidIncome, &t.income, log.OpSetIncome)
}

func (t *Tracker) setScalar(ctx context.Context, text string, field Field, invalid error, dst *core.Money, op string) (core.Money, error) {
	m, err := core.ParsePositive(text, invalid)
	if err != nil {
		return core.Money{}, &ValidationError{Field: field, Err: err}
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	*dst = m
	if err := t.persist(ctx); err != nil {
		return m, err
	}

	t.logger.InfoContext(ctx, "Scalar updated", log.FieldOperation, op, log.FieldAmountCents, m.Cents)
	return m, nil
}

// Expenses returns a copy of the store filtered by ISO month prefix ("" for all).
func (t *Tracker) Expenses(month string) []core.Expense {
	t.mu.Lock()
	defer t.mu.Unlock()
	return core.FilterByMonth(t.expenses, month)
}

// Summary is always computed over the full store.
func (t *Tracker) Summary() core.Summary {
	t.mu.Lock()
	defer t.mu.Unlock()
	return core.Summarize(t.expenses, t.budget, t.income)
}

// Chart is always computed over the full store, with fresh colours.
func (t *Tracker) Chart() core.Chart {
	t.mu.Lock()
	defer t.mu.Unlock()
	return core.BuildChart(t.expenses, t.hue)
}

func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.expenses)
}

// persist must be called with mu held.
func (t *Tracker) persist(ctx context.Context) error {
	st := storage.State{
		Expenses: slices.Clone(t.expenses),
		Budget:   t.budget,
		Income:   t.income,
	}
	if err := t.store.Save(ctx, st); err != nil {
		t.logger.ErrorContext(ctx, "Failed to persist state", log.FieldError, err, log.FieldOperation, log.OpSave)
		return fmt.Errorf("persist state: %w", err)
	}
	return nil
}
