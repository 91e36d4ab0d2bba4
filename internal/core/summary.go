package core

import "strconv"

const (
	// ProgressWarnThreshold is the budget usage percentage at which the bar turns red.
	ProgressWarnThreshold = 90.0

	ColorOverBudget = "red"
	ColorOnBudget   = "#4caf50"
)

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string
	Amount Money
}

// Summary is the budget panel state derived from the full, unfiltered store.
type Summary struct {
	Budget    Money
	Income    Money
	Total     Money
	Remaining Money
	Progress  float64 // percent of budget spent, 0-100
	Color     string
}

// ProgressWidth renders the progress as a CSS width ("62.5%").
func (s Summary) ProgressWidth() string {
	return strconv.FormatFloat(s.Progress, 'f', -1, 64) + "%"
}

// Summarize computes every derived aggregate at once.
func Summarize(expenses []Expense, budget, income Money) Summary {
	total := TotalSpent(expenses)
	progress := Progress(total, budget)
	return Summary{
		Budget:    budget,
		Income:    income,
		Total:     total,
		Remaining: Remaining(income, total),
		Progress:  progress,
		Color:     ProgressColor(progress),
	}
}

func TotalSpent(expenses []Expense) Money {
	var total int64
	for _, e := range expenses {
		total += e.Amount.Cents
	}
	return Money{Cents: total}
}

func Remaining(income, total Money) Money {
	return Money{Cents: income.Cents - total.Cents}
}

// Progress returns total/budget as a percentage capped at 100. A zero (or
// negative) budget yields 0.
func Progress(total, budget Money) float64 {
	if budget.Cents <= 0 {
		return 0
	}
	p := float64(total.Cents) / float64(budget.Cents) * 100
	if p > 100 {
		return 100
	}
	return p
}

func ProgressColor(progress float64) string {
	if progress >= ProgressWarnThreshold {
		return ColorOverBudget
	}
	return ColorOnBudget
}

// CategoryTotals sums amounts by category label, in order of first appearance.
func CategoryTotals(expenses []Expense) []CategoryAmount {
	index := make(map[string]int)
	var out []CategoryAmount
	for _, e := range expenses {
		i, ok := index[e.Category]
		if !ok {
			i = len(out)
			index[e.Category] = i
			out = append(out, CategoryAmount{Name: e.Category})
		}
		out[i].Amount.Cents += e.Amount.Cents
	}
	return out
}

// FilterByMonth keeps the expenses whose ISO date starts with prefix. An empty
// prefix returns a copy of the whole list in store order.
func FilterByMonth(expenses []Expense, prefix string) []Expense {
	out := make([]Expense, 0, len(expenses))
	for _, e := range expenses {
		if prefix == "" || e.Date.HasPrefix(prefix) {
			out = append(out, e)
		}
	}
	return out
}
