package core

import (
	"reflect"
	"testing"
)

func expense(desc string, cents int64, cat string, date Date) Expense {
	return Expense{ID: desc, Description: desc, Amount: Money{Cents: cents}, Category: cat, Date: date}
}

func TestSummarizeEmptyStore(t *testing.T) {
	s := Summarize(nil, Money{}, Money{})
	if s.Total.String() != "0.00" || s.Remaining.String() != "0.00" || s.Progress != 0 {
		t.Fatalf("unexpected summary: %+v", s)
	}
	if s.ProgressWidth() != "0%" || s.Color != ColorOnBudget {
		t.Fatalf("unexpected progress display: %s %s", s.ProgressWidth(), s.Color)
	}
}

func TestSummarizeLunchScenario(t *testing.T) {
	items := []Expense{expense("Lunch", 50000, "Food", "2024-05-01")}
	s := Summarize(items, Money{Cents: 80000}, Money{Cents: 100000})
	if s.Total.String() != "500.00" || s.Remaining.String() != "500.00" {
		t.Fatalf("unexpected totals: %+v", s)
	}
	if s.Progress != 62.5 || s.ProgressWidth() != "62.5%" || s.Color != ColorOnBudget {
		t.Fatalf("unexpected progress: %v %s %s", s.Progress, s.ProgressWidth(), s.Color)
	}
	if again := Summarize(items, Money{Cents: 80000}, Money{Cents: 100000}); again != s {
		t.Fatalf("summary not idempotent: %+v vs %+v", again, s)
	}
}

func TestProgress(t *testing.T) {
	cases := []struct {
		total, budget int64
		want          float64
		color         string
	}{
		{0, 0, 0, ColorOnBudget},
		{5000, 0, 0, ColorOnBudget},
		{20000, 10000, 100, ColorOverBudget},
		{9000, 10000, 90, ColorOverBudget},
		{8000, 10000, 80, ColorOnBudget},
	}
	for _, tc := range cases {
		got := Progress(Money{Cents: tc.total}, Money{Cents: tc.budget})
		if got != tc.want {
			t.Errorf("Progress(%d, %d) = %v, want %v", tc.total, tc.budget, got, tc.want)
		}
		if c := ProgressColor(got); c != tc.color {
			t.Errorf("ProgressColor(%v) = %s, want %s", got, c, tc.color)
		}
	}
}

func TestRemainingCanGoNegative(t *testing.T) {
	if got := Remaining(Money{Cents: 100}, Money{Cents: 300}); got.Cents != -200 {
		t.Fatalf("expected -200, got %d", got.Cents)
	}
}

func TestCategoryTotals(t *testing.T) {
	items := []Expense{
		expense("a", 100, "Food", "2024-05-01"),
		expense("b", 250, "Transport", "2024-05-02"),
		expense("c", 50, "Food", "2024-06-01"),
	}
	want := []CategoryAmount{
		{Name: "Food", Amount: Money{Cents: 150}},
		{Name: "Transport", Amount: Money{Cents: 250}},
	}
	if got := CategoryTotals(items); !reflect.DeepEqual(got, want) {
		t.Fatalf("CategoryTotals = %+v, want %+v", got, want)
	}
}

func TestFilterByMonth(t *testing.T) {
	items := []Expense{
		expense("may", 100, "Food", "2024-05-01"),
		expense("june", 100, "Food", "2024-06-01"),
	}
	got := FilterByMonth(items, "2024-05")
	if len(got) != 1 || got[0].Description != "may" {
		t.Fatalf("unexpected filter result: %+v", got)
	}
	if all := FilterByMonth(items, ""); len(all) != 2 || all[0].Description != "may" {
		t.Fatalf("empty filter should keep store order: %+v", all)
	}
}
