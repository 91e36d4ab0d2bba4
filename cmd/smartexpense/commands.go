package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"smartexpense/internal/cli"
	"smartexpense/internal/core"
	"smartexpense/internal/tracker"
)

var listMonth string

var addCmd = &cobra.Command{
	Use:   "add <description> <amount> [category]",
	Short: "Record an expense dated today",
	Args:  cobra.RangeArgs(2, 3),
	RunE: withTracker(func(ctx context.Context, out io.Writer, trk *tracker.Tracker, args []string) error {
		category := ""
		if len(args) == 3 {
			category = args[2]
		}
		e, err := trk.Add(ctx, args[0], args[1], category)
		if err != nil {
			return err
		}
		printExpense(out, e)
		return nil
	}),
}

var voiceCmd = &cobra.Command{
	Use:   "voice <transcript...>",
	Short: `Record an expense from a spoken-style command, e.g. "Add 500 Food Lunch"`,
	Args:  cobra.MinimumNArgs(1),
	RunE: withTracker(func(ctx context.Context, out io.Writer, trk *tracker.Tracker, args []string) error {
		e, err := trk.AddVoice(ctx, strings.Join(args, " "))
		if err != nil {
			return err
		}
		printExpense(out, e)
		return nil
	}),
}

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an expense by id",
	Args:  cobra.ExactArgs(1),
	RunE: withTracker(func(ctx context.Context, out io.Writer, trk *tracker.Tracker, args []string) error {
		if err := trk.Delete(ctx, args[0]); err != nil {
			return err
		}
		fmt.Fprintf(out, "deleted %s\n", args[0])
		return nil
	}),
}

var budgetCmd = &cobra.Command{
	Use:   "budget <amount>",
	Short: "Set the budget",
	Args:  cobra.ExactArgs(1),
	RunE: withTracker(func(ctx context.Context, out io.Writer, trk *tracker.Tracker, args []string) error {
		m, err := trk.SetBudget(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "budget %s\n", m)
		return nil
	}),
}

var incomeCmd = &cobra.Command{
	Use:   "income <amount>",
	Short: "Set the income",
	Args:  cobra.ExactArgs(1),
	RunE: withTracker(func(ctx context.Context, out io.Writer, trk *tracker.Tracker, args []string) error {
		m, err := trk.SetIncome(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "income %s\n", m)
		return nil
	}),
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List expenses, optionally for one month",
	Args:  cobra.NoArgs,
	RunE: withTracker(func(ctx context.Context, out io.Writer, trk *tracker.Tracker, args []string) error {
		expenses := trk.Expenses(listMonth)
		if len(expenses) == 0 {
			fmt.Fprintln(out, "no expenses")
			return nil
		}
		for _, e := range expenses {
			printExpense(out, e)
		}
		return nil
	}),
}

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show budget, income, total spent and remaining",
	Args:  cobra.NoArgs,
	RunE: withTracker(func(ctx context.Context, out io.Writer, trk *tracker.Tracker, args []string) error {
		printSummary(out, trk.Summary())
		return nil
	}),
}

func init() {
	listCmd.Flags().StringVar(&listMonth, "month", "", "month filter as YYYY-MM")
}

type trackerFunc func(ctx context.Context, out io.Writer, trk *tracker.Tracker, args []string) error

// withTracker opens a session for one command and closes it afterwards.
func withTracker(fn trackerFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		session, err := cli.OpenSession(ctx, state.cfg, state.logger, false)
		if err != nil {
			return err
		}
		defer session.Close()
		return fn(ctx, cmd.OutOrStdout(), session.Tracker, args)
	}
}

func printExpense(out io.Writer, e core.Expense) {
	fmt.Fprintf(out, "%s  %s  %-12s %10s  %s\n", e.ID, e.Date, e.Category, e.Amount, e.Description)
}

func printSummary(out io.Writer, s core.Summary) {
	fmt.Fprintf(out, "Budget:    %s\n", s.Budget)
	fmt.Fprintf(out, "Income:    %s\n", s.Income)
	fmt.Fprintf(out, "Spent:     %s\n", s.Total)
	fmt.Fprintf(out, "Remaining: %s\n", s.Remaining)
	fmt.Fprintf(out, "Progress:  %s\n", s.ProgressWidth())
}
