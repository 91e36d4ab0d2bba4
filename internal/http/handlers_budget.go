package http

import (
	"context"
	"net/http"

	"smartexpense/internal/core"
)

func (s *Server) handleSetBudget(w http.ResponseWriter, r *http.Request) {
	s.handleSetScalar(w, r, "budget", "Budget", s.tracker.SetBudget)
}

func (s *Server) handleSetIncome(w http.ResponseWriter, r *http.Request) {
	s.handleSetScalar(w, r, "income", "Income", s.tracker.SetIncome)
}

func (s *Server) handleSetScalar(w http.ResponseWriter, r *http.Request, field, label string, set func(context.Context, string) (core.Money, error)) {
	p, ok := parseBody(w, r)
	if !ok {
		return
	}

	m, err := set(r.Context(), p.Get(field))
	if err != nil {
		s.writeMutationError(w, r, err)
		return
	}
	NewHTMXResponse().
		TriggerExpensesChanged().
		TriggerFormReset(field + "-form").
		BodyHTML(`<div class="success">` + label + ` set to ` + m.String() + `</div>`).
		Write(w)
}
