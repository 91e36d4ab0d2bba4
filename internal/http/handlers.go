package http

import (
	"bytes"
	"errors"
	"net/http"

	"smartexpense/internal/log"
	"smartexpense/internal/tracker"
)

const (
	alertSaveFailed = "Could not save changes"
	alertNotFound   = "Expense not found"
	alertBadRequest = "Invalid request format"
	templateIndex   = "index.html"
	templateTable   = "expenses_table"
	templateSummary = "summary"
)

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.readiness != nil {
		if err := s.readiness.Ping(r.Context()); err != nil {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", log.FieldError, err)
			http.Error(w, "storage unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	month := ParseMonthFilter(r.URL.Query())
	data := pageView{
		tableView:   newTableView(month, s.tracker.Expenses(month)),
		Summary:     newSummaryView(s.tracker.Summary()),
		ServerVoice: s.recognizer != nil,
	}
	s.render(w, r, templateIndex, data)
}

func (s *Server) handleExpensesPartial(w http.ResponseWriter, r *http.Request) {
	month := ParseMonthFilter(r.URL.Query())
	s.render(w, r, templateTable, newTableView(month, s.tracker.Expenses(month)))
}

func (s *Server) handleSummaryPartial(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, templateSummary, newSummaryView(s.tracker.Summary()))
}

// handleChart serves the pie chart series. Colours change on every call.
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	NewHTMXResponse().
		Header("Cache-Control", "no-store").
		JSON(s.tracker.Chart()).
		Write(w)
}

// render executes name into a buffer so a template failure never leaves a
// half-written page behind.
func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	logger := log.FromContext(r.Context())
	if s.templates == nil {
		logger.ErrorContext(r.Context(), "Templates not loaded", log.FieldPath, r.URL.Path)
		InternalServerError("templates not loaded").Write(w)
		return
	}

	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		logger.ErrorContext(r.Context(), "Template execution failed",
			log.FieldError, err, "template", name, log.FieldOperation, log.OpRender)
		InternalServerError("render failed").Write(w)
		return
	}
	NewHTMXResponse().BodyHTML(buf.String()).Write(w)
}

// writeMutationError maps tracker errors to responses. Validation failures are
// 422 with the alert text. A persistence failure is 500, but the in-memory
// change already happened so the views are still told to refresh.
func (s *Server) writeMutationError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *tracker.ValidationError
	switch {
	case errors.As(err, &ve):
		alert := ve.Alert()
		UnprocessableEntityError(alert).TriggerErrorNotification(alert).Write(w)
	case errors.Is(err, tracker.ErrNotFound):
		NotFoundError(alertNotFound).TriggerErrorNotification(alertNotFound).Write(w)
	default:
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Mutation failed",
			log.FieldError, err, log.FieldPath, r.URL.Path)
		InternalServerError(alertSaveFailed).
			TriggerErrorNotification(alertSaveFailed).
			TriggerExpensesChanged().
			Write(w)
	}
}

// parseBody parses a form or JSON body, writing a 400 on failure.
func parseBody(w http.ResponseWriter, r *http.Request) (*RequestBodyParser, bool) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Parse body error",
			log.FieldError, err, log.FieldMethod, r.Method, log.FieldPath, r.URL.Path)
		BadRequestError(alertBadRequest).Write(w)
		return nil, false
	}
	return p, true
}
