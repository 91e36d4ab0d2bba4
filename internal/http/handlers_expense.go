package http

import (
	"context"
	"errors"
	"html/template"
	"net/http"

	"github.com/go-chi/chi"

	"smartexpense/internal/core"
	"smartexpense/internal/log"
	"smartexpense/internal/tracker"
	"smartexpense/internal/voice"
)

const (
	formExpense        = "expense-form"
	alertVoiceFailed   = "Voice recognition failed"
	alertVoiceNoSpeech = "No speech recognized"
)

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	p, ok := parseBody(w, r)
	if !ok {
		return
	}

	e, err := s.tracker.Add(r.Context(),
		p.Get("description"),
		p.Get("amount"),
		p.Get("category"))
	if err != nil {
		s.writeMutationError(w, r, err)
		return
	}
	s.writeExpenseAdded(w, e)
}

// handleDeleteExpense removes the record by identity. The month filter of the
// page has no effect on which record goes.
func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.tracker.Delete(r.Context(), id); err != nil {
		s.writeMutationError(w, r, err)
		return
	}
	NewHTMXResponse().
		TriggerExpensesChanged().
		BodyHTML(`<div class="success">Expense deleted</div>`).
		Write(w)
}

// handleVoiceTranscript accepts a transcript captured by the browser.
func (s *Server) handleVoiceTranscript(w http.ResponseWriter, r *http.Request) {
	p, ok := parseBody(w, r)
	if !ok {
		return
	}

	e, err := s.tracker.AddVoice(r.Context(), p.Get("transcript"))
	if err != nil {
		s.writeMutationError(w, r, err)
		return
	}
	s.writeExpenseAdded(w, e)
}

// handleVoiceListen runs one server-side recognition session and records the
// spoken command.
func (s *Server) handleVoiceListen(w http.ResponseWriter, r *http.Request) {
	if s.recognizer == nil {
		msg := "Voice recognition not supported"
		NotImplementedError(msg).TriggerErrorNotification(msg).Write(w)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.voiceTimeout)
	defer cancel()

	var added core.Expense
	err := voice.Listen(ctx, s.recognizer, func(transcript string) error {
		log.FromContext(ctx).InfoContext(ctx, "Transcript received",
			log.FieldOperation, log.OpVoice, "transcript", transcript)
		e, err := s.tracker.AddVoice(r.Context(), transcript)
		added = e
		return err
	})

	var ve *tracker.ValidationError
	switch {
	case err == nil:
		s.writeExpenseAdded(w, added)
	case errors.As(err, &ve):
		s.writeMutationError(w, r, err)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, voice.ErrNoResult):
		ErrorResponse(http.StatusGatewayTimeout, alertVoiceNoSpeech).
			TriggerErrorNotification(alertVoiceNoSpeech).
			Write(w)
	case errors.Is(err, voice.ErrUnsupported):
		NotImplementedError(err.Error()).TriggerErrorNotification(err.Error()).Write(w)
	case added.ID != "":
		// Recorded in memory but not persisted.
		s.writeMutationError(w, r, err)
	default:
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Voice recognition failed",
			log.FieldError, err, log.FieldOperation, log.OpVoice)
		ErrorResponse(http.StatusBadGateway, alertVoiceFailed).
			TriggerErrorNotification(alertVoiceFailed).
			Write(w)
	}
}

func (s *Server) writeExpenseAdded(w http.ResponseWriter, e core.Expense) {
	NewHTMXResponse().
		TriggerExpensesChanged().
		TriggerFormReset(formExpense).
		BodyHTML(`<div class="success">Added ` +
			template.HTMLEscapeString(e.Description) + ` ` +
			template.HTMLEscapeString(e.Amount.String()) + ` (` +
			template.HTMLEscapeString(e.Category) + `)</div>`).
		Write(w)
}
