// Package voice defines the speech recognition capability used for spoken
// expense commands. A recognition session is single-shot: it yields at most one
// final transcript and is then torn down.
package voice

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// DefaultLang is the recognition language for every session.
const DefaultLang = "en-US"

var (
	// ErrUnsupported is returned when no recognizer is available.
	ErrUnsupported = errors.New("voice recognition not supported")
	// ErrNoResult is returned when a session ends without producing a result.
	ErrNoResult = errors.New("recognition ended without a result")
)

// Result is the outcome of one recognition session.
type Result struct {
	Transcript string
	Err        error
}

// Recognizer starts recognition sessions.
type Recognizer interface {
	Start(ctx context.Context, lang string) (*Subscription, error)
}

// Subscription is a live recognition session. Close releases whatever the
// recognizer acquired for it and is safe to call more than once.
type Subscription struct {
	results  <-chan Result
	teardown func()
	once     sync.Once
}

func NewSubscription(results <-chan Result, teardown func()) *Subscription {
	return &Subscription{results: results, teardown: teardown}
}

// Results delivers at most one value.
func (s *Subscription) Results() <-chan Result {
	return s.results
}

func (s *Subscription) Close() {
	s.once.Do(func() {
		if s.teardown != nil {
			s.teardown()
		}
	})
}

// Listen runs one recognition session and hands the final transcript to handle.
// The subscription is closed on every path, including cancellation.
func Listen(ctx context.Context, rec Recognizer, handle func(transcript string) error) error {
	if rec == nil {
		return ErrUnsupported
	}

	sub, err := rec.Start(ctx, DefaultLang)
	if err != nil {
		return fmt.Errorf("start recognition: %w", err)
	}
	defer sub.Close()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case res, ok := <-sub.Results():
		if !ok {
			return ErrNoResult
		}
		if res.Err != nil {
			return fmt.Errorf("recognition: %w", res.Err)
		}
		// Release the session before handling the transcript.
		sub.Close()
		return handle(res.Transcript)
	}
}
