// Package speech captures a spoken phrase after a gesture fires.
//
// Recognition itself happens in an external service; this package owns the
// completion contract: every capture attempt reports exactly one Result,
// whether it produced text, heard nothing, failed, timed out or panicked.
package speech

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNoSpeech is reported when the recognizer finished without hearing a phrase.
var ErrNoSpeech = errors.New("speech: no speech detected")

// Transcript is a recognized phrase.
type Transcript struct {
	Text       string  `json:"text"`
	Language   string  `json:"language"`
	Confidence float64 `json:"confidence"`
}

// Recognizer listens for a single phrase. Implementations must return when
// ctx is done.
type Recognizer interface {
	Recognize(ctx context.Context) (Transcript, error)
}

// Outcome classifies a finished capture.
type Outcome string

const (
	OutcomeOK       Outcome = "ok"
	OutcomeNoSpeech Outcome = "no_speech"
	OutcomeTimeout  Outcome = "timeout"
	OutcomeError    Outcome = "error"
)

// Result is the single completion notification of a capture attempt.
type Result struct {
	EventID    string
	Transcript Transcript
	Err        error
	Duration   time.Duration
}

// Outcome reports how the capture ended.
func (r Result) Outcome() Outcome {
	switch {
	case r.Err == nil:
		return OutcomeOK
	case errors.Is(r.Err, ErrNoSpeech):
		return OutcomeNoSpeech
	case errors.Is(r.Err, context.DeadlineExceeded):
		return OutcomeTimeout
	default:
		return OutcomeError
	}
}

// Listen runs one capture attempt in its own goroutine and calls done
// exactly once when it ends. The attempt is bounded by timeout; a blank
// transcript is reported as ErrNoSpeech.
func Listen(ctx context.Context, r Recognizer, eventID string, timeout time.Duration, done func(Result)) {
	go func() {
		start := time.Now()
		res := Result{EventID: eventID}

		defer func() {
			if p := recover(); p != nil {
				res.Transcript = Transcript{}
				res.Err = fmt.Errorf("speech: recognizer panic: %v", p)
			}
			res.Duration = time.Since(start)
			done(res)
		}()

		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		tr, err := r.Recognize(ctx)
		if err == nil && ctx.Err() != nil {
			err = ctx.Err()
		}
		if err != nil {
			res.Err = err
			return
		}

		tr.Text = strings.TrimSpace(tr.Text)
		if tr.Text == "" {
			res.Err = ErrNoSpeech
			return
		}
		res.Transcript = tr
	}()
}
