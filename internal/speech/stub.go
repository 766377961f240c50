package speech

import (
	"context"
	"sync"
	"time"
)

// StubRecognizer cycles through fixed phrases. It stands in for the
// recognizer service when running offline and in tests.
type StubRecognizer struct {
	Phrases []string
	Delay   time.Duration
	Err     error

	mu    sync.Mutex
	next  int
	calls int
}

// NewStubRecognizer returns a stub answering with phrases in order.
func NewStubRecognizer(phrases ...string) *StubRecognizer {
	return &StubRecognizer{Phrases: phrases}
}

// Recognize implements Recognizer.
func (s *StubRecognizer) Recognize(ctx context.Context) (Transcript, error) {
	s.mu.Lock()
	s.calls++
	err := s.Err
	text := ""
	if len(s.Phrases) > 0 {
		text = s.Phrases[s.next%len(s.Phrases)]
		s.next++
	}
	delay := s.Delay
	s.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return Transcript{}, ctx.Err()
		}
	}

	if err != nil {
		return Transcript{}, err
	}
	return Transcript{Text: text, Confidence: 1}, nil
}

// Calls returns how many times Recognize ran.
func (s *StubRecognizer) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}
