package app

import (
	"time"

	"github.com/ayusman/airbloom/internal/gesture"
	"github.com/ayusman/airbloom/internal/store"
)

// Message kinds pushed to renderer clients.
const (
	KindGesture    = "gesture"
	KindListening  = "listening"
	KindTranscript = "transcript"
	KindFlower     = "flower"
	KindError      = "error"
	KindStatus     = "status"
)

// Broadcaster delivers messages to every connected renderer.
type Broadcaster interface {
	Broadcast(kind string, data any)
}

type nopBroadcaster struct{}

func (nopBroadcaster) Broadcast(string, any) {}

// ListeningMessage announces the start or end of a speech capture.
type ListeningMessage struct {
	EventID   string `json:"event_id"`
	Listening bool   `json:"listening"`
}

// TranscriptMessage reports how a speech capture ended.
type TranscriptMessage struct {
	EventID  string        `json:"event_id"`
	Text     string        `json:"text"`
	Outcome  string        `json:"outcome"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration_ns"`
}

// FlowerMessage plants a flower at X, Y in preview pixels.
type FlowerMessage struct {
	*store.Flower
}

// ErrorMessage reports a failed stage without stopping the installation.
type ErrorMessage struct {
	Stage   string `json:"stage"`
	EventID string `json:"event_id,omitempty"`
	Message string `json:"message"`
}

// GestureMessage is sent when a loop closes.
type GestureMessage struct {
	gesture.Event
	Width  int `json:"width"`
	Height int `json:"height"`
}
