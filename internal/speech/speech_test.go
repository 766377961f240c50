package speech

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recognizerFunc func(ctx context.Context) (Transcript, error)

func (f recognizerFunc) Recognize(ctx context.Context) (Transcript, error) { return f(ctx) }

// listen runs Listen and waits for its single result.
func listen(t *testing.T, r Recognizer, timeout time.Duration) Result {
	t.Helper()
	results := make(chan Result, 2)
	Listen(context.Background(), r, "ev-1", timeout, func(res Result) { results <- res })

	var res Result
	select {
	case res = <-results:
	case <-time.After(5 * time.Second):
		t.Fatal("no result delivered")
	}

	select {
	case extra := <-results:
		t.Fatalf("second result delivered: %+v", extra)
	case <-time.After(20 * time.Millisecond):
	}
	return res
}

func TestListen_Outcomes(t *testing.T) {
	boom := errors.New("mic unplugged")

	tests := []struct {
		name    string
		rec     Recognizer
		timeout time.Duration
		want    Outcome
		text    string
	}{
		{
			name:    "phrase",
			rec:     NewStubRecognizer("  a blue tulip "),
			timeout: time.Second,
			want:    OutcomeOK,
			text:    "a blue tulip",
		},
		{
			name:    "blank",
			rec:     NewStubRecognizer("   "),
			timeout: time.Second,
			want:    OutcomeNoSpeech,
		},
		{
			name:    "no speech error",
			rec:     &StubRecognizer{Err: ErrNoSpeech},
			timeout: time.Second,
			want:    OutcomeNoSpeech,
		},
		{
			name:    "failure",
			rec:     &StubRecognizer{Err: boom},
			timeout: time.Second,
			want:    OutcomeError,
		},
		{
			name:    "timeout",
			rec:     &StubRecognizer{Phrases: []string{"late"}, Delay: time.Second},
			timeout: 20 * time.Millisecond,
			want:    OutcomeTimeout,
		},
		{
			name: "ignores context",
			rec: recognizerFunc(func(ctx context.Context) (Transcript, error) {
				<-ctx.Done()
				return Transcript{Text: "too late"}, nil
			}),
			timeout: 10 * time.Millisecond,
			want:    OutcomeTimeout,
		},
		{
			name: "panic",
			rec: recognizerFunc(func(ctx context.Context) (Transcript, error) {
				panic("driver crashed")
			}),
			timeout: time.Second,
			want:    OutcomeError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := listen(t, tt.rec, tt.timeout)
			assert.Equal(t, "ev-1", res.EventID)
			assert.Equal(t, tt.want, res.Outcome(), "err: %v", res.Err)
			assert.Equal(t, tt.text, res.Transcript.Text)
		})
	}
}

func TestStubRecognizer_Cycles(t *testing.T) {
	s := NewStubRecognizer("rose", "lily")
	ctx := context.Background()

	for _, want := range []string{"rose", "lily", "rose"} {
		tr, err := s.Recognize(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, tr.Text)
	}
	assert.Equal(t, 3, s.Calls())
}

func TestHTTPRecognizer(t *testing.T) {
	var got listenRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/listen" {
			http.Error(w, "unexpected", http.StatusNotFound)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"text":"sakura in the rain","confidence":0.87}`))
	}))
	defer srv.Close()

	rec := NewHTTPRecognizer(srv.URL+"/", "ja-JP")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	tr, err := rec.Recognize(ctx)
	require.NoError(t, err)
	assert.Equal(t, "sakura in the rain", tr.Text)
	assert.Equal(t, "ja-JP", tr.Language)
	assert.InDelta(t, 0.87, tr.Confidence, 1e-9)

	assert.Equal(t, "ja-JP", got.Language)
	assert.Greater(t, got.TimeoutMs, int64(0))
}

func TestHTTPRecognizer_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		check   func(t *testing.T, err error)
	}{
		{
			name: "no content",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNoContent)
			},
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrNoSpeech)
			},
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "microphone busy", http.StatusServiceUnavailable)
			},
			check: func(t *testing.T, err error) {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "microphone busy")
			},
		},
		{
			name: "bad json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("{not json"))
			},
			check: func(t *testing.T, err error) {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "speech decode")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			_, err := NewHTTPRecognizer(srv.URL, "en-US").Recognize(context.Background())
			tt.check(t, err)
		})
	}
}
