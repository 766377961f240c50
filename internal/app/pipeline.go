package app

import (
	"context"
	"errors"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/airbloom/internal/detector"
	"github.com/ayusman/airbloom/internal/gesture"
	"github.com/ayusman/airbloom/internal/speech"
	"github.com/ayusman/airbloom/internal/store"
	"github.com/ayusman/airbloom/internal/trajectory"
)

// run is the frame loop. It ticks at the camera frame rate; every tick is
// one recognizer frame, whether or not a hand was found, so cooldowns are
// measured in frames.
func (a *App) run(ctx context.Context, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	fps := a.cfg.Camera.FPS()
	if fps <= 0 {
		fps = 30
	}
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case res := <-a.results:
			a.onResult(ctx, res)
		case req := <-a.reconfig:
			req.reply <- a.applyConfig(req.cfg)
		case now := <-ticker.C:
			a.step(ctx, now)
		}
	}
}

// step processes one frame.
func (a *App) step(ctx context.Context, now time.Time) {
	frame, err := a.cfg.Camera.ReadFrame()
	if err != nil {
		a.logger.Debug("read frame", "error", err)
		a.advance(ctx, nil)
		return
	}
	defer frame.Close()

	var tip *trajectory.Point
	if a.enabled.Load() && a.gate.Active(frame, now) {
		tip = a.locate(frame)
	}

	a.advance(ctx, tip)
	a.preview.Update(frame, a.det.Trail(), tip)
}

// locate returns the index fingertip in preview pixels, or nil.
func (a *App) locate(frame *gocv.Mat) *trajectory.Point {
	hands, err := a.cfg.Detector.Detect(frame)
	if err != nil {
		a.logger.Warn("hand detection failed", "error", err)
		return nil
	}

	hand, ok := detector.Primary(hands)
	if !ok {
		return nil
	}

	p, ok := detector.Fingertip(hand, frame.Cols(), frame.Rows(), a.cfg.Mirror)
	if !ok {
		return nil
	}
	return &p
}

// advance feeds one frame to the recognizer and publishes the result.
func (a *App) advance(ctx context.Context, tip *trajectory.Point) {
	a.det.OnTrackedPoint(tip)
	if ev, ok := a.det.TakeEvent(); ok {
		a.onGesture(ctx, ev)
	}
	a.publish(tip)
}

func (a *App) onGesture(ctx context.Context, ev gesture.Event) {
	a.logger.Info("loop closed",
		"event", ev.ID,
		"x", int(ev.Centroid.X), "y", int(ev.Centroid.Y),
		"points", ev.Points, "roundness", ev.Roundness)

	if a.cfg.Store != nil {
		err := a.cfg.Store.Captures().Create(&store.Capture{
			ID:        ev.ID,
			CentroidX: ev.Centroid.X,
			CentroidY: ev.Centroid.Y,
			Points:    ev.Points,
			Path:      ev.Path,
			Roundness: ev.Roundness,
			CreatedAt: ev.At,
		})
		if err != nil {
			a.logger.Error("record capture", "event", ev.ID, "error", err)
		}
	}

	w, h := a.cfg.Camera.Size()
	a.cfg.Events.Broadcast(KindGesture, GestureMessage{Event: ev, Width: w, Height: h})
	a.cfg.Events.Broadcast(KindListening, ListeningMessage{EventID: ev.ID, Listening: true})

	a.listening = &ev

	speech.Listen(ctx, a.cfg.Recognizer, ev.ID, a.cfg.SpeechTimeout, func(res speech.Result) {
		select {
		case a.results <- res:
		case <-ctx.Done():
		}
	})
}

// onResult is the completion of a speech capture. It always releases the
// recognizer lock for the capture it belongs to.
func (a *App) onResult(ctx context.Context, res speech.Result) {
	ev := a.listening
	if ev == nil || ev.ID != res.EventID {
		a.logger.Warn("stale speech result", "event", res.EventID)
		return
	}
	a.listening = nil
	a.det.Release()

	outcome := res.Outcome()
	text := res.Transcript.Text
	log := a.logger.With("event", res.EventID, "outcome", outcome, "took", res.Duration.Round(time.Millisecond))

	msg := TranscriptMessage{EventID: res.EventID, Text: text, Outcome: string(outcome), Duration: res.Duration}
	switch outcome {
	case speech.OutcomeOK:
		log.Info("phrase heard", "text", text)
	case speech.OutcomeNoSpeech:
		log.Info("nothing heard")
	default:
		log.Warn("speech capture failed", "error", res.Err)
		msg.Error = res.Err.Error()
	}

	if a.cfg.Store != nil {
		if err := a.cfg.Store.Captures().Finish(res.EventID, text, string(outcome)); err != nil {
			log.Error("finish capture", "error", err)
		}
	}

	a.cfg.Events.Broadcast(KindListening, ListeningMessage{EventID: res.EventID, Listening: false})
	a.cfg.Events.Broadcast(KindTranscript, msg)
	if msg.Error != "" {
		a.cfg.Events.Broadcast(KindError, ErrorMessage{Stage: "speech", EventID: res.EventID, Message: msg.Error})
	}

	if outcome != speech.OutcomeOK {
		return
	}

	a.lastPhrase = text
	a.growing.Add(1)
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		defer a.growing.Add(-1)
		if _, err := a.grow(ctx, ev.ID, text, ev.Centroid); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("grow flower", "error", err)
		}
	}()
}

// grow generates, stores and broadcasts one flower. A failed generation
// still yields a seeded flower; the failure is reported as an error message.
func (a *App) grow(ctx context.Context, captureID, phrase string, at trajectory.Point) (*store.Flower, error) {
	spec, err := a.generator.Generate(ctx, phrase)
	if err != nil {
		a.logger.Warn("flower generation failed, using seeded flower", "phrase", phrase, "error", err)
		a.cfg.Events.Broadcast(KindError, ErrorMessage{Stage: "generate", EventID: captureID, Message: err.Error()})
	}
	if spec == nil {
		return nil, err
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	f := &store.Flower{
		CaptureID: captureID,
		Phrase:    phrase,
		Spec:      *spec,
		X:         at.X,
		Y:         at.Y,
	}
	if a.cfg.Store != nil {
		if err := a.cfg.Store.Flowers().Create(f); err != nil {
			return nil, err
		}
	}

	a.logger.Info("flower planted", "id", f.ID, "name", spec.Name, "source", spec.Source)
	a.cfg.Events.Broadcast(KindFlower, FlowerMessage{Flower: f})
	return f, nil
}

// publish refreshes the state snapshot and reports status changes.
func (a *App) publish(tip *trajectory.Point) {
	snap := a.det.Snapshot()

	status := StatusReady
	switch {
	case !a.enabled.Load():
		status = StatusPaused
	case a.listening != nil:
		status = StatusListening
	case a.growing.Load() > 0:
		status = StatusGrowing
	}

	a.stateMu.Lock()
	a.state.State = snap
	a.state.Status = status
	a.state.Listening = a.listening != nil
	a.state.Fingertip = tip
	a.state.LastPhrase = a.lastPhrase
	a.state.Frames++
	a.stateMu.Unlock()

	if status != a.lastStatus {
		a.lastStatus = status
		a.cfg.Events.Broadcast(KindStatus, map[string]any{"status": status, "last_phrase": a.lastPhrase})
		if a.cfg.OnStatus != nil {
			a.cfg.OnStatus(status, a.lastPhrase)
		}
	}
}
