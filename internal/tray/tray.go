// Package tray provides the menu bar indicator for airbloom: what the
// installation is doing, the last phrase heard, and a tracking toggle.
package tray

import (
	"log/slog"
	"sync"
	"unicode/utf8"

	"github.com/getlantern/systray"

	"github.com/ayusman/airbloom/internal/app"
)

const maxPhraseLen = 32

// Tray represents the system tray application.
type Tray struct {
	onToggle func(enabled bool)
	onOpen   func()
	onQuit   func()
	logger   *slog.Logger

	mu      sync.RWMutex
	enabled bool
	status  app.Status
	phrase  string

	// Menu items stored for later updates
	menuStatus *systray.MenuItem
	menuToggle *systray.MenuItem
	menuPhrase *systray.MenuItem
}

// New creates a new Tray, enabled and ready by default.
func New(logger *slog.Logger) *Tray {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Tray{
		enabled: true,
		status:  app.StatusReady,
		logger:  logger,
	}
}

// OnToggle sets the callback invoked when tracking is switched on or off.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnOpen sets the callback invoked by "Open Garden...".
func (t *Tray) OnOpen(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onOpen = fn
}

// OnQuit sets the callback invoked before the tray exits.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until Quit is called and must run on the main thread.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit stops the tray event loop.
func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetTitle("airbloom")
	systray.SetTooltip("airbloom: draw a circle, say a word")

	t.mu.Lock()
	t.menuStatus = systray.AddMenuItem(statusLabel(t.status), "What airbloom is doing")
	t.menuStatus.Disable()
	t.menuToggle = systray.AddMenuItem(toggleLabel(t.enabled), "Toggle hand tracking")
	systray.AddSeparator()
	t.menuPhrase = systray.AddMenuItem(phraseLabel(t.phrase), "Last phrase heard")
	t.menuPhrase.Disable()
	t.mu.Unlock()

	systray.AddSeparator()
	menuOpen := systray.AddMenuItem("Open Garden...", "Open the renderer in a browser")
	systray.AddSeparator()
	menuQuit := systray.AddMenuItem("Quit", "Quit airbloom")

	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuOpen.ClickedCh:
				t.handleOpen()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func (t *Tray) onExit() {
	t.logger.Debug("tray exited")
}

// handleToggle handles the toggle menu item click.
func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleLabel(enabled))
	}
	callback := t.onToggle
	t.mu.Unlock()

	t.logger.Info("tracking toggled from tray", "enabled", enabled)

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(enabled)
	}
}

func (t *Tray) handleOpen() {
	t.mu.RLock()
	callback := t.onOpen
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// SetStatus updates the status line and last phrase. It matches
// app.Config.OnStatus and may be called before the tray is ready.
func (t *Tray) SetStatus(status app.Status, phrase string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.status = status
	t.phrase = phrase
	if status == app.StatusPaused {
		t.enabled = false
	} else {
		t.enabled = true
	}

	if t.menuStatus != nil {
		t.menuStatus.SetTitle(statusLabel(status))
		t.menuToggle.SetTitle(toggleLabel(t.enabled))
		t.menuPhrase.SetTitle(phraseLabel(phrase))
	}
}

// Status returns the last status shown.
func (t *Tray) Status() (app.Status, string) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status, t.phrase
}

// IsEnabled returns the current enabled state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}

func statusLabel(s app.Status) string {
	switch s {
	case app.StatusListening:
		return "Listening…"
	case app.StatusGrowing:
		return "Growing…"
	case app.StatusPaused:
		return "Paused"
	default:
		return "Ready"
	}
}

func toggleLabel(enabled bool) string {
	if enabled {
		return "● Tracking"
	}
	return "○ Tracking off"
}

func phraseLabel(phrase string) string {
	if phrase == "" {
		return "Last: none"
	}
	if utf8.RuneCountInString(phrase) > maxPhraseLen {
		runes := []rune(phrase)
		phrase = string(runes[:maxPhraseLen-1]) + "…"
	}
	return "Last: “" + phrase + "”"
}
