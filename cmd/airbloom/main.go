package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/ayusman/airbloom/internal/app"
	"github.com/ayusman/airbloom/internal/bloom"
	"github.com/ayusman/airbloom/internal/capture"
	"github.com/ayusman/airbloom/internal/config"
	"github.com/ayusman/airbloom/internal/detector"
	"github.com/ayusman/airbloom/internal/gesture"
	"github.com/ayusman/airbloom/internal/log"
	"github.com/ayusman/airbloom/internal/server"
	"github.com/ayusman/airbloom/internal/speech"
	"github.com/ayusman/airbloom/internal/store"
	"github.com/ayusman/airbloom/internal/tray"
)

func main() {
	configPath := flag.String("config", "", "Path to airbloom.yaml (default: search standard locations)")
	noTray := flag.Bool("no-tray", false, "Run without the system tray")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "airbloom: %v\n", err)
		os.Exit(1)
	}

	log.Init(cfg.Log.Level)
	if cfg.Source != "" {
		log.Info("config loaded", "path", cfg.Source)
	}

	if err := run(cfg, cfg.Tray.Enabled && !*noTray); err != nil {
		log.Error("airbloom stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, withTray bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.New(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("initialize store: %w", err)
	}
	defer st.Close()

	gcfg := restoreGesture(st, cfg.Gesture.Config)

	hand, err := detector.NewMediaPipeDetector(detector.DefaultConfig(), log.With("component", "detector"))
	var handDetector detector.Detector = hand
	if err != nil {
		log.Warn("hand tracking unavailable, no fingertip will be found", "error", err)
		handDetector = detector.NewMockDetector()
	}

	var generator bloom.Generator
	if cfg.Bloom.APIKey == "" {
		log.Warn("GEMINI_API_KEY not set, flowers will be seeded from the phrase")
	} else {
		generator = bloom.NewGeminiGenerator(bloom.GeminiConfig{
			BaseURL:     cfg.Bloom.BaseURL,
			Model:       cfg.Bloom.Model,
			APIKey:      cfg.Bloom.APIKey,
			Timeout:     cfg.Bloom.Timeout,
			Temperature: cfg.Bloom.Temperature,
			MaxRetries:  2,
		}, log.With("component", "bloom"))
	}

	hub := server.NewHub(log.With("component", "hub"))
	go hub.Run(ctx)

	var indicator *tray.Tray
	if withTray {
		indicator = tray.New(log.With("component", "tray"))
	}

	installation, err := app.New(app.Config{
		Camera: capture.NewCamera(capture.Options{
			Device: cfg.Camera.Device,
			Width:  cfg.Camera.Width,
			Height: cfg.Camera.Height,
			FPS:    cfg.Camera.FPS,
		}),
		Detector:        handDetector,
		Recognizer:      speech.NewHTTPRecognizer(cfg.Speech.URL, cfg.Speech.Language),
		Generator:       generator,
		Store:           st,
		Events:          hub,
		Gesture:         gcfg,
		Mirror:          cfg.Camera.Mirror,
		MotionThreshold: cfg.Camera.MotionThreshold,
		IdleTimeout:     cfg.Camera.IdleTimeout,
		SpeechTimeout:   cfg.Speech.Timeout,
		OnStatus: func(status app.Status, phrase string) {
			if indicator != nil {
				indicator.SetStatus(status, phrase)
			}
		},
		Logger: log.With("component", "app"),
	})
	if err != nil {
		return err
	}
	defer installation.Close()

	if err := installation.Start(); err != nil {
		log.Warn("camera unavailable, serving API only", "error", err)
	}

	webDir := findWebDir(cfg.Server.StaticDir)
	if webDir != "" {
		log.Info("serving renderer", "dir", webDir)
	}

	srv := server.New(server.Config{
		StaticDir: webDir,
		Store:     st,
		Control:   installation,
		Frames:    installation.Preview(),
		Hub:       hub,
		Logger:    log.With("component", "server"),
	})

	srvErr := make(chan error, 1)
	go func() {
		srvErr <- srv.ListenAndServe(ctx, cfg.Server.Addr)
	}()

	if indicator != nil {
		indicator.OnToggle(installation.SetEnabled)
		indicator.OnOpen(func() { openBrowser(rendererURL(cfg.Server.Addr)) })
		indicator.OnQuit(stop)
		go func() {
			select {
			case <-ctx.Done():
			case err := <-srvErr:
				srvErr <- err
				stop()
			}
			indicator.Quit()
		}()
		indicator.Run()
		stop()
		return <-srvErr
	}

	select {
	case <-ctx.Done():
		log.Info("shutting down")
		return <-srvErr
	case err := <-srvErr:
		return err
	}
}

// restoreGesture returns the thresholds saved through the settings API, or
// fallback when none are stored or they no longer validate.
func restoreGesture(st *store.Store, fallback gesture.Config) gesture.Config {
	var saved gesture.Config
	err := st.Settings().GetJSON(store.SettingGesture, &saved)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return fallback
	case err != nil:
		log.Warn("ignoring stored gesture settings", "error", err)
		return fallback
	}
	if err := saved.Validate(); err != nil {
		log.Warn("ignoring stored gesture settings", "error", err)
		return fallback
	}
	log.Info("restored gesture settings", "cooldown", saved.Cooldown, "close_threshold", saved.CloseThreshold)
	return saved
}

// findWebDir returns configured if it exists, otherwise the first of
// "web", "../web", "../../web" and ~/.airbloom/web that does.
func findWebDir(configured string) string {
	candidates := []string{}
	if configured != "" {
		candidates = append(candidates, configured)
	}
	candidates = append(candidates, "web", "../web", "../../web")
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, config.DataDirName, "web"))
	}

	for _, p := range candidates {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}
	return ""
}

func rendererURL(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "http://localhost" + addr + "/"
	}
	return "http://" + addr + "/"
}

func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		log.Warn("open browser", "url", url, "error", err)
		return
	}
	go cmd.Wait()
}
