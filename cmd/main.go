package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/driver/desktop"
	"github.com/gdamore/tcell/v2"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"tomatotimer/internal/core/session"
	"tomatotimer/internal/core/timekeeper"
	xlog "tomatotimer/internal/log"
	"tomatotimer/internal/platform"
	"tomatotimer/internal/storage"
	"tomatotimer/internal/ui/overlay"
	"tomatotimer/internal/ui/preferences"
	"tomatotimer/internal/ui/terminal"
	"tomatotimer/internal/ui/tray"
	"tomatotimer/resources"
)

const (
	appName = "TomatoTimer"
	appID   = "com.tomatotimer.app"
)

type options struct {
	terminal   bool
	duration   string
	configPath string
}

func main() {
	var opts options
	flag.BoolVar(&opts.terminal, "terminal", false, "run in the terminal instead of a window")
	flag.StringVar(&opts.duration, "duration", "", "countdown length, e.g. 90 or 1m30s (terminal mode)")
	flag.StringVar(&opts.configPath, "config", "", "settings file (default: user config dir)")
	flag.Parse()

	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
		os.Exit(1)
	}
}

func run(opts options) error {
	envErr := godotenv.Load()

	path := opts.configPath
	if path == "" {
		resolved, err := storage.SettingsPath(appName)
		if err != nil {
			return err
		}
		path = resolved
	}
	settings, loadErr := storage.LoadSettings(path)

	logOutput, closeLog := logDestination(opts.terminal, path)
	defer closeLog()
	xlog.Configure(xlog.Config{
		Level:   logLevel(settings),
		Output:  logOutput,
		Console: !opts.terminal,
	})
	logger := xlog.WithComponent("main")
	if envErr != nil {
		logger.Debug().Msg("no .env file found, using environment variables")
	}
	if loadErr != nil {
		logger.Warn().Err(loadErr).Str(xlog.FieldPath, path).Msg("using default settings")
	}

	guard, err := platform.AcquireSingleInstance(appName)
	if err != nil {
		if errors.Is(err, platform.ErrAlreadyRunning) {
			logger.Info().Err(err).Msg("asked the running instance to show itself")
			return nil
		}
		return err
	}
	defer func() {
		_ = guard.Release()
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	current := &settingsHolder{settings: settings}
	if opts.terminal {
		return runTerminal(ctx, opts, current, path, logger)
	}
	return runGUI(ctx, guard, current, path, logger)
}

func runGUI(ctx context.Context, guard *platform.InstanceGuard, current *settingsHolder, path string, logger zerolog.Logger) error {
	settings := current.get()

	fyneApp := app.NewWithID(appID)
	activeIcon := resources.MustLogo(resources.IconActive)
	pausedIcon := resources.MustLogo(resources.IconPaused)
	fyneApp.SetIcon(activeIcon)

	timerWindow := overlay.New(fyneApp, settings.Duration, settings.DurationUnit)
	controller := session.New(settings.SessionConfig(), session.Dependencies{
		Input:   timerWindow.Input(),
		Display: timerWindow,
		Sink:    timerWindow,
	})
	defer controller.Close()

	start := func() {
		if err := controller.Start(); err != nil {
			logger.Warn().Err(err).Msg("start ignored")
		}
	}
	timerWindow.SetControls(overlay.Controls{
		OnStart: start,
		OnStop:  controller.Stop,
		OnReset: controller.Reset,
	})

	var prefsWindow *preferences.Window
	apply := func(updated preferences.Settings) {
		previous := current.set(updated)
		controller.UpdateConfig(updated.SessionConfig())
		if previous.Duration != updated.Duration || previous.DurationUnit != updated.DurationUnit {
			timerWindow.SetDefaultDuration(updated.Duration, updated.DurationUnit)
		}
		if previous.LogLevel != updated.LogLevel {
			if level, err := zerolog.ParseLevel(updated.LogLevel); err == nil {
				zerolog.SetGlobalLevel(level)
			}
		}
	}
	prefsWindow = preferences.New(fyneApp, settings, func(updated preferences.Settings) {
		apply(updated)
		if err := storage.SaveSettings(path, updated); err != nil {
			logger.Error().Err(err).Str(xlog.FieldPath, path).Msg("save settings")
		}
	})

	watcher := watchSettings(ctx, path, func(updated preferences.Settings) {
		if updated == current.get() {
			return
		}
		apply(updated)
		fyne.Do(func() {
			prefsWindow.UpdateSettings(updated)
		})
	}, logger)
	if watcher != nil {
		defer func() {
			_ = watcher.Close()
		}()
	}

	if desktopApp, ok := fyneApp.(desktop.App); ok {
		trayManager := tray.New(desktopApp, tray.Callbacks{
			OnShow:        timerWindow.Show,
			OnStart:       start,
			OnStop:        controller.Stop,
			OnReset:       controller.Reset,
			OnPreferences: prefsWindow.Show,
			OnQuit:        fyneApp.Quit,
		})
		desktopApp.SetSystemTrayIcon(activeIcon)
		timerWindow.HideOnClose()

		events := controller.Subscribe(16)
		go func() {
			for event := range events {
				fyne.Do(func() {
					trayManager.SetState(event.State, event.Remaining)
					if event.State == timekeeper.StatePaused {
						desktopApp.SetSystemTrayIcon(pausedIcon)
					} else {
						desktopApp.SetSystemTrayIcon(activeIcon)
					}
				})
			}
		}()
	} else {
		logger.Info().Msg("system tray unsupported on this platform")
	}

	guard.Serve(func() {
		fyne.Do(timerWindow.Show)
	})
	go func() {
		<-ctx.Done()
		fyne.Do(fyneApp.Quit)
	}()

	timerWindow.Show()
	fyneApp.Run()
	return nil
}

func runTerminal(ctx context.Context, opts options, current *settingsHolder, path string, logger zerolog.Logger) error {
	settings := current.get()
	requested := settings.Duration
	if opts.duration != "" {
		requested = preferences.ParseDuration(opts.duration, preferences.UnitSeconds)
		if requested <= 0 {
			return fmt.Errorf("invalid -duration %q", opts.duration)
		}
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("open terminal: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("init terminal: %w", err)
	}
	defer screen.Fini()

	surface := terminal.NewSurface(nil)
	config := settings.SessionConfig()
	controller := session.New(config, session.Dependencies{
		Input:   session.DurationFunc(func() time.Duration { return requested }),
		Display: surface,
		Sink:    surface,
	})
	defer controller.Close()

	watcher := watchSettings(ctx, path, func(updated preferences.Settings) {
		current.set(updated)
		controller.UpdateConfig(updated.SessionConfig())
	}, logger)
	if watcher != nil {
		defer func() {
			_ = watcher.Close()
		}()
	}

	start := func() {
		if err := controller.Start(); err != nil {
			logger.Warn().Err(err).Dur(xlog.FieldDuration, requested).Msg("start ignored")
		}
	}
	start()
	terminal.Run(ctx, screen, surface, terminal.Controls{
		OnStart: start,
		OnStop:  controller.Stop,
		OnReset: controller.Reset,
	}, config.FrameInterval)
	return nil
}

func watchSettings(ctx context.Context, path string, onChange func(preferences.Settings), logger zerolog.Logger) *storage.Watcher {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		logger.Warn().Err(err).Str(xlog.FieldPath, path).Msg("settings reload disabled")
		return nil
	}
	watcher, err := storage.Watch(ctx, path, storage.DefaultDebounce, onChange)
	if err != nil {
		logger.Warn().Err(err).Str(xlog.FieldPath, path).Msg("settings reload disabled")
		return nil
	}
	return watcher
}

// logDestination keeps log lines off the terminal screen in terminal mode.
func logDestination(terminalMode bool, settingsPath string) (io.Writer, func()) {
	if !terminalMode {
		return os.Stderr, func() {}
	}
	logPath := filepath.Join(filepath.Dir(settingsPath), "tomatotimer.log")
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return io.Discard, func() {}
	}
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return io.Discard, func() {}
	}
	return file, func() {
		_ = file.Close()
	}
}

// logLevel prefers LOG_LEVEL over the settings file.
func logLevel(settings preferences.Settings) string {
	if os.Getenv("LOG_LEVEL") != "" {
		return ""
	}
	return settings.LogLevel
}

type settingsHolder struct {
	mu       sync.Mutex
	settings preferences.Settings
}

func (holder *settingsHolder) get() preferences.Settings {
	holder.mu.Lock()
	defer holder.mu.Unlock()
	return holder.settings
}

func (holder *settingsHolder) set(settings preferences.Settings) preferences.Settings {
	holder.mu.Lock()
	defer holder.mu.Unlock()
	previous := holder.settings
	holder.settings = settings
	return previous
}
