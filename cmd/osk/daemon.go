package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/godbus/dbus/v5"

	"osk/internal/config"
	"osk/internal/host"
	"osk/internal/keyboard"
	"osk/internal/logging"
	"osk/internal/predict"
	"osk/internal/protocol"
	"osk/internal/service"
)

// linkCapacity bounds each outbound peer queue.
const linkCapacity = 64

func runDaemon(parent context.Context) error {
	settings, path, err := config.LoadDiscovered(settingsPath)
	if err != nil {
		return err
	}
	if debugMode {
		settings.Logging.Level = "debug"
	}
	if layoutRef != "" {
		settings.Layouts.Default = layoutRef
	}

	logger, err := logging.New(settings.LoggingConfig())
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer logger.Close()
	logging.SetDefault(logger)
	log := logger.WithComponent("osk")

	if path == "" {
		log.Info("no settings file found, using defaults")
	} else {
		log.Info("settings loaded", "path", path)
	}

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	layouts, err := keyboard.LoadLayouts(settings.LayoutRefs(), settings.PurposeLayouts(), logger.WithComponent("layout"))
	if err != nil {
		return err
	}

	var pred predict.Predictor = predict.Nop{}
	trie, err := predict.Load(ctx, settings.Trie.RawFile, settings.Trie.CachedFile, logger.WithComponent("predict"))
	switch {
	case err == nil:
		log.Info("word list ready", "words", trie.Len())
		pred = trie
	case errors.Is(err, predict.ErrNoWords):
		log.Warn("no word list, suggestions disabled", "raw_file", settings.Trie.RawFile)
	default:
		log.Warn("failed to load word list, suggestions disabled", "error", err)
	}

	im := keyboard.NewLink[protocol.InputMethodCommand](linkCapacity)
	vk := keyboard.NewLink[protocol.VirtualKeyboardCommand](linkCapacity)
	win := keyboard.NewLink[protocol.WindowCommand](linkCapacity)

	// Set before the controller starts; called on its goroutine.
	var onPreferences func()
	ctl, err := keyboard.New(keyboard.Config{
		Layouts:         layouts,
		Predictor:       pred,
		Logger:          logger,
		InputMethod:     im,
		VirtualKeyboard: vk,
		Window:          win,
		OnPreferences: func() {
			if onPreferences != nil {
				onPreferences()
			}
		},
	})
	if err != nil {
		return err
	}

	var svc *service.Service
	if settings.DBus.Enabled {
		svc = service.New(service.Config{
			BusName:    settings.DBus.BusName,
			ObjectPath: dbus.ObjectPath(settings.DBus.ObjectPath),
			Keyboard:   ctl,
			Logger:     logger,
		})
		if err := svc.Start(); err != nil {
			return err
		}
		defer svc.Close()
		ctl.Watch(svc.Watch)
		onPreferences = svc.RequestPreferences
		go func() {
			if err := svc.Run(ctx, im, vk); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("service stopped", "error", err)
			}
		}()
	} else {
		log.Info("dbus service disabled, peer commands are dropped")
		im.Close()
		vk.Close()
		onPreferences = func() { log.Info("preferences requested") }
	}

	var h *host.Host
	if !headless {
		h = host.New(host.Config{
			Title:        settings.App.Title,
			Scale:        float32(settings.Window.Scale),
			IncreaseBy:   settings.ClickArea.IncreaseBy,
			ShowHitAreas: settings.ClickArea.Visible || showHits,
			Keyboard:     ctl,
			Window:       win,
			Logger:       logger,
		})
		ctl.Watch(h.Watch)
	} else {
		win.Close()
	}

	if path != "" {
		loader := config.NewLoader(path)
		loader.OnChange(func(s *config.Settings) {
			log.Info("settings reloaded", "path", path)
			if h != nil {
				h.SetClickArea(s.ClickArea.IncreaseBy, s.ClickArea.Visible || showHits)
			}
		})
		if err := loader.Watch(); err != nil {
			log.Warn("settings hot reload unavailable", "error", err)
		} else {
			defer loader.Close()
			go func() {
				for {
					select {
					case <-ctx.Done():
						return
					case err := <-loader.Errors():
						log.Warn("settings change ignored", "error", err)
					}
				}
			}()
		}
	}

	ctlErr := make(chan error, 1)
	go func() { ctlErr <- ctl.Run(ctx) }()

	if h != nil {
		go func() {
			if err := h.Run(ctx); err != nil {
				log.Error("window closed", "error", err)
			}
			stop()
		}()
	}

	log.Info("keyboard running", "layout", settings.Layouts.Default, "headless", headless)
	err = <-ctlErr
	if errors.Is(err, context.Canceled) {
		log.Info("shutting down")
		return nil
	}
	return err
}
