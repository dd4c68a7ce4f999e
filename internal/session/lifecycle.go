package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"embershell/internal/events"
)

// Initialize performs one-time engine and configuration initialization.
//
// Order: global engine init, configuration load, instance creation. Any
// failure is fatal for the session (readiness = Error); the session is then
// unusable and the caller decides recovery. On success readiness = Ready and
// host keyboard-layout notifications are forwarded to the engine.
func (s *Session) Initialize() error {
	if s.Readiness() != ReadinessLoading {
		return errors.New("session: already initialized")
	}

	if err := s.runtime.Init(); err != nil {
		s.setReadiness(ReadinessError)
		slog.Error("[session] engine global init failed", "error", err)
		return fmt.Errorf("session: engine init: %w", err)
	}

	cfg, err := s.loadConfig()
	if err != nil {
		s.setReadiness(ReadinessError)
		slog.Error("[session] configuration load failed", "error", err)
		return fmt.Errorf("session: load config: %w", err)
	}

	s.token = s.registry.Register(s)

	inst, err := s.runtime.NewInstance(s.callbacks())
	if err == nil && inst == nil {
		err = errors.New("engine returned no instance")
	}
	if err != nil {
		cfg.Close()
		s.setReadiness(ReadinessError)
		slog.Error("[session] engine instance creation failed", "error", err)
		return fmt.Errorf("session: create instance: %w", err)
	}
	inst.ReplaceConfig(cfg)

	s.mu.Lock()
	s.cfg = cfg
	s.inst = inst
	s.readiness = ReadinessReady
	s.mu.Unlock()

	if s.layout != nil {
		cancel, subErr := s.layout.Subscribe(s.KeyboardLayoutChanged)
		if subErr != nil {
			// Non-fatal: the app works without layout notifications, the
			// engine just keeps its current keymap until restart.
			slog.Warn("[session] keyboard layout subscription failed", "error", subErr)
		} else {
			s.layoutCancel = cancel
		}
	}

	slog.Info("[session] ready",
		"engineVersion", s.runtime.BuildInfo().Version,
		"engineMode", s.runtime.BuildInfo().Mode)
	return nil
}

// Run drains wakeup requests and executes engine ticks. It must be the only
// goroutine that calls Instance.Tick; everything the engine mutates during a
// tick is confined to this loop. Run returns when ctx is cancelled or the
// session shuts down.
func (s *Session) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case <-s.wake:
			s.tick()
		}
	}
}

// requestTick is the wakeup trampoline target. It may run on any goroutine;
// its only action is making the owner loop runnable.
func (s *Session) requestTick() {
	select {
	case s.wake <- struct{}{}:
	default:
		// A tick is already pending; wakeups coalesce.
	}
}

func (s *Session) tick() {
	inst := s.instance()
	if inst == nil {
		slog.Debug("[session] tick skipped: no engine instance")
		return
	}
	if !inst.Tick() {
		return
	}
	slog.Info("[session] engine requested exit")
	s.bus.Publish(events.QuitRequested{})
	if s.quit != nil {
		s.quit()
	}
}

// Shutdown releases the engine instance and configuration handle. Safe to
// call more than once; only the first call has effect. Readiness is left as
// is: readiness describes initialization, not liveness.
func (s *Session) Shutdown() {
	s.closeOnce.Do(func() {
		close(s.done)
		if s.layoutCancel != nil {
			s.layoutCancel()
			s.layoutCancel = nil
		}

		s.mu.Lock()
		inst := s.inst
		cfg := s.cfg
		s.inst = nil
		s.cfg = nil
		s.mu.Unlock()

		if inst != nil {
			inst.Close()
		}
		if cfg != nil {
			cfg.Close()
		}
		if s.token != 0 {
			s.registry.Deregister(s.token)
		}
		slog.Info("[session] shut down")
	})
}
