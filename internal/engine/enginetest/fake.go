// Package enginetest provides an in-memory fake of the engine boundary for
// tests. The fake records calls and lets tests script failures at each
// lifecycle step; it implements no terminal behavior.
package enginetest

import (
	"errors"
	"sync"

	"embershell/internal/engine"
)

// Runtime is a scriptable engine.Runtime fake.
type Runtime struct {
	mu sync.Mutex

	// Failure switches. When set, the corresponding call returns an error.
	FailInit        bool
	FailNewConfig   bool
	FailNewInstance bool
	// NilInstance makes NewInstance return (nil, nil), the null-result
	// creation failure the shell must treat as fatal.
	NilInstance bool

	// ConfigTemplate, when non-nil, is cloned for every NewConfig call.
	ConfigTemplate *Config

	Build engine.BuildInfo

	InitCalls      int
	NewConfigCalls int
	Instances      []*Instance
	Configs        []*Config
}

// NewRuntime creates a fake runtime with a release build info.
func NewRuntime() *Runtime {
	return &Runtime{Build: engine.BuildInfo{Mode: "release", Version: "0.0.0-test"}}
}

// Init implements engine.Runtime.
func (r *Runtime) Init() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.InitCalls++
	if r.FailInit {
		return errors.New("enginetest: init failed")
	}
	return nil
}

// NewConfig implements engine.Runtime.
func (r *Runtime) NewConfig() (engine.Config, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.NewConfigCalls++
	if r.FailNewConfig {
		return nil, errors.New("enginetest: config creation failed")
	}
	cfg := &Config{}
	if r.ConfigTemplate != nil {
		t := r.ConfigTemplate
		cfg = &Config{
			FailDefaults:       t.FailDefaults,
			FailCLIArgs:        t.FailCLIArgs,
			FailRecursive:      t.FailRecursive,
			FailFinalize:       t.FailFinalize,
			DiagnosticMessages: t.DiagnosticMessages,
			FilePaths:          t.FilePaths,
			Decorations:        t.Decorations,
			Theme:              t.Theme,
			Opacity:            t.Opacity,
		}
	}
	r.Configs = append(r.Configs, cfg)
	return cfg, nil
}

// NewInstance implements engine.Runtime.
func (r *Runtime) NewInstance(callbacks engine.Callbacks) (engine.Instance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailNewInstance {
		return nil, errors.New("enginetest: instance creation failed")
	}
	if r.NilInstance {
		return nil, nil
	}
	inst := &Instance{Callbacks: callbacks}
	r.Instances = append(r.Instances, inst)
	return inst, nil
}

// BuildInfo implements engine.Runtime.
func (r *Runtime) BuildInfo() engine.BuildInfo { return r.Build }

// Instance is the handle returned by NewInstance. The last fake created by a
// Runtime is usually the one under test.
func (r *Runtime) Instance() *Instance {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.Instances) == 0 {
		return nil
	}
	return r.Instances[len(r.Instances)-1]
}

// Config is a scriptable engine.Config fake.
type Config struct {
	mu sync.Mutex

	FailDefaults  bool
	FailCLIArgs   bool
	FailRecursive bool
	FailFinalize  bool

	DiagnosticMessages []string
	FilePaths          []string

	Decorations bool
	Theme       string
	Opacity     float64

	FinalizeCalls int
	Closed        bool
}

// LoadDefaultFiles implements engine.Config.
func (c *Config) LoadDefaultFiles() error {
	if c.FailDefaults {
		return errors.New("enginetest: load default files failed")
	}
	return nil
}

// LoadCLIArgs implements engine.Config.
func (c *Config) LoadCLIArgs() error {
	if c.FailCLIArgs {
		return errors.New("enginetest: load cli args failed")
	}
	return nil
}

// LoadRecursiveFiles implements engine.Config.
func (c *Config) LoadRecursiveFiles() error {
	if c.FailRecursive {
		return errors.New("enginetest: load recursive files failed")
	}
	return nil
}

// Finalize implements engine.Config.
func (c *Config) Finalize() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.FailFinalize {
		return errors.New("enginetest: finalize failed")
	}
	c.FinalizeCalls++
	return nil
}

// Diagnostics implements engine.Config.
func (c *Config) Diagnostics() []string { return c.DiagnosticMessages }

// Paths implements engine.Config.
func (c *Config) Paths() []string { return c.FilePaths }

// WindowDecorations implements engine.Config.
func (c *Config) WindowDecorations() bool { return c.Decorations }

// WindowTheme implements engine.Config.
func (c *Config) WindowTheme() string { return c.Theme }

// BackgroundOpacity implements engine.Config.
func (c *Config) BackgroundOpacity() float64 { return c.Opacity }

// Close implements engine.Config.
func (c *Config) Close() {
	c.mu.Lock()
	c.Closed = true
	c.mu.Unlock()
}

// IsClosed reports whether Close was called.
func (c *Config) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Closed
}

// Instance is a scriptable engine.Instance fake.
type Instance struct {
	mu sync.Mutex

	Callbacks engine.Callbacks

	// ExitOnTick makes the next Tick report exit-requested.
	ExitOnTick  bool
	ConfirmQuit bool

	TickCalls     int
	KeyboardCalls int
	ReplacedWith  []engine.Config
	Closed        bool
}

// Tick implements engine.Instance.
func (i *Instance) Tick() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.TickCalls++
	return i.ExitOnTick
}

// ReplaceConfig implements engine.Instance.
func (i *Instance) ReplaceConfig(cfg engine.Config) {
	i.mu.Lock()
	i.ReplacedWith = append(i.ReplacedWith, cfg)
	i.mu.Unlock()
}

// KeyboardLayoutChanged implements engine.Instance.
func (i *Instance) KeyboardLayoutChanged() {
	i.mu.Lock()
	i.KeyboardCalls++
	i.mu.Unlock()
}

// NeedsConfirmQuit implements engine.Instance.
func (i *Instance) NeedsConfirmQuit() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.ConfirmQuit
}

// Close implements engine.Instance.
func (i *Instance) Close() {
	i.mu.Lock()
	i.Closed = true
	i.mu.Unlock()
}

// Ticks returns the number of Tick calls.
func (i *Instance) Ticks() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.TickCalls
}

// CurrentConfig returns the config most recently passed to ReplaceConfig.
func (i *Instance) CurrentConfig() engine.Config {
	i.mu.Lock()
	defer i.mu.Unlock()
	if len(i.ReplacedWith) == 0 {
		return nil
	}
	return i.ReplacedWith[len(i.ReplacedWith)-1]
}

// Surface is a scriptable engine.Surface fake recording dispatched actions.
type Surface struct {
	mu sync.Mutex

	FailActions bool

	Actions      []string
	Splits       []engine.SplitDirection
	FocusedMoves []engine.SplitFocusDirection
}

// PerformAction implements engine.Surface.
func (s *Surface) PerformAction(action string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailActions {
		return errors.New("enginetest: action failed")
	}
	s.Actions = append(s.Actions, action)
	return nil
}

// Split implements engine.Surface.
func (s *Surface) Split(direction engine.SplitDirection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailActions {
		return errors.New("enginetest: split failed")
	}
	s.Splits = append(s.Splits, direction)
	return nil
}

// FocusSplit implements engine.Surface.
func (s *Surface) FocusSplit(direction engine.SplitFocusDirection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailActions {
		return errors.New("enginetest: focus split failed")
	}
	s.FocusedMoves = append(s.FocusedMoves, direction)
	return nil
}

// PerformedActions returns a copy of the recorded action identifiers.
func (s *Surface) PerformedActions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.Actions))
	copy(out, s.Actions)
	return out
}

// ClipboardRequest is a recording engine.ClipboardRequest fake.
type ClipboardRequest struct {
	mu        sync.Mutex
	completed bool
	text      string
	calls     int
}

// Complete implements engine.ClipboardRequest.
func (r *ClipboardRequest) Complete(text string) {
	r.mu.Lock()
	r.completed = true
	r.text = text
	r.calls++
	r.mu.Unlock()
}

// Completed reports whether Complete was called and with what payload.
func (r *ClipboardRequest) Completed() (bool, string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.completed, r.text
}

// CompleteCalls returns how many times Complete was invoked.
func (r *ClipboardRequest) CompleteCalls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}
