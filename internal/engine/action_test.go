package engine

import "testing"

func TestSplitAction(t *testing.T) {
	cases := []struct {
		direction SplitDirection
		want      string
	}{
		{SplitRight, "new_split:right"},
		{SplitLeft, "new_split:left"},
		{SplitDown, "new_split:down"},
		{SplitUp, "new_split:up"},
	}
	for _, tc := range cases {
		if got := SplitAction(tc.direction); got != tc.want {
			t.Errorf("SplitAction(%v) = %q, want %q", tc.direction, got, tc.want)
		}
	}
}

func TestFocusSplitAction(t *testing.T) {
	if got := FocusSplitAction(SplitFocusUp); got != "goto_split:up" {
		t.Fatalf("FocusSplitAction(up) = %q", got)
	}
	if got := FocusSplitAction(SplitFocusPrevious); got != "goto_split:previous" {
		t.Fatalf("FocusSplitAction(previous) = %q", got)
	}
}

func TestGotoTabAction(t *testing.T) {
	cases := []struct {
		target TabTarget
		want   string
	}{
		{TabTarget{Kind: TabPrevious}, "goto_tab:previous"},
		{TabTarget{Kind: TabNext}, "goto_tab:next"},
		{TabTarget{Kind: TabIndex, Index: 0}, "goto_tab:0"},
		{TabTarget{Kind: TabIndex, Index: 7}, "goto_tab:7"},
	}
	for _, tc := range cases {
		if got := GotoTabAction(tc.target); got != tc.want {
			t.Errorf("GotoTabAction(%+v) = %q, want %q", tc.target, got, tc.want)
		}
	}
}

func TestFontSizeAction(t *testing.T) {
	if got := FontSizeAction(1); got != "increase_font_size:1" {
		t.Fatalf("FontSizeAction(1) = %q", got)
	}
	if got := FontSizeAction(-2); got != "decrease_font_size:2" {
		t.Fatalf("FontSizeAction(-2) = %q", got)
	}
	if got := FontSizeAction(0); got != ActionResetFontSize {
		t.Fatalf("FontSizeAction(0) = %q", got)
	}
}

func TestRuntimeRegistration(t *testing.T) {
	resetRuntimeRegistry()
	t.Cleanup(resetRuntimeRegistry)

	if _, err := NewRuntime(); err != ErrNoRuntime {
		t.Fatalf("expected ErrNoRuntime, got %v", err)
	}

	marker := &registeredRuntimeStub{}
	RegisterRuntime("stub", func() (Runtime, error) { return marker, nil })

	rt, err := NewRuntime()
	if err != nil {
		t.Fatalf("NewRuntime failed: %v", err)
	}
	if rt != marker {
		t.Fatal("NewRuntime returned a different runtime than registered")
	}
}

func TestRegisterRuntimeTwicePanics(t *testing.T) {
	resetRuntimeRegistry()
	t.Cleanup(resetRuntimeRegistry)

	RegisterRuntime("first", func() (Runtime, error) { return nil, nil })

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on double registration")
		}
	}()
	RegisterRuntime("second", func() (Runtime, error) { return nil, nil })
}

// registeredRuntimeStub satisfies Runtime for registration tests only.
type registeredRuntimeStub struct{}

func (*registeredRuntimeStub) Init() error                             { return nil }
func (*registeredRuntimeStub) NewConfig() (Config, error)              { return nil, nil }
func (*registeredRuntimeStub) NewInstance(Callbacks) (Instance, error) { return nil, nil }
func (*registeredRuntimeStub) BuildInfo() BuildInfo                    { return BuildInfo{} }
