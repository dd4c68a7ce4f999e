package engine

import (
	"fmt"
	"strconv"
)

// Textual action identifiers forwarded verbatim to Surface.PerformAction.
// The engine parses these itself; the shell only assembles them.
const (
	ActionNewTab           = "new_tab"
	ActionNewWindow        = "new_window"
	ActionToggleSplitZoom  = "toggle_split_zoom"
	ActionToggleFullscreen = "toggle_fullscreen"
	ActionResetFontSize    = "reset_font_size"

	actionNewSplitPrefix  = "new_split:"
	actionGotoSplitPrefix = "goto_split:"
	actionGotoTabPrefix   = "goto_tab:"
	actionFontIncPrefix   = "increase_font_size:"
	actionFontDecPrefix   = "decrease_font_size:"
)

// SplitAction returns the action identifier creating a split in the given
// direction, e.g. "new_split:right".
func SplitAction(direction SplitDirection) string {
	return actionNewSplitPrefix + direction.String()
}

// FocusSplitAction returns the action identifier moving split focus in the
// given direction, e.g. "goto_split:up".
func FocusSplitAction(direction SplitFocusDirection) string {
	return actionGotoSplitPrefix + direction.String()
}

// GotoTabAction returns the action identifier for tab navigation. Indexed
// targets encode the 0-based index, e.g. "goto_tab:3".
func GotoTabAction(target TabTarget) string {
	if target.Kind == TabIndex {
		return actionGotoTabPrefix + strconv.Itoa(target.Index)
	}
	return actionGotoTabPrefix + target.Kind.String()
}

// FontSizeAction returns the action identifier adjusting the font size by
// delta points. Zero resets to the configured size.
func FontSizeAction(delta int) string {
	switch {
	case delta > 0:
		return fmt.Sprintf("%s%d", actionFontIncPrefix, delta)
	case delta < 0:
		return fmt.Sprintf("%s%d", actionFontDecPrefix, -delta)
	default:
		return ActionResetFontSize
	}
}
