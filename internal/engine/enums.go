package engine

// ClipboardLocation identifies which host clipboard a request targets.
// The shell services only ClipboardStandard; selection and primary exist on
// some platforms but are not bridged.
type ClipboardLocation int

const (
	ClipboardStandard ClipboardLocation = iota
	ClipboardSelection
	ClipboardPrimary
)

// String returns the clipboard location name.
func (l ClipboardLocation) String() string {
	switch l {
	case ClipboardStandard:
		return "standard"
	case ClipboardSelection:
		return "selection"
	case ClipboardPrimary:
		return "primary"
	default:
		return "unknown"
	}
}

// MouseShape is the pointer shape the engine requests over a surface.
type MouseShape int

const (
	MouseShapeDefault MouseShape = iota
	MouseShapeText
	MouseShapePointer
	MouseShapeCrosshair
	MouseShapeGrab
	MouseShapeGrabbing
	MouseShapeResizeEW
	MouseShapeResizeNS
)

// String returns the mouse shape name.
func (s MouseShape) String() string {
	switch s {
	case MouseShapeDefault:
		return "default"
	case MouseShapeText:
		return "text"
	case MouseShapePointer:
		return "pointer"
	case MouseShapeCrosshair:
		return "crosshair"
	case MouseShapeGrab:
		return "grab"
	case MouseShapeGrabbing:
		return "grabbing"
	case MouseShapeResizeEW:
		return "resize-ew"
	case MouseShapeResizeNS:
		return "resize-ns"
	default:
		return "unknown"
	}
}

// SplitDirection is the placement of a newly created split relative to the
// originating surface.
type SplitDirection int

const (
	SplitRight SplitDirection = iota
	SplitLeft
	SplitDown
	SplitUp
)

// String returns the split direction name.
func (d SplitDirection) String() string {
	switch d {
	case SplitRight:
		return "right"
	case SplitLeft:
		return "left"
	case SplitDown:
		return "down"
	case SplitUp:
		return "up"
	default:
		return "unknown"
	}
}

// SplitFocusDirection is the direction of a focus move between splits.
type SplitFocusDirection int

const (
	SplitFocusPrevious SplitFocusDirection = iota
	SplitFocusNext
	SplitFocusLeft
	SplitFocusRight
	SplitFocusUp
	SplitFocusDown
)

// String returns the focus direction name.
func (d SplitFocusDirection) String() string {
	switch d {
	case SplitFocusPrevious:
		return "previous"
	case SplitFocusNext:
		return "next"
	case SplitFocusLeft:
		return "left"
	case SplitFocusRight:
		return "right"
	case SplitFocusUp:
		return "up"
	case SplitFocusDown:
		return "down"
	default:
		return "unknown"
	}
}

// TabTarget addresses a tab for goto-tab navigation. Index is 0-based and
// only meaningful when Kind is TabIndex.
type TabTarget struct {
	Kind  TabTargetKind `json:"kind"`
	Index int           `json:"index,omitempty"`
}

// TabTargetKind discriminates TabTarget addressing modes.
type TabTargetKind int

const (
	TabPrevious TabTargetKind = iota
	TabNext
	TabIndex
)

// String returns the tab target kind name.
func (k TabTargetKind) String() string {
	switch k {
	case TabPrevious:
		return "previous"
	case TabNext:
		return "next"
	case TabIndex:
		return "index"
	default:
		return "unknown"
	}
}

// FullscreenMode selects how a fullscreen toggle should behave.
type FullscreenMode int

const (
	// FullscreenNative uses the platform's regular fullscreen space.
	FullscreenNative FullscreenMode = iota
	// FullscreenPadded keeps the window frame and pads the content instead
	// of entering a native fullscreen space.
	FullscreenPadded
)

// String returns the fullscreen mode name.
func (m FullscreenMode) String() string {
	switch m {
	case FullscreenNative:
		return "native"
	case FullscreenPadded:
		return "padded"
	default:
		return "unknown"
	}
}
