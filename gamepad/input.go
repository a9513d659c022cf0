package gamepad

const (
	// StickDeadzone zeroes small stick deflections on each axis.
	StickDeadzone = 0.15
	// StickThreshold is the deflection at which the left stick counts as a d-pad press.
	StickThreshold = 0.5
)

// Pad is one controller's state for a single frame, in W3C standard-gamepad layout.
type Pad struct {
	Index   int       `json:"index"`
	ID      string    `json:"id,omitempty"`
	Buttons []bool    `json:"buttons"`
	Axes    []float64 `json:"axes,omitempty"`
}

func (p Pad) button(i int) bool {
	return i >= 0 && i < len(p.Buttons) && p.Buttons[i]
}

func (p Pad) axis(i int) float64 {
	if i < 0 || i >= len(p.Axes) {
		return 0
	}
	v := p.Axes[i]
	if v > -StickDeadzone && v < StickDeadzone {
		return 0
	}
	return v
}

// UIState is what the frontend reports about its overlays each frame.
type UIState struct {
	Playing    bool `json:"playing"`
	OSDOpen    bool `json:"osdOpen"`
	MenuOpen   bool `json:"menuOpen"`
	ConfigOpen bool `json:"configOpen"`
	Testing    bool `json:"testing"`
	// TestPad selects the controller visualised while testing; -1 aggregates all of them.
	TestPad int `json:"testPad"`
}

func (u UIState) overlayOpen() bool { return u.OSDOpen || u.MenuOpen }

// Input is one frame: every connected controller plus the UI state.
type Input struct {
	Pads []Pad   `json:"pads"`
	UI   UIState `json:"ui"`
}

type ActionType string

const (
	ActionKeyDown  ActionType = "keydown"
	ActionKeyUp    ActionType = "keyup"
	ActionKeyPress ActionType = "keypress"

	ActionOverlayPrev     ActionType = "overlayPrev"
	ActionOverlayNext     ActionType = "overlayNext"
	ActionOverlayActivate ActionType = "overlayActivate"
	ActionOverlayClose    ActionType = "overlayClose"
	ActionCloseConfig     ActionType = "closeConfig"
	ActionOpenOSD         ActionType = "openOsd"

	ActionFocusPrev ActionType = "focusPrev"
	ActionFocusNext ActionType = "focusNext"
	ActionLaunch    ActionType = "launch"
	ActionOpenMenu  ActionType = "openMenu"

	ActionHighlight ActionType = "highlight"
	ActionCaptured  ActionType = "captured"
)

// Action is one effect for the frontend to apply.
type Action struct {
	Type    ActionType `json:"type"`
	Pad     int        `json:"pad"`
	Key     string     `json:"key,omitempty"`
	Code    string     `json:"code,omitempty"`
	KeyCode int        `json:"keyCode,omitempty"`
	Button  int        `json:"button"`
	Names   []string   `json:"names,omitempty"`
}

func keyAction(t ActionType, pad int, b Binding) Action {
	code, keyCode := KeyInfo(b.Key)
	if b.KeyCode != 0 {
		keyCode = b.KeyCode
	}
	return Action{Type: t, Pad: pad, Key: b.Key, Code: code, KeyCode: keyCode, Button: b.Button}
}
