package gamepad

import (
	"sort"
	"strings"
)

// State is everything the routing logic remembers between frames.
type State struct {
	// Pressed is the previous frame's logical snapshot per controller index.
	Pressed map[int]map[Control]bool
	// Forwarded holds controls whose key-down reached the game and still owe a key-up.
	Forwarded map[int]map[Control]Binding
	// Combo records whether Select+Down was held last frame.
	Combo map[int]bool
	// Highlight is the last set of names sent while testing.
	Highlight []string

	// Capturing is true while waiting for "press any button".
	Capturing bool
	// Raw is the previous raw button snapshot per controller, used while capturing.
	Raw map[int][]bool
}

// NewState returns an empty state.
func NewState() State {
	return State{
		Pressed:   map[int]map[Control]bool{},
		Forwarded: map[int]map[Control]Binding{},
		Combo:     map[int]bool{},
		Raw:       map[int][]bool{},
	}
}

func (s State) clone() State {
	out := NewState()
	for i, m := range s.Pressed {
		cp := make(map[Control]bool, len(m))
		for c, v := range m {
			cp[c] = v
		}
		out.Pressed[i] = cp
	}
	for i, m := range s.Forwarded {
		cp := make(map[Control]Binding, len(m))
		for c, v := range m {
			cp[c] = v
		}
		out.Forwarded[i] = cp
	}
	for i, v := range s.Combo {
		out.Combo[i] = v
	}
	for i, b := range s.Raw {
		out.Raw[i] = append([]bool(nil), b...)
	}
	if s.Highlight != nil {
		out.Highlight = append(make([]string, 0, len(s.Highlight)), s.Highlight...)
	}
	out.Capturing = s.Capturing
	return out
}

// StartCapture arms "press any button" detection. Buttons held in pads right now are the
// baseline and only count once released and pressed again.
func StartCapture(s State, pads []Pad) State {
	s = s.clone()
	s.Capturing = true
	s.Raw = map[int][]bool{}
	for _, p := range pads {
		s.Raw[p.Index] = append([]bool(nil), p.Buttons...)
	}
	return s
}

// Baseline records the current logical state of pads as already seen, so controls held
// when a pad first appears do not fire.
func Baseline(s State, pads []Pad, m Mapping) State {
	s = s.clone()
	for _, p := range pads {
		cur := Logical(p, m)
		s.Pressed[p.Index] = cur
		s.Combo[p.Index] = cur[Select] && cur[DPadDown]
	}
	return s
}

// CancelCapture disarms detection.
func CancelCapture(s State) State {
	s = s.clone()
	s.Capturing = false
	s.Raw = map[int][]bool{}
	return s
}

// Logical returns the pressed state of every control for p. D-pad controls also respond
// to the left stick once it passes StickThreshold after the per-axis deadzone.
func Logical(p Pad, m Mapping) map[Control]bool {
	out := make(map[Control]bool, len(Controls))
	x, y := p.axis(0), p.axis(1)
	for _, c := range Controls {
		b, ok := m.Lookup(c)
		pressed := ok && p.button(b.Button)
		if c.Group == GroupDPad && !pressed {
			switch c.Name {
			case "up":
				pressed = y <= -StickThreshold
			case "down":
				pressed = y >= StickThreshold
			case "left":
				pressed = x <= -StickThreshold
			case "right":
				pressed = x >= StickThreshold
			}
		}
		out[c] = pressed
	}
	return out
}

// Tick advances the routing state machine by one frame. prev is not modified.
//
// Priority per press edge: live testing swallows everything; an open configurator closes
// on the east face button; an open OSD or game menu captures d-pad, face and shoulder
// buttons (plus Start to close); a running game receives synthetic key events; otherwise
// the launcher itself navigates.
func Tick(prev State, in Input, m Mapping) (State, []Action) {
	s := prev.clone()
	ui := in.UI
	capturing := s.Capturing
	var out []Action

	pads := append([]Pad(nil), in.Pads...)
	sort.Slice(pads, func(i, j int) bool { return pads[i].Index < pads[j].Index })

	seen := make(map[int]bool, len(pads))
	current := make(map[int]map[Control]bool, len(pads))
	for _, p := range pads {
		seen[p.Index] = true
		cur := Logical(p, m)
		current[p.Index] = cur
		was, known := s.Pressed[p.Index]
		if !known {
			was = map[Control]bool{}
		}
		s.Pressed[p.Index] = cur

		comboNow := cur[Select] && cur[DPadDown]
		comboEdge := comboNow && !s.Combo[p.Index]
		s.Combo[p.Index] = comboNow

		if capturing {
			if !s.Capturing {
				continue
			}
			if a, ok := s.capture(p); ok {
				out = append(out, a)
			}
			continue
		}
		if ui.Testing {
			continue
		}

		opened := false
		if comboEdge && !ui.overlayOpen() {
			out = append(out, Action{Type: ActionOpenOSD, Pad: p.Index})
			ui.OSDOpen = true
			opened = true
		}
		for _, c := range Controls {
			if !cur[c] || was[c] {
				continue
			}
			// The combo's own buttons must not also move the fresh OSD focus.
			if opened && (c == Select || c == DPadDown) {
				continue
			}
			out = append(out, s.press(&ui, p.Index, c, m)...)
		}
	}

	// Track raw buttons of pads that appear mid-capture so held buttons are ignored.
	if s.Capturing {
		for _, p := range pads {
			if _, ok := s.Raw[p.Index]; !ok {
				s.Raw[p.Index] = append([]bool(nil), p.Buttons...)
			}
		}
	}

	for idx := range s.Pressed {
		if seen[idx] {
			continue
		}
		delete(s.Pressed, idx)
		delete(s.Combo, idx)
		delete(s.Raw, idx)
	}

	if !in.UI.Testing {
		out = append(out, s.releaseForwarded(current)...)
	}
	out = append(out, s.highlight(in.UI, current)...)
	return s, out
}

// press routes one press edge.
func (s *State) press(ui *UIState, pad int, c Control, m Mapping) []Action {
	if ui.ConfigOpen && c == FaceEast {
		ui.ConfigOpen = false
		return []Action{{Type: ActionCloseConfig, Pad: pad}}
	}
	if ui.overlayOpen() {
		t, ok := overlayAction(c)
		if !ok {
			return nil
		}
		if t == ActionOverlayClose {
			ui.OSDOpen, ui.MenuOpen = false, false
		}
		return []Action{{Type: t, Pad: pad}}
	}
	if ui.Playing {
		b, ok := m.Lookup(c)
		if !ok || b.Key == "" {
			return nil
		}
		if s.Forwarded[pad] == nil {
			s.Forwarded[pad] = map[Control]Binding{}
		}
		s.Forwarded[pad][c] = b
		out := []Action{keyAction(ActionKeyDown, pad, b)}
		if b.Key == " " {
			out = append(out, keyAction(ActionKeyPress, pad, b))
		}
		return out
	}
	switch c {
	case DPadLeft:
		return []Action{{Type: ActionFocusPrev, Pad: pad}}
	case DPadRight:
		return []Action{{Type: ActionFocusNext, Pad: pad}}
	case FaceSouth:
		ui.Playing = true
		return []Action{{Type: ActionLaunch, Pad: pad}}
	case Start:
		ui.MenuOpen = true
		return []Action{{Type: ActionOpenMenu, Pad: pad}}
	}
	return nil
}

func overlayAction(c Control) (ActionType, bool) {
	switch c.Group {
	case GroupDPad:
		if c.Name == "up" || c.Name == "left" {
			return ActionOverlayPrev, true
		}
		return ActionOverlayNext, true
	case GroupShoulder:
		if strings.HasPrefix(c.Name, "l") {
			return ActionOverlayPrev, true
		}
		return ActionOverlayNext, true
	case GroupFace:
		switch c.Name {
		case "btnBottom":
			return ActionOverlayActivate, true
		case "btnRight":
			return ActionOverlayClose, true
		}
	case GroupSpecial:
		if c.Name == "start" {
			return ActionOverlayClose, true
		}
	}
	return "", false
}

// releaseForwarded sends key-up for every forwarded control that is no longer held,
// including controls of disconnected pads. Overlays do not block key-ups.
func (s *State) releaseForwarded(current map[int]map[Control]bool) []Action {
	var out []Action
	pads := make([]int, 0, len(s.Forwarded))
	for idx := range s.Forwarded {
		pads = append(pads, idx)
	}
	sort.Ints(pads)
	for _, idx := range pads {
		held := s.Forwarded[idx]
		cur := current[idx]
		for _, c := range Controls {
			b, ok := held[c]
			if !ok || cur[c] {
				continue
			}
			out = append(out, keyAction(ActionKeyUp, idx, b))
			delete(held, c)
		}
		if len(held) == 0 {
			delete(s.Forwarded, idx)
		}
	}
	return out
}

// highlight reports pressed controls for the live-testing diagram when they change.
func (s *State) highlight(ui UIState, current map[int]map[Control]bool) []Action {
	if !ui.Testing {
		if s.Highlight == nil {
			return nil
		}
		s.Highlight = nil
		return []Action{{Type: ActionHighlight, Pad: -1, Names: []string{}}}
	}
	set := map[string]bool{}
	for idx, cur := range current {
		if ui.TestPad >= 0 && idx != ui.TestPad {
			continue
		}
		for c, on := range cur {
			if on {
				set[c.String()] = true
			}
		}
	}
	names := make([]string, 0, len(set))
	for n := range set {
		names = append(names, n)
	}
	sort.Strings(names)
	if s.Highlight != nil && equalStrings(names, s.Highlight) {
		return nil
	}
	s.Highlight = names
	return []Action{{Type: ActionHighlight, Pad: ui.TestPad, Names: names}}
}

// capture looks for a button going from released to pressed on p.
func (s *State) capture(p Pad) (Action, bool) {
	prev, known := s.Raw[p.Index]
	s.Raw[p.Index] = append([]bool(nil), p.Buttons...)
	if !known {
		return Action{}, false
	}
	for i, on := range p.Buttons {
		if on && (i >= len(prev) || !prev[i]) {
			s.Capturing = false
			return Action{Type: ActionCaptured, Pad: p.Index, Button: i}, true
		}
	}
	return Action{}, false
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
