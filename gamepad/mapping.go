// Package gamepad turns raw controller snapshots into launcher actions: synthetic key
// events for the running game, overlay navigation, catalog focus changes and remapping.
package gamepad

import (
	"encoding/json"
	"strings"
)

// Logical control groups.
const (
	GroupDPad     = "dpad"
	GroupFace     = "face"
	GroupShoulder = "shoulder"
	GroupSpecial  = "special"
)

// StorageKey is the browser localStorage key holding the serialised Mapping.
const StorageKey = "launcher.gamepadMapping"

// Control names one logical button.
type Control struct {
	Group string `json:"group"`
	Name  string `json:"name"`
}

func (c Control) String() string { return c.Group + "." + c.Name }

// Controls lists every logical button in routing order.
var Controls = []Control{
	{GroupDPad, "up"}, {GroupDPad, "down"}, {GroupDPad, "left"}, {GroupDPad, "right"},
	{GroupFace, "btnBottom"}, {GroupFace, "btnRight"}, {GroupFace, "btnLeft"}, {GroupFace, "btnTop"},
	{GroupShoulder, "l1"}, {GroupShoulder, "r1"}, {GroupShoulder, "l2"}, {GroupShoulder, "r2"},
	{GroupSpecial, "select"}, {GroupSpecial, "start"}, {GroupSpecial, "l3"}, {GroupSpecial, "r3"},
}

// Frequently routed controls.
var (
	DPadUp    = Control{GroupDPad, "up"}
	DPadDown  = Control{GroupDPad, "down"}
	DPadLeft  = Control{GroupDPad, "left"}
	DPadRight = Control{GroupDPad, "right"}
	FaceSouth = Control{GroupFace, "btnBottom"}
	FaceEast  = Control{GroupFace, "btnRight"}
	Select    = Control{GroupSpecial, "select"}
	Start     = Control{GroupSpecial, "start"}
)

// Binding ties a logical control to a physical button index and a keyboard key.
// Button -1 leaves the control unbound.
type Binding struct {
	Button  int    `json:"button"`
	Key     string `json:"key"`
	KeyCode int    `json:"keyCode"`
}

// Mapping is group -> control name -> binding; it serialises to the localStorage blob.
type Mapping map[string]map[string]Binding

var defaultBindings = map[Control]Binding{
	DPadUp:    {12, "ArrowUp", 38},
	DPadDown:  {13, "ArrowDown", 40},
	DPadLeft:  {14, "ArrowLeft", 37},
	DPadRight: {15, "ArrowRight", 39},

	FaceSouth:              {0, " ", 32},
	FaceEast:               {1, "x", 88},
	{GroupFace, "btnLeft"}: {2, "z", 90},
	{GroupFace, "btnTop"}:  {3, "c", 67},

	{GroupShoulder, "l1"}: {4, "q", 81},
	{GroupShoulder, "r1"}: {5, "e", 69},
	{GroupShoulder, "l2"}: {6, "Shift", 16},
	{GroupShoulder, "r2"}: {7, "Control", 17},

	Select:               {8, "Tab", 9},
	Start:                {9, "Enter", 13},
	{GroupSpecial, "l3"}: {10, "f", 70},
	{GroupSpecial, "r3"}: {11, "r", 82},
}

// Face buttons used to be stored under Xbox letters.
var legacyFaceNames = map[string]string{
	"a": "btnBottom",
	"b": "btnRight",
	"x": "btnLeft",
	"y": "btnTop",
}

// DefaultMapping returns a fresh copy of the built-in bindings.
func DefaultMapping() Mapping {
	m := Mapping{}
	for _, c := range Controls {
		m.set(c, defaultBindings[c])
	}
	return m
}

// DefaultBinding returns the built-in binding of c.
func DefaultBinding(c Control) (Binding, bool) {
	b, ok := defaultBindings[c]
	return b, ok
}

// ParseMapping decodes a stored mapping. Legacy face names are renamed, unknown controls
// dropped and missing ones filled from defaults; undecodable input yields the defaults.
// migrated reports whether the stored blob differs from the returned mapping's schema.
func ParseMapping(raw []byte) (m Mapping, migrated bool) {
	text := strings.TrimSpace(string(raw))
	if text == "" || text == "null" {
		return DefaultMapping(), false
	}
	var stored map[string]map[string]Binding
	if err := json.Unmarshal([]byte(text), &stored); err != nil {
		return DefaultMapping(), true
	}
	if face := stored[GroupFace]; face != nil {
		for old, name := range legacyFaceNames {
			b, ok := face[old]
			if !ok {
				continue
			}
			if _, exists := face[name]; !exists {
				face[name] = b
			}
			delete(face, old)
			migrated = true
		}
	}

	m = Mapping{}
	for _, c := range Controls {
		b, ok := stored[c.Group][c.Name]
		if !ok {
			b = defaultBindings[c]
			migrated = true
		}
		m.set(c, normalizeBinding(b))
	}
	for group, controls := range stored {
		for name := range controls {
			if _, known := defaultBindings[Control{group, name}]; !known {
				migrated = true
			}
		}
	}
	return m, migrated
}

func normalizeBinding(b Binding) Binding {
	if b.Button < -1 {
		b.Button = -1
	}
	if b.KeyCode == 0 && b.Key != "" {
		_, b.KeyCode = KeyInfo(b.Key)
	}
	return b
}

// Lookup returns the binding of c.
func (m Mapping) Lookup(c Control) (Binding, bool) {
	b, ok := m[c.Group][c.Name]
	return b, ok
}

// Set rebinds c. Unknown controls are ignored.
func (m Mapping) Set(c Control, b Binding) bool {
	if _, known := defaultBindings[c]; !known {
		return false
	}
	m.set(c, normalizeBinding(b))
	return true
}

func (m Mapping) set(c Control, b Binding) {
	if m[c.Group] == nil {
		m[c.Group] = map[string]Binding{}
	}
	m[c.Group][c.Name] = b
}

// Reset restores one control to its default binding.
func (m Mapping) Reset(c Control) bool {
	b, ok := defaultBindings[c]
	if !ok {
		return false
	}
	m.set(c, b)
	return true
}

// ResetAll restores every control.
func (m Mapping) ResetAll() {
	for _, c := range Controls {
		m.set(c, defaultBindings[c])
	}
}

// Clone returns a deep copy.
func (m Mapping) Clone() Mapping {
	out := make(Mapping, len(m))
	for g, controls := range m {
		cp := make(map[string]Binding, len(controls))
		for n, b := range controls {
			cp[n] = b
		}
		out[g] = cp
	}
	return out
}
