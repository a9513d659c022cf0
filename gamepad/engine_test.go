package gamepad

import (
	"testing"

	"github.com/0xcafed00d/joystick"
)

func TestEngine_NativeWhenBrowserHasNoPads(t *testing.T) {
	e := NewEngine(nil)
	ui := playing()
	e.Browser(nil, ui)

	acts := e.Native([]Pad{pad(NativeIndexBase, 15)})
	if len(acts) != 1 || acts[0].Type != ActionKeyDown || acts[0].Pad != NativeIndexBase || acts[0].Key != "ArrowRight" {
		t.Fatalf("native press = %+v", acts)
	}
	// A browser frame without pads must not release the native pad.
	if acts := e.Browser(nil, ui); len(acts) != 0 {
		t.Errorf("empty browser frame released native keys: %+v", acts)
	}
	acts = e.Native(nil)
	if len(acts) != 1 || acts[0].Type != ActionKeyUp || acts[0].Pad != NativeIndexBase {
		t.Errorf("native unplug = %+v", acts)
	}
}

func countType(acts []Action, typ ActionType) int {
	n := 0
	for _, a := range acts {
		if a.Type == typ {
			n++
		}
	}
	return n
}

func TestEngine_SameControllerFromBothSourcesFiresOnce(t *testing.T) {
	ui := idle()

	t.Run("browser first", func(t *testing.T) {
		e := NewEngine(nil)
		var acts []Action
		acts = append(acts, e.Browser([]Pad{pad(0, 15)}, ui)...)
		acts = append(acts, e.Native([]Pad{pad(NativeIndexBase, 15)})...)
		if n := countType(acts, ActionFocusNext); n != 1 {
			t.Errorf("one press produced %d focusNext: %+v", n, acts)
		}
	})

	t.Run("native first", func(t *testing.T) {
		e := NewEngine(nil)
		var acts []Action
		acts = append(acts, e.Native([]Pad{pad(NativeIndexBase, 15)})...)
		acts = append(acts, e.Browser([]Pad{pad(0, 15)}, ui)...)
		acts = append(acts, e.Native([]Pad{pad(NativeIndexBase, 15)})...)
		if n := countType(acts, ActionFocusNext); n != 1 {
			t.Errorf("one press produced %d focusNext: %+v", n, acts)
		}
		// The next press comes through the browser only.
		e.Browser([]Pad{pad(0)}, ui)
		e.Native([]Pad{pad(NativeIndexBase)})
		acts = e.Browser([]Pad{pad(0, 15)}, ui)
		acts = append(acts, e.Native([]Pad{pad(NativeIndexBase, 15)})...)
		if n := countType(acts, ActionFocusNext); n != 1 || acts[0].Pad != 0 {
			t.Errorf("second press = %+v", acts)
		}
	})
}

func TestEngine_MappingIsCopied(t *testing.T) {
	e := NewEngine(nil)
	m := e.Mapping()
	m.Set(FaceSouth, Binding{Button: 5, Key: "j"})
	if b, _ := e.Mapping().Lookup(FaceSouth); b.Button != 0 {
		t.Error("Mapping() exposed internal state")
	}
	e.SetMapping(m)
	if b, _ := e.Mapping().Lookup(FaceSouth); b.Button != 5 {
		t.Error("SetMapping not applied")
	}
	got := e.Update(func(m Mapping) { m.Reset(FaceSouth) })
	if b, _ := got.Lookup(FaceSouth); b.Button != 0 {
		t.Errorf("Update result = %+v", b)
	}
}

func TestEngine_Capture(t *testing.T) {
	e := NewEngine(nil)
	ui := UIState{ConfigOpen: true, TestPad: -1}
	e.Browser([]Pad{pad(0, 2)}, ui)
	e.StartCapture()
	if !e.Capturing() {
		t.Fatal("not capturing")
	}
	if acts := e.Browser([]Pad{pad(0, 2)}, ui); len(acts) != 0 {
		t.Errorf("held button captured: %+v", acts)
	}
	acts := e.Browser([]Pad{pad(0, 2, 7)}, ui)
	if len(acts) != 1 || acts[0].Type != ActionCaptured || acts[0].Button != 7 {
		t.Errorf("capture = %+v", acts)
	}
	if e.Capturing() {
		t.Error("capture not finished")
	}
	e.StartCapture()
	e.CancelCapture()
	if e.Capturing() {
		t.Error("CancelCapture ignored")
	}
}

func TestEngine_NativeCapture(t *testing.T) {
	e := NewEngine(nil)
	e.Browser(nil, UIState{ConfigOpen: true, TestPad: -1})
	e.Native([]Pad{pad(NativeIndexBase, 6)})
	e.StartCapture()
	if acts := e.Native([]Pad{pad(NativeIndexBase, 6)}); len(acts) != 0 {
		t.Errorf("held native button captured: %+v", acts)
	}
	acts := e.Native([]Pad{pad(NativeIndexBase, 6, 7)})
	if len(acts) != 1 || acts[0].Button != 7 || acts[0].Pad != NativeIndexBase {
		t.Errorf("native capture = %+v", acts)
	}
}

func TestNativePad(t *testing.T) {
	st := joystick.State{
		AxisData: []int{32767, -32768, 0, 0, 0, 0, -32767, 32767},
		Buttons:  1<<0 | 1<<9,
	}
	p := NativePad(1, "Pad", 11, st)
	if p.Index != NativeIndexBase+1 || p.ID != "Pad" {
		t.Errorf("identity = %d %q", p.Index, p.ID)
	}
	if len(p.Buttons) != 16 {
		t.Fatalf("buttons = %d, want 16", len(p.Buttons))
	}
	if !p.Buttons[0] || !p.Buttons[9] || p.Buttons[1] {
		t.Errorf("buttons = %v", p.Buttons)
	}
	if p.Axes[0] != 1 || p.Axes[1] != -1 {
		t.Errorf("axes = %v", p.Axes)
	}
	// Hat left+down fills the d-pad.
	if !p.Buttons[14] || !p.Buttons[13] || p.Buttons[12] || p.Buttons[15] {
		t.Errorf("hat buttons = %v", p.Buttons[12:16])
	}

	big := NativePad(0, "", 64, joystick.State{})
	if len(big.Buttons) != 32 {
		t.Errorf("button clamp = %d", len(big.Buttons))
	}
}

func TestSamePads(t *testing.T) {
	a := []Pad{pad(0, 1)}
	if !samePads(a, []Pad{pad(0, 1)}) {
		t.Error("equal pads reported different")
	}
	if samePads(a, []Pad{pad(0, 2)}) || samePads(a, nil) || samePads(a, []Pad{pad(1, 1)}) {
		t.Error("different pads reported equal")
	}
}
