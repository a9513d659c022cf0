package gamepad

import "sync"

// NativeIndexBase offsets host joystick indices so they never collide with the
// browser's navigator.getGamepads() slots.
const NativeIndexBase = 16

// Engine owns the routing state of one launcher page. Browser frames and native
// joystick frames may arrive from different goroutines; each one triggers a tick over
// the latest snapshot of the active source.
type Engine struct {
	mu      sync.Mutex
	state   State
	mapping Mapping
	ui      UIState
	browser []Pad
	native  []Pad
}

func NewEngine(m Mapping) *Engine {
	if m == nil {
		m = DefaultMapping()
	}
	return &Engine{state: NewState(), mapping: m, ui: UIState{TestPad: -1}}
}

// Mapping returns a copy of the active mapping.
func (e *Engine) Mapping() Mapping {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mapping.Clone()
}

// SetMapping replaces the active mapping.
func (e *Engine) SetMapping(m Mapping) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.mapping = m.Clone()
}

// Update applies fn to the active mapping under the lock and returns the result.
func (e *Engine) Update(fn func(Mapping)) Mapping {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(e.mapping)
	return e.mapping.Clone()
}

// Browser records the page's gamepads and UI state and ticks.
func (e *Engine) Browser(pads []Pad, ui UIState) []Action {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.browser) == 0 && len(pads) > 0 && len(e.native) > 0 {
		// Browsers expose a pad only after a press the native reader already routed.
		e.state = Baseline(e.state, pads, e.mapping)
	}
	e.browser = pads
	e.ui = ui
	return e.tickLocked()
}

// Native records the host joysticks and ticks.
func (e *Engine) Native(pads []Pad) []Action {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.native = pads
	return e.tickLocked()
}

// StartCapture arms "press any button" detection against the current snapshot.
func (e *Engine) StartCapture() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = StartCapture(e.state, e.padsLocked())
}

// CancelCapture disarms detection.
func (e *Engine) CancelCapture() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = CancelCapture(e.state)
}

// Capturing reports whether detection is armed.
func (e *Engine) Capturing() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Capturing
}

// padsLocked picks one source. The browser and the host reader see the same physical
// controllers, so native pads only count while the page reports none.
func (e *Engine) padsLocked() []Pad {
	if len(e.browser) > 0 {
		return e.browser
	}
	return e.native
}

func (e *Engine) tickLocked() []Action {
	var actions []Action
	e.state, actions = Tick(e.state, Input{Pads: e.padsLocked(), UI: e.ui}, e.mapping)
	return actions
}
