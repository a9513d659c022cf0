package gamepad

import (
	"context"
	"time"

	"github.com/0xcafed00d/joystick"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

// NativeSource polls joysticks attached to the host (handhelds and kiosks where the
// browser's Gamepad API is missing or unreliable) and reports them as Pads.
type NativeSource struct {
	MaxPads  int
	Interval time.Duration
	Rescan   time.Duration
	Open     func(id int) (joystick.Joystick, error)

	running atomic.Bool
}

func NewNativeSource() *NativeSource {
	return &NativeSource{
		MaxPads:  4,
		Interval: 16 * time.Millisecond,
		Rescan:   2 * time.Second,
		Open:     joystick.Open,
	}
}

// Running reports whether Run is active.
func (n *NativeSource) Running() bool { return n.running.Load() }

// Run polls until ctx is done, calling emit whenever the set of pads or any of their
// buttons/axes changed since the previous emit.
func (n *NativeSource) Run(ctx context.Context, emit func([]Pad)) error {
	if !n.running.CompareAndSwap(false, true) {
		return nil
	}
	defer n.running.Store(false)

	open := make(map[int]joystick.Joystick)
	defer func() {
		for _, js := range open {
			js.Close()
		}
	}()

	ticker := time.NewTicker(n.Interval)
	defer ticker.Stop()
	var last []Pad
	var lastScan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			if now.Sub(lastScan) >= n.Rescan {
				lastScan = now
				n.scan(open)
			}
			pads := make([]Pad, 0, len(open))
			for id := 0; id < n.MaxPads; id++ {
				js, ok := open[id]
				if !ok {
					continue
				}
				st, err := js.Read()
				if err != nil {
					zap.L().Info("native gamepad disconnected", zap.Int("id", id), zap.Error(err))
					js.Close()
					delete(open, id)
					continue
				}
				pads = append(pads, NativePad(id, js.Name(), js.ButtonCount(), st))
			}
			if !samePads(last, pads) {
				last = pads
				emit(pads)
			}
		}
	}
}

func (n *NativeSource) scan(open map[int]joystick.Joystick) {
	for id := 0; id < n.MaxPads; id++ {
		if _, ok := open[id]; ok {
			continue
		}
		js, err := n.Open(id)
		if err != nil {
			continue
		}
		zap.L().Info("native gamepad connected", zap.Int("id", id), zap.String("name", js.Name()))
		open[id] = js
	}
}

// NativePad converts a raw joystick reading into a standard-layout Pad. Axes are
// scaled to [-1, 1]; a hat reported on axes 6/7 fills the d-pad buttons 12-15.
func NativePad(id int, name string, buttonCount int, st joystick.State) Pad {
	if buttonCount < 16 {
		buttonCount = 16
	}
	if buttonCount > 32 {
		buttonCount = 32
	}
	p := Pad{
		Index:   NativeIndexBase + id,
		ID:      name,
		Buttons: make([]bool, buttonCount),
		Axes:    make([]float64, len(st.AxisData)),
	}
	for i := range p.Buttons {
		p.Buttons[i] = st.Buttons&(1<<uint(i)) != 0
	}
	for i, v := range st.AxisData {
		f := float64(v) / 32767
		if f < -1 {
			f = -1
		}
		p.Axes[i] = f
	}
	if len(p.Axes) >= 8 {
		hx, hy := p.Axes[6], p.Axes[7]
		p.Buttons[12] = p.Buttons[12] || hy <= -StickThreshold
		p.Buttons[13] = p.Buttons[13] || hy >= StickThreshold
		p.Buttons[14] = p.Buttons[14] || hx <= -StickThreshold
		p.Buttons[15] = p.Buttons[15] || hx >= StickThreshold
	}
	return p
}

func samePads(a, b []Pad) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Index != b[i].Index || len(a[i].Buttons) != len(b[i].Buttons) || len(a[i].Axes) != len(b[i].Axes) {
			return false
		}
		for j := range a[i].Buttons {
			if a[i].Buttons[j] != b[i].Buttons[j] {
				return false
			}
		}
		for j := range a[i].Axes {
			if a[i].Axes[j] != b[i].Axes[j] {
				return false
			}
		}
	}
	return true
}
