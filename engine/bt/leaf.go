package bt

import "time"

// AlwaysSuccess is a zero-child leaf that always returns Success.
type AlwaysSuccess struct{}

func (n *AlwaysSuccess) Kind() Kind               { return KindLeaf }
func (n *AlwaysSuccess) ChildBounds() ChildBounds { return ChildBounds{Min: 0, Max: 0} }
func (n *AlwaysSuccess) Ports() []Port            { return nil }
func (n *AlwaysSuccess) SetConfig(any) error      { return nil }
func (n *AlwaysSuccess) GetConfig() any           { return nil }
func (n *AlwaysSuccess) Reset()                   {}
func (n *AlwaysSuccess) Tick(*TickContext) (NodeStatus, error) {
	return Success, nil
}

// AlwaysFailure is a zero-child leaf that always returns Failure.
type AlwaysFailure struct{}

func (n *AlwaysFailure) Kind() Kind               { return KindLeaf }
func (n *AlwaysFailure) ChildBounds() ChildBounds { return ChildBounds{Min: 0, Max: 0} }
func (n *AlwaysFailure) Ports() []Port            { return nil }
func (n *AlwaysFailure) SetConfig(any) error      { return nil }
func (n *AlwaysFailure) GetConfig() any           { return nil }
func (n *AlwaysFailure) Reset()                   {}
func (n *AlwaysFailure) Tick(*TickContext) (NodeStatus, error) {
	return Failure, nil
}

// AlwaysRunning is a zero-child leaf that always returns Running.
type AlwaysRunning struct{}

func (n *AlwaysRunning) Kind() Kind               { return KindLeaf }
func (n *AlwaysRunning) ChildBounds() ChildBounds { return ChildBounds{Min: 0, Max: 0} }
func (n *AlwaysRunning) Ports() []Port            { return nil }
func (n *AlwaysRunning) SetConfig(any) error      { return nil }
func (n *AlwaysRunning) GetConfig() any           { return nil }
func (n *AlwaysRunning) Reset()                   {}
func (n *AlwaysRunning) Tick(*TickContext) (NodeStatus, error) {
	return Running, nil
}

// Condition is a leaf that reads its "value" Input port (ValueType bool)
// and returns Success when it is true, Failure otherwise (including when
// unset).
type Condition struct{}

// NewCondition creates a Condition leaf.
func NewCondition() *Condition { return &Condition{} }

func (n *Condition) Kind() Kind               { return KindLeaf }
func (n *Condition) ChildBounds() ChildBounds { return ChildBounds{Min: 0, Max: 0} }
func (n *Condition) Ports() []Port {
	return []Port{InputPort("value", ValueTypeBool)}
}
func (n *Condition) SetConfig(any) error { return nil }
func (n *Condition) GetConfig() any      { return nil }
func (n *Condition) Reset()              {}

func (n *Condition) Tick(ctx *TickContext) (NodeStatus, error) {
	v, ok, err := ctx.ReadPort("value")
	if err != nil {
		return Failure, err
	}

	if !ok {
		return Failure, nil
	}

	b, ok := v.Payload.(bool)
	if !ok {
		return Failure, ErrTypeMismatch
	}

	if b {
		return Success, nil
	}

	return Failure, nil
}

// Delay is optionally-decorating (§3.3): as a Leaf (0 children) it is a
// plain timer gate returning Success once Interval has elapsed; as a
// Decorator (1 child) it gates ticking that child the same way. It returns
// Running until the interval elapses since its first tick, then stays open:
// that tick and every later one tick the child (or return Success as a
// Leaf) until Reset re-arms it (§4.1.1, scenario 8.1 and the
// hot-reconfigure scenario 8.5).
type Delay struct {
	Interval  time.Duration
	armed     bool
	fired     bool
	startedAt time.Time
}

// NewDelay creates a Delay node with the given Interval.
func NewDelay(interval time.Duration) *Delay {
	return &Delay{Interval: interval}
}

func (n *Delay) Kind() Kind { return KindDecorator }

// ChildBounds allows both the 0-child (Leaf) and 1-child (Decorator) cases
// per §3.3's optionally-decorating contract.
func (n *Delay) ChildBounds() ChildBounds { return ChildBounds{Min: 0, Max: 1} }

func (n *Delay) Ports() []Port { return nil }

func (n *Delay) SetConfig(config any) error {
	cfg, ok := config.(DelayConfig)
	if !ok {
		return ErrTypeMismatch
	}

	n.Interval = cfg.Interval

	return nil
}

func (n *Delay) GetConfig() any {
	return DelayConfig{Interval: n.Interval}
}

// Reset re-arms the timer from scratch. Called by the engine after a
// SetConfig (§4.5's "hot reconfigure" — scenario 8.5): elapsed time is
// reset and the node re-evaluates against the new Interval from scratch on
// its next tick.
func (n *Delay) Reset() {
	n.armed = false
	n.fired = false
}

func (n *Delay) Tick(ctx *TickContext) (NodeStatus, error) {
	// Once the gate has fired it stays open — every subsequent tick
	// re-evaluates the gated child (or returns Success for the Leaf case)
	// without re-timing, until an explicit Reset re-arms it (scenario
	// 8.1's tick #4: a tick shortly after the gate opened still returns a
	// terminal result rather than reverting to Running).
	if n.fired {
		if ctx.ChildCount() == 0 {
			return Success, nil
		}

		return ctx.TickChild(0)
	}

	if !n.armed {
		n.armed = true
		n.startedAt = ctx.Now()
	}

	if ctx.Now().Sub(n.startedAt) < n.Interval {
		return Running, nil
	}

	n.armed = false
	n.fired = true

	if ctx.ChildCount() == 0 {
		return Success, nil
	}

	return ctx.TickChild(0)
}

// DelayConfig is Delay's serializable configuration.
type DelayConfig struct {
	Interval time.Duration `json:"interval" yaml:"interval"`
}
