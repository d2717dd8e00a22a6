package bt

import "time"

// constStatusNode implements the Success/Failure/Running decorators of
// §4.1: ignore the child status, return a constant. With zero children
// they still return the constant (§4.1 tie-breaking).
type constStatusNode struct {
	status NodeStatus
}

// NewConstStatusNode builds one of the Success/Failure/Running constant
// decorators.
func NewConstStatusNode(status NodeStatus) Node {
	return &constStatusNode{status: status}
}

func (n *constStatusNode) Kind() Kind { return KindDecorator }

func (n *constStatusNode) ChildBounds() ChildBounds { return ChildBounds{Min: 0, Max: 1} }

func (n *constStatusNode) Ports() []Port { return nil }

func (n *constStatusNode) SetConfig(any) error { return nil }

func (n *constStatusNode) GetConfig() any { return n.status }

func (n *constStatusNode) Reset() {}

func (n *constStatusNode) Tick(ctx *TickContext) (NodeStatus, error) {
	if ctx.ChildCount() > 0 {
		if _, err := ctx.TickChild(0); err != nil {
			return Failure, err
		}
	}

	return n.status, nil
}

// Retry ticks its child; on Failure it returns Running until Duration has
// elapsed since the first attempt of the current run, then returns Failure
// and resets; on Success it resets and returns Success (§4.1).
type Retry struct {
	Duration  time.Duration
	attempted bool
	startedAt time.Time
}

// NewRetry creates a Retry decorator with the given cooldown Duration.
func NewRetry(d time.Duration) *Retry {
	return &Retry{Duration: d}
}

func (n *Retry) Kind() Kind { return KindDecorator }

func (n *Retry) ChildBounds() ChildBounds { return ChildBounds{Min: 1, Max: 1} }

func (n *Retry) Ports() []Port { return nil }

func (n *Retry) SetConfig(config any) error {
	cfg, ok := config.(RetryConfig)
	if !ok {
		return ErrTypeMismatch
	}

	n.Duration = cfg.Duration

	return nil
}

func (n *Retry) GetConfig() any {
	return RetryConfig{Duration: n.Duration}
}

func (n *Retry) Reset() {
	n.attempted = false
}

func (n *Retry) Tick(ctx *TickContext) (NodeStatus, error) {
	if ctx.ChildCount() == 0 {
		return Failure, ErrMissingChild
	}

	status, err := ctx.TickChild(0)
	if err != nil {
		return Failure, err
	}

	switch status {
	case Success:
		n.attempted = false
		return Success, nil
	case Running:
		return Running, nil
	default: // Failure
		if !n.attempted {
			n.attempted = true
			n.startedAt = ctx.Now()
		}

		if ctx.Now().Sub(n.startedAt) < n.Duration {
			return Running, nil
		}

		n.attempted = false

		return Failure, nil
	}
}

// RetryConfig is Retry's serializable configuration.
type RetryConfig struct {
	Duration time.Duration `json:"duration" yaml:"duration"`
}

// Inverter swaps Success/Failure, passing Running through unchanged.
type Inverter struct{}

// NewInverter creates an Inverter decorator.
func NewInverter() *Inverter { return &Inverter{} }

func (n *Inverter) Kind() Kind { return KindDecorator }

func (n *Inverter) ChildBounds() ChildBounds { return ChildBounds{Min: 1, Max: 1} }

func (n *Inverter) Ports() []Port { return nil }

func (n *Inverter) SetConfig(any) error { return nil }

func (n *Inverter) GetConfig() any { return nil }

func (n *Inverter) Reset() {}

func (n *Inverter) Tick(ctx *TickContext) (NodeStatus, error) {
	if ctx.ChildCount() == 0 {
		return Failure, ErrMissingChild
	}

	status, err := ctx.TickChild(0)
	if err != nil {
		return Failure, err
	}

	switch status {
	case Success:
		return Failure, nil
	case Failure:
		return Success, nil
	default:
		return Running, nil
	}
}

// Repeater repeats its child until it has returned Success Times times,
// then returns Success itself; a Failure resets the count and returns
// Failure.
type Repeater struct {
	Times int
	count int
}

// NewRepeater creates a Repeater decorator.
func NewRepeater(times int) *Repeater { return &Repeater{Times: times} }

func (n *Repeater) Kind() Kind { return KindDecorator }

func (n *Repeater) ChildBounds() ChildBounds { return ChildBounds{Min: 1, Max: 1} }

func (n *Repeater) Ports() []Port { return nil }

func (n *Repeater) SetConfig(config any) error {
	cfg, ok := config.(RepeaterConfig)
	if !ok {
		return ErrTypeMismatch
	}

	n.Times = cfg.Times

	return nil
}

func (n *Repeater) GetConfig() any {
	return RepeaterConfig{Times: n.Times}
}

func (n *Repeater) Reset() {
	n.count = 0
}

func (n *Repeater) Tick(ctx *TickContext) (NodeStatus, error) {
	if ctx.ChildCount() == 0 {
		return Failure, ErrMissingChild
	}

	if n.Times <= 0 {
		return Success, nil
	}

	status, err := ctx.TickChild(0)
	if err != nil {
		return Failure, err
	}

	switch status {
	case Success:
		n.count++
		if n.count >= n.Times {
			n.count = 0
			return Success, nil
		}

		return Running, nil
	case Failure:
		n.count = 0
		return Failure, nil
	default:
		return Running, nil
	}
}

// RepeaterConfig is Repeater's serializable configuration.
type RepeaterConfig struct {
	Times int `json:"times" yaml:"times"`
}

// StatusWrite bridges its child's tick status to a blackboard Output port
// named "status" (ValueType "status", see engine/support's builtin codecs),
// then passes the status through unchanged (§4.1).
type StatusWrite struct{}

// NewStatusWrite creates a StatusWrite decorator.
func NewStatusWrite() *StatusWrite { return &StatusWrite{} }

func (n *StatusWrite) Kind() Kind { return KindDecorator }

func (n *StatusWrite) ChildBounds() ChildBounds { return ChildBounds{Min: 1, Max: 1} }

func (n *StatusWrite) Ports() []Port {
	return []Port{OutputPort("status", ValueTypeStatus)}
}

func (n *StatusWrite) SetConfig(any) error { return nil }

func (n *StatusWrite) GetConfig() any { return nil }

func (n *StatusWrite) Reset() {}

func (n *StatusWrite) Tick(ctx *TickContext) (NodeStatus, error) {
	if ctx.ChildCount() == 0 {
		return Failure, ErrMissingChild
	}

	status, err := ctx.TickChild(0)
	if err != nil {
		return Failure, err
	}

	if werr := ctx.WritePort("status", NewValue(ValueTypeStatus, status)); werr != nil {
		return Failure, werr
	}

	return status, nil
}

// StatusRead ignores its child entirely (it is optionally-decorating — see
// §3.3) and returns the status most recently written to its "status" Input
// port, defaulting to Failure if the key was never set.
type StatusRead struct{}

// NewStatusRead creates a StatusRead node.
func NewStatusRead() *StatusRead { return &StatusRead{} }

func (n *StatusRead) Kind() Kind { return KindDecorator }

func (n *StatusRead) ChildBounds() ChildBounds { return ChildBounds{Min: 0, Max: 1} }

func (n *StatusRead) Ports() []Port {
	return []Port{InputPort("status", ValueTypeStatus)}
}

func (n *StatusRead) SetConfig(any) error { return nil }

func (n *StatusRead) GetConfig() any { return nil }

func (n *StatusRead) Reset() {}

func (n *StatusRead) Tick(ctx *TickContext) (NodeStatus, error) {
	v, ok, err := ctx.ReadPort("status")
	if err != nil {
		return Failure, err
	}

	if !ok {
		return Failure, nil
	}

	status, ok := v.Payload.(NodeStatus)
	if !ok {
		return Failure, ErrTypeMismatch
	}

	return status, nil
}
