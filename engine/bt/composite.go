package bt

import "time"

// Sequence ticks children left-to-right and returns the first non-Success
// result; if every child succeeds it returns Success. An empty Sequence
// returns Success (§4.1 empty-composite default). Supports optional
// resume-at-Running and optional Failure-retry-after-cooldown.
type Sequence struct {
	Resume        bool
	RetryCooldown time.Duration // 0 disables Failure retry
	current       int
	failedAt      int
	failedAtSet   bool
	failedAtTime  time.Time
}

// NewSequence creates a Sequence composite.
func NewSequence() *Sequence {
	return &Sequence{}
}

func (n *Sequence) Kind() Kind { return KindComposite }

func (n *Sequence) ChildBounds() ChildBounds { return ChildBounds{Min: 0, Max: Unbounded} }

func (n *Sequence) Ports() []Port { return nil }

func (n *Sequence) SetConfig(config any) error {
	cfg, ok := config.(SequenceConfig)
	if !ok {
		return ErrTypeMismatch
	}

	n.Resume = cfg.Resume
	n.RetryCooldown = cfg.RetryCooldown

	return nil
}

func (n *Sequence) GetConfig() any {
	return SequenceConfig{Resume: n.Resume, RetryCooldown: n.RetryCooldown}
}

func (n *Sequence) Reset() {
	n.current = 0
	n.failedAtSet = false
}

func (n *Sequence) Tick(ctx *TickContext) (NodeStatus, error) {
	count := ctx.ChildCount()
	if count == 0 {
		return Success, nil
	}

	start := 0
	if n.Resume {
		start = n.current
	}

	if n.failedAtSet && n.RetryCooldown > 0 {
		if ctx.Now().Sub(n.failedAtTime) >= n.RetryCooldown {
			n.failedAtSet = false
			if n.Resume {
				start = n.failedAt
			}
		} else {
			return Failure, nil
		}
	}

	for i := start; i < count; i++ {
		status, err := ctx.TickChild(i)
		if err != nil {
			return Failure, err
		}

		switch status {
		case Running:
			n.current = i
			return Running, nil
		case Failure:
			n.current = 0
			n.failedAt = i
			n.failedAtSet = n.RetryCooldown > 0
			n.failedAtTime = ctx.Now()

			return Failure, nil
		}
	}

	n.current = 0

	return Success, nil
}

// SequenceConfig is Sequence's serializable configuration.
type SequenceConfig struct {
	Resume        bool          `json:"resume" yaml:"resume"`
	RetryCooldown time.Duration `json:"retry_cooldown" yaml:"retry_cooldown"`
}

// Selector ticks children left-to-right and returns the first non-Failure
// result; if every child fails it returns Failure. An empty Selector
// returns Failure (§4.1 empty-composite default).
type Selector struct {
	Resume  bool
	current int
}

// NewSelector creates a Selector composite.
func NewSelector() *Selector {
	return &Selector{}
}

func (n *Selector) Kind() Kind { return KindComposite }

func (n *Selector) ChildBounds() ChildBounds { return ChildBounds{Min: 0, Max: Unbounded} }

func (n *Selector) Ports() []Port { return nil }

func (n *Selector) SetConfig(config any) error {
	cfg, ok := config.(SelectorConfig)
	if !ok {
		return ErrTypeMismatch
	}

	n.Resume = cfg.Resume

	return nil
}

func (n *Selector) GetConfig() any {
	return SelectorConfig{Resume: n.Resume}
}

func (n *Selector) Reset() {
	n.current = 0
}

func (n *Selector) Tick(ctx *TickContext) (NodeStatus, error) {
	count := ctx.ChildCount()
	if count == 0 {
		return Failure, nil
	}

	start := 0
	if n.Resume {
		start = n.current
	}

	for i := start; i < count; i++ {
		status, err := ctx.TickChild(i)
		if err != nil {
			return Failure, err
		}

		switch status {
		case Running:
			n.current = i
			return Running, nil
		case Success:
			n.current = 0
			return Success, nil
		}
	}

	n.current = 0

	return Failure, nil
}

// SelectorConfig is Selector's serializable configuration.
type SelectorConfig struct {
	Resume bool `json:"resume" yaml:"resume"`
}

// Parallel ticks every child on every root tick and aggregates per its
// configured ParallelPolicy (§4.1, §9).
type Parallel struct {
	Policy   ParallelPolicy
	// settled holds children that returned a terminal (non-Running)
	// status in the current aggregation round, skipped on subsequent
	// ticks of the same round per §4.1 ("may skip re-ticking children
	// that terminated the previous root tick until the next aggregation
	// resets").
	settled map[int]NodeStatus
}

// NewParallel creates a Parallel composite with the given policy.
func NewParallel(policy ParallelPolicy) *Parallel {
	return &Parallel{Policy: policy, settled: make(map[int]NodeStatus)}
}

func (n *Parallel) Kind() Kind { return KindComposite }

func (n *Parallel) ChildBounds() ChildBounds { return ChildBounds{Min: 0, Max: Unbounded} }

func (n *Parallel) Ports() []Port { return nil }

func (n *Parallel) SetConfig(config any) error {
	cfg, ok := config.(ParallelPolicy)
	if !ok {
		return ErrTypeMismatch
	}

	n.Policy = cfg

	return nil
}

func (n *Parallel) GetConfig() any {
	return n.Policy
}

func (n *Parallel) Reset() {
	n.settled = make(map[int]NodeStatus)
}

func (n *Parallel) Tick(ctx *TickContext) (NodeStatus, error) {
	count := ctx.ChildCount()
	if count == 0 {
		return n.emptyDefault(), nil
	}

	if n.settled == nil {
		n.settled = make(map[int]NodeStatus)
	}

	successes, failures := 0, 0

	for i := 0; i < count; i++ {
		status, ok := n.settled[i]

		if !ok {
			var err error

			status, err = ctx.TickChild(i)
			if err != nil {
				return Failure, err
			}

			if status != Running {
				n.settled[i] = status
			}
		}

		switch status {
		case Success:
			successes++
		case Failure:
			failures++
		}
	}

	threshold := n.threshold(count)
	if successes >= threshold {
		n.settled = make(map[int]NodeStatus)
		return Success, nil
	}

	if failures > count-threshold {
		n.settled = make(map[int]NodeStatus)
		return Failure, nil
	}

	return Running, nil
}

func (n *Parallel) threshold(count int) int {
	switch n.Policy.Kind {
	case ParallelAnySuccess:
		return 1
	case ParallelThreshold:
		return n.Policy.Threshold
	default: // ParallelAllSuccess
		return count
	}
}

func (n *Parallel) emptyDefault() NodeStatus {
	if n.Policy.Kind == ParallelAnySuccess {
		return Failure
	}

	return Success
}

// IfThenElse ticks child 0 as a condition: Success ticks and returns child
// 1's status, Failure ticks child 2 (if present) or returns Failure
// outright, Running returns Running without ticking the other branches
// (§4.1).
type IfThenElse struct {
	Memoize      bool
	chosenBranch int  // 1 = then, 2 = else
	chosenSet    bool
}

// NewIfThenElse creates an IfThenElse composite.
func NewIfThenElse() *IfThenElse {
	return &IfThenElse{}
}

func (n *IfThenElse) Kind() Kind { return KindComposite }

func (n *IfThenElse) ChildBounds() ChildBounds { return ChildBounds{Min: 2, Max: 3} }

func (n *IfThenElse) Ports() []Port { return nil }

func (n *IfThenElse) SetConfig(config any) error {
	cfg, ok := config.(IfThenElseConfig)
	if !ok {
		return ErrTypeMismatch
	}

	n.Memoize = cfg.Memoize

	return nil
}

func (n *IfThenElse) GetConfig() any {
	return IfThenElseConfig{Memoize: n.Memoize}
}

func (n *IfThenElse) Reset() {
	n.chosenSet = false
}

func (n *IfThenElse) Tick(ctx *TickContext) (NodeStatus, error) {
	count := ctx.ChildCount()
	if count < 2 {
		return Failure, ErrMissingChild
	}

	if n.Memoize && n.chosenSet {
		return ctx.TickChild(n.chosenBranch)
	}

	condStatus, err := ctx.TickChild(0)
	if err != nil {
		return Failure, err
	}

	switch condStatus {
	case Running:
		return Running, nil
	case Success:
		n.chosenBranch = 1
		n.chosenSet = n.Memoize

		return ctx.TickChild(1)
	default: // Failure
		if count < 3 {
			return Failure, nil
		}

		n.chosenBranch = 2
		n.chosenSet = n.Memoize

		return ctx.TickChild(2)
	}
}

// IfThenElseConfig is IfThenElse's serializable configuration.
type IfThenElseConfig struct {
	Memoize bool `json:"memoize" yaml:"memoize"`
}
