package control

import (
	"log"
	"time"

	"github.com/skyrocket-qy/behaviortree/engine/bt"
	"github.com/skyrocket-qy/behaviortree/engine/support"
)

// Runner owns a Tree on a single goroutine and drives its tick loop
// (§4.5, §5: "single-threaded cooperative per tree instance"). All
// mutation happens through Commands drained once per cycle; all
// observation happens through emitted Events.
type Runner struct {
	tree    *bt.Tree
	support *support.TreeSupport

	state      RunState
	tickPeriod time.Duration

	cmdCh     chan Command
	evtCh     chan Event
	disconnCh chan error

	projectDir string

	logger *log.Logger
	stats  *TickStats
	tracer Tracer

	removeNodePolicy bt.RemoveNodePolicy

	stepOnce bool
}

// Option configures a Runner at construction time.
type Option func(*Runner)

// WithLogger overrides the default logger (log.Default()).
func WithLogger(l *log.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// WithTickRate sets the initial tick cadence in Hz.
func WithTickRate(hz float64) Option {
	return func(r *Runner) { r.tickPeriod = hzToPeriod(hz) }
}

// WithProjectDir sets the project directory leaf nodes resolve asset
// paths against (§6.4).
func WithProjectDir(dir string) Option {
	return func(r *Runner) { r.projectDir = dir }
}

// WithTracer attaches a Tracer that wraps every root tick in a span
// (§9: tick tracing).
func WithTracer(t Tracer) Option {
	return func(r *Runner) { r.tracer = t }
}

// WithRemoveNodePolicy sets the policy RemoveNode enforces on nodes that
// still have children. It is applied to the Tree now and re-applied to
// every replacement Tree (batch rollback, LoadTree).
func WithRemoveNodePolicy(p bt.RemoveNodePolicy) Option {
	return func(r *Runner) { r.removeNodePolicy = p }
}

// NewRunner creates an Idle runner over a fresh, empty Tree.
func NewRunner(ts *support.TreeSupport, opts ...Option) *Runner {
	r := &Runner{
		tree:       bt.NewTree(),
		support:    ts,
		state:      Idle,
		tickPeriod: hzToPeriod(60),
		cmdCh:      make(chan Command, 256),
		evtCh:      make(chan Event, 256),
		disconnCh:  make(chan error, 16),
		logger:     log.Default(),
		stats:      NewTickStats(),
	}

	for _, opt := range opts {
		opt(r)
	}

	r.tree.SetRemoveNodePolicy(r.removeNodePolicy)

	return r
}

func hzToPeriod(hz float64) time.Duration {
	if hz <= 0 {
		return time.Second / 60
	}

	return time.Duration(float64(time.Second) / hz)
}

// Commands returns the channel clients send Commands on.
func (r *Runner) Commands() chan<- Command { return r.cmdCh }

// Events returns the channel clients receive Events from.
func (r *Runner) Events() <-chan Event { return r.evtCh }

// State reports the runner's current state machine position.
func (r *Runner) State() RunState { return r.state }

// ProjectDir reports the configured project directory (§6.4).
func (r *Runner) ProjectDir() string { return r.projectDir }

// Stats exposes tick duration percentiles (§9).
func (r *Runner) Stats() *TickStats { return r.stats }

func (r *Runner) emit(e Event) {
	select {
	case r.evtCh <- e:
	default:
		r.logger.Printf("control: event channel full, dropping %v", e.Kind)
	}
}

// ReportDisconnect notifies the runner that a transport's channel to a
// client closed unexpectedly. Transports call this from their read/write
// pumps instead of touching Runner state directly (§5: all runner state
// lives on the owner goroutine). The runner transitions to Paused on its
// next loop iteration (§7: "transport errors ... transition the runner to
// Paused").
func (r *Runner) ReportDisconnect(err error) {
	select {
	case r.disconnCh <- err:
	default:
		r.logger.Printf("control: disconnect channel full, dropping %v", err)
	}
}

// Run drives the tick loop until stop is closed. It is meant to run on
// its own goroutine; Runner itself is not safe for concurrent use from
// more than one goroutine (§5).
func (r *Runner) Run(stop <-chan struct{}) {
	if r.state == Idle {
		r.state = Paused
	}

	deadline := time.Now()

	for {
		select {
		case <-stop:
			r.terminate()

			return
		case err := <-r.disconnCh:
			r.handleDisconnect(err)

			continue
		case <-time.After(time.Until(deadline)):
		}

		cmds := r.drainCommands()
		acks := r.applyBatch(cmds)

		for _, ack := range acks {
			r.emit(ack)
		}

		if r.state == Running || r.stepOnce {
			r.tickOnce()

			if r.stepOnce {
				r.stepOnce = false
				r.state = Paused
				r.emit(Event{Kind: EvtRunStateChanged, RunStateChanged: &RunStateChangedEvt{State: r.state}})
			}
		}

		deadline = deadline.Add(r.tickPeriod)
		if deadline.Before(time.Now()) {
			deadline = time.Now().Add(r.tickPeriod)
		}
	}
}

// handleDisconnect reacts to a transport error by transitioning to Paused
// (§7): the tick loop stops advancing against a client that may no longer
// be observing it, but commands are still drained so a reconnecting or
// alternate client can keep editing the tree.
func (r *Runner) handleDisconnect(err error) {
	if r.state == Terminated {
		return
	}

	r.logger.Printf("control: %v: %v", bt.ErrDisconnected, err)

	if r.state == Running {
		r.state = Paused
		r.emit(Event{Kind: EvtRunStateChanged, RunStateChanged: &RunStateChangedEvt{State: r.state}})
	}
}

func (r *Runner) terminate() {
	r.state = Terminated

	for _, cmd := range r.drainCommands() {
		r.emit(Event{
			Kind: EvtCommandAck,
			CommandAck: &CommandAckEvt{
				CorrelationId: cmd.CorrelationId,
				Result:        Err,
				Reason:        "runner terminated",
			},
		})
	}

	r.emit(Event{Kind: EvtRunStateChanged, RunStateChanged: &RunStateChangedEvt{State: Terminated}})
	close(r.evtCh)
}

// drainCommands pulls every Command currently queued without blocking
// (§4.5: "commands are grouped per drain cycle").
func (r *Runner) drainCommands() []Command {
	var cmds []Command

	for {
		select {
		case c := <-r.cmdCh:
			cmds = append(cmds, c)
		default:
			return cmds
		}
	}
}
