package control

import (
	"errors"
	"time"

	"github.com/skyrocket-qy/behaviortree/engine/bt"
)

// tickOnce runs one root tick, records duration stats, optionally traces
// the tick, and emits events in the order §5 requires:
// Tick -> per-node NodeStatus* -> BlackboardUpdate*.
func (r *Runner) tickOnce() {
	before := r.snapshotBlackboards()

	var span Span
	if r.tracer != nil {
		span = r.tracer.StartSpan("tick")
	}

	start := time.Now()
	_, err := r.tree.TickRoot(start)
	duration := time.Since(start)

	if span != nil {
		span.Finish()
	}

	if err != nil && !errors.Is(err, bt.ErrNoRoot) {
		r.logger.Printf("control: tick error: %v", err)
	}

	if err != nil {
		return
	}

	r.stats.Record(duration)

	tickCounter := r.tree.TickCounter()

	r.emit(Event{Kind: EvtTick, Tick: &TickEvt{TickCounter: tickCounter, Duration: duration}})

	for _, id := range r.tree.TickedThisRound(tickCounter) {
		status, _, ok := r.tree.LastStatus(id)
		if !ok {
			continue
		}

		r.emit(Event{
			Kind:       EvtNodeStatus,
			NodeStatus: &NodeStatusEvt{Node: id, Status: status, TickCounter: tickCounter},
		})
	}

	r.emitBlackboardUpdates(before, tickCounter)
}

// blackboardSnapshot maps "blackboardId/key" to the encoded value bytes it
// held before a tick, for diffing against the post-tick state.
type blackboardSnapshot map[string][]byte

func (r *Runner) snapshotBlackboards() blackboardSnapshot {
	snap := make(blackboardSnapshot)

	for _, bbId := range r.tree.BlackboardIds() {
		bb, _ := r.tree.Blackboard(bbId)

		for _, key := range bb.Keys() {
			v, _ := bb.Read(key)

			codec, ok := r.support.ValueCodec(v.Type)
			if !ok {
				continue
			}

			blob, err := codec.Encode(v)
			if err != nil {
				continue
			}

			snap[bbId.String()+"/"+key] = blob
		}
	}

	return snap
}

// emitBlackboardUpdates diffs the current blackboard contents against
// before and emits a BlackboardUpdate for every key whose encoded value
// changed (§4.5: "BlackboardUpdate(blackboard, key, encoded_value,
// tick_counter)").
func (r *Runner) emitBlackboardUpdates(before blackboardSnapshot, tickCounter int64) {
	for _, bbId := range r.tree.BlackboardIds() {
		bb, _ := r.tree.Blackboard(bbId)

		for _, key := range bb.Keys() {
			v, _ := bb.Read(key)

			codec, ok := r.support.ValueCodec(v.Type)
			if !ok {
				continue
			}

			blob, err := codec.Encode(v)
			if err != nil {
				continue
			}

			loc := bbId.String() + "/" + key

			if prev, existed := before[loc]; existed && string(prev) == string(blob) {
				continue
			}

			r.emit(Event{
				Kind: EvtBlackboardUpdate,
				BlackboardUpdate: &BlackboardUpdateEvt{
					Blackboard:   bbId,
					Key:          key,
					EncodedValue: blob,
					TickCounter:  tickCounter,
				},
			})
		}
	}
}
