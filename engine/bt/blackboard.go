package bt

import "fmt"

// Blackboard is a typed key/value store shared between nodes via port
// connections. The first write to a key fixes its ValueType; subsequent
// writes of a different type fail with TypeMismatch unless the key is
// explicitly reset.
type Blackboard struct {
	Id      BlackboardId
	entries map[string]Value
}

// NewBlackboard creates an empty Blackboard with a fresh id.
func NewBlackboard() *Blackboard {
	return &Blackboard{Id: NewBlackboardId(), entries: make(map[string]Value)}
}

// NewBlackboardWithId creates an empty Blackboard with a caller-supplied id,
// used when restoring a blackboard from a serialized document.
func NewBlackboardWithId(id BlackboardId) *Blackboard {
	return &Blackboard{Id: id, entries: make(map[string]Value)}
}

// Write stores value under key. The first write fixes the key's ValueType;
// a later write of a different type is rejected with TypeMismatch.
func (b *Blackboard) Write(key string, value Value) error {
	if existing, ok := b.entries[key]; ok && existing.Type != value.Type {
		return fmt.Errorf("%w: key %q is %s, got %s", ErrTypeMismatch, key, existing.Type, value.Type)
	}

	b.entries[key] = value

	return nil
}

// Read returns the most recent value written to key. ok is false if the key
// has never been written (NotSet per §4.2).
func (b *Blackboard) Read(key string) (Value, bool) {
	v, ok := b.entries[key]
	return v, ok
}

// DeclaredType returns the ValueType fixed by the first write to key, if
// any.
func (b *Blackboard) DeclaredType(key string) (ValueType, bool) {
	v, ok := b.entries[key]
	if !ok {
		return "", false
	}

	return v.Type, true
}

// Reset clears key, allowing its next write to fix a new ValueType.
func (b *Blackboard) Reset(key string) {
	delete(b.entries, key)
}

// Keys returns all keys currently holding a value, in no particular order.
func (b *Blackboard) Keys() []string {
	keys := make([]string, 0, len(b.entries))
	for k := range b.entries {
		keys = append(keys, k)
	}

	return keys
}
