package support

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/skyrocket-qy/behaviortree/engine/bt"
)

// Builtin NodeType tags (§4.1.1).
const (
	NodeTypeSequence      = "builtin.Sequence"
	NodeTypeSelector      = "builtin.Selector"
	NodeTypeParallel      = "builtin.Parallel"
	NodeTypeIfThenElse    = "builtin.IfThenElse"
	NodeTypeDelay         = "builtin.Delay"
	NodeTypeRetry         = "builtin.Retry"
	NodeTypeInverter      = "builtin.Inverter"
	NodeTypeRepeater      = "builtin.Repeater"
	NodeTypeStatusRead    = "builtin.StatusRead"
	NodeTypeStatusWrite   = "builtin.StatusWrite"
	NodeTypeAlwaysSuccess = "builtin.AlwaysSuccess"
	NodeTypeAlwaysFailure = "builtin.AlwaysFailure"
	NodeTypeAlwaysRunning = "builtin.AlwaysRunning"
	NodeTypeCondition     = "builtin.Condition"
)

// RegisterBuiltins registers every node type and value type from the
// builtin catalogue (§4.1.1, §4.4.1) into ts. Hosts call this once, then
// register their own leaf node types and ValueTypes alongside it.
func RegisterBuiltins(ts *TreeSupport) error {
	if err := registerBuiltinValueTypes(ts); err != nil {
		return err
	}

	return registerBuiltinNodeTypes(ts)
}

func registerBuiltinNodeTypes(ts *TreeSupport) error {
	register := ts.RegisterNodeType

	if err := register(NodeTypeSequence, NodeFactory{
		Create:        func() bt.Node { return bt.NewSequence() },
		DefaultConfig: func() any { return bt.SequenceConfig{} },
		DecodeConfig:  jsonDecoder[bt.SequenceConfig](),
		EncodeConfig:  func(n bt.Node) ([]byte, error) { return json.Marshal(n.GetConfig()) },
		PortSchema:    func(any) []bt.Port { return nil },
	}); err != nil {
		return err
	}

	if err := register(NodeTypeSelector, NodeFactory{
		Create:        func() bt.Node { return bt.NewSelector() },
		DefaultConfig: func() any { return bt.SelectorConfig{} },
		DecodeConfig:  jsonDecoder[bt.SelectorConfig](),
		EncodeConfig:  func(n bt.Node) ([]byte, error) { return json.Marshal(n.GetConfig()) },
		PortSchema:    func(any) []bt.Port { return nil },
	}); err != nil {
		return err
	}

	if err := register(NodeTypeParallel, NodeFactory{
		Create:        func() bt.Node { return bt.NewParallel(bt.ParallelPolicy{}) },
		DefaultConfig: func() any { return bt.ParallelPolicy{} },
		DecodeConfig:  jsonDecoder[bt.ParallelPolicy](),
		EncodeConfig:  func(n bt.Node) ([]byte, error) { return json.Marshal(n.GetConfig()) },
		PortSchema:    func(any) []bt.Port { return nil },
	}); err != nil {
		return err
	}

	if err := register(NodeTypeIfThenElse, NodeFactory{
		Create:        func() bt.Node { return bt.NewIfThenElse() },
		DefaultConfig: func() any { return bt.IfThenElseConfig{} },
		DecodeConfig:  jsonDecoder[bt.IfThenElseConfig](),
		EncodeConfig:  func(n bt.Node) ([]byte, error) { return json.Marshal(n.GetConfig()) },
		PortSchema:    func(any) []bt.Port { return nil },
	}); err != nil {
		return err
	}

	if err := register(NodeTypeDelay, NodeFactory{
		Create:        func() bt.Node { return bt.NewDelay(0) },
		DefaultConfig: func() any { return bt.DelayConfig{} },
		DecodeConfig:  jsonDecoder[bt.DelayConfig](),
		EncodeConfig:  func(n bt.Node) ([]byte, error) { return json.Marshal(n.GetConfig()) },
		PortSchema:    func(any) []bt.Port { return nil },
	}); err != nil {
		return err
	}

	if err := register(NodeTypeRetry, NodeFactory{
		Create:        func() bt.Node { return bt.NewRetry(0) },
		DefaultConfig: func() any { return bt.RetryConfig{} },
		DecodeConfig:  jsonDecoder[bt.RetryConfig](),
		EncodeConfig:  func(n bt.Node) ([]byte, error) { return json.Marshal(n.GetConfig()) },
		PortSchema:    func(any) []bt.Port { return nil },
	}); err != nil {
		return err
	}

	if err := register(NodeTypeInverter, noConfigFactory(func() bt.Node { return bt.NewInverter() })); err != nil {
		return err
	}

	if err := register(NodeTypeRepeater, NodeFactory{
		Create:        func() bt.Node { return bt.NewRepeater(0) },
		DefaultConfig: func() any { return bt.RepeaterConfig{} },
		DecodeConfig:  jsonDecoder[bt.RepeaterConfig](),
		EncodeConfig:  func(n bt.Node) ([]byte, error) { return json.Marshal(n.GetConfig()) },
		PortSchema:    func(any) []bt.Port { return nil },
	}); err != nil {
		return err
	}

	if err := register(NodeTypeStatusRead, noConfigFactory(func() bt.Node { return bt.NewStatusRead() })); err != nil {
		return err
	}

	if err := register(NodeTypeStatusWrite, noConfigFactory(func() bt.Node { return bt.NewStatusWrite() })); err != nil {
		return err
	}

	if err := register(NodeTypeAlwaysSuccess, noConfigFactory(func() bt.Node { return &bt.AlwaysSuccess{} })); err != nil {
		return err
	}

	if err := register(NodeTypeAlwaysFailure, noConfigFactory(func() bt.Node { return &bt.AlwaysFailure{} })); err != nil {
		return err
	}

	if err := register(NodeTypeAlwaysRunning, noConfigFactory(func() bt.Node { return &bt.AlwaysRunning{} })); err != nil {
		return err
	}

	if err := register(NodeTypeCondition, noConfigFactory(func() bt.Node { return bt.NewCondition() })); err != nil {
		return err
	}

	return nil
}

// noConfigFactory builds a NodeFactory for node types with no
// configuration: SetConfig(nil) is always a no-op.
func noConfigFactory(create func() bt.Node) NodeFactory {
	return NodeFactory{
		Create:        create,
		DefaultConfig: func() any { return nil },
		DecodeConfig:  func([]byte) (any, error) { return nil, nil },
		EncodeConfig:  func(bt.Node) ([]byte, error) { return []byte{}, nil },
		PortSchema:    func(any) []bt.Port { return create().Ports() },
	}
}

// jsonDecoder builds a DecodeConfig function for a config type that
// round-trips through encoding/json.
func jsonDecoder[T any]() func([]byte) (any, error) {
	return func(blob []byte) (any, error) {
		var cfg T
		if len(blob) == 0 {
			return cfg, nil
		}

		if err := json.Unmarshal(blob, &cfg); err != nil {
			return nil, fmt.Errorf("decode config: %w", err)
		}

		return cfg, nil
	}
}

func registerBuiltinValueTypes(ts *TreeSupport) error {
	if err := ts.RegisterValueType(bt.ValueTypeBool, ValueCodec{
		Encode: func(v bt.Value) ([]byte, error) {
			b, ok := v.Payload.(bool)
			if !ok {
				return nil, bt.ErrTypeMismatch
			}

			if b {
				return []byte{1}, nil
			}

			return []byte{0}, nil
		},
		Decode: func(blob []byte) (bt.Value, error) {
			if len(blob) != 1 {
				return bt.Value{}, fmt.Errorf("decode bool: %w", bt.ErrTypeMismatch)
			}

			return bt.NewValue(bt.ValueTypeBool, blob[0] != 0), nil
		},
		Clone:  func(v bt.Value) bt.Value { return v },
		Equals: func(a, b bt.Value) bool { return a.Payload == b.Payload },
	}); err != nil {
		return err
	}

	if err := ts.RegisterValueType(bt.ValueTypeInt64, ValueCodec{
		Encode: func(v bt.Value) ([]byte, error) {
			n, ok := v.Payload.(int64)
			if !ok {
				return nil, bt.ErrTypeMismatch
			}

			buf := make([]byte, 8)
			binary.LittleEndian.PutUint64(buf, uint64(n))

			return buf, nil
		},
		Decode: func(blob []byte) (bt.Value, error) {
			if len(blob) != 8 {
				return bt.Value{}, fmt.Errorf("decode int64: %w", bt.ErrTypeMismatch)
			}

			return bt.NewValue(bt.ValueTypeInt64, int64(binary.LittleEndian.Uint64(blob))), nil
		},
		Clone:  func(v bt.Value) bt.Value { return v },
		Equals: func(a, b bt.Value) bool { return a.Payload == b.Payload },
	}); err != nil {
		return err
	}

	if err := ts.RegisterValueType(bt.ValueTypeFloat64, ValueCodec{
		Encode: func(v bt.Value) ([]byte, error) {
			f, ok := v.Payload.(float64)
			if !ok {
				return nil, bt.ErrTypeMismatch
			}

			buf := make([]byte, 8)
			binary.LittleEndian.PutUint64(buf, math.Float64bits(f))

			return buf, nil
		},
		Decode: func(blob []byte) (bt.Value, error) {
			if len(blob) != 8 {
				return bt.Value{}, fmt.Errorf("decode float64: %w", bt.ErrTypeMismatch)
			}

			return bt.NewValue(bt.ValueTypeFloat64, math.Float64frombits(binary.LittleEndian.Uint64(blob))), nil
		},
		Clone:  func(v bt.Value) bt.Value { return v },
		Equals: func(a, b bt.Value) bool { return a.Payload == b.Payload },
	}); err != nil {
		return err
	}

	if err := ts.RegisterValueType(bt.ValueTypeString, ValueCodec{
		Encode: func(v bt.Value) ([]byte, error) {
			s, ok := v.Payload.(string)
			if !ok {
				return nil, bt.ErrTypeMismatch
			}

			return []byte(s), nil
		},
		Decode: func(blob []byte) (bt.Value, error) {
			return bt.NewValue(bt.ValueTypeString, string(blob)), nil
		},
		Clone:  func(v bt.Value) bt.Value { return v },
		Equals: func(a, b bt.Value) bool { return a.Payload == b.Payload },
	}); err != nil {
		return err
	}

	if err := ts.RegisterValueType(bt.ValueTypeDuration, ValueCodec{
		Encode: func(v bt.Value) ([]byte, error) {
			d, ok := v.Payload.(time.Duration)
			if !ok {
				return nil, bt.ErrTypeMismatch
			}

			buf := make([]byte, 8)
			binary.LittleEndian.PutUint64(buf, uint64(d))

			return buf, nil
		},
		Decode: func(blob []byte) (bt.Value, error) {
			if len(blob) != 8 {
				return bt.Value{}, fmt.Errorf("decode duration: %w", bt.ErrTypeMismatch)
			}

			return bt.NewValue(bt.ValueTypeDuration, time.Duration(binary.LittleEndian.Uint64(blob))), nil
		},
		Clone:  func(v bt.Value) bt.Value { return v },
		Equals: func(a, b bt.Value) bool { return a.Payload == b.Payload },
	}); err != nil {
		return err
	}

	return ts.RegisterValueType(bt.ValueTypeStatus, ValueCodec{
		Encode: func(v bt.Value) ([]byte, error) {
			s, ok := v.Payload.(bt.NodeStatus)
			if !ok {
				return nil, bt.ErrTypeMismatch
			}

			return []byte{byte(s)}, nil
		},
		Decode: func(blob []byte) (bt.Value, error) {
			if len(blob) != 1 {
				return bt.Value{}, fmt.Errorf("decode status: %w", bt.ErrTypeMismatch)
			}

			return bt.NewValue(bt.ValueTypeStatus, bt.NodeStatus(blob[0])), nil
		},
		Clone:  func(v bt.Value) bt.Value { return v },
		Equals: func(a, b bt.Value) bool { return a.Payload == b.Payload },
	})
}
