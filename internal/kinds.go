package internal

// EvalContext is everything an evaluator may read besides its inputs.
type EvalContext struct {
	Graph       *Graph
	Node        *Node
	Time        float64
	ActiveIndex ActiveIndex
}

// EvalFunc computes a node's outputs from its current input loops.
type EvalFunc func(ec EvalContext, inputs []LoopedValue) []LoopedValue

type KindSpec struct {
	// default literal per input, its length is the fixed input count
	Inputs []LoopedValue

	Outputs int

	// variadic kinds take their input count from the snapshot
	Variadic bool

	Eval EvalFunc
}

// defaultInput returns the default literal of input i.
func (s KindSpec) defaultInput(i int) LoopedValue {
	if len(s.Inputs) == 0 {
		return Loop()
	}
	if i >= len(s.Inputs) {
		return s.Inputs[len(s.Inputs)-1]
	}
	return s.Inputs[i]
}

type KindTable map[NodeKind]KindSpec

func (t KindTable) Lookup(kind NodeKind) (KindSpec, bool) {
	spec, ok := t[kind]
	return spec, ok
}

func (t KindTable) clone() KindTable {
	c := make(KindTable, len(t))
	for k, v := range t {
		c[k] = v
	}
	return c
}

func DefaultKinds() KindTable {
	zero := Numbers(0)
	one := Numbers(1)
	noLayer := Loop(None{})

	return KindTable{
		KindValue: {
			Inputs:  []LoopedValue{zero},
			Outputs: 1,
			Eval:    passThrough,
		},
		KindAdd: {
			Inputs:  []LoopedValue{zero, zero},
			Outputs: 1,
			Eval:    arithmetic(func(a, b float64) float64 { return a + b }),
		},
		KindSubtract: {
			Inputs:  []LoopedValue{zero, zero},
			Outputs: 1,
			Eval:    arithmetic(func(a, b float64) float64 { return a - b }),
		},
		KindMultiply: {
			Inputs:  []LoopedValue{one, one},
			Outputs: 1,
			Eval:    arithmetic(func(a, b float64) float64 { return a * b }),
		},
		KindLoopBuilder: {
			Inputs:   []LoopedValue{zero},
			Outputs:  2,
			Variadic: true,
			Eval:     buildLoop,
		},
		KindLoopCount: {
			Inputs:  []LoopedValue{zero},
			Outputs: 1,
			Eval: func(_ EvalContext, inputs []LoopedValue) []LoopedValue {
				return []LoopedValue{Numbers(float64(inputs[0].Len()))}
			},
		},
		KindTime: {
			Outputs: 1,
			Eval: func(ec EvalContext, _ []LoopedValue) []LoopedValue {
				return []LoopedValue{Numbers(ec.Time)}
			},
		},
		KindExternal: {
			Outputs: 1,
			Eval: func(ec EvalContext, _ []LoopedValue) []LoopedValue {
				return []LoopedValue{ec.Graph.externalValue(ec.Node.id)}
			},
		},
		KindSplitterInput: {
			Inputs:  []LoopedValue{zero},
			Outputs: 1,
			Eval:    passThrough,
		},
		KindSplitterOutput: {
			Inputs:  []LoopedValue{zero},
			Outputs: 1,
			Eval:    passThrough,
		},
		KindDragInteraction: {
			Inputs:  []LoopedValue{noLayer, Loop(Bool(true))},
			Outputs: 3,
			Eval: func(ec EvalContext, _ []LoopedValue) []LoopedValue {
				s := ec.Node.interaction
				return []LoopedValue{Loop(s.Location), Loop(s.Translation), Loop(s.Velocity)}
			},
		},
		KindPressInteraction: {
			Inputs:  []LoopedValue{noLayer},
			Outputs: 2,
			Eval: func(ec EvalContext, _ []LoopedValue) []LoopedValue {
				s := ec.Node.interaction
				return []LoopedValue{Loop(s.Location), Loop(Bool(s.Active))}
			},
		},
		KindScrollInteraction: {
			Inputs:  []LoopedValue{noLayer},
			Outputs: 2,
			Eval: func(ec EvalContext, _ []LoopedValue) []LoopedValue {
				s := ec.Node.interaction
				return []LoopedValue{Loop(s.Translation), Loop(s.Velocity)}
			},
		},
		KindMouse: {
			Outputs: 3,
			Eval: func(ec EvalContext, _ []LoopedValue) []LoopedValue {
				s := ec.Node.interaction
				return []LoopedValue{Loop(s.Location), Loop(Bool(s.Active)), Loop(s.Velocity)}
			},
		},
		KindComponent: {
			Variadic: true,
			Eval: func(ec EvalContext, _ []LoopedValue) []LoopedValue {
				if ec.Node.component == nil {
					return nil
				}
				return ec.Node.component.Evaluate()
			},
		},
	}
}

func passThrough(_ EvalContext, inputs []LoopedValue) []LoopedValue {
	return []LoopedValue{inputs[0]}
}

// arithmetic applies op lane by lane over the longest incoming loop.
func arithmetic(op func(a, b float64) float64) EvalFunc {
	return func(_ EvalContext, inputs []LoopedValue) []LoopedValue {
		n := LoopLength(inputs...)

		out := make(LoopedValue, n)
		for i := 0; i < n; i++ {
			out[i] = Number(op(toNumber(inputs[0].At(i)), toNumber(inputs[1].At(i))))
		}
		return []LoopedValue{out}
	}
}

// buildLoop collects the first lane of every input into one loop, plus the
// matching index loop.
func buildLoop(_ EvalContext, inputs []LoopedValue) []LoopedValue {
	values := make([]Value, len(inputs))
	indices := make([]float64, len(inputs))
	for i, in := range inputs {
		values[i] = in.At(0)
		indices[i] = float64(i)
	}
	return []LoopedValue{Loop(values...), Numbers(indices...)}
}

func toNumber(v Value) float64 {
	switch v := v.(type) {
	case Number:
		return float64(v)
	case Bool:
		if v {
			return 1
		}
		return 0
	case Pulse:
		return v.Time
	default:
		return 0
	}
}
