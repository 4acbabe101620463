package internal

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
)

type ValueKind string

const (
	ValueNumber  ValueKind = "number"
	ValueText    ValueKind = "text"
	ValueBool    ValueKind = "bool"
	ValuePoint2D ValueKind = "point2d"
	ValuePoint3D ValueKind = "point3d"
	ValueColor   ValueKind = "color"
	ValueAsset   ValueKind = "asset"
	ValuePulse   ValueKind = "pulse"
	ValueLayer   ValueKind = "layer"
	ValueNone    ValueKind = "none"
)

// Value is the payload of a single lane of a port. The set of variants is closed.
type Value interface {
	Kind() ValueKind
	String() string

	isValue()
}

type Number float64

type Text string

type Bool bool

type Point2D struct {
	X float64
	Y float64
}

type Point3D struct {
	X float64
	Y float64
	Z float64
}

type Color struct {
	R float64
	G float64
	B float64
	A float64
}

// AssetRef points at a media asset owned by a collaborator.
type AssetRef struct {
	ID string
}

// Pulse fires at a graph time.
type Pulse struct {
	Time float64
}

// LayerRef references a layer node by id.
type LayerRef struct {
	Node uuid.UUID
}

type None struct{}

func (Number) Kind() ValueKind   { return ValueNumber }
func (Text) Kind() ValueKind     { return ValueText }
func (Bool) Kind() ValueKind     { return ValueBool }
func (Point2D) Kind() ValueKind  { return ValuePoint2D }
func (Point3D) Kind() ValueKind  { return ValuePoint3D }
func (Color) Kind() ValueKind    { return ValueColor }
func (AssetRef) Kind() ValueKind { return ValueAsset }
func (Pulse) Kind() ValueKind    { return ValuePulse }
func (LayerRef) Kind() ValueKind { return ValueLayer }
func (None) Kind() ValueKind     { return ValueNone }

func (Number) isValue()   {}
func (Text) isValue()     {}
func (Bool) isValue()     {}
func (Point2D) isValue()  {}
func (Point3D) isValue()  {}
func (Color) isValue()    {}
func (AssetRef) isValue() {}
func (Pulse) isValue()    {}
func (LayerRef) isValue() {}
func (None) isValue()     {}

func (n Number) String() string { return strconv.FormatFloat(float64(n), 'g', -1, 64) }
func (t Text) String() string   { return string(t) }
func (b Bool) String() string   { return strconv.FormatBool(bool(b)) }
func (p Point2D) String() string {
	return fmt.Sprintf("(%g, %g)", p.X, p.Y)
}
func (p Point3D) String() string {
	return fmt.Sprintf("(%g, %g, %g)", p.X, p.Y, p.Z)
}
func (c Color) String() string {
	return fmt.Sprintf("rgba(%g, %g, %g, %g)", c.R, c.G, c.B, c.A)
}
func (a AssetRef) String() string { return "asset:" + a.ID }
func (p Pulse) String() string    { return fmt.Sprintf("pulse@%g", p.Time) }
func (l LayerRef) String() string { return "layer:" + l.Node.String() }
func (None) String() string       { return "none" }

// LoopedValue is the ordered set of lanes flowing through one port.
// It always holds at least one lane once it went through Loop.
type LoopedValue []Value

// Loop builds a LoopedValue, normalizing an empty loop to a single None lane.
func Loop(values ...Value) LoopedValue {
	if len(values) == 0 {
		return LoopedValue{None{}}
	}

	lv := make(LoopedValue, len(values))
	copy(lv, values)
	return lv
}

// Numbers is a shorthand for a loop of numbers.
func Numbers(ns ...float64) LoopedValue {
	values := make([]Value, len(ns))
	for i, n := range ns {
		values[i] = Number(n)
	}
	return Loop(values...)
}

// At returns the value of lane i, wrapping around shorter loops.
func (lv LoopedValue) At(i int) Value {
	if len(lv) == 0 {
		return None{}
	}
	if i < 0 {
		i = -i
	}
	return lv[i%len(lv)]
}

func (lv LoopedValue) Len() int { return len(lv) }

// Equal is whole-sequence structural equality.
func (lv LoopedValue) Equal(other LoopedValue) bool {
	// compared as plain slices, cmp would otherwise call back into Equal
	return cmp.Equal([]Value(lv), []Value(other), valueCompareOptions...)
}

func (lv LoopedValue) String() string {
	parts := make([]string, len(lv))
	for i, v := range lv {
		if v == nil {
			parts[i] = "nil"
			continue
		}
		parts[i] = v.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

var valueCompareOptions = []cmp.Option{
	cmpopts.EquateNaNs(),
	cmpopts.EquateEmpty(),
	cmp.Comparer(func(a, b Number) bool {
		return a == b || (math.IsNaN(float64(a)) && math.IsNaN(float64(b)))
	}),
}

// ValuesEqual compares two lists of looped values lane by lane.
func ValuesEqual(a, b []LoopedValue) bool {
	return cmp.Equal(a, b, valueCompareOptions...)
}

// LoopLength returns the longest loop among the given inputs, at least 1.
func LoopLength(inputs ...LoopedValue) int {
	longest := 1
	for _, lv := range inputs {
		if len(lv) > longest {
			longest = len(lv)
		}
	}
	return longest
}

// ActiveIndex selects the lane a collaborator displays. It is passed down
// explicitly and never read from ambient state.
type ActiveIndex int

func (ai ActiveIndex) Lane(lv LoopedValue) Value {
	return lv.At(int(ai))
}
