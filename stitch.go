package stitch

import (
	"io"
	"os"

	"github.com/AnatoleLucet/stitch/internal"
	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
)

type (
	Value       = internal.Value
	LoopedValue = internal.LoopedValue
	ActiveIndex = internal.ActiveIndex

	Number   = internal.Number
	Text     = internal.Text
	Bool     = internal.Bool
	Point2D  = internal.Point2D
	Point3D  = internal.Point3D
	Color    = internal.Color
	AssetRef = internal.AssetRef
	Pulse    = internal.Pulse
	LayerRef = internal.LayerRef
	None     = internal.None

	NodeID         = internal.NodeID
	PortID         = internal.PortID
	PortConnection = internal.PortConnection
	NodeKind       = internal.NodeKind
	Canvas         = internal.Canvas

	GraphEntity         = internal.GraphEntity
	NodeEntity          = internal.NodeEntity
	ComponentEntity     = internal.ComponentEntity
	ComponentDefinition = internal.ComponentDefinition

	Graph             = internal.Graph
	Node              = internal.Node
	InputObserver     = internal.InputObserver
	OutputObserver    = internal.OutputObserver
	ComponentInstance = internal.ComponentInstance
	PassResult        = internal.PassResult

	KindSpec    = internal.KindSpec
	EvalContext = internal.EvalContext
	EvalFunc    = internal.EvalFunc

	Interaction      = internal.Interaction
	InteractionKind  = internal.InteractionKind
	InteractionPhase = internal.InteractionPhase

	DefinitionRegistry = internal.DefinitionRegistry
	MemoryRegistry     = internal.MemoryRegistry

	Strictness       = internal.Strictness
	ConsistencyError = internal.ConsistencyError

	Option = internal.Option
)

const (
	KindValue             = internal.KindValue
	KindAdd               = internal.KindAdd
	KindSubtract          = internal.KindSubtract
	KindMultiply          = internal.KindMultiply
	KindLoopBuilder       = internal.KindLoopBuilder
	KindLoopCount         = internal.KindLoopCount
	KindTime              = internal.KindTime
	KindExternal          = internal.KindExternal
	KindSplitterInput     = internal.KindSplitterInput
	KindSplitterOutput    = internal.KindSplitterOutput
	KindDragInteraction   = internal.KindDragInteraction
	KindPressInteraction  = internal.KindPressInteraction
	KindScrollInteraction = internal.KindScrollInteraction
	KindMouse             = internal.KindMouse
	KindComponent         = internal.KindComponent

	InteractionDrag   = internal.InteractionDrag
	InteractionPress  = internal.InteractionPress
	InteractionScroll = internal.InteractionScroll

	PhaseChanged = internal.PhaseChanged
	PhaseEnded   = internal.PhaseEnded

	Lenient = internal.Lenient
	Strict  = internal.Strict
)

var (
	ErrConsistency        = internal.ErrConsistency
	ErrNodeNotFound       = internal.ErrNodeNotFound
	ErrPortNotFound       = internal.ErrPortNotFound
	ErrDefinitionNotFound = internal.ErrDefinitionNotFound
	ErrPassInFlight       = internal.ErrPassInFlight
	ErrWrongGoroutine     = internal.ErrWrongGoroutine
	ErrInvalidSnapshot    = internal.ErrInvalidSnapshot
)

// Loop builds a looped value, an empty loop holds a single None lane.
func Loop(values ...Value) LoopedValue { return internal.Loop(values...) }

// Numbers builds a loop of numbers.
func Numbers(ns ...float64) LoopedValue { return internal.Numbers(ns...) }

// Upstream declares an input connected to an output port.
func Upstream(port PortID) PortConnection { return internal.Upstream(port) }

// Literal declares an unconnected input holding values.
func Literal(values ...Value) PortConnection { return internal.Literal(values) }

// Port is a shorthand for a port id.
func Port(node NodeID, index int) PortID { return PortID{Node: node, Port: index} }

// NewNode returns the snapshot of a fresh node of the given kind.
func NewNode(kind NodeKind, inputs ...PortConnection) NodeEntity {
	return NodeEntity{ID: uuid.New(), Kind: kind, Inputs: inputs}
}

// NewComponentNode returns the snapshot of a fresh node embedding a component.
func NewComponentNode(componentID uuid.UUID, inputs ...PortConnection) NodeEntity {
	e := NewNode(KindComponent, inputs...)
	e.Component = &ComponentEntity{ComponentID: componentID}
	return e
}

// NewMemoryRegistry returns an in-memory definition registry holding defs.
// Definitions that fail to copy are left out and reported in the error.
func NewMemoryRegistry(defs ...ComponentDefinition) (*MemoryRegistry, error) {
	return internal.NewMemoryRegistry(defs...)
}

// Validate reports every problem of a snapshot against the builtin kinds.
func Validate(e GraphEntity) error { return internal.Validate(e, internal.DefaultKinds()) }

// WithLogger sets the root logger. Each concern logs through a named sub-logger.
func WithLogger(log hclog.Logger) Option { return internal.WithLogger(log) }

// WithStrictness selects whether consistency violations panic or are logged and refused.
func WithStrictness(s Strictness) Option { return internal.WithStrictness(s) }

// WithRegistry sets the registry resolving component definitions.
func WithRegistry(r DefinitionRegistry) Option { return internal.WithRegistry(r) }

// WithKind registers an extra node kind.
func WithKind(kind NodeKind, spec KindSpec) Option { return internal.WithKind(kind, spec) }

// Config is the environment-facing configuration of an engine.
type Config struct {
	Strictness Strictness
	LogLevel   string
	LogOutput  io.Writer
}

// ConfigFromEnv reads STITCH_STRICT and STITCH_LOG_LEVEL.
func ConfigFromEnv() Config {
	level := os.Getenv(internal.EnvLogLevel)
	if level == "" {
		level = "warn"
	}

	return Config{
		Strictness: internal.StrictnessFromEnv(),
		LogLevel:   level,
		LogOutput:  os.Stderr,
	}
}

// Options maps the configuration onto engine options.
func (c Config) Options() []Option {
	out := c.LogOutput
	if out == nil {
		out = os.Stderr
	}

	level := hclog.LevelFromString(c.LogLevel)
	if level == hclog.NoLevel {
		level = hclog.Warn
	}

	return []Option{
		WithStrictness(c.Strictness),
		WithLogger(hclog.New(&hclog.LoggerOptions{
			Name:   "stitch",
			Level:  level,
			Output: out,
		})),
	}
}

// Engine owns the kind table, the definition registry, the strictness mode
// and the logger shared by every graph it builds.
type Engine struct {
	rt *internal.Runtime
}

// New creates an engine. Without options it logs warnings to stderr, is
// lenient unless STITCH_STRICT is set, and resolves components from an empty
// in-memory registry.
func New(opts ...Option) *Engine {
	return &Engine{rt: internal.NewRuntime(opts...)}
}

// NewDocument returns an empty top-level graph.
func (e *Engine) NewDocument(name string) *Document {
	return &Document{e.rt.NewGraph(name)}
}

// Import builds a top-level graph from a snapshot. Nothing is evaluated yet.
func (e *Engine) Import(snapshot GraphEntity) (*Document, error) {
	g, err := e.rt.Import(snapshot)
	if err != nil {
		return nil, err
	}
	return &Document{g}, nil
}

// Validate reports every problem of a snapshot against the engine kinds.
func (e *Engine) Validate(snapshot GraphEntity) error { return e.rt.Validate(snapshot) }

func (e *Engine) Registry() DefinitionRegistry { return e.rt.Registry() }

func (e *Engine) Logger() hclog.Logger { return e.rt.Logger() }

// Document is a top-level graph.
type Document struct {
	*Graph
}

// Set authors the loop of an unconnected input.
func (d *Document) Set(port PortID, values ...Value) error {
	return d.SetInputValues(port, Loop(values...))
}

// Value reads the current loop of an output port.
func (d *Document) Value(port PortID) (LoopedValue, bool) {
	o, ok := d.Output(port)
	if !ok {
		return nil, false
	}
	return o.AllLoopedValues(), true
}
