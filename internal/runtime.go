package internal

import (
	"os"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
)

// Runtime carries what every graph of a document shares: the kind table, the
// definition registry, the strictness mode and the logger.
type Runtime struct {
	log        hclog.Logger
	strictness Strictness
	kinds      KindTable
	registry   DefinitionRegistry
}

type Option func(*Runtime)

func WithLogger(log hclog.Logger) Option {
	return func(rt *Runtime) {
		if log != nil {
			rt.log = log
		}
	}
}

func WithStrictness(s Strictness) Option {
	return func(rt *Runtime) {
		rt.strictness = s
	}
}

func WithRegistry(r DefinitionRegistry) Option {
	return func(rt *Runtime) {
		if r != nil {
			rt.registry = r
		}
	}
}

// WithKind registers an extra node kind, or replaces a builtin one.
func WithKind(kind NodeKind, spec KindSpec) Option {
	return func(rt *Runtime) {
		rt.kinds[kind] = spec
	}
}

func NewRuntime(opts ...Option) *Runtime {
	rt := &Runtime{
		log:        NewLogger(os.Stderr),
		strictness: StrictnessFromEnv(),
		kinds:      DefaultKinds(),
		registry:   newMemoryRegistry(),
	}

	for _, opt := range opts {
		opt(rt)
	}

	return rt
}

func (rt *Runtime) Logger() hclog.Logger { return rt.log }

func (rt *Runtime) Strictness() Strictness { return rt.strictness }

func (rt *Runtime) Registry() DefinitionRegistry { return rt.registry }

func (rt *Runtime) Kinds() KindTable { return rt.kinds.clone() }

// NewGraph returns an empty top-level graph.
func (rt *Runtime) NewGraph(name string) *Graph {
	return rt.newGraph(uuid.New(), name, nil)
}
