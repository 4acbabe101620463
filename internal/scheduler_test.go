package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduler(t *testing.T) {
	t.Run("evaluates each node once per pass", func(t *testing.T) {
		rt := newTestRuntime()

		a := newNode(KindValue, lit(1))
		b := newNode(KindAdd, from(a, 0), lit(1))
		c := newNode(KindMultiply, from(a, 0), lit(2))
		d := newNode(KindAdd, from(b, 0), from(c, 0))
		g := mustImport(t, rt, graphOf(a, b, c, d))

		_, err := g.RecalculateAll()
		require.NoError(t, err)

		require.NoError(t, g.SetInputValues(port(a, 0), Numbers(5)))
		result := g.LastPass()

		assert.Equal(t, ids(a, b, c, d), result.Evaluated)
		assert.True(t, Numbers(16).Equal(outputOf(t, g, port(d, 0))))
	})

	t.Run("does not propagate unchanged outputs", func(t *testing.T) {
		rt := newTestRuntime()

		a := newNode(KindValue, lit(1))
		b := newNode(KindAdd, from(a, 0), lit(1))
		g := mustImport(t, rt, graphOf(a, b))

		_, err := g.RecalculateAll()
		require.NoError(t, err)

		result, err := g.Recalculate(a.ID)
		require.NoError(t, err)

		assert.Equal(t, ids(a), result.Evaluated)
		assert.Empty(t, result.ChangedOutputs)
	})

	t.Run("reports changed outputs", func(t *testing.T) {
		rt := newTestRuntime()

		a := newNode(KindValue, lit(1))
		b := newNode(KindMultiply, from(a, 0), lit(0))
		c := newNode(KindValue, from(b, 0))
		g := mustImport(t, rt, graphOf(a, b, c))

		_, err := g.RecalculateAll()
		require.NoError(t, err)

		require.NoError(t, g.SetInputValues(port(a, 0), Numbers(2)))
		result := g.LastPass()

		// b stays at 0, so c is never reached
		assert.Equal(t, ids(a, b), result.Evaluated)
		assert.Equal(t, []PortID{port(a, 0)}, result.ChangedOutputs)
	})

	t.Run("lets nodes change the loop length", func(t *testing.T) {
		rt := newTestRuntime()

		loop := newNode(KindLoopBuilder, lit(1), lit(2), lit(3))
		add := newNode(KindAdd, from(loop, 0), lit(10))
		count := newNode(KindLoopCount, from(add, 0))
		g := mustImport(t, rt, graphOf(loop, add, count))

		_, err := g.RecalculateAll()
		require.NoError(t, err)

		assert.True(t, Numbers(11, 12, 13).Equal(outputOf(t, g, port(add, 0))))
		assert.True(t, Numbers(0, 1, 2).Equal(outputOf(t, g, port(loop, 1))))
		assert.True(t, Numbers(3).Equal(outputOf(t, g, port(count, 0))))

		require.NoError(t, g.SetInputValues(port(add, 1), Numbers(1, 2, 3, 4, 5)))
		assert.True(t, Numbers(5).Equal(outputOf(t, g, port(count, 0))))
	})

	t.Run("cycles drain with a one pass lag", func(t *testing.T) {
		rt := newTestRuntime()

		a := newNode(KindAdd, lit(0), lit(1))
		b := newNode(KindAdd, from(a, 0), lit(1))
		a.Inputs[0] = from(b, 0)
		g := mustImport(t, rt, graphOf(a, b))

		result, err := g.RecalculateAll()
		require.NoError(t, err)

		assert.Equal(t, ids(a, b), result.Evaluated)
		assert.True(t, Numbers(1).Equal(outputOf(t, g, port(a, 0))))
		assert.True(t, Numbers(2).Equal(outputOf(t, g, port(b, 0))))

		// a reads what b produced last pass
		assert.True(t, Numbers(2).Equal(inputOf(t, g, port(a, 0))))

		_, err = g.RecalculateAll()
		require.NoError(t, err)
		assert.True(t, Numbers(3).Equal(outputOf(t, g, port(a, 0))))
		assert.True(t, Numbers(4).Equal(outputOf(t, g, port(b, 0))))
	})

	t.Run("refuses overlapping passes", func(t *testing.T) {
		var nested error

		rt := newTestRuntime(WithKind("reentrant", KindSpec{
			Outputs: 1,
			Eval: func(ec EvalContext, _ []LoopedValue) []LoopedValue {
				_, nested = ec.Graph.Recalculate(ec.Node.ID())
				return []LoopedValue{Numbers(1)}
			},
		}))

		n := newNode("reentrant")
		g := mustImport(t, rt, graphOf(n))

		result, err := g.RecalculateAll()
		require.NoError(t, err)

		assert.ErrorIs(t, nested, ErrPassInFlight)
		assert.ErrorIs(t, nested, ErrConsistency)
		assert.Equal(t, ids(n), result.Evaluated)
		assert.Equal(t, PassIdle, g.scheduler.State())
	})

	t.Run("changes hands between passes", func(t *testing.T) {
		rt := newTestRuntime()
		a := newNode(KindValue, lit(1))
		g := mustImport(t, rt, graphOf(a))

		done := make(chan error)
		go func() {
			_, err := g.RecalculateAll()
			done <- err
		}()
		require.NoError(t, <-done)

		require.NoError(t, g.SetInputValues(port(a, 0), Numbers(2)))
		assert.True(t, Numbers(2).Equal(outputOf(t, g, port(a, 0))))
	})

	t.Run("refuses use from another goroutine during a pass", func(t *testing.T) {
		var concurrent error

		target := newNode(KindValue, lit(1))
		rt := newTestRuntime(WithKind("meddling", KindSpec{
			Outputs: 1,
			Eval: func(ec EvalContext, _ []LoopedValue) []LoopedValue {
				done := make(chan error)
				go func() {
					done <- ec.Graph.SetInputValues(port(target, 0), Numbers(9))
				}()
				concurrent = <-done
				return []LoopedValue{Numbers(1)}
			},
		}))

		g := mustImport(t, rt, graphOf(target, newNode("meddling")))

		_, err := g.RecalculateAll()
		require.NoError(t, err)

		assert.ErrorIs(t, concurrent, ErrWrongGoroutine)
		assert.True(t, Numbers(1).Equal(inputOf(t, g, port(target, 0))))

		// idle again, any goroutine may drive it
		assert.NoError(t, g.SetInputValues(port(target, 0), Numbers(9)))
	})

	t.Run("recovers panicking evaluators in lenient mode", func(t *testing.T) {
		rt := newTestRuntime(WithKind("boom", KindSpec{
			Outputs: 1,
			Eval: func(EvalContext, []LoopedValue) []LoopedValue {
				panic("boom")
			},
		}))

		n := newNode("boom")
		g := mustImport(t, rt, graphOf(n))

		result, err := g.RecalculateAll()
		require.NoError(t, err)

		assert.Equal(t, ids(n), result.Evaluated)
		assert.Empty(t, result.ChangedOutputs)
	})

	t.Run("re-panics in strict mode", func(t *testing.T) {
		rt := newTestRuntime(WithStrictness(Strict), WithKind("boom", KindSpec{
			Outputs: 1,
			Eval: func(EvalContext, []LoopedValue) []LoopedValue {
				panic("boom")
			},
		}))

		g := mustImport(t, rt, graphOf(newNode("boom")))

		assert.PanicsWithValue(t, "boom", func() { g.RecalculateAll() })
		assert.Equal(t, PassIdle, g.scheduler.State())
	})

	t.Run("tolerates output count mismatches", func(t *testing.T) {
		rt := newTestRuntime(WithKind("short", KindSpec{
			Outputs: 2,
			Eval: func(EvalContext, []LoopedValue) []LoopedValue {
				return []LoopedValue{Numbers(1)}
			},
		}))

		n := newNode("short")
		g := mustImport(t, rt, graphOf(n))

		result, err := g.RecalculateAll()
		require.NoError(t, err)

		assert.Equal(t, []PortID{port(n, 0)}, result.ChangedOutputs)
		// the missing port keeps its initial loop
		assert.True(t, Loop().Equal(outputOf(t, g, port(n, 1))))
	})

	t.Run("advances the clock once per pass", func(t *testing.T) {
		rt := newTestRuntime()
		a := newNode(KindValue, lit(1))
		g := mustImport(t, rt, graphOf(a))

		_, err := g.RecalculateAll()
		require.NoError(t, err)
		_, err = g.RecalculateAll()
		require.NoError(t, err)

		assert.Equal(t, 2, g.Clock())
	})
}
