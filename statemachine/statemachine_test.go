package statemachine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

type op struct {
	push  bool
	value int
}

// stackModel tracks the depth of a stack; popping needs a non-empty stack.
type stackModel struct{}

func (stackModel) Init() *rapid.Generator[int] { return rapid.Just(0) }

func (stackModel) Transitions(int) *rapid.Generator[op] {
	return rapid.Custom(func(t *rapid.T) op {
		return op{push: rapid.Bool().Draw(t, "push"), value: rapid.IntRange(0, 9).Draw(t, "value")}
	})
}

func (stackModel) Precondition(depth int, o op) bool { return o.push || depth > 0 }

func (stackModel) Apply(depth int, o op) int {
	if o.push {
		return depth + 1
	}
	return depth - 1
}

type stack struct{ items []int }

func TestSequential(t *testing.T) {
	t.Run("Every transition satisfies its precondition", func(t *testing.T) {
		m := stackModel{}
		gen := Sequential[int, op](m, 1, 20)
		rapid.Check(t, func(rt *rapid.T) {
			run := gen.Draw(rt, "run")
			require.GreaterOrEqual(rt, len(run.Transitions), 1)
			require.LessOrEqual(rt, len(run.Transitions), 20)
			state := run.Initial
			for _, tr := range run.Transitions {
				require.True(rt, m.Precondition(state, tr))
				state = m.Apply(state, tr)
			}
		})
	})

	t.Run("States replays the run", func(t *testing.T) {
		run := Run[int, op]{Initial: 0, Transitions: []op{{push: true}, {push: true}, {}}}
		assert.Equal(t, []int{0, 1, 2, 1}, run.States(stackModel{}))
	})

	t.Run("Invalid size range panics", func(t *testing.T) {
		assert.Panics(t, func() { Sequential[int, op](stackModel{}, 3, 1) })
		assert.Panics(t, func() { Sequential[int, op](stackModel{}, -1, 1) })
	})
}

func TestCheck(t *testing.T) {
	Check[int, op, *stack](t, stackModel{}, 0, 30,
		func(int) *stack { return &stack{} },
		func(s *stack, o op) {
			if o.push {
				s.items = append(s.items, o.value)
				return
			}
			s.items = s.items[:len(s.items)-1]
		},
		func(rt *rapid.T, depth int, s *stack) {
			assert.Len(rt, s.items, depth)
		},
	)
}
