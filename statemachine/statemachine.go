// Package statemachine generates sequences of transitions for a reference
// state machine, for property tests that compare a system under test against
// a simple model.
//
// A run starts from a generated initial state and draws each transition from
// the generator the machine offers for the state reached so far. Transitions
// whose precondition does not hold are rejected and redrawn, so every
// transition of a produced run is valid for the state it is applied to.
// Shrinking is rapid's: shorter runs and simpler transitions are tried first,
// and because a shrunk run is regenerated step by step the preconditions are
// checked again on every candidate.
package statemachine

import (
	"fmt"

	"pgregory.net/rapid"
)

// Machine is a reference state machine.
type Machine[S, T any] interface {
	// Init returns the generator of initial states.
	Init() *rapid.Generator[S]
	// Transitions returns the generator of transitions available in state.
	Transitions(state S) *rapid.Generator[T]
	// Precondition reports whether transition may be applied in state.
	Precondition(state S, transition T) bool
	// Apply returns the state reached by applying transition.
	Apply(state S, transition T) S
}

// Run is a generated sequence of transitions and the state it starts from.
type Run[S, T any] struct {
	Initial     S
	Transitions []T
}

// States replays the run on m and returns every state visited, starting with
// the initial one.
func (r Run[S, T]) States(m Machine[S, T]) []S {
	states := make([]S, 0, len(r.Transitions)+1)
	state := r.Initial
	states = append(states, state)
	for _, tr := range r.Transitions {
		state = m.Apply(state, tr)
		states = append(states, state)
	}
	return states
}

// Sequential returns a generator of runs with between minSize and maxSize
// transitions. It panics if the bounds are invalid.
func Sequential[S, T any](m Machine[S, T], minSize, maxSize int) *rapid.Generator[Run[S, T]] {
	if minSize < 0 || maxSize < minSize {
		panic(fmt.Sprintf("statemachine: invalid size range [%d, %d]", minSize, maxSize))
	}
	return rapid.Custom(func(t *rapid.T) Run[S, T] {
		run := Run[S, T]{Initial: m.Init().Draw(t, "initial")}
		size := rapid.IntRange(minSize, maxSize).Draw(t, "size")
		run.Transitions = make([]T, 0, size)
		state := run.Initial
		for len(run.Transitions) < size {
			current := state
			tr := m.Transitions(current).
				Filter(func(tr T) bool { return m.Precondition(current, tr) }).
				Draw(t, "transition")
			run.Transitions = append(run.Transitions, tr)
			state = m.Apply(state, tr)
		}
		return run
	})
}

// Check runs a state machine test: for every generated run it hands the
// system under test each transition and lets verify compare the reached
// reference state with it.
func Check[S, T, SUT any](t rapid.TB, m Machine[S, T], minSize, maxSize int, setup func(S) SUT, step func(SUT, T), verify func(*rapid.T, S, SUT)) {
	gen := Sequential(m, minSize, maxSize)
	rapid.Check(t, func(rt *rapid.T) {
		run := gen.Draw(rt, "run")
		sut := setup(run.Initial)
		state := run.Initial
		verify(rt, state, sut)
		for _, tr := range run.Transitions {
			step(sut, tr)
			state = m.Apply(state, tr)
			verify(rt, state, sut)
		}
	})
}
