package state

import "fmt"

// Machine is a stateless transition table, the zero value of S acts as a wildcard in queries.
type Machine[S comparable] struct {
	States      []S             `json:"states"`
	Transitions []Transition[S] `json:"transitions"`
}

type Transition[S comparable] struct {
	Name string `json:"name"`
	From S      `json:"from"`
	To   S      `json:"to"`
}

func NewMachine[S comparable](states []S, transitions []Transition[S]) *Machine[S] {
	return &Machine[S]{States: states, Transitions: transitions}
}

func (m *Machine[S]) AvailableTransitions(from, to S) []Transition[S] {
	var zero S
	r := []Transition[S]{}
	for _, transition := range m.Transitions {
		if (from == zero || from == transition.From) && (to == zero || to == transition.To) {
			r = append(r, transition)
		}
	}
	return r
}

func (m *Machine[S]) CanTransition(from, to S) bool {
	var zero S
	if from == zero || to == zero {
		return false
	}
	return len(m.AvailableTransitions(from, to)) > 0
}

// Next lists the states directly reachable from the given state.
func (m *Machine[S]) Next(from S) []S {
	r := []S{}
	for _, transition := range m.AvailableTransitions(from, *new(S)) {
		r = append(r, transition.To)
	}
	return r
}

func (m *Machine[S]) HasState(s S) bool {
	for _, v := range m.States {
		if v == s {
			return true
		}
	}
	return false
}

// Validate checks that every transition connects declared states and every state takes part in a transition.
func (m *Machine[S]) Validate() error {
	used := map[S]bool{}
	for _, t := range m.Transitions {
		if !m.HasState(t.From) {
			return fmt.Errorf("transition '%s' starts from undeclared state '%v'", t.Name, t.From)
		}
		if !m.HasState(t.To) {
			return fmt.Errorf("transition '%s' ends in undeclared state '%v'", t.Name, t.To)
		}
		used[t.From] = true
		used[t.To] = true
	}
	for _, s := range m.States {
		if !used[s] {
			return fmt.Errorf("state '%v' is isolated", s)
		}
	}
	return nil
}
