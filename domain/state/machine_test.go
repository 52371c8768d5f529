package state_test

import (
	"fleetcare/domain/state"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Machine", func() {
	var (
		machine *state.Machine[string]
	)

	BeforeEach(func() {
		//         PENDING      DOING         DONE
		// PENDING   -            V (begin)   V (close)
		// DOING     V (cancel)   -           V (finish)
		// DONE      V (reopen)   X			  -
		machine = state.NewMachine(
			[]string{"PENDING", "DOING", "DONE"},
			[]state.Transition[string]{
				{Name: "begin", From: "PENDING", To: "DOING"},
				{Name: "close", From: "PENDING", To: "DONE"},
				{Name: "cancel", From: "DOING", To: "PENDING"},
				{Name: "finish", From: "DOING", To: "DONE"},
				{Name: "reopen", From: "DONE", To: "PENDING"},
			})
	})

	Describe("AvailableTransitions", func() {
		It("should filter by from state", func() {
			Ω(machine.AvailableTransitions("PENDING", "")).Should(Equal([]state.Transition[string]{
				{Name: "begin", From: "PENDING", To: "DOING"},
				{Name: "close", From: "PENDING", To: "DONE"},
			}))
			Ω(machine.AvailableTransitions("DONE", "")).Should(Equal([]state.Transition[string]{
				{Name: "reopen", From: "DONE", To: "PENDING"},
			}))
			Ω(machine.AvailableTransitions("UNKNOWN", "")).Should(BeEmpty())
		})

		It("should filter by to state", func() {
			Ω(machine.AvailableTransitions("", "DONE")).Should(Equal([]state.Transition[string]{
				{Name: "close", From: "PENDING", To: "DONE"},
				{Name: "finish", From: "DOING", To: "DONE"},
			}))
			Ω(machine.AvailableTransitions("DONE", "DOING")).Should(BeEmpty())
		})
	})

	Describe("CanTransition and Next", func() {
		It("should answer single steps", func() {
			Ω(machine.CanTransition("PENDING", "DOING")).Should(BeTrue())
			Ω(machine.CanTransition("DONE", "DOING")).Should(BeFalse())
			Ω(machine.CanTransition("", "DOING")).Should(BeFalse())
			Ω(machine.Next("DOING")).Should(Equal([]string{"PENDING", "DONE"}))
			Ω(machine.Next("UNKNOWN")).Should(BeEmpty())
		})
	})

	Describe("Validate", func() {
		It("should accept a consistent machine", func() {
			Ω(machine.Validate()).Should(Succeed())
		})

		It("should reject undeclared and isolated states", func() {
			bad := state.NewMachine([]string{"A", "B"}, []state.Transition[string]{{Name: "go", From: "A", To: "C"}})
			Ω(bad.Validate()).Should(MatchError("transition 'go' ends in undeclared state 'C'"))

			isolated := state.NewMachine([]string{"A", "B", "C"}, []state.Transition[string]{{Name: "go", From: "A", To: "B"}})
			Ω(isolated.Validate()).Should(MatchError("state 'C' is isolated"))
		})
	})
})
