package engine_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"stateflow/internal/engine"
)

// Behavioral suite for the error-handling contract: callers of Run must be
// able to tell "your model code failed" (ExecutionError, verbatim message)
// from "your model code returned the wrong shape" (ContractError), and no
// other error kind may escape.
var _ = Describe("error classification", func() {
	var (
		initialState engine.State
		timesteps    int
	)

	BeforeEach(func() {
		initialState = engine.State{"state_a": 0}
		timesteps = 10
	})

	runWith := func(block engine.StateUpdateBlock) error {
		model := engine.NewModel(initialState, []engine.StateUpdateBlock{block}, nil)
		sim := engine.NewSimulation(model, timesteps)
		_, err := sim.Run(context.Background())
		return err
	}

	Context("when a state update function fails", func() {
		It("surfaces an ExecutionError with the original message, verbatim", func() {
			err := runWith(engine.StateUpdateBlock{
				Variables: map[string]engine.UpdateFunc{
					"state_a": func(engine.Params, int, []engine.Snapshot, engine.State, engine.Signals) (any, error) {
						return nil, errors.New("Forced exception from state update function")
					},
				},
			})

			var ee *engine.ExecutionError
			Expect(errors.As(err, &ee)).To(BeTrue())
			Expect(ee.Error()).To(Equal("Forced exception from state update function"))
		})
	})

	Context("when a policy function fails", func() {
		It("classifies identically to a state update failure", func() {
			err := runWith(engine.StateUpdateBlock{
				Policies: map[string]engine.PolicyFunc{
					"p1": func(engine.Params, int, []engine.Snapshot, engine.State) (any, error) {
						return nil, errors.New("Forced exception from policy function")
					},
				},
				Variables: map[string]engine.UpdateFunc{
					"state_a": func(engine.Params, int, []engine.Snapshot, engine.State, engine.Signals) (any, error) {
						return engine.NewUpdate("state_a", 1), nil
					},
				},
			})

			var ee *engine.ExecutionError
			Expect(errors.As(err, &ee)).To(BeTrue())
			Expect(ee.Error()).To(Equal("Forced exception from policy function"))
		})
	})

	Context("when a policy function panics", func() {
		It("recovers and surfaces an ExecutionError with the panic text", func() {
			err := runWith(engine.StateUpdateBlock{
				Policies: map[string]engine.PolicyFunc{
					"p1": func(engine.Params, int, []engine.Snapshot, engine.State) (any, error) {
						panic("policy blew up")
					},
				},
				Variables: map[string]engine.UpdateFunc{
					"state_a": func(engine.Params, int, []engine.Snapshot, engine.State, engine.Signals) (any, error) {
						return engine.NewUpdate("state_a", 1), nil
					},
				},
			})

			var ee *engine.ExecutionError
			Expect(errors.As(err, &ee)).To(BeTrue())
			Expect(ee.Error()).To(Equal("policy blew up"))
		})
	})

	Context("when a policy function returns a non-mapping value", func() {
		It("surfaces a ContractError, not an ExecutionError", func() {
			err := runWith(engine.StateUpdateBlock{
				Policies: map[string]engine.PolicyFunc{
					"p1": func(engine.Params, int, []engine.Snapshot, engine.State) (any, error) {
						return [2]any{"a", 1}, nil
					},
				},
				Variables: map[string]engine.UpdateFunc{
					"state_a": func(engine.Params, int, []engine.Snapshot, engine.State, engine.Signals) (any, error) {
						return engine.NewUpdate("state_a", 1), nil
					},
				},
			})

			var ce *engine.ContractError
			Expect(errors.As(err, &ce)).To(BeTrue(), "got %T: %v", err, err)
			Expect(ce.Error()).To(Equal("policy function must return a map of signal name to value"))

			var ee *engine.ExecutionError
			Expect(errors.As(err, &ee)).To(BeFalse())
		})
	})

	Context("on success", func() {
		It("produces timesteps x substeps snapshots with a constant key set", func() {
			model := engine.NewModel(initialState, []engine.StateUpdateBlock{{
				Variables: map[string]engine.UpdateFunc{
					"state_a": func(params engine.Params, substep int, history []engine.Snapshot, previous engine.State, signals engine.Signals) (any, error) {
						return engine.NewUpdate("state_a", previous["state_a"].(int)+1), nil
					},
				},
			}}, nil)

			sim := engine.NewSimulation(model, timesteps)
			results, err := sim.Run(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(1))
			Expect(results[0].Snapshots).To(HaveLen(timesteps))
			for _, snap := range results[0].Snapshots {
				Expect(snap.State).To(HaveKey("state_a"))
				Expect(snap.State).To(HaveLen(1))
			}
			Expect(results[0].FinalState()["state_a"]).To(Equal(10))
		})
	})
})
