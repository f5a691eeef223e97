package orchestrator

import (
	"context"
	"errors"
	"testing"

	"github.com/compozy/kustomize-deploy/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStepExecutor_Execute(t *testing.T) {
	t.Run("Should run steps in order and finish done", func(t *testing.T) {
		executor := NewStepExecutor(nil)
		var order []string
		executor.AddStep(Step{Name: "first", Target: domain.DeployStateValidated, Execute: func(_ context.Context) error {
			order = append(order, "first")
			return nil
		}})
		executor.AddStep(Step{Name: "second", Target: domain.DeployStateCredentialsReady, Execute: func(_ context.Context) error {
			order = append(order, "second")
			return nil
		}})

		err := executor.Execute(context.Background())

		require.NoError(t, err)
		assert.Equal(t, []string{"first", "second"}, order)
		assert.Equal(t, domain.DeployStateDone, executor.State().State)
		assert.NotEmpty(t, executor.State().RunID)
	})

	t.Run("Should stop at the first failure", func(t *testing.T) {
		executor := NewStepExecutor(nil)
		secondRan := false
		boom := errors.New("boom")
		executor.AddStep(Step{Name: "first", Target: domain.DeployStateValidated, Execute: func(_ context.Context) error {
			return boom
		}})
		executor.AddStep(Step{Name: "second", Target: domain.DeployStateCredentialsReady, Execute: func(_ context.Context) error {
			secondRan = true
			return nil
		}})

		err := executor.Execute(context.Background())

		assert.ErrorIs(t, err, boom)
		assert.Contains(t, err.Error(), "step 'first' failed")
		assert.False(t, secondRan)
		state := executor.State()
		assert.Equal(t, domain.DeployStateFailed, state.State)
		assert.Equal(t, "boom", state.Error)
		assert.Equal(t, domain.StepStatusFailed, state.Steps[0].Status)
		assert.Equal(t, domain.StepStatusPending, state.Steps[1].Status)
	})

	t.Run("Should not start steps once the context is canceled", func(t *testing.T) {
		executor := NewStepExecutor(nil)
		ran := false
		executor.AddStep(Step{Name: "only", Target: domain.DeployStateValidated, Execute: func(_ context.Context) error {
			ran = true
			return nil
		}})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := executor.Execute(ctx)

		assert.ErrorIs(t, err, context.Canceled)
		assert.False(t, ran)
	})
}
