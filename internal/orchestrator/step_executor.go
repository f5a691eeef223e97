package orchestrator

import (
	"context"
	"fmt"

	"github.com/compozy/kustomize-deploy/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Step is a single stage of a deployment update. A completed step moves the
// run to Target.
type Step struct {
	Name    string
	Target  domain.DeployState
	Execute func(ctx context.Context) error
}

// StepExecutor runs steps in order and stops at the first failure.
type StepExecutor struct {
	state *domain.RunState
	steps []Step
	log   *zap.Logger
}

// NewStepExecutor creates an executor for a new run. Every log line of the run
// carries its run_id.
func NewStepExecutor(log *zap.Logger) *StepExecutor {
	if log == nil {
		log = zap.NewNop()
	}
	runID := uuid.New().String()
	return &StepExecutor{
		state: domain.NewRunState(runID),
		steps: []Step{},
		log:   log.With(zap.String("run_id", runID)),
	}
}

// Logger returns the run-scoped logger
func (s *StepExecutor) Logger() *zap.Logger {
	return s.log
}

// State returns the run state
func (s *StepExecutor) State() *domain.RunState {
	return s.state
}

// AddStep appends a step to the run
func (s *StepExecutor) AddStep(step Step) {
	s.steps = append(s.steps, step)
	s.state.AddStep(step.Name, step.Target)
}

// Execute runs every step once. A failed step moves the run to the failed
// state and nothing after it runs.
func (s *StepExecutor) Execute(ctx context.Context) error {
	for _, step := range s.steps {
		if err := s.executeStep(ctx, step); err != nil {
			s.state.MarkStepFailed(step.Name, err)
			s.log.Error("step failed",
				zap.String("stage", step.Name),
				zap.String("state", string(s.state.State)),
				zap.Error(err))
			return fmt.Errorf("step '%s' failed: %w", step.Name, err)
		}
	}
	s.state.MarkDone()
	s.log.Info("run completed", zap.String("state", string(s.state.State)))
	return nil
}

func (s *StepExecutor) executeStep(ctx context.Context, step Step) error {
	s.state.MarkStepStarted(step.Name)
	s.log.Info("step started", zap.String("stage", step.Name))
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	if err := step.Execute(ctx); err != nil {
		return err
	}
	s.state.MarkStepCompleted(step.Name)
	s.log.Info("step completed",
		zap.String("stage", step.Name),
		zap.String("state", string(s.state.State)))
	return nil
}
