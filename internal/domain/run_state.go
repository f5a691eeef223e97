package domain

import (
	"time"
)

// DeployState is a state of the deployment update state machine
type DeployState string

const (
	DeployStateInit             DeployState = "init"
	DeployStateValidated        DeployState = "validated"
	DeployStateCredentialsReady DeployState = "credentials_ready"
	DeployStateSessionOpen      DeployState = "session_open"
	DeployStateAligned          DeployState = "aligned"
	DeployStateMutated          DeployState = "mutated"
	DeployStateCommitted        DeployState = "committed"
	DeployStatePushed           DeployState = "pushed"
	DeployStateDone             DeployState = "done"
	DeployStateFailed           DeployState = "failed"
)

// StepStatus represents the status of an individual step
type StepStatus string

const (
	StepStatusPending   StepStatus = "pending"
	StepStatusRunning   StepStatus = "running"
	StepStatusCompleted StepStatus = "completed"
	StepStatusFailed    StepStatus = "failed"
)

// RunState tracks a single deployment update from start to finish.
// It lives only for the duration of the process.
type RunState struct {
	RunID     string       `json:"run_id"`
	StartedAt time.Time    `json:"started_at"`
	UpdatedAt time.Time    `json:"updated_at"`
	State     DeployState  `json:"state"`
	Steps     []StepRecord `json:"steps"`
	Commit    string       `json:"commit,omitempty"`
	Error     string       `json:"error,omitempty"`
}

// StepRecord represents a single step of the run. Target is the state the
// run moves to once the step completes.
type StepRecord struct {
	Name        string      `json:"name"`
	Target      DeployState `json:"target"`
	Status      StepStatus  `json:"status"`
	StartedAt   time.Time   `json:"started_at"`
	CompletedAt *time.Time  `json:"completed_at,omitempty"`
	Error       string      `json:"error,omitempty"`
}

// NewRunState creates a new run state in the init state
func NewRunState(runID string) *RunState {
	now := time.Now()
	return &RunState{
		RunID:     runID,
		StartedAt: now,
		UpdatedAt: now,
		State:     DeployStateInit,
		Steps:     []StepRecord{},
	}
}

// AddStep registers a pending step
func (rs *RunState) AddStep(name string, target DeployState) *StepRecord {
	rs.Steps = append(rs.Steps, StepRecord{
		Name:   name,
		Target: target,
		Status: StepStatusPending,
	})
	rs.UpdatedAt = time.Now()
	return &rs.Steps[len(rs.Steps)-1]
}

// MarkStepStarted marks the first pending step with the given name as running
func (rs *RunState) MarkStepStarted(name string) {
	for i := range rs.Steps {
		if rs.Steps[i].Name == name && rs.Steps[i].Status == StepStatusPending {
			rs.Steps[i].Status = StepStatusRunning
			rs.Steps[i].StartedAt = time.Now()
			rs.UpdatedAt = rs.Steps[i].StartedAt
			break
		}
	}
}

// MarkStepCompleted completes a running step and advances the run to the step's target state
func (rs *RunState) MarkStepCompleted(name string) {
	now := time.Now()
	for i := range rs.Steps {
		if rs.Steps[i].Name == name && rs.Steps[i].Status == StepStatusRunning {
			rs.Steps[i].Status = StepStatusCompleted
			rs.Steps[i].CompletedAt = &now
			rs.State = rs.Steps[i].Target
			rs.UpdatedAt = now
			break
		}
	}
}

// MarkStepFailed marks a running step as failed and moves the run to the failed state
func (rs *RunState) MarkStepFailed(name string, err error) {
	now := time.Now()
	for i := range rs.Steps {
		if rs.Steps[i].Name == name && rs.Steps[i].Status == StepStatusRunning {
			rs.Steps[i].Status = StepStatusFailed
			rs.Steps[i].CompletedAt = &now
			rs.Steps[i].Error = err.Error()
			break
		}
	}
	rs.State = DeployStateFailed
	rs.Error = err.Error()
	rs.UpdatedAt = now
}

// MarkDone moves a run whose steps all completed to the done state
func (rs *RunState) MarkDone() {
	rs.State = DeployStateDone
	rs.UpdatedAt = time.Now()
}

// CompletedSteps returns the names of completed steps in execution order
func (rs *RunState) CompletedSteps() []string {
	var names []string
	for _, s := range rs.Steps {
		if s.Status == StepStatusCompleted {
			names = append(names, s.Name)
		}
	}
	return names
}
