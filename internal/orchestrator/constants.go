package orchestrator

// Step names as they appear in logs and in the run state.
const (
	StepValidate  = "validate inputs"
	StepProvision = "provision credentials"
	StepOpen      = "open session"
	StepAlign     = "align to branch"
	StepMutate    = "set images"
	StepCommit    = "commit"
	StepPush      = "push"
)

const (
	// maxBranchNameLength bounds branch names accepted as input
	maxBranchNameLength = 255
)
