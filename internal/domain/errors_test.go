package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExitCode(t *testing.T) {
	t.Run("Should return zero for success", func(t *testing.T) {
		assert.Equal(t, 0, ExitCode(nil))
	})
	t.Run("Should pass mutation exit code through", func(t *testing.T) {
		err := fmt.Errorf("step 'Set Image' failed: %w", &MutationError{
			Command:  []string{"kustomize", "edit", "set", "image"},
			ExitCode: 3,
		})
		assert.Equal(t, 3, ExitCode(err))
	})
	t.Run("Should return one for other failures", func(t *testing.T) {
		assert.Equal(t, 1, ExitCode(&ConfigError{Missing: []string{"deploy_key"}}))
		assert.Equal(t, 1, ExitCode(&CredentialError{Op: "decode", Err: errors.New("bad")}))
		assert.Equal(t, 1, ExitCode(&VcsError{Op: "push", Err: errors.New("rejected")}))
		assert.Equal(t, 1, ExitCode(&MutationError{ExitCode: 0}))
	})
}

func TestConfigError_Error(t *testing.T) {
	t.Run("Should list every missing field", func(t *testing.T) {
		err := &ConfigError{Missing: []string{"deploy_key", "git_user_name"}}
		assert.Equal(t, "missing required input: deploy_key, git_user_name", err.Error())
	})
	t.Run("Should include invalid fields", func(t *testing.T) {
		err := &ConfigError{Missing: []string{"deploy_key"}, Invalid: []string{"deployment_repo_branch: bad"}}
		assert.Equal(t, "missing required input: deploy_key; invalid input: deployment_repo_branch: bad", err.Error())
	})
}

func TestVcsError_Unwrap(t *testing.T) {
	err := &VcsError{Op: "commit", Err: ErrNoChanges}
	assert.ErrorIs(t, err, ErrNoChanges)
	assert.Equal(t, "git commit: no changes staged for commit", err.Error())
}

func TestMutationError_Error(t *testing.T) {
	err := &MutationError{Command: []string{"kustomize", "edit"}, ExitCode: 2, Stderr: "boom"}
	assert.Equal(t, "kustomize edit exited with code 2: boom", err.Error())
}
