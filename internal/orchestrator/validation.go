package orchestrator

import (
	"fmt"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/compozy/kustomize-deploy/internal/config"
	"github.com/compozy/kustomize-deploy/internal/domain"
)

var (
	// branchNameRegex matches valid git branch names
	branchNameRegex = regexp.MustCompile(`^[a-zA-Z0-9._/-]+$`)
)

// ValidateBranchName validates a git branch name.
func ValidateBranchName(branch string) error {
	if branch == "" {
		return fmt.Errorf("branch name cannot be empty")
	}
	if len(branch) > maxBranchNameLength {
		return fmt.Errorf("branch name too long: %d characters (max: %d)", len(branch), maxBranchNameLength)
	}
	// Check for invalid patterns
	if strings.HasPrefix(branch, "/") || strings.HasSuffix(branch, "/") {
		return fmt.Errorf("branch name cannot start or end with slash: %s", branch)
	}
	if strings.Contains(branch, "..") {
		return fmt.Errorf("branch name cannot contain consecutive dots: %s", branch)
	}
	if strings.HasSuffix(branch, ".lock") {
		return fmt.Errorf("branch name cannot end with .lock: %s", branch)
	}
	if !branchNameRegex.MatchString(branch) {
		return fmt.Errorf("invalid branch name format: %s", branch)
	}
	return nil
}

// ValidateKustomizationPath checks that the overlay path stays relative to the
// repository root.
func ValidateKustomizationPath(path string) error {
	if filepath.IsAbs(path) {
		return fmt.Errorf("kustomization path must be relative: %s", path)
	}
	for _, part := range strings.Split(filepath.ToSlash(filepath.Clean(path)), "/") {
		if part == ".." {
			return fmt.Errorf("kustomization path cannot leave the repository: %s", path)
		}
	}
	return nil
}

// ValidateInputs reports every missing required input and every malformed one
// in a single ConfigError.
func ValidateInputs(cfg *config.Config) error {
	cfgErr := &domain.ConfigError{Missing: cfg.Missing()}
	if !slices.Contains(cfgErr.Missing, "deployment_repo_branch") {
		if err := ValidateBranchName(cfg.Branch); err != nil {
			cfgErr.Invalid = append(cfgErr.Invalid, err.Error())
		}
	}
	if !slices.Contains(cfgErr.Missing, "kustomization_path") {
		if err := ValidateKustomizationPath(cfg.KustomizationPath); err != nil {
			cfgErr.Invalid = append(cfgErr.Invalid, err.Error())
		}
	}
	if len(cfgErr.Missing) == 0 && len(cfgErr.Invalid) == 0 {
		return nil
	}
	return cfgErr
}
