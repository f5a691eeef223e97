package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/compozy/kustomize-deploy/internal/domain"
	"go.uber.org/zap"
)

// kustomizeService is the implementation of the KustomizeService interface.
type kustomizeService struct {
	bin string
	log *zap.Logger
}

// NewKustomizeService creates a KustomizeService running bin.
func NewKustomizeService(bin string, log *zap.Logger) KustomizeService {
	if bin == "" {
		bin = DefaultKustomizeBin
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &kustomizeService{bin: bin, log: log}
}

// SetImage invokes the tool with the image arguments passed through verbatim.
// A non-zero exit becomes a domain.MutationError carrying the tool's exit code.
func (s *kustomizeService) SetImage(ctx context.Context, dir string, images []string) error {
	args := append([]string{"edit", "set", "image"}, images...)
	cmd := exec.CommandContext(ctx, s.bin, args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		s.log.Debug("kustomize finished", zap.String("stdout", strings.TrimSpace(stdout.String())))
		return nil
	}
	command := append([]string{s.bin}, args...)
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() > 0 {
		trimmed := strings.TrimSpace(stderr.String())
		s.log.Info("kustomize command", zap.Strings("args", command), zap.String("dir", dir))
		s.log.Error("kustomize failed", zap.Int("exit_code", exitErr.ExitCode()), zap.String("stderr", trimmed))
		return &domain.MutationError{
			Command:  command,
			ExitCode: exitErr.ExitCode(),
			Stderr:   trimmed,
		}
	}
	return fmt.Errorf("failed to run %s: %w", s.bin, err)
}

// OverlayDir joins kustomizationPath onto workDir and makes sure the result,
// with symlinks resolved, does not escape the working tree.
func OverlayDir(workDir, kustomizationPath string) (string, error) {
	if kustomizationPath == "" {
		return "", fmt.Errorf("kustomization path cannot be empty")
	}
	if filepath.IsAbs(kustomizationPath) {
		return "", fmt.Errorf("kustomization path must be relative: %s", kustomizationPath)
	}
	root, err := filepath.EvalSymlinks(workDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve working directory: %w", err)
	}
	dir := filepath.Join(root, filepath.Clean(kustomizationPath))
	resolved, err := filepath.EvalSymlinks(dir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve kustomization path %s: %w", kustomizationPath, err)
	}
	if resolved != root && !strings.HasPrefix(resolved, root+string(os.PathSeparator)) {
		return "", fmt.Errorf("kustomization path %s escapes the repository", kustomizationPath)
	}
	return resolved, nil
}
