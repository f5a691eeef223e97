package cmd

import (
	"context"
	"fmt"

	"github.com/compozy/kustomize-deploy/internal/config"
	"github.com/compozy/kustomize-deploy/internal/logger"
	"github.com/compozy/kustomize-deploy/pkg/version"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the kustomize-deploy command. Positional arguments are
// image overrides handed to `kustomize edit set image` unchanged.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "kustomize-deploy [image...]",
		Short: "Set kustomize images in a deployment repository and push the change",
		Long: `kustomize-deploy updates the image overrides of a kustomize overlay that lives
in a separate deployment repository.

It checks out the configured branch into a temporary directory, runs
"kustomize edit set image" with the given arguments inside the overlay,
commits the result and pushes it back over SSH.

Inputs are read from INPUT_<NAME> environment variables (falling back to
<NAME>) or from an optional .kustomize-deploy.yaml in the current directory:
DEPLOYMENT_REPO_URL, DEPLOYMENT_REPO_BRANCH, KUSTOMIZATION_PATH, DEPLOY_KEY,
GIT_USER_NAME and GIT_USER_EMAIL. Optional settings (SSH_DIR,
KNOWN_HOSTS_PATH, KUSTOMIZE_BIN, WORK_DIR_BASE, LOG_LEVEL, REPORT_DIR) are
only read with the INPUT_ prefix.`,
		Example:       `  kustomize-deploy app=registry.example.com/app:v1.4.2 worker=registry.example.com/worker:v1.4.2`,
		Version:       version.Summary(),
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDeploy(cmd.Context(), args)
		},
	}
	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newReportCmd())
	return cmd
}

// Execute runs the root command with ctx.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

func runDeploy(ctx context.Context, images []string) error {
	cfg, err := config.LoadConfig(images)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	c := newContainer(cfg, log)
	_, err = c.deployOrchestrator().Execute(ctx, cfg)
	return err
}
