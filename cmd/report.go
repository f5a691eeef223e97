package cmd

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/compozy/kustomize-deploy/internal/config"
	"github.com/compozy/kustomize-deploy/internal/domain"
	"github.com/compozy/kustomize-deploy/internal/repository"
	"github.com/spf13/cobra"
)

func newReportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "report [run-id]",
		Short: "Print the saved report of a kustomize-deploy run",
		Long: `Print the report a previous run wrote to INPUT_REPORT_DIR.

Without an argument the most recent report is shown.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(nil)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			if cfg.ReportDir == "" {
				return errors.New("report_dir is not set (INPUT_REPORT_DIR)")
			}
			reports := repository.NewJSONRunReportRepository(repository.NewOSFileSystem(), cfg.ReportDir)
			var state *domain.RunState
			if len(args) == 1 {
				state, err = reports.Load(cmd.Context(), args[0])
			} else {
				state, err = reports.LoadLatest(cmd.Context())
			}
			if err != nil {
				return err
			}
			data, err := json.MarshalIndent(state, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal report: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}
