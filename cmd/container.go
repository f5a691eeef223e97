package cmd

import (
	"github.com/compozy/kustomize-deploy/internal/config"
	"github.com/compozy/kustomize-deploy/internal/orchestrator"
	"github.com/compozy/kustomize-deploy/internal/repository"
	"github.com/compozy/kustomize-deploy/internal/service"
	"go.uber.org/zap"
)

// container holds all the dependencies for the application.
type container struct {
	cfg *config.Config
	log *zap.Logger

	fsRepo       repository.FileSystemRepository
	provisioner  repository.CredentialProvisioner
	sessions     repository.SessionFactory
	kustomizeSvc service.KustomizeService
}

// newContainer creates a new container with all the dependencies.
func newContainer(cfg *config.Config, log *zap.Logger) *container {
	fsRepo := repository.NewOSFileSystem()
	return &container{
		cfg:          cfg,
		log:          log,
		fsRepo:       fsRepo,
		provisioner:  repository.NewCredentialProvisioner(fsRepo, cfg.SSHDir, cfg.KnownHostsPath),
		sessions:     repository.NewGitSessionFactory(fsRepo, cfg.WorkDirBase, log),
		kustomizeSvc: service.NewKustomizeService(cfg.KustomizeBin, log),
	}
}

func (c *container) deployOrchestrator() *orchestrator.DeployOrchestrator {
	orch := orchestrator.NewDeployOrchestrator(c.provisioner, c.sessions, c.kustomizeSvc, c.fsRepo, c.log)
	if c.cfg.ReportDir != "" {
		orch.WithRunReports(repository.NewJSONRunReportRepository(c.fsRepo, c.cfg.ReportDir))
	}
	return orch
}
