package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"github.com/compozy/kustomize-deploy/internal/config"
	"github.com/compozy/kustomize-deploy/internal/domain"
	"github.com/compozy/kustomize-deploy/internal/repository"
	"github.com/compozy/kustomize-deploy/internal/service"
	"github.com/compozy/kustomize-deploy/internal/usecase"
	"go.uber.org/zap"
)

// DeployOrchestrator drives a single deployment update: credentials, a fresh
// checkout of the deployment branch, the image edit, the commit and the push.
type DeployOrchestrator struct {
	provisioner repository.CredentialProvisioner
	sessions    repository.SessionFactory
	kustomize   service.KustomizeService
	fsRepo      repository.FileSystemRepository
	reports     repository.RunReportRepository
	log         *zap.Logger
}

// NewDeployOrchestrator creates a new deployment orchestrator.
func NewDeployOrchestrator(
	provisioner repository.CredentialProvisioner,
	sessions repository.SessionFactory,
	kustomize service.KustomizeService,
	fsRepo repository.FileSystemRepository,
	log *zap.Logger,
) *DeployOrchestrator {
	if log == nil {
		log = zap.NewNop()
	}
	return &DeployOrchestrator{
		provisioner: provisioner,
		sessions:    sessions,
		kustomize:   kustomize,
		fsRepo:      fsRepo,
		log:         log,
	}
}

// WithRunReports makes every run write its final state to reports.
func (o *DeployOrchestrator) WithRunReports(reports repository.RunReportRepository) *DeployOrchestrator {
	o.reports = reports
	return o
}

// run holds what the steps of one Execute call hand to each other.
type run struct {
	cfg     *config.Config
	changes []domain.ImageChange
	creds   *domain.CredentialMaterial
	session repository.GitSession
	log     *zap.Logger
	state   *domain.RunState
}

// Execute performs the update described by cfg. The returned state is never
// nil and reflects how far the run got.
func (o *DeployOrchestrator) Execute(ctx context.Context, cfg *config.Config) (*domain.RunState, error) {
	executor := NewStepExecutor(o.log)
	r := &run{
		cfg:     cfg,
		changes: domain.NewImageChanges(cfg.ImageArgs),
		log:     executor.Logger(),
		state:   executor.State(),
	}
	defer o.closeSession(r)

	r.log.Info("starting deployment update",
		zap.String("repository", cfg.RepoURL),
		zap.String("branch", cfg.Branch),
		zap.String("kustomization_path", cfg.KustomizationPath),
		zap.Strings("images", domain.Args(r.changes)))
	if len(r.changes) == 0 {
		r.log.Warn("no image arguments given")
	}

	executor.AddStep(Step{
		Name:    StepValidate,
		Target:  domain.DeployStateValidated,
		Execute: func(_ context.Context) error { return o.validate(r) },
	})
	executor.AddStep(Step{
		Name:    StepProvision,
		Target:  domain.DeployStateCredentialsReady,
		Execute: func(ctx context.Context) error { return o.provision(ctx, r) },
	})
	executor.AddStep(Step{
		Name:    StepOpen,
		Target:  domain.DeployStateSessionOpen,
		Execute: func(ctx context.Context) error { return o.openSession(ctx, r) },
	})
	executor.AddStep(Step{
		Name:    StepAlign,
		Target:  domain.DeployStateAligned,
		Execute: func(ctx context.Context) error { return o.align(ctx, r) },
	})
	executor.AddStep(Step{
		Name:    StepMutate,
		Target:  domain.DeployStateMutated,
		Execute: func(ctx context.Context) error { return o.mutate(ctx, r) },
	})
	executor.AddStep(Step{
		Name:    StepCommit,
		Target:  domain.DeployStateCommitted,
		Execute: func(ctx context.Context) error { return o.commit(ctx, r) },
	})
	executor.AddStep(Step{
		Name:    StepPush,
		Target:  domain.DeployStatePushed,
		Execute: func(ctx context.Context) error { return r.session.Push(ctx, cfg.Branch) },
	})

	err := executor.Execute(ctx)
	o.saveReport(ctx, r)
	if err != nil {
		return r.state, err
	}
	r.log.Info("deployment update pushed",
		zap.String("branch", cfg.Branch),
		zap.String("commit", r.state.Commit))
	return r.state, nil
}

func (o *DeployOrchestrator) validate(r *run) error {
	err := ValidateInputs(r.cfg)
	var cfgErr *domain.ConfigError
	if errors.As(err, &cfgErr) {
		for _, name := range cfgErr.Missing {
			r.log.Error("missing required input", zap.String("input", name))
		}
		for _, reason := range cfgErr.Invalid {
			r.log.Error("invalid input", zap.String("reason", reason))
		}
	}
	return err
}

func (o *DeployOrchestrator) provision(ctx context.Context, r *run) error {
	creds, err := o.provisioner.Provision(ctx, r.cfg.DeployKey)
	if err != nil {
		return err
	}
	r.creds = creds
	r.log.Info("deploy key written", zap.String("path", creds.PrivateKeyPath))
	return nil
}

func (o *DeployOrchestrator) openSession(ctx context.Context, r *run) error {
	session, err := o.sessions.Open(ctx, r.creds, r.cfg.RepoURL)
	if err != nil {
		return err
	}
	r.session = session
	r.log.Info("working directory ready", zap.String("path", session.WorkDir()))
	return nil
}

func (o *DeployOrchestrator) align(ctx context.Context, r *run) error {
	if err := r.session.SetRemote(ctx, repository.DefaultRemoteName, r.cfg.RepoURL); err != nil {
		return err
	}
	return r.session.AlignToBranch(ctx, r.cfg.Branch)
}

func (o *DeployOrchestrator) mutate(ctx context.Context, r *run) error {
	dir, err := service.OverlayDir(r.session.WorkDir(), r.cfg.KustomizationPath)
	if err != nil {
		return err
	}
	if err := o.kustomize.SetImage(ctx, dir, domain.Args(r.changes)); err != nil {
		return err
	}
	o.logOverlay(r, dir)
	return nil
}

// logOverlay reports the resulting images: section. Failures only warn.
func (o *DeployOrchestrator) logOverlay(r *run, dir string) {
	if o.fsRepo == nil {
		return
	}
	images, err := service.ReadOverlayImages(o.fsRepo, dir)
	if err != nil {
		r.log.Warn("failed to read overlay images", zap.Error(err))
		return
	}
	formatted := make([]string, 0, len(images))
	for _, img := range images {
		formatted = append(formatted, service.FormatImage(img))
	}
	r.log.Info("overlay images", zap.Strings("images", formatted))
}

func (o *DeployOrchestrator) commit(ctx context.Context, r *run) error {
	if status, err := r.session.Status(ctx); err != nil {
		r.log.Warn("failed to read working tree status", zap.Error(err))
	} else {
		r.log.Info("working tree status", zap.String("status", status))
	}
	uc := &usecase.PrepareCommitMessageUseCase{}
	message, err := uc.Execute(ctx, r.changes)
	if err != nil {
		return fmt.Errorf("failed to prepare commit message: %w", err)
	}
	identity := domain.Identity{Name: r.cfg.GitUserName, Email: r.cfg.GitUserEmail}
	hash, err := r.session.StageAndCommit(ctx, r.cfg.KustomizationPath, identity, message)
	if err != nil {
		return err
	}
	r.state.Commit = hash
	r.log.Info("commit created", zap.String("commit", hash))
	return nil
}

// saveReport persists the final run state. Failures only warn.
func (o *DeployOrchestrator) saveReport(ctx context.Context, r *run) {
	if o.reports == nil {
		return
	}
	if err := o.reports.Save(context.WithoutCancel(ctx), r.state); err != nil {
		r.log.Warn("failed to save run report", zap.Error(err))
	}
}

func (o *DeployOrchestrator) closeSession(r *run) {
	if r.session == nil {
		return
	}
	if err := r.session.Close(); err != nil {
		r.log.Warn("failed to remove working directory",
			zap.String("path", r.session.WorkDir()),
			zap.Error(err))
	}
}
