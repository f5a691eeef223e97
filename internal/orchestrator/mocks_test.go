package orchestrator

import (
	"context"

	"github.com/compozy/kustomize-deploy/internal/domain"
	"github.com/compozy/kustomize-deploy/internal/repository"
	"github.com/stretchr/testify/mock"
)

// MockCredentialProvisioner is a mock implementation of repository.CredentialProvisioner
type MockCredentialProvisioner struct {
	mock.Mock
}

func (m *MockCredentialProvisioner) Provision(ctx context.Context, deployKeyBase64 string) (*domain.CredentialMaterial, error) {
	args := m.Called(ctx, deployKeyBase64)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CredentialMaterial), args.Error(1)
}

// MockSessionFactory is a mock implementation of repository.SessionFactory
type MockSessionFactory struct {
	mock.Mock
}

func (m *MockSessionFactory) Open(
	ctx context.Context,
	creds *domain.CredentialMaterial,
	remoteURL string,
) (repository.GitSession, error) {
	args := m.Called(ctx, creds, remoteURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(repository.GitSession), args.Error(1)
}

// MockGitSession is a mock implementation of repository.GitSession
type MockGitSession struct {
	mock.Mock
	workDir string
}

func (m *MockGitSession) WorkDir() string {
	return m.workDir
}

func (m *MockGitSession) SetRemote(ctx context.Context, name, url string) error {
	args := m.Called(ctx, name, url)
	return args.Error(0)
}

func (m *MockGitSession) AlignToBranch(ctx context.Context, branch string) error {
	args := m.Called(ctx, branch)
	return args.Error(0)
}

func (m *MockGitSession) Status(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockGitSession) StageAndCommit(
	ctx context.Context,
	path string,
	identity domain.Identity,
	message string,
) (string, error) {
	args := m.Called(ctx, path, identity, message)
	return args.String(0), args.Error(1)
}

func (m *MockGitSession) Push(ctx context.Context, branch string) error {
	args := m.Called(ctx, branch)
	return args.Error(0)
}

func (m *MockGitSession) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockKustomizeService is a mock implementation of service.KustomizeService
type MockKustomizeService struct {
	mock.Mock
}

func (m *MockKustomizeService) SetImage(ctx context.Context, dir string, images []string) error {
	args := m.Called(ctx, dir, images)
	return args.Error(0)
}

// MockRunReportRepository is a mock implementation of repository.RunReportRepository
type MockRunReportRepository struct {
	mock.Mock
}

func (m *MockRunReportRepository) Save(ctx context.Context, state *domain.RunState) error {
	args := m.Called(ctx, state)
	return args.Error(0)
}

func (m *MockRunReportRepository) Load(ctx context.Context, runID string) (*domain.RunState, error) {
	args := m.Called(ctx, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RunState), args.Error(1)
}

func (m *MockRunReportRepository) LoadLatest(ctx context.Context) (*domain.RunState, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RunState), args.Error(1)
}
