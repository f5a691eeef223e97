package repository

import (
	"context"

	"github.com/compozy/kustomize-deploy/internal/domain"
)

// DefaultRemoteName is the only remote a session works with.
const DefaultRemoteName = "origin"

// GitSession owns an ephemeral working copy bound to a single remote.
type GitSession interface {
	WorkDir() string
	SetRemote(ctx context.Context, name, url string) error
	AlignToBranch(ctx context.Context, branch string) error
	Status(ctx context.Context) (string, error)
	StageAndCommit(ctx context.Context, path string, identity domain.Identity, message string) (string, error)
	Push(ctx context.Context, branch string) error
	// Close removes the working copy. It is safe to call more than once.
	Close() error
}

// SessionFactory opens sessions whose network transport uses creds.
type SessionFactory interface {
	Open(ctx context.Context, creds *domain.CredentialMaterial, remoteURL string) (GitSession, error)
}
