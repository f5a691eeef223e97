package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/compozy/kustomize-deploy/internal/domain"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"go.uber.org/zap"
)

const workDirPrefix = "deployment-repo-"

// gitSessionFactory opens go-git backed sessions under baseDir.
type gitSessionFactory struct {
	fs      FileSystemRepository
	baseDir string
	log     *zap.Logger
}

// NewGitSessionFactory creates a SessionFactory. An empty baseDir means the
// OS temp directory.
func NewGitSessionFactory(fs FileSystemRepository, baseDir string, log *zap.Logger) SessionFactory {
	if log == nil {
		log = zap.NewNop()
	}
	return &gitSessionFactory{fs: fs, baseDir: baseDir, log: log}
}

// Open binds creds to the transport of remoteURL and initializes an empty
// repository in a fresh temporary directory.
func (f *gitSessionFactory) Open(ctx context.Context, creds *domain.CredentialMaterial, remoteURL string) (GitSession, error) {
	auth, err := NewSSHAuth(f.fs, creds, remoteURL)
	if err != nil {
		return nil, &domain.VcsError{Op: "configure transport", Err: err}
	}
	return OpenGitSession(ctx, f.baseDir, auth, f.log)
}

// gitSession is the go-git implementation of GitSession.
type gitSession struct {
	dir    string
	repo   *git.Repository
	auth   transport.AuthMethod
	log    *zap.Logger
	closed bool
}

// OpenGitSession initializes an empty repository in an exclusive temporary
// directory. auth may be nil for remotes that need none.
func OpenGitSession(_ context.Context, baseDir string, auth transport.AuthMethod, log *zap.Logger) (GitSession, error) {
	if log == nil {
		log = zap.NewNop()
	}
	dir, err := os.MkdirTemp(baseDir, workDirPrefix)
	if err != nil {
		return nil, &domain.VcsError{Op: "init", Err: fmt.Errorf("failed to create working directory: %w", err)}
	}
	repo, err := git.PlainInit(dir, false)
	if err != nil {
		os.RemoveAll(dir)
		return nil, &domain.VcsError{Op: "init", Err: err}
	}
	log.Debug("initialized working copy", zap.String("dir", dir))
	return &gitSession{dir: dir, repo: repo, auth: auth, log: log}, nil
}

// WorkDir returns the root of the working tree.
func (s *gitSession) WorkDir() string {
	return s.dir
}

// SetRemote replaces any remote called name with a fresh one pointing at url.
func (s *gitSession) SetRemote(_ context.Context, name, url string) error {
	_, err := s.repo.Remote(name)
	switch {
	case err == nil:
		if err := s.repo.DeleteRemote(name); err != nil {
			return &domain.VcsError{Op: "remote remove", Err: err}
		}
	case !errors.Is(err, git.ErrRemoteNotFound):
		return &domain.VcsError{Op: "remote lookup", Err: err}
	}
	if _, err := s.repo.CreateRemote(&config.RemoteConfig{Name: name, URLs: []string{url}}); err != nil {
		return &domain.VcsError{Op: "remote add", Err: err}
	}
	return nil
}

// AlignToBranch fetches origin and hard-resets a detached HEAD onto
// origin/<branch>, so the working tree mirrors the remote tip exactly.
func (s *gitSession) AlignToBranch(ctx context.Context, branch string) error {
	err := s.repo.FetchContext(ctx, &git.FetchOptions{
		RemoteName: DefaultRemoteName,
		Auth:       s.auth,
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return &domain.VcsError{Op: "fetch", Err: err}
	}
	remoteRef, err := s.repo.Reference(plumbing.NewRemoteReferenceName(DefaultRemoteName, branch), true)
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return &domain.VcsError{
				Op:  "checkout",
				Err: fmt.Errorf("branch %s not found on %s", branch, DefaultRemoteName),
			}
		}
		return &domain.VcsError{Op: "checkout", Err: err}
	}
	w, err := s.repo.Worktree()
	if err != nil {
		return &domain.VcsError{Op: "checkout", Err: fmt.Errorf("failed to get worktree: %w", err)}
	}
	if err := w.Checkout(&git.CheckoutOptions{Hash: remoteRef.Hash(), Force: true}); err != nil {
		return &domain.VcsError{Op: "checkout", Err: err}
	}
	if err := w.Reset(&git.ResetOptions{Commit: remoteRef.Hash(), Mode: git.HardReset}); err != nil {
		return &domain.VcsError{Op: "reset", Err: err}
	}
	s.log.Info("aligned working copy",
		zap.String("branch", branch),
		zap.String("commit", remoteRef.Hash().String()))
	return nil
}

// Status returns the porcelain-like status of the working tree.
func (s *gitSession) Status(_ context.Context) (string, error) {
	w, err := s.repo.Worktree()
	if err != nil {
		return "", &domain.VcsError{Op: "status", Err: fmt.Errorf("failed to get worktree: %w", err)}
	}
	status, err := w.Status()
	if err != nil {
		return "", &domain.VcsError{Op: "status", Err: err}
	}
	return status.String(), nil
}

// StageAndCommit configures the identity, stages path recursively and commits
// with message. It fails with domain.ErrNoChanges when nothing is staged.
func (s *gitSession) StageAndCommit(
	_ context.Context,
	path string,
	identity domain.Identity,
	message string,
) (string, error) {
	if err := s.configureUser(identity); err != nil {
		return "", &domain.VcsError{Op: "config", Err: err}
	}
	w, err := s.repo.Worktree()
	if err != nil {
		return "", &domain.VcsError{Op: "add", Err: fmt.Errorf("failed to get worktree: %w", err)}
	}
	addOpts := &git.AddOptions{Path: filepath.Clean(path)}
	if addOpts.Path == "." {
		addOpts = &git.AddOptions{All: true}
	}
	if err := w.AddWithOptions(addOpts); err != nil {
		return "", &domain.VcsError{Op: "add", Err: fmt.Errorf("failed to add %s: %w", path, err)}
	}
	status, err := w.Status()
	if err != nil {
		return "", &domain.VcsError{Op: "status", Err: err}
	}
	if !hasStagedChanges(status) {
		return "", &domain.VcsError{Op: "commit", Err: domain.ErrNoChanges}
	}
	hash, err := w.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  identity.Name,
			Email: identity.Email,
			When:  time.Now(),
		},
	})
	if err != nil {
		return "", &domain.VcsError{Op: "commit", Err: err}
	}
	s.log.Info("created commit", zap.String("commit", hash.String()))
	return hash.String(), nil
}

// configureUser writes user.name and user.email into the repository config
func (s *gitSession) configureUser(identity domain.Identity) error {
	cfg, err := s.repo.Config()
	if err != nil {
		return fmt.Errorf("failed to get config: %w", err)
	}
	cfg.User.Name = identity.Name
	cfg.User.Email = identity.Email
	return s.repo.Storer.SetConfig(cfg)
}

func hasStagedChanges(status git.Status) bool {
	for _, fs := range status {
		if fs.Staging != git.Unmodified && fs.Staging != git.Untracked {
			return true
		}
	}
	return false
}

// Push publishes HEAD as refs/heads/<branch> on origin. The push is never
// forced, so a remote that moved since alignment rejects it.
func (s *gitSession) Push(ctx context.Context, branch string) error {
	head, err := s.repo.Head()
	if err != nil {
		return &domain.VcsError{Op: "push", Err: fmt.Errorf("failed to get HEAD: %w", err)}
	}
	refName := plumbing.NewBranchReferenceName(branch)
	if err := s.repo.Storer.SetReference(plumbing.NewHashReference(refName, head.Hash())); err != nil {
		return &domain.VcsError{Op: "push", Err: fmt.Errorf("failed to set %s: %w", refName, err)}
	}
	refSpec := config.RefSpec(fmt.Sprintf("%s:%s", refName, refName))
	s.log.Info("pushing", zap.String("refspec", refSpec.String()), zap.String("remote", DefaultRemoteName))
	err = s.repo.PushContext(ctx, &git.PushOptions{
		RemoteName: DefaultRemoteName,
		RefSpecs:   []config.RefSpec{refSpec},
		Auth:       s.auth,
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return &domain.VcsError{Op: "push", Err: err}
	}
	return nil
}

// Close deletes the working directory.
func (s *gitSession) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if err := os.RemoveAll(s.dir); err != nil {
		return fmt.Errorf("failed to remove working directory %s: %w", s.dir, err)
	}
	return nil
}
