package repository

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/compozy/kustomize-deploy/internal/domain"
	"github.com/gofrs/flock"
	"github.com/sethvargo/go-retry"
)

const (
	// PrivateKeyFileName is the fixed name of the deploy key inside the secure-storage dir
	PrivateKeyFileName = "id_rsa"
	// KeyFilePermissions defines the permissions for the private key file
	KeyFilePermissions = 0600
	// SecureDirPermissions defines the permissions for the secure-storage directory
	SecureDirPermissions = 0700
	// LockTimeout defines the maximum time to wait for the key file lock
	LockTimeout = 30 * time.Second
	// LockRetryInterval defines the interval between lock retry attempts
	LockRetryInterval = 100 * time.Millisecond

	lockFileName = ".deploy-key.lock"
)

var errLockBusy = errors.New("lock is held by another process")

// CredentialProvisioner materializes the SSH credentials of a run.
type CredentialProvisioner interface {
	Provision(ctx context.Context, deployKeyBase64 string) (*domain.CredentialMaterial, error)
}

type credentialProvisioner struct {
	fs             FileSystemRepository
	sshDir         string
	knownHostsPath string
	lockTimeout    time.Duration
}

// NewCredentialProvisioner creates a provisioner writing into sshDir. The lock
// file lives on the real file system, so sshDir must be a real path even when
// fs is an overlay over it.
func NewCredentialProvisioner(fs FileSystemRepository, sshDir, knownHostsPath string) CredentialProvisioner {
	return &credentialProvisioner{
		fs:             fs,
		sshDir:         sshDir,
		knownHostsPath: knownHostsPath,
		lockTimeout:    LockTimeout,
	}
}

// Provision decodes the deploy key, writes it owner-only and resolves the
// known-hosts file.
func (p *credentialProvisioner) Provision(ctx context.Context, deployKeyBase64 string) (*domain.CredentialMaterial, error) {
	encoded := strings.TrimSpace(deployKeyBase64)
	if encoded == "" {
		return nil, &domain.CredentialError{Op: "decode", Err: errors.New("deploy key is empty")}
	}
	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, &domain.CredentialError{Op: "decode", Err: err}
	}
	if err := p.ensureSecureDir(); err != nil {
		return nil, &domain.CredentialError{Op: "prepare directory", Err: err}
	}
	keyPath := filepath.Join(p.sshDir, PrivateKeyFileName)
	if err := p.writeKeyLocked(ctx, keyPath, key); err != nil {
		return nil, &domain.CredentialError{Op: "write key", Err: err}
	}
	if p.knownHostsPath == "" {
		return nil, &domain.CredentialError{Op: "resolve known hosts", Err: errors.New("known hosts path is empty")}
	}
	if _, err := p.fs.Stat(p.knownHostsPath); err != nil {
		return nil, &domain.CredentialError{Op: "resolve known hosts", Err: err}
	}
	return &domain.CredentialMaterial{
		PrivateKeyPath: keyPath,
		KnownHostsPath: p.knownHostsPath,
	}, nil
}

// ensureSecureDir creates the directory and tightens a pre-existing one
func (p *credentialProvisioner) ensureSecureDir() error {
	if err := p.fs.MkdirAll(p.sshDir, SecureDirPermissions); err != nil {
		return err
	}
	return p.fs.Chmod(p.sshDir, SecureDirPermissions)
}

func (p *credentialProvisioner) writeKeyLocked(ctx context.Context, keyPath string, key []byte) error {
	lock := flock.New(filepath.Join(p.sshDir, lockFileName))
	if err := acquireLock(ctx, p.lockTimeout, lock.TryLock); err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	defer func() {
		if unlockErr := lock.Unlock(); unlockErr != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to unlock key file: %v\n", unlockErr)
		}
	}()
	f, err := p.fs.OpenFile(keyPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, KeyFilePermissions)
	if err != nil {
		return err
	}
	if _, err := f.Write(key); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	// OpenFile only applies the mode when it creates the file
	return p.fs.Chmod(keyPath, KeyFilePermissions)
}

// acquireLock polls try until it takes the lock or timeout elapses
func acquireLock(ctx context.Context, timeout time.Duration, try func() (bool, error)) error {
	backoff := retry.WithMaxDuration(timeout, retry.NewConstant(LockRetryInterval))
	return retry.Do(ctx, backoff, func(_ context.Context) error {
		locked, err := try()
		if err != nil {
			return err
		}
		if !locked {
			return retry.RetryableError(errLockBusy)
		}
		return nil
	})
}
