package repository

import (
	"fmt"

	"github.com/compozy/kustomize-deploy/internal/domain"
	"github.com/go-git/go-git/v5/plumbing/transport"
	gitssh "github.com/go-git/go-git/v5/plumbing/transport/ssh"
	"github.com/spf13/afero"
)

const defaultSSHUser = "git"

// NewSSHAuth binds the provisioned key and the pinned known-hosts file to the
// transport of remoteURL, the equivalent of
// `ssh -i <key> -o UserKnownHostsFile=<known_hosts>`. Remotes that are not
// reached over SSH (local paths, file:// mirrors) get no auth method.
func NewSSHAuth(fs FileSystemRepository, creds *domain.CredentialMaterial, remoteURL string) (transport.AuthMethod, error) {
	ep, err := transport.NewEndpoint(remoteURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse remote url: %w", err)
	}
	if ep.Protocol != "ssh" {
		return nil, nil
	}
	if creds == nil {
		return nil, fmt.Errorf("ssh remote %s requires credentials", ep.Host)
	}
	pem, err := afero.ReadFile(fs, creds.PrivateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read private key: %w", err)
	}
	user := ep.User
	if user == "" {
		user = defaultSSHUser
	}
	auth, err := gitssh.NewPublicKeys(user, pem, "")
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}
	callback, err := gitssh.NewKnownHostsCallback(creds.KnownHostsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load known hosts %s: %w", creds.KnownHostsPath, err)
	}
	auth.HostKeyCallback = callback
	return auth, nil
}
