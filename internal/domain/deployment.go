package domain

// ImageChange is one image-reference update instruction, passed verbatim to
// kustomize (e.g. "app=registry.example.com/app:v2").
type ImageChange string

// NewImageChanges converts raw arguments into image changes, keeping their order.
func NewImageChanges(args []string) []ImageChange {
	changes := make([]ImageChange, 0, len(args))
	for _, arg := range args {
		changes = append(changes, ImageChange(arg))
	}
	return changes
}

// Args returns the changes as plain strings.
func Args(changes []ImageChange) []string {
	args := make([]string, 0, len(changes))
	for _, c := range changes {
		args = append(args, string(c))
	}
	return args
}

// Identity is the commit author.
type Identity struct {
	Name  string
	Email string
}

// CredentialMaterial points at the SSH key and the pinned host keys used for
// every network operation of the run.
type CredentialMaterial struct {
	PrivateKeyPath string
	KnownHostsPath string
}
