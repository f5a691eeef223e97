package usecase

import (
	"context"
	"strings"

	"github.com/compozy/kustomize-deploy/internal/domain"
)

// CommitTitle is the subject line of every deployment update commit.
const CommitTitle = "Update kustomize images"

// PrepareCommitMessageUseCase builds the commit message of a deployment update.
type PrepareCommitMessageUseCase struct {
}

// Execute returns the title, a blank line and one " * <change>" line per image
// change, terminated by a newline.
func (uc *PrepareCommitMessageUseCase) Execute(_ context.Context, changes []domain.ImageChange) (string, error) {
	lines := make([]string, 0, len(changes))
	for _, c := range changes {
		lines = append(lines, " * "+string(c))
	}
	var sb strings.Builder
	sb.WriteString(CommitTitle)
	sb.WriteString("\n\n")
	sb.WriteString(strings.Join(lines, "\n"))
	sb.WriteString("\n")
	return sb.String(), nil
}
