package usecase

import (
	"context"
	"testing"

	"github.com/compozy/kustomize-deploy/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrepareCommitMessageUseCase_Execute(t *testing.T) {
	t.Run("Should list a single image change", func(t *testing.T) {
		uc := &PrepareCommitMessageUseCase{}
		msg, err := uc.Execute(context.Background(), domain.NewImageChanges([]string{"app=repo/app:v2"}))
		require.NoError(t, err)
		assert.Equal(t, "Update kustomize images\n\n * app=repo/app:v2\n", msg)
	})
	t.Run("Should keep argument order", func(t *testing.T) {
		uc := &PrepareCommitMessageUseCase{}
		msg, err := uc.Execute(context.Background(), domain.NewImageChanges([]string{
			"worker=repo/worker:v3",
			"app=repo/app:v2",
		}))
		require.NoError(t, err)
		assert.Equal(t, "Update kustomize images\n\n * worker=repo/worker:v3\n * app=repo/app:v2\n", msg)
	})
	t.Run("Should keep the body empty without changes", func(t *testing.T) {
		uc := &PrepareCommitMessageUseCase{}
		msg, err := uc.Execute(context.Background(), nil)
		require.NoError(t, err)
		assert.Equal(t, "Update kustomize images\n\n\n", msg)
	})
}
