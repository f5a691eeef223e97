package service

import "context"

// KustomizeService rewrites image references inside a kustomize overlay.
type KustomizeService interface {
	// SetImage runs `kustomize edit set image <images...>` in dir.
	SetImage(ctx context.Context, dir string, images []string) error
}
