package service

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"sigs.k8s.io/kustomize/api/types"
)

func TestReadOverlayImages(t *testing.T) {
	t.Run("Should read images from kustomization.yaml", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		content := `apiVersion: kustomize.config.k8s.io/v1beta1
kind: Kustomization
resources:
- ../../base
images:
- name: app
  newName: registry.example.com/app
  newTag: v2
- name: worker
  digest: sha256:abc
`
		require.NoError(t, afero.WriteFile(fs, "/repo/overlays/prod/kustomization.yaml", []byte(content), 0644))
		images, err := ReadOverlayImages(fs, "/repo/overlays/prod")
		require.NoError(t, err)
		require.Len(t, images, 2)
		assert.Equal(t, "app", images[0].Name)
		assert.Equal(t, "registry.example.com/app", images[0].NewName)
		assert.Equal(t, "v2", images[0].NewTag)
		assert.Equal(t, "sha256:abc", images[1].Digest)
	})
	t.Run("Should accept the alternate file name", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, "/overlay/kustomization.yml", []byte("images:\n- name: app\n  newTag: v3\n"), 0644))
		images, err := ReadOverlayImages(fs, "/overlay")
		require.NoError(t, err)
		require.Len(t, images, 1)
		assert.Equal(t, "v3", images[0].NewTag)
	})
	t.Run("Should report a missing kustomization", func(t *testing.T) {
		_, err := ReadOverlayImages(afero.NewMemMapFs(), "/empty")
		assert.ErrorIs(t, err, ErrNoKustomization)
	})
	t.Run("Should report malformed yaml", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, "/bad/kustomization.yaml", []byte("images: [\n"), 0644))
		_, err := ReadOverlayImages(fs, "/bad")
		assert.Error(t, err)
		assert.NotErrorIs(t, err, ErrNoKustomization)
	})
}

func TestFormatImage(t *testing.T) {
	cases := []struct {
		name string
		img  types.Image
		want string
	}{
		{name: "tag only", img: types.Image{Name: "app", NewTag: "v2"}, want: "app=app:v2"},
		{name: "rename and tag", img: types.Image{Name: "app", NewName: "repo/app", NewTag: "v2"}, want: "app=repo/app:v2"},
		{name: "digest", img: types.Image{Name: "app", Digest: "sha256:abc"}, want: "app=app@sha256:abc"},
		{name: "bare", img: types.Image{Name: "app"}, want: "app"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, FormatImage(tc.img))
		})
	}
}
