package service

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"sigs.k8s.io/kustomize/api/konfig"
	"sigs.k8s.io/kustomize/api/types"
	"sigs.k8s.io/yaml"
)

// ErrNoKustomization is returned when a directory holds no kustomization file.
var ErrNoKustomization = errors.New("no kustomization file found")

// ReadOverlayImages returns the images: section of the kustomization in dir.
func ReadOverlayImages(fs afero.Fs, dir string) ([]types.Image, error) {
	for _, name := range konfig.RecognizedKustomizationFileNames() {
		path := filepath.Join(dir, name)
		data, err := afero.ReadFile(fs, path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		var k types.Kustomization
		if err := yaml.Unmarshal(data, &k); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		return k.Images, nil
	}
	return nil, fmt.Errorf("%w in %s", ErrNoKustomization, dir)
}

// FormatImage renders an image override the way it reads on the command line.
func FormatImage(img types.Image) string {
	ref := img.Name
	if img.NewName != "" {
		ref = img.NewName
	}
	if img.NewTag != "" {
		ref += ":" + img.NewTag
	}
	if img.Digest != "" {
		ref += "@" + img.Digest
	}
	if ref == img.Name {
		return img.Name
	}
	return img.Name + "=" + ref
}
