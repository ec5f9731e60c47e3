package siteconfig

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/dmitrymomot/tenantsync/pkg/tenant"
)

// FileSource reads one document per tenant from a directory, trying
// <id>.yaml, <id>.yml and <id>.json in that order. The fingerprint is a hash
// of the file contents so any edit is a new revision.
type FileSource struct {
	dir string
}

func NewFileSource(dir string) *FileSource {
	return &FileSource{dir: dir}
}

func (s *FileSource) Config(ctx context.Context, id string) (*TenantConfig, error) {
	path, data, info, err := s.read(ctx, id)
	if err != nil {
		return nil, err
	}

	var doc TenantConfig
	switch filepath.Ext(path) {
	case ".json":
		err = json.Unmarshal(data, &doc)
	default:
		err = yaml.Unmarshal(data, &doc)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: parse %s: %w", ErrTransient, filepath.Base(path), err)
	}

	if doc.UpdatedAt.IsZero() {
		doc.UpdatedAt = info.ModTime().UTC()
	}
	doc.setFingerprint(ContentFingerprint(data))
	return &doc, nil
}

func (s *FileSource) Version(ctx context.Context, id string) (VersionInfo, error) {
	doc, err := s.Config(ctx, id)
	if err != nil {
		return VersionInfo{}, err
	}
	return VersionInfo{Fingerprint: doc.Fingerprint(), Version: doc.Version, UpdatedAt: doc.UpdatedAt}, nil
}

func (s *FileSource) read(ctx context.Context, id string) (string, []byte, fs.FileInfo, error) {
	if err := ctx.Err(); err != nil {
		return "", nil, nil, classify(err)
	}
	// Ids are the only path component taken from callers.
	if !tenant.IsValid(id) {
		return "", nil, nil, ErrInvalidTenant
	}

	for _, ext := range []string{".yaml", ".yml", ".json"} {
		path := filepath.Join(s.dir, id+ext)
		info, err := os.Stat(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return "", nil, nil, fmt.Errorf("%w: %w", ErrTransient, err)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return "", nil, nil, fmt.Errorf("%w: %w", ErrTransient, err)
		}
		return path, data, info, nil
	}
	return "", nil, nil, ErrNotFound
}
