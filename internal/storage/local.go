package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/rs/zerolog"

	"catalogapi/internal/model"
)

// LocalConfig places artifacts in Root/Dir and serves them under URLPrefix.
// Dir is slash-separated and relative to Root; it is also the prefix of stored local paths.
type LocalConfig struct {
	Root      string
	Dir       string
	URLPrefix string
}

// LocalStore promotes images into a directory on local disk.
type LocalStore struct {
	root      string
	dir       string
	urlPrefix string
}

var _ MediaStore = (*LocalStore)(nil)

// NewLocalStore returns a store writing to cfg.Root/cfg.Dir. The directory is created lazily.
func NewLocalStore(cfg LocalConfig) *LocalStore {
	root := cfg.Root
	if root == "" {
		root = "."
	}
	return &LocalStore{
		root:      root,
		dir:       strings.Trim(path.Clean(filepath.ToSlash(cfg.Dir)), "/"),
		urlPrefix: strings.TrimSuffix(cfg.URLPrefix, "/"),
	}
}

// Dir returns the absolute-or-root-relative directory holding artifacts.
func (s *LocalStore) Dir() string {
	return filepath.Join(s.root, filepath.FromSlash(s.dir))
}

// Promote moves the temp file to Dir/<ownerID><ext>. An artifact of the owner with the same
// extension is overwritten; artifacts with other extensions are left for PruneOwner.
func (s *LocalStore) Promote(ctx context.Context, asset model.UploadedAsset, ownerID string) (model.ImageRef, error) {
	ctx, span := tracer.Start(ctx, "storage.LocalStore.Promote")
	defer span.End()

	name, err := artifactName(ownerID, asset.OriginalName)
	if err != nil {
		return model.ImageRef{}, promotionError("name artifact", err)
	}

	dir := s.Dir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return model.ImageRef{}, promotionError("create directory", err)
	}

	if err := moveFile(ctx, asset.TempPath, filepath.Join(dir, name)); err != nil {
		return model.ImageRef{}, promotionError("move file", err)
	}

	return model.ImageRef{
		RemoteURL: s.urlPrefix + "/" + name,
		LocalPath: path.Join(s.dir, name),
	}, nil
}

// RemoveArtifact deletes the local file of ref. Paths outside Dir are ignored.
func (s *LocalStore) RemoveArtifact(ctx context.Context, ref model.ImageRef) {
	if ref.LocalPath == "" {
		return
	}
	logger := zerolog.Ctx(ctx).With().Str("component", "storage").Str("local_path", ref.LocalPath).Logger()

	clean := path.Clean(filepath.ToSlash(ref.LocalPath))
	if !strings.HasPrefix(clean, s.dir+"/") {
		logger.Warn().Msg("refusing to remove artifact outside media directory")
		return
	}

	err := os.Remove(filepath.Join(s.root, filepath.FromSlash(clean)))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn().Err(err).Msg("failed to remove artifact")
	}
}

// Discard removes the temporary file of asset.
func (s *LocalStore) Discard(ctx context.Context, asset model.UploadedAsset) {
	discardTemp(ctx, asset.TempPath)
}

// PruneOwner removes every artifact of ownerID except the one keep points at.
func (s *LocalStore) PruneOwner(ctx context.Context, ownerID string, keep model.ImageRef) {
	if keep.LocalPath == "" {
		return
	}
	s.pruneOwner(ctx, ownerID, path.Base(keep.LocalPath))
}

func (s *LocalStore) pruneOwner(ctx context.Context, ownerID, keep string) {
	entries, err := os.ReadDir(s.Dir())
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("component", "storage").Msg("failed to list media directory")
		return
	}
	for _, e := range entries {
		if e.IsDir() || e.Name() == keep || !ownedBy(e.Name(), ownerID) {
			continue
		}
		s.RemoveArtifact(ctx, model.ImageRef{LocalPath: path.Join(s.dir, e.Name())})
	}
}

// moveFile renames src to dst, copying across filesystems when a rename is impossible.
// src is only removed once dst is complete.
func moveFile(ctx context.Context, src, dst string) error {
	err := os.Rename(src, dst)
	if err == nil || !errors.Is(err, syscall.EXDEV) {
		return err
	}
	return copyThenRemove(ctx, src, dst)
}

func copyThenRemove(ctx context.Context, src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".promote-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, dst); err != nil {
		os.Remove(tmpName)
		return err
	}

	in.Close()
	// dst is complete; a leftover src is only a stray temp file.
	discardTemp(ctx, src)
	return nil
}
