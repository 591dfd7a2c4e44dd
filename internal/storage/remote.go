package storage

import (
	"context"
	"net/url"
	"os"
	"path"
	"strings"

	"github.com/rs/zerolog"

	"catalogapi/internal/model"
)

// RemoteStore promotes images into a folder of an object storage bucket.
// Promoted references carry the provider URL and no local path.
type RemoteStore struct {
	objects Storage
	folder  string
	// local removes artifacts of records promoted before the switch to remote storage.
	local *LocalStore
}

var _ MediaStore = (*RemoteStore)(nil)

// NewRemoteStore uploads into folder through objects. local may be nil.
func NewRemoteStore(objects Storage, folder string, local *LocalStore) *RemoteStore {
	return &RemoteStore{
		objects: objects,
		folder:  strings.Trim(folder, "/"),
		local:   local,
	}
}

// Promote uploads the temp file as <folder>/<ownerID><ext> and then removes the temp file.
// Other objects of the owner are left for PruneOwner.
func (s *RemoteStore) Promote(ctx context.Context, asset model.UploadedAsset, ownerID string) (model.ImageRef, error) {
	ctx, span := tracer.Start(ctx, "storage.RemoteStore.Promote")
	defer span.End()

	name, err := artifactName(ownerID, asset.OriginalName)
	if err != nil {
		return model.ImageRef{}, promotionError("name artifact", err)
	}
	key := path.Join(s.folder, name)

	f, err := os.Open(asset.TempPath)
	if err != nil {
		return model.ImageRef{}, promotionError("open temp file", err)
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return model.ImageRef{}, promotionError("stat temp file", err)
	}

	info, err := s.objects.Put(ctx, key, f, PutObjectOptions{
		Size:        st.Size(),
		ContentType: asset.ContentType,
		Metadata: map[string]string{
			"original-filename": asset.OriginalName,
			"owner-id":          ownerID,
		},
	})
	f.Close()
	if err != nil {
		return model.ImageRef{}, promotionError("upload", err)
	}
	if info.URL == "" {
		s.deleteKey(ctx, key)
		return model.ImageRef{}, promotionError("upload", errEmptyURL)
	}

	discardTemp(ctx, asset.TempPath)

	return model.ImageRef{RemoteURL: info.URL}, nil
}

// RemoveArtifact deletes the object behind ref.RemoteURL and, when set, the local file.
func (s *RemoteStore) RemoveArtifact(ctx context.Context, ref model.ImageRef) {
	if ref.LocalPath != "" && s.local != nil {
		s.local.RemoveArtifact(ctx, ref)
	}
	if key, ok := s.keyFromURL(ref.RemoteURL); ok {
		s.deleteKey(ctx, key)
	}
}

// Discard removes the temporary file of asset.
func (s *RemoteStore) Discard(ctx context.Context, asset model.UploadedAsset) {
	discardTemp(ctx, asset.TempPath)
}

// keyFromURL recovers "<folder>/<name>" from an issued URL. Foreign URLs, such as the
// placeholder, yield false.
func (s *RemoteStore) keyFromURL(raw string) (string, bool) {
	if raw == "" || raw == model.PlaceholderImageURL {
		return "", false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	marker := "/" + s.folder + "/"
	idx := strings.LastIndex(u.Path, marker)
	if idx < 0 {
		return "", false
	}
	name := u.Path[idx+len(marker):]
	if name == "" || strings.Contains(name, "/") {
		return "", false
	}
	return s.folder + "/" + name, true
}

// PruneOwner deletes the owner's objects other than the one behind keep.RemoteURL.
func (s *RemoteStore) PruneOwner(ctx context.Context, ownerID string, keep model.ImageRef) {
	key, ok := s.keyFromURL(keep.RemoteURL)
	if !ok {
		return
	}
	s.pruneOwner(ctx, ownerID, key)
}

func (s *RemoteStore) pruneOwner(ctx context.Context, ownerID, keep string) {
	objs, err := s.objects.List(ctx, path.Join(s.folder, ownerID))
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("component", "storage").Msg("failed to list owner objects")
		return
	}
	for _, o := range objs {
		if o.Key == keep || path.Dir(o.Key) != s.folder || !ownedBy(path.Base(o.Key), ownerID) {
			continue
		}
		s.deleteKey(ctx, o.Key)
	}
}

func (s *RemoteStore) deleteKey(ctx context.Context, key string) {
	if err := s.objects.Delete(ctx, key); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).
			Str("component", "storage").
			Str("object_key", key).
			Msg("failed to remove remote artifact")
	}
}
