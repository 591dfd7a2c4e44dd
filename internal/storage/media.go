package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"

	"catalogapi/internal/model"
)

// ErrPromotionFailed is returned when a validated image could not be made durable.
// The temporary asset is left in place so the caller can discard it.
var ErrPromotionFailed = errors.New("image promotion failed")

var errEmptyURL = errors.New("storage returned no object url")

// MediaStore owns every filesystem and object storage side effect of product images.
type MediaStore interface {
	// Promote moves asset to durable storage under a name derived from ownerID. Earlier
	// artifacts of the owner under other names are kept until PruneOwner.
	Promote(ctx context.Context, asset model.UploadedAsset, ownerID string) (model.ImageRef, error)
	// PruneOwner removes every artifact of ownerID other than keep. It is called once keep is
	// the committed reference, so a failed reference write never loses the previous artifact.
	// Failures are logged, never returned.
	PruneOwner(ctx context.Context, ownerID string, keep model.ImageRef)
	// RemoveArtifact deletes the artifact behind ref. Failures are logged, never returned.
	RemoveArtifact(ctx context.Context, ref model.ImageRef)
	// Discard deletes a temporary asset that will not be promoted. Failures are logged, never returned.
	Discard(ctx context.Context, asset model.UploadedAsset)
}

var tracer = otel.Tracer("catalogapi/storage")

var removeFile = os.Remove

// artifactName derives the durable file name: owner identity plus the original extension.
func artifactName(ownerID, originalName string) (string, error) {
	if ownerID == "" || ownerID == "." || ownerID == ".." || strings.ContainsAny(ownerID, `/\`) {
		return "", fmt.Errorf("invalid owner id %q", ownerID)
	}
	return ownerID + path.Ext(originalName), nil
}

// ownedBy reports whether name is an artifact name for ownerID, whatever its extension.
func ownedBy(name, ownerID string) bool {
	return strings.TrimSuffix(name, path.Ext(name)) == ownerID
}

func discardTemp(ctx context.Context, tempPath string) {
	if tempPath == "" {
		return
	}
	if err := removeFile(tempPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		zerolog.Ctx(ctx).Warn().Err(err).
			Str("component", "storage").
			Str("temp_path", tempPath).
			Msg("failed to discard temporary upload")
	}
}

func promotionError(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrPromotionFailed, op, err)
}
