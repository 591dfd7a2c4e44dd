package handler

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"catalogapi/internal/config"
	"catalogapi/internal/model"
)

// imageField is the multipart field carrying the product image.
const imageField = "image"

var extByType = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// receiveImage stores the optional uploaded image in the temp dir.
// It returns nil when the request carries no image.
func receiveImage(c *fiber.Ctx, cfg config.UploadConfig) (*model.UploadedAsset, error) {
	form, err := c.MultipartForm()
	if err != nil {
		// Not a multipart request, so there is no file either.
		return nil, nil
	}
	files := form.File[imageField]
	if len(files) == 0 {
		return nil, nil
	}
	fh := files[0]

	ct := strings.ToLower(strings.TrimSpace(fh.Header.Get(fiber.HeaderContentType)))
	if !slices.Contains(cfg.AllowedTypes, ct) {
		return nil, badRequest("INVALID_FILE_TYPE", fmt.Sprintf("file type %q is not allowed", ct))
	}
	if cfg.MaxBytes > 0 && fh.Size > cfg.MaxBytes {
		return nil, &requestError{
			status:  fiber.StatusRequestEntityTooLarge,
			code:    "FILE_TOO_LARGE",
			message: fmt.Sprintf("file exceeds %d bytes", cfg.MaxBytes),
		}
	}

	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if ext == "" {
		ext = extByType[ct]
	}

	if err := os.MkdirAll(cfg.TempDir, 0o755); err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	path := filepath.Join(cfg.TempDir, "image-"+uuid.NewString()+ext)
	if err := c.SaveFile(fh, path); err != nil {
		return nil, fmt.Errorf("save upload: %w", err)
	}

	return &model.UploadedAsset{
		TempPath:     path,
		ContentType:  ct,
		OriginalName: fh.Filename,
		Size:         fh.Size,
	}, nil
}
