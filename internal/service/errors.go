package service

import (
	"errors"
	"fmt"

	"catalogapi/internal/scanner"
	"catalogapi/internal/storage"
)

var (
	ErrValidation        = errors.New("validation failed")
	ErrModerationBlocked = errors.New("content blocked by moderation")
	ErrNotFound          = errors.New("product not found")
	ErrForbidden         = errors.New("product belongs to another user")

	// ErrScannerUnavailable means the image could not be classified. The pipeline fails closed on it.
	ErrScannerUnavailable = scanner.ErrUnavailable
	// ErrPromotionFailed means a validated image could not be made durable.
	ErrPromotionFailed = storage.ErrPromotionFailed
)

// ValidationError reports a field value rejected before any moderation or storage work.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// ModerationVerdict is the per-request outcome of moderation. VisualSafe is nil when no
// image was submitted or the image was never scanned.
type ModerationVerdict struct {
	TextSafe   bool
	VisualSafe *bool
}

// BlockedError reports text or an image judged unsafe.
type BlockedError struct {
	Verdict ModerationVerdict
	Reason  string
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("%s: %s", ErrModerationBlocked, e.Reason)
}

func (e *BlockedError) Is(target error) bool { return target == ErrModerationBlocked }
