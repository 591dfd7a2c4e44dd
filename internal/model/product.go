package model

import "time"

// PlaceholderImageURL is the image URL of a product with no promoted image.
const PlaceholderImageURL = "https://placehold.co/600x400"

// ImageRef points at the durable artifact of a product.
// A product without a promoted image has RemoteURL == PlaceholderImageURL and an empty LocalPath.
type ImageRef struct {
	RemoteURL string `json:"imageUrl"`
	LocalPath string `json:"imageLocalPath"`
}

// PlaceholderImage returns the reference stored on products that have no artifact.
func PlaceholderImage() ImageRef {
	return ImageRef{RemoteURL: PlaceholderImageURL}
}

// IsPlaceholder reports whether the reference points at no artifact.
func (r ImageRef) IsPlaceholder() bool {
	return r.LocalPath == "" && (r.RemoteURL == "" || r.RemoteURL == PlaceholderImageURL)
}

// Product is a catalog record.
// This is a pure domain model; each backing store maps it to its own row or document shape.
type Product struct {
	ID           string  `json:"productId"`
	Name         string  `json:"name"`
	Price        float64 `json:"price"`
	Description  string  `json:"description"`
	CategoryName string  `json:"categoryName"`
	ImageRef
	UserID    string    `json:"userId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// UploadedAsset is an image placed in temporary storage by the HTTP boundary.
// It is consumed exactly once: promoted to durable storage or discarded.
type UploadedAsset struct {
	TempPath     string
	ContentType  string
	OriginalName string
	Size         int64
}
