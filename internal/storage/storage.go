// Package storage uploads product images and avatars to object storage.
package storage

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"globomart/internal/model"
)

// Folders used for uploaded objects.
const (
	FolderProducts = "products"
	FolderAvatars  = "avatars"
)

// Store saves and removes uploaded images.
type Store interface {
	// Upload stores data under folder and returns the image reference.
	Upload(ctx context.Context, folder string, contentType string, data []byte) (model.Image, error)

	// Delete removes the object identified by publicID. Missing objects are not an error.
	Delete(ctx context.Context, publicID string) error
}

// ErrInvalidDataURI is returned for uploads that are not base64 image data URIs.
var ErrInvalidDataURI = errors.New("invalid image data URI")

var allowedContentTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// DecodeDataURI parses "data:image/png;base64,...." into its content type and bytes.
func DecodeDataURI(uri string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return "", nil, ErrInvalidDataURI
	}

	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, ErrInvalidDataURI
	}

	contentType, ok := strings.CutSuffix(meta, ";base64")
	if !ok {
		return "", nil, ErrInvalidDataURI
	}
	if _, ok := allowedContentTypes[contentType]; !ok {
		return "", nil, fmt.Errorf("%w: unsupported content type %q", ErrInvalidDataURI, contentType)
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrInvalidDataURI, err)
	}
	if len(data) == 0 {
		return "", nil, ErrInvalidDataURI
	}

	return contentType, data, nil
}

func extensionFor(contentType string) string {
	if ext, ok := allowedContentTypes[contentType]; ok {
		return ext
	}
	return ""
}
