package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/devilmonastery/clubhouse/internal/client"
	"github.com/devilmonastery/clubhouse/internal/models"
)

// MaxImageSize is the largest upload the backend accepts.
const MaxImageSize = 5 * 1024 * 1024

var (
	ErrEmptyImage    = errors.New("no image data")
	ErrImageTooLarge = fmt.Errorf("image exceeds %d MB", MaxImageSize/(1024*1024))
)

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// ValidateImage checks size and sniffed content type before an upload.
func ValidateImage(data []byte) error {
	if len(data) == 0 {
		return ErrEmptyImage
	}
	if len(data) > MaxImageSize {
		return ErrImageTooLarge
	}
	if ct := http.DetectContentType(data); !allowedImageTypes[ct] {
		return fmt.Errorf("file type not allowed: %s", ct)
	}
	return nil
}

type Images struct {
	d Doer
}

// Upload posts a general-purpose image; title and description are optional.
func (i *Images) Upload(ctx context.Context, fileName string, data []byte, title, description string) (models.ImageUpload, error) {
	if err := ValidateImage(data); err != nil {
		return models.ImageUpload{}, err
	}
	form := map[string]string{}
	if title != "" {
		form["title"] = title
	}
	if description != "" {
		form["description"] = description
	}
	return call[models.ImageUpload](ctx, i.d, &client.Request{
		Method: http.MethodPost,
		Path:   ImagesUpload,
		Files:  []client.File{{Param: "image", Name: fileName, Data: data}},
		Form:   form,
	})
}
