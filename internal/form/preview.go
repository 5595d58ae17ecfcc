package form

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/noah-isme/spot-form-api/internal/models"
)

// ErrPreviewUnavailable indicates the selected file cannot be rendered as an image preview.
var ErrPreviewUnavailable = errors.New("image preview unavailable")

// ImageInfo describes the selected image without its payload.
type ImageInfo struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Size        int    `json:"size"`
}

// PreviewDataURL renders the image as a base64 data URL.
func PreviewDataURL(image *models.ImageFile) (string, error) {
	if image.Size() == 0 {
		return "", ErrPreviewUnavailable
	}
	detected := mimetype.Detect(image.Data)
	if !strings.HasPrefix(detected.String(), "image/") {
		return "", fmt.Errorf("%w: detected %s", ErrPreviewUnavailable, detected.String())
	}
	return "data:" + detected.String() + ";base64," + base64.StdEncoding.EncodeToString(image.Data), nil
}

func imageInfo(image *models.ImageFile) *ImageInfo {
	if image == nil {
		return nil
	}
	return &ImageInfo{Name: image.Name, ContentType: image.ContentType, Size: image.Size()}
}
