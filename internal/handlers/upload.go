package handlers

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

const maxImageBytes = 10 << 20

var errNotImage = errors.New("unsupported image type")

var imageExt = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// saveUpload stores an uploaded image under the upload dir with a generated
// name and returns its public /uploads/ path.
func (h *Handler) saveUpload(file multipart.File) (string, error) {
	data, err := io.ReadAll(io.LimitReader(file, maxImageBytes))
	if err != nil {
		return "", err
	}

	ext, ok := imageExt[http.DetectContentType(data)]
	if !ok {
		return "", errNotImage
	}

	name := uuid.NewString() + ext
	if err := os.WriteFile(filepath.Join(h.uploadDir, name), data, 0644); err != nil {
		return "", err
	}
	return "/uploads/" + name, nil
}
