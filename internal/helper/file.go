package helper

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrUnsupportedImage = errors.New("unsupported image type")

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

func GenerateUniqueFileName(ext string) string {
	if ext == "" {
		ext = ".jpg"
	}

	ext = strings.ToLower(ext)

	return fmt.Sprintf("%d-%s%s", time.Now().UTC().UnixNano(), uuid.New().String(), ext)
}

// DetectImage sniffs data and returns its content type and file extension.
func DetectImage(data []byte) (string, string, error) {
	if len(data) == 0 {
		return "", "", errors.New("empty file")
	}

	contentType := http.DetectContentType(data)
	ext, ok := imageExtensions[contentType]
	if !ok {
		return "", "", fmt.Errorf("%w: %s", ErrUnsupportedImage, contentType)
	}
	return contentType, ext, nil
}

func ObjectKey(folder, fileName string) string {
	return filepath.ToSlash(filepath.Join(folder, fileName))
}
