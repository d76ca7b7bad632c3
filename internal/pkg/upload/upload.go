package upload

import (
	"errors"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

var (
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrFileTooLarge    = errors.New("file exceeds maximum upload size")
)

// allowedExtensions for uploaded images
var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// MaxImageSize is the upload size limit (5 MB)
const MaxImageSize = 5 << 20

// SaveImage stores an uploaded image under dir with a unique name and
// returns the public URL path it will be served from.
func SaveImage(c *fiber.Ctx, file *multipart.FileHeader, dir, prefix string) (string, error) {
	if file.Size > MaxImageSize {
		return "", ErrFileTooLarge
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedExtensions[ext] {
		return "", ErrUnsupportedType
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	name := prefix + "_" + uuid.New().String() + ext
	if err := c.SaveFile(file, filepath.Join(dir, name)); err != nil {
		return "", err
	}

	return "/uploads/" + name, nil
}
