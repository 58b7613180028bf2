package utils

import (
	"errors"
	"fmt"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

var ErrNotAnImage = errors.New("uploaded file is not an image")

var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true, ".heic": true,
}

// SavePhoto stores an uploaded image under dir with a random name and returns
// its public URL below /uploads
func SavePhoto(c *fiber.Ctx, file *multipart.FileHeader, dir string) (string, error) {
	ext := strings.ToLower(filepath.Ext(file.Filename))
	contentType := file.Header.Get("Content-Type")
	if !imageExtensions[ext] && !strings.HasPrefix(contentType, "image/") {
		return "", ErrNotAnImage
	}
	if !imageExtensions[ext] {
		ext = ".jpg"
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload dir: %w", err)
	}

	name := uuid.NewString() + ext
	if err := c.SaveFile(file, filepath.Join(dir, name)); err != nil {
		return "", fmt.Errorf("failed to save upload: %w", err)
	}
	return "/uploads/" + name, nil
}
