package utils

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

var mediaTypes = map[string]string{
	".mp4":  "video/mp4",
	".avi":  "video/x-msvideo",
	".mov":  "video/quicktime",
	".webm": "video/webm",
	".mkv":  "video/x-matroska",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".svg":  "image/svg+xml",
	".pdf":  "application/pdf",
}

var coverExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true,
}

// GenerateFilename returns a collision-free name that keeps the original extension.
func GenerateFilename(originalName string) string {
	return uuid.NewString() + strings.ToLower(filepath.Ext(originalName))
}

// MediaTypeFromName infers the MIME type from the file extension.
func MediaTypeFromName(name string) string {
	if t, ok := mediaTypes[strings.ToLower(filepath.Ext(name))]; ok {
		return t
	}
	return "application/octet-stream"
}

func IsVideoName(name string) bool {
	return strings.HasPrefix(MediaTypeFromName(name), "video/")
}

// IsCoverImageName accepts raster image extensions only.
func IsCoverImageName(name string) bool {
	return coverExtensions[strings.ToLower(filepath.Ext(name))]
}

// SniffMediaType detects the MIME type from the first bytes of r.
func SniffMediaType(r io.Reader) (string, error) {
	mt, err := mimetype.DetectReader(r)
	if err != nil {
		return "", err
	}
	return mt.String(), nil
}

func GetFileURL(filePath string) string {
	if filePath == "" {
		return ""
	}
	return "/uploads/" + filePath
}
