package files

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/TinkerUp/adb-link/types/models"
)

type FileService interface {
	// Resolve turns a package location into an absolute path. Relative
	// locations are taken from the static resources directory.
	Resolve(location string) (string, error)
	Exists(path string) bool
	// Checksum returns the lowercase hex SHA-1 of the file, matching what
	// sha1sum reports on the device.
	Checksum(path string) (string, error)
}

type fileService struct {
	layout models.Layout
}

func NewFileService(layout models.Layout) FileService {
	return &fileService{layout: layout}
}

func (s *fileService) Resolve(location string) (string, error) {
	if location == "" {
		return "", fmt.Errorf("package location is empty")
	}

	if filepath.IsAbs(location) {
		return filepath.Clean(location), nil
	}

	return filepath.Clean(filepath.Join(s.layout.StaticResourcesDir, location)), nil
}

func (s *fileService) Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func (s *fileService) Checksum(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open package: %w", err)
	}
	defer file.Close()

	hasher := sha1.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return "", fmt.Errorf("failed to read package: %w", err)
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}
