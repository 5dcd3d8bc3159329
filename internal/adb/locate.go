package adb

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/TinkerUp/adb-link/types/models"
)

var ErrADBNotFound = errors.New("adb executable not found")

// ProgressFunc reports download progress. total is negative when the size is
// not known in advance.
type ProgressFunc func(downloaded int64, total int64)

// Fetcher downloads platform-tools into the layout and returns the adb path.
type Fetcher interface {
	Fetch(ctx context.Context, layout models.Layout, progress ProgressFunc) (string, error)
}

// Locate finds an existing adb executable. An explicit path wins, then the
// copy shipped in the layout, then $PATH.
func Locate(layout models.Layout, explicitPath string) (string, error) {
	if explicitPath != "" {
		if _, err := os.Stat(explicitPath); err != nil {
			return "", fmt.Errorf("%w: %s", ErrADBNotFound, explicitPath)
		}
		return explicitPath, nil
	}

	if layout.ExecutablesDir != "" {
		if _, err := os.Stat(layout.ADBExecutable()); err == nil {
			return layout.ADBExecutable(), nil
		}
	}

	path, err := exec.LookPath("adb")
	if err != nil {
		return "", ErrADBNotFound
	}
	return path, nil
}

// Require is Locate, falling back to fetcher when nothing is installed.
func Require(ctx context.Context, layout models.Layout, explicitPath string, fetcher Fetcher, progress ProgressFunc) (string, error) {
	path, err := Locate(layout, explicitPath)
	if err == nil || !errors.Is(err, ErrADBNotFound) || fetcher == nil || explicitPath != "" {
		return path, err
	}

	path, err = fetcher.Fetch(ctx, layout, progress)
	if err != nil {
		return "", fmt.Errorf("fetch adb: %w", err)
	}
	return path, nil
}
