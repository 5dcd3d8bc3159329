package models

import (
	"path/filepath"
	"runtime"
)

// Layout is the on-disk layout of the installation: where helper executables
// live and where bundled resources (such as client packages) are shipped.
type Layout struct {
	ExecutablesDir     string `toml:"executables_dir"`
	StaticResourcesDir string `toml:"static_resources_dir"`
}

func (l Layout) ADBExecutable() string {
	name := "adb"
	if runtime.GOOS == "windows" {
		name = "adb.exe"
	}
	return filepath.Join(l.ExecutablesDir, "platform-tools", name)
}
