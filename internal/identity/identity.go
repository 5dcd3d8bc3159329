// Package identity maps a client flavor to the package identifiers that may
// represent it on a device, most preferred first.
package identity

import (
	"strings"

	"github.com/TinkerUp/adb-link/types/models"
)

const (
	PackageNameStore        = "alvr.client"
	PackageNameGithubStable = "alvr.client.stable"
	PackageNameGithubDev    = "alvr.client.dev"
)

func ApplicationIDs(flavor models.ClientFlavor, stable bool) []string {
	switch flavor.Kind {
	case models.FlavorCustom:
		if stable {
			return []string{flavor.CustomID, PackageNameStore, PackageNameGithubStable}
		}
		return []string{flavor.CustomID, PackageNameGithubDev}
	case models.FlavorStore:
		if stable {
			return []string{PackageNameStore, PackageNameGithubStable}
		}
		return []string{PackageNameGithubDev}
	default:
		if stable {
			return []string{PackageNameGithubStable, PackageNameStore}
		}
		return []string{PackageNameGithubDev}
	}
}

// IsStable reports whether version is a release build, i.e. carries no
// pre-release suffix such as "-dev.3".
func IsStable(version string) bool {
	version = strings.TrimPrefix(strings.TrimSpace(version), "v")
	if version == "" {
		return false
	}
	core, _, _ := strings.Cut(version, "+")
	return !strings.Contains(core, "-")
}
