package wired

import (
	"context"
	"strings"

	"github.com/TinkerUp/adb-link/types/models"
)

// syncPackage keeps the preferred candidate in step with the bundled package.
// Nothing happens when the package file is missing or no candidate exists.
func (c *Connection) syncPackage(ctx context.Context, serial string, applicationIDs []string, install models.AutoInstall) error {
	apkPath, err := c.files.Resolve(install.PackageLocation)
	if err != nil {
		return err
	}

	c.logger.Debug().Str("path", apkPath).Msg("wired_connection: checking auto install path")

	if !c.files.Exists(apkPath) || len(applicationIDs) == 0 {
		return nil
	}
	packageID := applicationIDs[0]

	installedDigest, installed, err := c.client.PackageDigest(ctx, serial, packageID)
	if err != nil {
		return err
	}

	if installed {
		localDigest, err := c.files.Checksum(apkPath)
		if err != nil {
			return err
		}

		c.logger.Debug().
			Str("installed", installedDigest).
			Str("local", localDigest).
			Msg("wired_connection: comparing package digests")

		if strings.EqualFold(installedDigest, localDigest) {
			return nil
		}

		c.logger.Info().Str("package", packageID).Msg("wired_connection: uninstalling outdated client")
		if err := c.client.Uninstall(ctx, serial, packageID); err != nil {
			return err
		}
	}

	c.logger.Info().Str("package", packageID).Str("path", apkPath).Msg("wired_connection: installing client")
	if err := c.client.Install(ctx, serial, apkPath); err != nil {
		return err
	}

	for _, permission := range install.Permissions {
		c.logger.Debug().Str("permission", permission).Msg("wired_connection: granting permission")
		if err := c.client.GrantPermission(ctx, serial, packageID, permission); err != nil {
			return err
		}
	}
	return nil
}
