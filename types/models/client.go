package models

type FlavorKind string

const (
	FlavorStore  FlavorKind = "store"
	FlavorGithub FlavorKind = "github"
	FlavorCustom FlavorKind = "custom"
)

// ClientFlavor selects which client build is expected on the device.
// CustomID is only meaningful for FlavorCustom.
type ClientFlavor struct {
	Kind     FlavorKind `json:"kind" toml:"kind"`
	CustomID string     `json:"custom_id,omitempty" toml:"custom_id"`
}

// AutoInstall describes a client package to keep installed on the device.
// PackageLocation may be relative to the static resources directory.
type AutoInstall struct {
	PackageLocation string   `json:"package_location" toml:"package_location"`
	Permissions     []string `json:"permissions" toml:"permissions"`
}
