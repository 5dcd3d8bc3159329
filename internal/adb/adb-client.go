package adb

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/TinkerUp/adb-link/types/models"
	adb "github.com/zach-klippenstein/goadb"
)

// ADBClient is the narrow set of bridge operations the wired connection needs.
type ADBClient interface {
	Devices(ctx context.Context) ([]models.Device, error)

	ForwardedPorts(ctx context.Context, serial string) ([]models.ForwardRule, error)
	ForwardPort(ctx context.Context, serial string, port uint16) error

	IsPackageInstalled(ctx context.Context, serial, packageID string) (bool, error)
	// PackageDigest returns the SHA-1 of the installed apk, or "" with ok=false
	// when the package is not installed.
	PackageDigest(ctx context.Context, serial, packageID string) (digest string, ok bool, err error)
	Install(ctx context.Context, serial, apkPath string) error
	Uninstall(ctx context.Context, serial, packageID string) error
	GrantPermission(ctx context.Context, serial, packageID, permission string) error

	ProcessID(ctx context.Context, serial, packageID string) (pid int, running bool, err error)
	IsActivityResumed(ctx context.Context, serial, packageID string) (bool, error)
	StartApplication(ctx context.Context, serial, packageID string) error

	KillServer(ctx context.Context) error
}

type Config struct {
	ADBPath        string
	ReadTimeout    time.Duration // host-side queries such as forward --list
	InstallTimeout time.Duration
	Runner         CommandRunner
}

// shellFunc runs a command in the device shell and returns its combined output.
type shellFunc func(serial string, cmd string, args ...string) (string, error)

// GoADBClient talks to the adb server through goadb for device queries and
// shell commands, and shells out to the adb executable for host-side commands
// goadb does not expose (forward, install).
type GoADBClient struct {
	adb            *adb.Adb
	adbPath        string
	readTimeout    time.Duration
	installTimeout time.Duration
	runner         CommandRunner
	shell          shellFunc
}

func NewGoADBClient(cfg Config) (*GoADBClient, error) {
	if cfg.ADBPath == "" {
		return nil, errors.New("adb path is required")
	}

	server, err := adb.NewWithConfig(adb.ServerConfig{PathToAdb: cfg.ADBPath})
	if err != nil {
		return nil, err
	}

	client := newClient(cfg)
	client.adb = server
	client.shell = func(serial string, cmd string, args ...string) (string, error) {
		return server.Device(adb.DeviceWithSerial(serial)).RunCommand(cmd, args...)
	}

	return client, nil
}

func newClient(cfg Config) *GoADBClient {
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 15 * time.Second
	}

	if cfg.InstallTimeout == 0 {
		cfg.InstallTimeout = 8 * time.Minute
	}

	if cfg.Runner == nil {
		cfg.Runner = ExecRunner{}
	}

	return &GoADBClient{
		adbPath:        cfg.ADBPath,
		readTimeout:    cfg.ReadTimeout,
		installTimeout: cfg.InstallTimeout,
		runner:         cfg.Runner,
	}
}

func (client *GoADBClient) Devices(ctx context.Context) ([]models.Device, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	devices, err := client.adb.ListDevices()
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}

	devicesList := make([]models.Device, 0, len(devices))

	for _, deviceInfo := range devices {
		device := client.adb.Device(adb.DeviceWithSerial(deviceInfo.Serial))

		deviceState, stateErr := device.State()
		if stateErr != nil {
			deviceState = adb.StateInvalid
		}

		devicesList = append(devicesList, models.Device{
			Serial:  deviceInfo.Serial,
			State:   ConvertState(deviceState),
			Model:   deviceInfo.Model,
			Product: deviceInfo.Product,
			Usb:     deviceInfo.Usb,
		})
	}
	return devicesList, nil
}

func (client *GoADBClient) ForwardedPorts(ctx context.Context, serial string) ([]models.ForwardRule, error) {
	out, err := client.run(ctx, client.readTimeout, "", "forward", "--list")
	if err != nil {
		return nil, fmt.Errorf("list forwarded ports: %w", err)
	}

	var rules []models.ForwardRule
	for _, rule := range ParseForwardList(out) {
		if rule.Serial == serial {
			rules = append(rules, rule)
		}
	}
	return rules, nil
}

func (client *GoADBClient) ForwardPort(ctx context.Context, serial string, port uint16) error {
	socket := "tcp:" + strconv.Itoa(int(port))
	if _, err := client.run(ctx, client.readTimeout, serial, "forward", socket, socket); err != nil {
		return fmt.Errorf("forward port %d: %w", port, err)
	}
	return nil
}

func (client *GoADBClient) IsPackageInstalled(ctx context.Context, serial, packageID string) (bool, error) {
	out, err := client.runShell(ctx, serial, "pm", "list", "packages", packageID)
	if err != nil {
		return false, fmt.Errorf("query package %s: %w", packageID, err)
	}
	return ParsePackageListed(out, packageID), nil
}

func (client *GoADBClient) PackageDigest(ctx context.Context, serial, packageID string) (string, bool, error) {
	out, err := client.runShell(ctx, serial, "pm", "path", packageID)
	if err != nil {
		return "", false, fmt.Errorf("query package path %s: %w", packageID, err)
	}

	apkPath, ok := ParsePackagePath(out)
	if !ok {
		return "", false, nil
	}

	out, err = client.runShell(ctx, serial, "sha1sum", "-b", apkPath)
	if err != nil {
		return "", false, fmt.Errorf("hash package %s: %w", packageID, err)
	}

	digest, ok := ParseDigest(out)
	if !ok {
		return "", false, fmt.Errorf("hash package %s: unexpected output %q", packageID, strings.TrimSpace(out))
	}
	return digest, true, nil
}

func (client *GoADBClient) Install(ctx context.Context, serial, apkPath string) error {
	if apkPath == "" {
		return errors.New("apk path is required")
	}

	if _, err := os.Stat(apkPath); os.IsNotExist(err) {
		return fmt.Errorf("apk file does not exist: %s", apkPath)
	}

	out, err := client.run(ctx, client.installTimeout, serial, "install", "-r", apkPath)
	if err != nil {
		return fmt.Errorf("adb install failed: %w", err)
	}

	if !strings.Contains(out, "Success") {
		return fmt.Errorf("install error: %s", strings.TrimSpace(out))
	}

	return nil
}

func (client *GoADBClient) Uninstall(ctx context.Context, serial, packageID string) error {
	out, err := client.runShell(ctx, serial, "pm", "uninstall", packageID)
	if err != nil {
		return fmt.Errorf("uninstall failed: %w", err)
	}

	// pm prints "Success" or "Failure [REASON]"
	if !strings.Contains(out, "Success") {
		return fmt.Errorf("uninstall error: %s", strings.TrimSpace(out))
	}

	return nil
}

func (client *GoADBClient) GrantPermission(ctx context.Context, serial, packageID, permission string) error {
	out, err := client.runShell(ctx, serial, "pm", "grant", packageID, permission)
	if err != nil {
		return fmt.Errorf("grant %s: %w", permission, err)
	}
	if shellFailure(out) {
		return fmt.Errorf("grant %s: %s", permission, strings.TrimSpace(out))
	}
	return nil
}

func (client *GoADBClient) ProcessID(ctx context.Context, serial, packageID string) (int, bool, error) {
	out, err := client.runShell(ctx, serial, "pidof", packageID)
	if err != nil {
		return 0, false, fmt.Errorf("query process %s: %w", packageID, err)
	}

	pid, running, err := ParsePID(out)
	if err != nil {
		return 0, false, fmt.Errorf("query process %s: %w", packageID, err)
	}
	return pid, running, nil
}

func (client *GoADBClient) IsActivityResumed(ctx context.Context, serial, packageID string) (bool, error) {
	out, err := client.runShell(ctx, serial, "dumpsys", "activity", packageID)
	if err != nil {
		return false, fmt.Errorf("query activity %s: %w", packageID, err)
	}
	return ParseActivityResumed(out), nil
}

func (client *GoADBClient) StartApplication(ctx context.Context, serial, packageID string) error {
	out, err := client.runShell(ctx, serial, "monkey", "-p", packageID, "1")
	if err != nil {
		return fmt.Errorf("start %s: %w", packageID, err)
	}
	if shellFailure(out) || strings.Contains(out, "No activities found") {
		return fmt.Errorf("start %s: %s", packageID, strings.TrimSpace(out))
	}
	return nil
}

func (client *GoADBClient) KillServer(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return client.adb.KillServer()
}

func (client *GoADBClient) runShell(ctx context.Context, serial string, cmd string, args ...string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return client.shell(serial, cmd, args...)
}

func (client *GoADBClient) run(ctx context.Context, timeout time.Duration, serial string, args ...string) (string, error) {
	argumentsArray := make([]string, 0, len(args)+2)

	if serial != "" {
		argumentsArray = append(argumentsArray, "-s", serial)
	}

	argumentsArray = append(argumentsArray, args...)

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	stdout, stderr, _, err := client.runner.Run(runCtx, client.adbPath, argumentsArray...)
	if err != nil {
		return "", fmt.Errorf("%w: %s", err, strings.TrimSpace(string(stderr)))
	}

	return string(stdout), nil
}

func ConvertState(state adb.DeviceState) models.DeviceState {
	switch state {
	case adb.StateOnline:
		return models.DeviceStateOnline
	case adb.StateOffline:
		return models.DeviceStateOffline
	case adb.StateUnauthorized:
		return models.DeviceStateUnauthorized
	default:
		return models.DeviceStateUnknown
	}
}
