// Package wired keeps a USB-attached headset ready for streaming: port
// forwards in place, the client app installed, up to date, running and in the
// foreground.
//
// Setup is a single non-blocking probe-and-react pass. Callers poll it,
// usually once per second from one goroutine that owns the Connection.
package wired

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/TinkerUp/adb-link/internal/adb"
	"github.com/TinkerUp/adb-link/internal/files"
	"github.com/TinkerUp/adb-link/internal/identity"
	"github.com/TinkerUp/adb-link/types/models"
)

const (
	PreLaunchDelay  = 15 * time.Second
	PostLaunchDelay = 5 * time.Second
)

const (
	ReasonNoWiredDevice      = "No wired devices found"
	ReasonNoClientInstalled  = "No suitable ALVR client is installed"
	ReasonClientNotRunning   = "ALVR client is not running"
	ReasonAwaitingPreLaunch  = "Awaiting pre autolaunch delay"
	ReasonStartingClient     = "Starting ALVR client"
	ReasonClientPaused       = "ALVR client is paused"
	ReasonAwaitingPostLaunch = "Awaiting post autolaunch delay"
)

type Status struct {
	Ready  bool
	Reason string
}

func Ready() Status { return Status{Ready: true} }

func NotReady(reason string) Status { return Status{Reason: reason} }

func (s Status) String() string {
	if s.Ready {
		return "ready"
	}
	return "not ready: " + s.Reason
}

type SetupRequest struct {
	ControlPort uint16
	StreamPort  uint16
	Flavor      models.ClientFlavor
	// Stable selects the release channel package identifiers.
	Stable      bool
	Autolaunch  bool
	AutoInstall *models.AutoInstall
}

type Options struct {
	Layout   models.Layout
	ADBPath  string
	Fetcher  adb.Fetcher
	Progress adb.ProgressFunc
	Logger   zerolog.Logger
}

// Connection is not safe for concurrent use.
type Connection struct {
	client adb.ADBClient
	files  files.FileService
	logger zerolog.Logger
	now    func() time.Time

	initialWaitStart    *time.Time
	postLaunchWaitStart *time.Time
	closed              bool
}

// New locates (or fetches) the adb executable and connects to its server.
func New(ctx context.Context, opts Options) (*Connection, error) {
	adbPath, err := adb.Require(ctx, opts.Layout, opts.ADBPath, opts.Fetcher, opts.Progress)
	if err != nil {
		return nil, err
	}

	client, err := adb.NewGoADBClient(adb.Config{ADBPath: adbPath})
	if err != nil {
		return nil, fmt.Errorf("connect to adb server: %w", err)
	}

	conn := NewWithClient(client, files.NewFileService(opts.Layout), opts.Logger)
	conn.logger.Debug().Str("adb", adbPath).Msg("wired_connection: using adb")
	return conn, nil
}

func NewWithClient(client adb.ADBClient, fileService files.FileService, logger zerolog.Logger) *Connection {
	return &Connection{
		client: client,
		files:  fileService,
		logger: logger.With().Str("connection", uuid.NewString()).Logger(),
		now:    time.Now,
	}
}

func (c *Connection) Setup(ctx context.Context, req SetupRequest) (Status, error) {
	devices, err := c.client.Devices(ctx)
	if err != nil {
		return Status{}, err
	}

	serial := ""
	for _, device := range devices {
		if device.IsWired() {
			serial = device.Serial
			break
		}
	}
	if serial == "" {
		c.initialWaitStart = nil
		c.postLaunchWaitStart = nil
		return NotReady(ReasonNoWiredDevice), nil
	}

	// The pre-launch delay runs from the first time the device is seen.
	if c.initialWaitStart == nil {
		t := c.now()
		c.initialWaitStart = &t
	}
	initialWaitStart := *c.initialWaitStart

	if err := c.forwardMissingPorts(ctx, serial, req.ControlPort, req.StreamPort); err != nil {
		return Status{}, err
	}

	applicationIDs := identity.ApplicationIDs(req.Flavor, req.Stable)

	if req.AutoInstall != nil {
		if err := c.syncPackage(ctx, serial, applicationIDs, *req.AutoInstall); err != nil {
			return Status{}, err
		}
	}

	packageID, ok := c.installedPackage(ctx, serial, applicationIDs)
	if !ok {
		return NotReady(ReasonNoClientInstalled), nil
	}

	_, running, err := c.client.ProcessID(ctx, serial, packageID)
	if err != nil {
		return Status{}, err
	}

	if !running {
		if !req.Autolaunch || c.postLaunchWaitStart != nil {
			return NotReady(ReasonClientNotRunning), nil
		}

		if c.now().Sub(initialWaitStart) < PreLaunchDelay {
			return NotReady(ReasonAwaitingPreLaunch), nil
		}

		if err := c.client.StartApplication(ctx, serial, packageID); err != nil {
			return Status{}, err
		}
		c.logger.Info().Str("package", packageID).Str("device", serial).Msg("wired_connection: launched client")
		t := c.now()
		c.postLaunchWaitStart = &t

		return NotReady(ReasonStartingClient), nil
	}

	resumed, err := c.client.IsActivityResumed(ctx, serial, packageID)
	if err != nil {
		return Status{}, err
	}
	if !resumed {
		return NotReady(ReasonClientPaused), nil
	}

	if c.postLaunchWaitStart != nil {
		if c.now().Sub(*c.postLaunchWaitStart) < PostLaunchDelay {
			return NotReady(ReasonAwaitingPostLaunch), nil
		}
		c.postLaunchWaitStart = nil
	}

	return Ready(), nil
}

func (c *Connection) forwardMissingPorts(ctx context.Context, serial string, ports ...uint16) error {
	rules, err := c.client.ForwardedPorts(ctx, serial)
	if err != nil {
		return err
	}

	forwarded := make(map[uint16]struct{}, len(rules))
	for _, rule := range rules {
		if port, ok := rule.LocalPort(); ok {
			forwarded[port] = struct{}{}
		}
	}

	for _, port := range ports {
		if _, ok := forwarded[port]; ok {
			continue
		}
		if err := c.client.ForwardPort(ctx, serial, port); err != nil {
			return err
		}
		forwarded[port] = struct{}{}
		c.logger.Debug().Uint16("port", port).Str("device", serial).Msg("wired_connection: forwarded port")
	}
	return nil
}

// installedPackage returns the first candidate present on the device. A failed
// query counts as not installed.
func (c *Connection) installedPackage(ctx context.Context, serial string, applicationIDs []string) (string, bool) {
	for _, id := range applicationIDs {
		installed, err := c.client.IsPackageInstalled(ctx, serial, id)
		if err != nil {
			c.logger.Debug().Err(err).Str("package", id).Msg("wired_connection: package query failed")
			continue
		}
		if installed {
			return id, true
		}
	}
	return "", false
}

// Close asks the adb server to exit. Failures are logged and never returned.
func (c *Connection) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true

	c.logger.Debug().Msg("wired_connection: killing adb server")
	if err := c.client.KillServer(context.Background()); err != nil {
		c.logger.Error().Err(err).Msg("wired_connection: kill adb server")
	}
	return nil
}
