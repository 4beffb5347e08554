package sdr

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/crypto/ssh"

	"github.com/rjboer/limenqr/internal/lime"
	"github.com/rjboer/limenqr/internal/logging"
)

// DefaultRemoteCommand is the driver executable on the spectrometer host. It reads
// a msgpack parameter set on stdin and writes a msgpack Capture on stdout.
const DefaultRemoteCommand = "limedriver --msgpack"

// SSHConfig describes how to reach the host the LimeSDR board is attached to.
type SSHConfig struct {
	Host     string
	User     string
	Password string
	KeyPath  string
	Port     int
	Command  string
}

// SSHDriver runs the remote driver over SSH, one session per measurement.
type SSHDriver struct {
	mu     sync.Mutex
	cfg    SSHConfig
	client *ssh.Client
	closed bool
	logger logging.Logger
}

// NewSSHDriver validates configuration and prepares a driver. It does not dial.
func NewSSHDriver(cfg SSHConfig, logger logging.Logger) (*SSHDriver, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("ssh host is required")
	}
	if cfg.User == "" {
		cfg.User = "root"
	}
	if cfg.Port == 0 {
		cfg.Port = 22
	}
	if strings.TrimSpace(cfg.Command) == "" {
		cfg.Command = DefaultRemoteCommand
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &SSHDriver{cfg: cfg, logger: logger.With(logging.Subsystem("sdr"), logging.F("host", cfg.Host))}, nil
}

// Config returns the effective configuration after defaults.
func (d *SSHDriver) Config() SSHConfig { return d.cfg }

// Run sends p to the remote driver and decodes the capture it returns.
// Canceling ctx kills the remote process.
func (d *SSHDriver) Run(ctx context.Context, p *lime.ParameterSet) (Capture, error) {
	client, err := d.dial(ctx)
	if err != nil {
		return Capture{}, err
	}

	var stdin bytes.Buffer
	if err := lime.Encode(&stdin, p); err != nil {
		return Capture{}, err
	}

	session, err := client.NewSession()
	if err != nil {
		d.reset()
		return Capture{}, fmt.Errorf("create ssh session: %w", err)
	}
	defer session.Close()

	var stdout, stderr bytes.Buffer
	session.Stdin = &stdin
	session.Stdout = &stdout
	session.Stderr = &stderr

	start := time.Now()
	done := make(chan error, 1)
	go func() { done <- session.Run(d.cfg.Command) }()

	select {
	case <-ctx.Done():
		_ = session.Signal(ssh.SIGKILL)
		return Capture{}, ctx.Err()
	case err := <-done:
		if err != nil {
			return Capture{}, fmt.Errorf("%w: %s: %v: %s", ErrDriver, d.cfg.Command, err, strings.TrimSpace(stderr.String()))
		}
	}
	d.logger.Debug("remote driver finished", logging.F("duration_ms", time.Since(start).Seconds()*1000), logging.F("bytes", stdout.Len()))

	var capture Capture
	if err := msgpack.NewDecoder(&stdout).Decode(&capture); err != nil {
		return Capture{}, fmt.Errorf("%w: decode capture: %v", ErrDriver, err)
	}
	return capture, nil
}

// Close drops the SSH connection. Later calls to Run fail with ErrNotConnected.
func (d *SSHDriver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	if d.client == nil {
		return nil
	}
	err := d.client.Close()
	d.client = nil
	return err
}

func (d *SSHDriver) reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.client != nil {
		_ = d.client.Close()
		d.client = nil
	}
}

func (d *SSHDriver) dial(ctx context.Context) (*ssh.Client, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, ErrNotConnected
	}
	if d.client != nil {
		return d.client, nil
	}

	auth, err := d.authMethods()
	if err != nil {
		return nil, err
	}
	config := &ssh.ClientConfig{
		User:            d.cfg.User,
		Auth:            auth,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         5 * time.Second,
	}

	addr := net.JoinHostPort(d.cfg.Host, fmt.Sprint(d.cfg.Port))
	dialer := net.Dialer{}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial ssh: %w", err)
	}

	clientConn, chans, reqs, err := ssh.NewClientConn(conn, addr, config)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("create ssh client: %w", err)
	}

	d.client = ssh.NewClient(clientConn, chans, reqs)
	d.logger.Info("connected to spectrometer host", logging.F("addr", addr))
	return d.client, nil
}

func (d *SSHDriver) authMethods() ([]ssh.AuthMethod, error) {
	auth := []ssh.AuthMethod{}
	if d.cfg.Password != "" {
		auth = append(auth, ssh.Password(d.cfg.Password))
	}
	if d.cfg.KeyPath != "" {
		key, err := os.ReadFile(d.cfg.KeyPath)
		if err != nil {
			return nil, fmt.Errorf("read ssh key: %w", err)
		}
		signer, err := ssh.ParsePrivateKey(key)
		if err != nil {
			return nil, fmt.Errorf("parse ssh key: %w", err)
		}
		auth = append(auth, ssh.PublicKeys(signer))
	}
	if len(auth) == 0 {
		return nil, fmt.Errorf("no ssh password or key configured")
	}
	return auth, nil
}
