package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/rjboer/limenqr/internal/app"
	"github.com/rjboer/limenqr/internal/lime"
	"github.com/rjboer/limenqr/internal/logging"
	"github.com/rjboer/limenqr/internal/mdns"
	"github.com/rjboer/limenqr/internal/sdr"
	"github.com/rjboer/limenqr/internal/sequence"
	"github.com/rjboer/limenqr/internal/settings"
	"github.com/rjboer/limenqr/internal/telemetry"
)

const configPath = "limenqr.json"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, os.Args[1:], os.Stderr, os.LookupEnv); err != nil {
		log.Fatalf("limenqr: %v", err)
	}
}

func run(ctx context.Context, args []string, stderr io.Writer, lookup func(string) (string, bool)) error {
	persistentCfg, err := loadOrCreateConfig(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg, err := parseConfig(args, lookup, persistentCfg)
	if err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	if err := saveConfig(configPath, persistentFromCLI(cfg)); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	logger, err := newLogger(cfg, stderr)
	if err != nil {
		return err
	}
	logging.SetDefault(logger)

	snap, err := settings.Load(cfg.settingsPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	backend, err := selectBackend(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("select backend: %w", err)
	}
	defer backend.Close()

	m := app.NewMeasurement(sequence.File(cfg.sequencePath), backend, telemetry.NewStdoutReporter(logger), logger, app.Config{
		TargetFrequency: cfg.targetFrequency,
		Averages:        cfg.averages,
		Retries:         cfg.retries,
		RetryInterval:   cfg.retryInterval,
	})

	res, err := m.Run(ctx, snap)
	if err != nil {
		return err
	}
	if cfg.dumpParams != "" {
		if err := dumpParameters(cfg.dumpParams, res.Parameters); err != nil {
			return fmt.Errorf("dump parameters: %w", err)
		}
	}
	return nil
}

type cliConfig struct {
	sequencePath    string
	settingsPath    string
	targetFrequency float64
	averages        int
	sdrBackend      string
	sshHost         string
	sshUser         string
	sshPassword     string
	sshKeyPath      string
	sshPort         int
	sshCommand      string
	discoverTimeout time.Duration
	retries         int
	retryInterval   time.Duration
	logLevel        string
	logFormat       string
	dumpParams      string
}

type persistentConfig struct {
	SequencePath    string  `json:"sequence_path"`
	SettingsPath    string  `json:"settings_path"`
	TargetFrequency float64 `json:"target_frequency"`
	Averages        int     `json:"averages"`
	SDRBackend      string  `json:"sdr_backend"`
	SSHHost         string  `json:"ssh_host"`
	SSHUser         string  `json:"ssh_user"`
	SSHKeyPath      string  `json:"ssh_key_path"`
	SSHPort         int     `json:"ssh_port"`
	SSHCommand      string  `json:"ssh_command"`
	DiscoverTimeout string  `json:"discover_timeout"`
	Retries         int     `json:"retries"`
	RetryInterval   string  `json:"retry_interval"`
	LogLevel        string  `json:"log_level"`
	LogFormat       string  `json:"log_format"`
}

func parseConfig(args []string, lookup func(string) (string, bool), defaults persistentConfig) (cliConfig, error) {
	cfg := cliConfig{}
	fs := flag.NewFlagSet("limenqr", flag.ContinueOnError)
	fs.StringVar(&cfg.sequencePath, "sequence", envString(lookup, "LIMENQR_SEQUENCE", defaults.SequencePath), "Pulse sequence YAML file")
	fs.StringVar(&cfg.settingsPath, "settings", envString(lookup, "LIMENQR_SETTINGS", defaults.SettingsPath), "Spectrometer settings YAML file")
	fs.Float64Var(&cfg.targetFrequency, "target-frequency", envFloat(lookup, "LIMENQR_TARGET_FREQUENCY", defaults.TargetFrequency), "Target RF frequency in Hz")
	fs.IntVar(&cfg.averages, "averages", envInt(lookup, "LIMENQR_AVERAGES", defaults.Averages), "Number of captures to average")
	fs.StringVar(&cfg.sdrBackend, "sdr-backend", envString(lookup, "LIMENQR_SDR_BACKEND", defaults.SDRBackend), "SDR backend (mock|ssh)")
	fs.StringVar(&cfg.sshHost, "ssh-host", envString(lookup, "LIMENQR_SSH_HOST", defaults.SSHHost), "Spectrometer host, or auto for mDNS discovery")
	fs.StringVar(&cfg.sshUser, "ssh-user", envString(lookup, "LIMENQR_SSH_USER", defaults.SSHUser), "SSH user")
	fs.StringVar(&cfg.sshPassword, "ssh-password", envString(lookup, "LIMENQR_SSH_PASSWORD", ""), "SSH password (not persisted)")
	fs.StringVar(&cfg.sshKeyPath, "ssh-key", envString(lookup, "LIMENQR_SSH_KEY", defaults.SSHKeyPath), "SSH private key path")
	fs.IntVar(&cfg.sshPort, "ssh-port", envInt(lookup, "LIMENQR_SSH_PORT", defaults.SSHPort), "SSH port")
	fs.StringVar(&cfg.sshCommand, "ssh-command", envString(lookup, "LIMENQR_SSH_COMMAND", defaults.SSHCommand), "Remote driver command")
	fs.DurationVar(&cfg.discoverTimeout, "discover-timeout", envDuration(lookup, "LIMENQR_DISCOVER_TIMEOUT", defaults.DiscoverTimeout), "mDNS discovery timeout")
	fs.IntVar(&cfg.retries, "retries", envInt(lookup, "LIMENQR_RETRIES", defaults.Retries), "Driver retries after a failed run")
	fs.DurationVar(&cfg.retryInterval, "retry-interval", envDuration(lookup, "LIMENQR_RETRY_INTERVAL", defaults.RetryInterval), "Initial wait between driver retries")
	fs.StringVar(&cfg.logLevel, "log-level", envString(lookup, "LIMENQR_LOG_LEVEL", defaults.LogLevel), "Log level (debug|info|warn|error)")
	fs.StringVar(&cfg.logFormat, "log-format", envString(lookup, "LIMENQR_LOG_FORMAT", defaults.LogFormat), "Log format (text|json)")
	fs.StringVar(&cfg.dumpParams, "dump-params", envString(lookup, "LIMENQR_DUMP_PARAMS", ""), "Write the msgpack parameter set to this path")

	if err := fs.Parse(args); err != nil {
		return cliConfig{}, err
	}
	return cfg, nil
}

func persistentFromCLI(cfg cliConfig) persistentConfig {
	return persistentConfig{
		SequencePath:    cfg.sequencePath,
		SettingsPath:    cfg.settingsPath,
		TargetFrequency: cfg.targetFrequency,
		Averages:        cfg.averages,
		SDRBackend:      cfg.sdrBackend,
		SSHHost:         cfg.sshHost,
		SSHUser:         cfg.sshUser,
		SSHKeyPath:      cfg.sshKeyPath,
		SSHPort:         cfg.sshPort,
		SSHCommand:      cfg.sshCommand,
		DiscoverTimeout: cfg.discoverTimeout.String(),
		Retries:         cfg.retries,
		RetryInterval:   cfg.retryInterval.String(),
		LogLevel:        cfg.logLevel,
		LogFormat:       cfg.logFormat,
	}
}

func loadOrCreateConfig(path string) (persistentConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := defaultPersistentConfig()
			if saveErr := saveConfig(path, cfg); saveErr != nil {
				return persistentConfig{}, saveErr
			}
			return cfg, nil
		}
		return persistentConfig{}, err
	}
	defer f.Close()

	cfg := defaultPersistentConfig()
	if err := json.NewDecoder(f).Decode(&cfg); err != nil {
		return persistentConfig{}, err
	}
	return cfg, nil
}

func saveConfig(path string, cfg persistentConfig) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

func defaultPersistentConfig() persistentConfig {
	return persistentConfig{
		SequencePath:    "sequence.yaml",
		SettingsPath:    "settings.yaml",
		TargetFrequency: 83.56e6,
		Averages:        100,
		SDRBackend:      "mock",
		SSHUser:         "root",
		SSHPort:         22,
		SSHCommand:      sdr.DefaultRemoteCommand,
		DiscoverTimeout: "3s",
		Retries:         2,
		RetryInterval:   "500ms",
		LogLevel:        "info",
		LogFormat:       "text",
	}
}

func envFloat(lookup func(string) (string, bool), key string, def float64) float64 {
	if val, ok := lookup(key); ok {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil {
			return parsed
		}
	}
	return def
}

func envInt(lookup func(string) (string, bool), key string, def int) int {
	if val, ok := lookup(key); ok {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return def
}

func envString(lookup func(string) (string, bool), key, def string) string {
	if val, ok := lookup(key); ok {
		return val
	}
	return def
}

// envDuration resolves key from the environment, then def; unparsable values yield zero.
func envDuration(lookup func(string) (string, bool), key, def string) time.Duration {
	if val, ok := lookup(key); ok {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	parsed, err := time.ParseDuration(def)
	if err != nil {
		return 0
	}
	return parsed
}

func newLogger(cfg cliConfig, out io.Writer) (logging.Logger, error) {
	level, err := logging.ParseLevel(cfg.logLevel)
	if err != nil {
		return nil, err
	}
	format, err := logging.ParseFormat(cfg.logFormat)
	if err != nil {
		return nil, err
	}
	return logging.New(level, format, out), nil
}

// discover is swapped out in tests.
var discover = mdns.Discover

func selectBackend(ctx context.Context, cfg cliConfig, logger logging.Logger) (sdr.Driver, error) {
	switch cfg.sdrBackend {
	case "mock":
		return sdr.NewMock(), nil
	case "ssh":
		host := cfg.sshHost
		if host == "auto" {
			hosts, err := discover(ctx, mdns.DefaultService, cfg.discoverTimeout)
			if err != nil {
				return nil, fmt.Errorf("discover spectrometer: %w", err)
			}
			if len(hosts) == 0 {
				return nil, errors.New("no spectrometer host found via mDNS")
			}
			host = hosts[0].Address()
			logger.Info("using discovered spectrometer", logging.F("instance", hosts[0].Instance), logging.F("host", host))
		}
		driver, err := sdr.NewSSHDriver(sdr.SSHConfig{
			Host:     host,
			User:     cfg.sshUser,
			Password: cfg.sshPassword,
			KeyPath:  cfg.sshKeyPath,
			Port:     cfg.sshPort,
			Command:  cfg.sshCommand,
		}, logger)
		if err != nil {
			return nil, err
		}
		return driver, nil
	default:
		return nil, fmt.Errorf("unknown backend %s", cfg.sdrBackend)
	}
}

func dumpParameters(path string, p *lime.ParameterSet) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := lime.Encode(f, p); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
