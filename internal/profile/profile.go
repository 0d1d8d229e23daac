package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Profile is the configuration to start main server.
type Profile struct {
	// Mode can be "prod" or "dev" or "demo"
	Mode string
	// Addr is the binding address for server
	Addr string
	// Port is the binding port for server
	Port int
	// Data is the data directory
	Data string
	// DSN points to where guestbook stores its own data
	DSN string
	// Driver is the database driver (sqlite or postgres)
	Driver string
	// Version is the current version of server
	Version string

	// PollInterval is the refresher poll interval in seconds.
	PollInterval int
	// EnablePoller controls whether the background refresher runs.
	EnablePoller bool
	// UseCache controls whether reads are served from the in-memory cache.
	UseCache bool

	// TLSCert and TLSKey enable HTTPS when both are set.
	TLSCert string
	TLSKey  string
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// FromEnv overlays configuration from GUESTBOOK_* environment variables.
// Flag values already set are only replaced when the variable is present.
func (p *Profile) FromEnv() {
	v := viper.New()
	v.SetEnvPrefix("guestbook")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if v.IsSet("mode") {
		p.Mode = v.GetString("mode")
	}
	if v.IsSet("addr") {
		p.Addr = v.GetString("addr")
	}
	if v.IsSet("port") {
		p.Port = v.GetInt("port")
	}
	if v.IsSet("data") {
		p.Data = v.GetString("data")
	}
	if v.IsSet("driver") {
		p.Driver = v.GetString("driver")
	}
	if v.IsSet("dsn") {
		p.DSN = v.GetString("dsn")
	}
	if v.IsSet("poll_interval") {
		p.PollInterval = v.GetInt("poll_interval")
	}
	if v.IsSet("enable_poller") {
		p.EnablePoller = v.GetBool("enable_poller")
	}
	if v.IsSet("use_cache") {
		p.UseCache = v.GetBool("use_cache")
	}
	if v.IsSet("tls_cert") {
		p.TLSCert = v.GetString("tls_cert")
	}
	if v.IsSet("tls_key") {
		p.TLSKey = v.GetString("tls_key")
	}
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}

	if p.Mode == "prod" && p.Data == "" {
		if runtime.GOOS == "windows" {
			p.Data = filepath.Join(os.Getenv("ProgramData"), "guestbook")
			if _, err := os.Stat(p.Data); os.IsNotExist(err) {
				if err := os.MkdirAll(p.Data, 0770); err != nil {
					slog.Error("failed to create data directory", slog.String("data", p.Data), slog.String("error", err.Error()))
					return err
				}
			}
		} else {
			p.Data = "/var/opt/guestbook"
		}
	}

	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		slog.Error("failed to check data dir", slog.String("data", dataDir), slog.String("error", err.Error()))
		return err
	}

	p.Data = dataDir
	if p.Driver == "sqlite" && p.DSN == "" {
		dbFile := fmt.Sprintf("guestbook_%s.db", p.Mode)
		p.DSN = filepath.Join(dataDir, dbFile)
	}

	if p.PollInterval <= 0 {
		p.PollInterval = 10
	}

	if (p.TLSCert == "") != (p.TLSKey == "") {
		return errors.New("tls-cert and tls-key must be set together")
	}

	return nil
}
