// Package settings supplies Postgres connection parameters for the
// pipeline maintenance tools. Values come from local.settings.json
// (the same file the ingestion function uses) with PG* environment
// variables taking precedence, so containerized runs need no file at
// all.
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
)

// ErrConfigMissing indicates required connection parameters could not
// be supplied by the settings file or the environment.
var ErrConfigMissing = errors.New("missing configuration")

// DefaultFile is the settings file probed when SETTINGS_FILE is unset.
const DefaultFile = "local.settings.json"

// Settings holds everything needed to reach the pipeline database.
type Settings struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
	SSLMode  string
}

// settingsFile mirrors the Azure Functions local.settings.json shape;
// only the Values map is of interest here.
type settingsFile struct {
	Values map[string]string `json:"Values"`
}

// Load reads the settings file (SETTINGS_FILE or ./local.settings.json,
// if present) and applies environment overrides. It fails with
// ErrConfigMissing when any required parameter is still absent.
func Load() (Settings, error) {
	path := strings.TrimSpace(os.Getenv("SETTINGS_FILE"))
	if path == "" {
		path = DefaultFile
	}
	values := map[string]string{}
	if raw, err := os.ReadFile(path); err == nil {
		var f settingsFile
		if err := json.Unmarshal(raw, &f); err != nil {
			return Settings{}, fmt.Errorf("parse %s: %w", path, err)
		}
		values = f.Values
	} else if !os.IsNotExist(err) {
		return Settings{}, fmt.Errorf("read %s: %w", path, err)
	}
	return fromValues(values)
}

// fromValues resolves the final settings from file values plus
// environment overrides. Split out so tests can drive it directly.
func fromValues(values map[string]string) (Settings, error) {
	get := func(key string) string {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			return v
		}
		return strings.TrimSpace(values[key])
	}

	s := Settings{
		Host:     get("PGHOST"),
		Database: get("PGDATABASE"),
		User:     get("PGUSER"),
		Password: get("PGPASSWORD"),
		SSLMode:  get("PGSSLMODE"),
	}
	if s.SSLMode == "" {
		s.SSLMode = "require"
	}

	s.Port = 5432
	if p := get("PGPORT"); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil || n <= 0 || n > 65535 {
			return Settings{}, fmt.Errorf("PGPORT %q is not a valid port: %w", p, ErrConfigMissing)
		}
		s.Port = n
	}

	var missing []string
	for _, kv := range []struct{ key, val string }{
		{"PGHOST", s.Host},
		{"PGDATABASE", s.Database},
		{"PGUSER", s.User},
		{"PGPASSWORD", s.Password},
	} {
		if kv.val == "" {
			missing = append(missing, kv.key)
		}
	}
	if len(missing) > 0 {
		return Settings{}, fmt.Errorf("%w: %s", ErrConfigMissing, strings.Join(missing, ", "))
	}
	return s, nil
}

// DSN renders a pgx-compatible connection URL. The credentials are
// URL-escaped; the result must never be logged verbatim.
func (s Settings) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(s.User, s.Password),
		Host:     fmt.Sprintf("%s:%d", s.Host, s.Port),
		Path:     "/" + s.Database,
		RawQuery: "sslmode=" + url.QueryEscape(s.SSLMode),
	}
	return u.String()
}
