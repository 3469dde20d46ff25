// Package config loads connection profiles from sequel.ini.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shipq/sequel/dburl"
	"github.com/shipq/sequel/inifile"
	"github.com/shipq/sequel/query/compile"
)

// ConfigFilename is the name of the profile file.
const ConfigFilename = "sequel.ini"

// ErrConfigNotFound is returned when sequel.ini is not found.
var ErrConfigNotFound = errors.New("sequel.ini not found")

// ErrUnknownProfile is returned when a named profile has no section.
var ErrUnknownProfile = errors.New("unknown database profile")

// PreparedMode selects how prepared statements pass bind values.
type PreparedMode string

const (
	PreparedNative   PreparedMode = "native"
	PreparedEmulated PreparedMode = "emulated"
)

// Config holds every profile from sequel.ini.
type Config struct {
	// ConfigDir is the directory containing sequel.ini.
	ConfigDir string

	// Default is the [database] section.
	Default Profile
	// Profiles holds the [database.<name>] sections, which inherit unset
	// keys from [database].
	Profiles map[string]Profile
}

// Profile is one database connection profile.
type Profile struct {
	Name    string
	URL     string
	Dialect compile.Kind

	// QuoteIdentifiers overrides the dialect's quoting default when set.
	QuoteIdentifiers *bool
	// IdentifierCase folds identifiers on the way into SQL.
	IdentifierCase compile.CaseFold
	// OutputCase folds result column names.
	OutputCase compile.CaseFold

	Prepared PreparedMode
	Log      string
}

// DialectTable returns the dialect table with the profile's overrides applied.
func (p Profile) DialectTable() *compile.Dialect {
	d := compile.ForKind(p.Dialect)
	if p.QuoteIdentifiers != nil {
		d = d.WithQuoting(*p.QuoteIdentifiers)
	}
	if p.IdentifierCase != compile.FoldNone || p.OutputCase != compile.FoldNone {
		d = d.WithIdentifierCase(p.IdentifierCase, p.OutputCase)
	}
	return d
}

// Profile returns the named profile, or the default for "" and "default".
func (c *Config) Profile(name string) (Profile, error) {
	if name == "" || name == "default" {
		return c.Default, nil
	}
	p, ok := c.Profiles[strings.ToLower(name)]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %q", ErrUnknownProfile, name)
	}
	return p, nil
}

// Load reads sequel.ini from the given directory (or CWD if empty).
func Load(dir string) (*Config, error) {
	if dir == "" {
		var err error
		dir, err = os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
	}

	iniPath := filepath.Join(dir, ConfigFilename)
	if _, err := os.Stat(iniPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w in %s", ErrConfigNotFound, dir)
	}

	f, err := inifile.ParseFile(iniPath)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", ConfigFilename, err)
	}

	cfg := &Config{ConfigDir: dir, Profiles: make(map[string]Profile)}

	base := f.Section("database")
	if base == nil {
		base = &inifile.Section{Name: "database"}
	}
	if cfg.Default, err = parseProfile("default", base, nil); err != nil {
		return nil, err
	}

	for _, s := range f.SectionsWithPrefix("database.") {
		name := strings.TrimPrefix(s.Name, "database.")
		p, err := parseProfile(name, &s, base)
		if err != nil {
			return nil, err
		}
		cfg.Profiles[name] = p
	}

	return cfg, nil
}

// parseProfile reads one profile section, falling back to parent for keys
// the section does not set.
func parseProfile(name string, s, parent *inifile.Section) (Profile, error) {
	get := func(key string) string {
		if v, ok := s.Lookup(key); ok {
			return v
		}
		if parent != nil {
			return parent.Get(key)
		}
		return ""
	}
	section := s.Name

	p := Profile{Name: name, Prepared: PreparedNative, Log: "off"}

	p.URL = get("url")
	if p.URL == "" && parent == nil {
		// Apply DATABASE_URL fallback to the default profile only.
		p.URL = os.Getenv("DATABASE_URL")
	}

	if v := get("dialect"); v != "" {
		kind, err := compile.ParseKind(v)
		if err != nil {
			return Profile{}, fmt.Errorf("%s: invalid %s.dialect value %q\n"+
				"  Supported dialects: default, postgres, mysql, sqlite, mssql, oracle, db2, firebird, h2",
				ConfigFilename, section, v)
		}
		p.Dialect = kind
	} else if p.URL != "" {
		kind, err := dburl.InferDialect(p.URL)
		if err != nil {
			return Profile{}, fmt.Errorf("%s: %s.url: %w\n"+
				"  Hint: set dialect explicitly when the URL scheme is not a known database",
				ConfigFilename, section, err)
		}
		p.Dialect = kind
	}

	if v := get("quote_identifiers"); v != "" {
		b, err := parseBool(v, section+".quote_identifiers")
		if err != nil {
			return Profile{}, err
		}
		p.QuoteIdentifiers = &b
	}

	var err error
	if p.IdentifierCase, err = parseCase(get("identifier_case"), section+".identifier_case"); err != nil {
		return Profile{}, err
	}
	if p.OutputCase, err = parseCase(get("output_case"), section+".output_case"); err != nil {
		return Profile{}, err
	}

	switch v := strings.ToLower(get("prepared")); v {
	case "":
	case string(PreparedNative), string(PreparedEmulated):
		p.Prepared = PreparedMode(v)
	default:
		return Profile{}, fmt.Errorf("%s: invalid %s.prepared value %q (expected native or emulated)",
			ConfigFilename, section, v)
	}

	if v := strings.ToLower(get("log")); v != "" {
		switch v {
		case "off", "prod", "dev":
			p.Log = v
		default:
			return Profile{}, fmt.Errorf("%s: invalid %s.log value %q (expected off, prod or dev)",
				ConfigFilename, section, v)
		}
	}

	return p, nil
}

func parseCase(s, key string) (compile.CaseFold, error) {
	switch strings.TrimSpace(strings.ToLower(s)) {
	case "", "none":
		return compile.FoldNone, nil
	case "upper":
		return compile.FoldUpper, nil
	case "lower":
		return compile.FoldLower, nil
	}
	return compile.FoldNone, fmt.Errorf("%s: invalid value for %s: %q (expected upper, lower or none)", ConfigFilename, key, s)
}

// parseBool parses a boolean value from a string.
func parseBool(s, key string) (bool, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	switch s {
	case "true", "1", "yes", "on":
		return true, nil
	case "false", "0", "no", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s: invalid boolean value for %s: %q (expected true/false/1/0)", ConfigFilename, key, s)
	}
}

// Exists checks if sequel.ini exists in the given directory.
func Exists(dir string) (bool, error) {
	if dir == "" {
		var err error
		dir, err = os.Getwd()
		if err != nil {
			return false, err
		}
	}

	_, err := os.Stat(filepath.Join(dir, ConfigFilename))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
