package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".politecrawl"

// xdgConfigFile is the file name looked up inside XDGConfigDir.
const xdgConfigFile = "config.yaml"

var (
	// ErrConfigNotFound is returned when the configuration file does not exist.
	ErrConfigNotFound = errors.New("configuration file not found")

	// ErrInvalidSiteDepth is returned when a defaults or site block sets a
	// negative depth.
	ErrInvalidSiteDepth = errors.New("invalid site depth: must be non-negative")

	// ErrEmptySiteHost is returned when a sites entry has an empty host key.
	ErrEmptySiteHost = errors.New("empty host in sites")
)

// Load finds and loads the configuration file. An explicit path must exist.
// When no path is given and no file is found, Load returns an empty File and
// an empty path.
func Load(explicitPath string) (*File, string, error) {
	path := FindConfigFile(explicitPath)
	if path == "" {
		if explicitPath != "" {
			return nil, "", fmt.Errorf("%w: %s", ErrConfigNotFound, explicitPath)
		}
		return &File{Sites: make(map[string]SiteConfig)}, "", nil
	}

	cf, err := LoadConfigFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("failed to load config file %s: %w", path, err)
	}
	return cf, path, nil
}

// LoadConfigFile parses and validates the YAML file at path. Host keys are
// lowercased. A missing file yields ErrConfigNotFound.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	sites := make(map[string]SiteConfig, len(cf.Sites))
	for host, site := range cf.Sites {
		sites[strings.ToLower(strings.TrimSpace(host))] = site
	}
	cf.Sites = sites

	if err := cf.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &cf, nil
}

// Validate reports the first invalid value in the file.
func (cf *File) Validate() error {
	if d, ok := cf.Defaults.MaxDepth(); ok && d < 0 {
		return fmt.Errorf("%w: defaults depth %d", ErrInvalidSiteDepth, d)
	}
	for _, host := range cf.Hosts() {
		if host == "" {
			return ErrEmptySiteHost
		}
		if d, ok := cf.Sites[host].MaxDepth(); ok && d < 0 {
			return fmt.Errorf("%w: %s depth %d", ErrInvalidSiteDepth, host, d)
		}
	}
	return nil
}

// FindConfigFile returns the configuration file to use, or "" if none exists.
// An explicit configPath is used only if it exists. Otherwise the search order
// is .politecrawl in the current directory, config.yaml in XDGConfigDir, and
// .politecrawl in the home directory.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if fileExists(configPath) {
			return configPath
		}
		return ""
	}

	var candidates []string
	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(cwd, DefaultConfigFile))
	}
	candidates = append(candidates, filepath.Join(XDGConfigDir(), xdgConfigFile))
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, DefaultConfigFile))
	}

	for _, c := range candidates {
		if fileExists(c) {
			return c
		}
	}
	return ""
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
