// Package config handles the global vpub configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// DefaultBuildConcurrency is passed to the site builder when build.concurrency is unset.
const DefaultBuildConcurrency = 12

// ErrNoVault is returned when no vault path is configured.
var ErrNoVault = errors.New("no vault configured")

// Config represents the global vpub configuration.
type Config struct {
	// Vault is the root directory of the Markdown vault.
	Vault string `toml:"vault"`

	// SiteDir is the static-site project (e.g. a Quartz checkout).
	SiteDir string `toml:"site_dir"`

	// ContentDir receives published notes. Defaults to <site_dir>/content.
	ContentDir string `toml:"content_dir"`

	// PublicDir is the site builder's output. Defaults to <site_dir>/public.
	PublicDir string `toml:"public_dir"`

	// ReferencesDir holds reference notes, relative to the vault (default "references").
	ReferencesDir string `toml:"references_dir"`

	// SnapshotPath is the vault graph cache. Defaults to <vault>/.vpub/snapshot.db.
	SnapshotPath string `toml:"snapshot_path"`

	Build    BuildConfig    `toml:"build"`
	Deploy   DeployConfig   `toml:"deploy"`
	Htaccess HtaccessConfig `toml:"htaccess"`
	UI       UIConfig       `toml:"ui"`
}

// BuildConfig configures the site build step.
type BuildConfig struct {
	// Command overrides the build command. Defaults to
	// ["npx", "quartz", "build", "--concurrency", "<concurrency>"].
	Command []string `toml:"command"`

	// Concurrency is passed to the default Quartz build command.
	Concurrency int `toml:"concurrency"`
}

// DeployConfig configures rsync deployment.
type DeployConfig struct {
	// Target is the rsync destination (local path or host:path).
	Target string `toml:"target"`

	// Sudo runs rsync through sudo.
	Sudo bool `toml:"sudo"`

	// RsyncFlags replaces the default "-avz --delete".
	RsyncFlags []string `toml:"rsync_flags"`
}

// HtaccessConfig configures the generated .htaccess file.
type HtaccessConfig struct {
	// DisableAuth drops the basic-auth block.
	DisableAuth bool `toml:"disable_auth"`

	AuthName     string `toml:"auth_name"`
	AuthUserFile string `toml:"auth_user_file"`

	// Redirects are emitted as RewriteRule lines, e.g. for renamed notes.
	Redirects []Redirect `toml:"redirects"`
}

// Redirect maps an old URL pattern to a new location.
type Redirect struct {
	From string `toml:"from"`
	To   string `toml:"to"`
}

// UIConfig represents optional CLI theming preferences.
type UIConfig struct {
	// Accent is an ANSI color code ("0"-"255") or hex color ("#RRGGBB").
	Accent string `toml:"accent"`
}

// Paths holds the resolved, absolute locations vpub works with. It is built
// once at start-up and passed to the vault and site packages.
type Paths struct {
	Vault      string `json:"vault"`
	Site       string `json:"site,omitempty"`
	Content    string `json:"content,omitempty"`
	Public     string `json:"public,omitempty"`
	References string `json:"references"`
	Snapshot   string `json:"snapshot"`
}

// Load loads the configuration from the default location.
// Returns an empty config if the file doesn't exist.
func Load() (*Config, error) {
	configPath := DefaultPath()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return &Config{}, nil
	}

	return LoadFrom(configPath)
}

// LoadFrom loads the configuration from a specific path.
func LoadFrom(path string) (*Config, error) {
	var config Config
	if _, err := toml.DecodeFile(path, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return &config, nil
}

// ResolveConfigPath returns the config file that Load/LoadFrom would read.
func ResolveConfigPath(explicit string) string {
	if strings.TrimSpace(explicit) != "" {
		return explicit
	}
	return DefaultPath()
}

// DefaultPath returns the default config file path.
// Checks ~/.config/vpub/config.toml first, then the OS config dir.
func DefaultPath() string {
	if home, err := os.UserHomeDir(); err == nil {
		xdgPath := filepath.Join(home, ".config", "vpub", "config.toml")
		if _, err := os.Stat(xdgPath); err == nil {
			return xdgPath
		}
	}

	if configDir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(configDir, "vpub", "config.toml")
	}

	return filepath.Join(".", "config.toml")
}

// CreateDefault writes a commented default config to path if it doesn't exist.
func CreateDefault(path string) (created bool, err error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return false, fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, []byte(defaultConfig), 0644); err != nil {
		return false, fmt.Errorf("failed to write config file: %w", err)
	}
	return true, nil
}

const defaultConfig = `# vpub configuration

# Root of your Markdown vault
vault = "~/writing/obsidian/main"

# Static-site project (Quartz checkout)
site_dir = "~/projects/quartz"
# content_dir = "~/projects/quartz/content"
# public_dir = "~/projects/quartz/public"

# Reference notes checked by 'vpub validate references' and 'vpub extract-urls'
# references_dir = "references"

# Vault graph cache used by 'vpub check-links --cached'
# snapshot_path = "~/writing/obsidian/main/.vpub/snapshot.db"

[build]
# command = ["npx", "quartz", "build", "--concurrency", "12"]
concurrency = 12

[deploy]
target = "/var/www/html/"
sudo = true
# rsync_flags = ["-avz", "--delete"]

[htaccess]
auth_name = "Restricted Content"
auth_user_file = "/etc/apache2/.htpasswd"
# [[htaccess.redirects]]
# from = "^.*old-note-name$"
# to = "/logs/new-note-name"

# [ui]
# accent = "39"
`

// Paths resolves configured locations to absolute paths and applies defaults.
func (c *Config) Paths() (Paths, error) {
	if strings.TrimSpace(c.Vault) == "" {
		return Paths{}, ErrNoVault
	}

	var p Paths
	var err error
	if p.Vault, err = absPath(c.Vault); err != nil {
		return Paths{}, err
	}

	if c.SiteDir != "" {
		if p.Site, err = absPath(c.SiteDir); err != nil {
			return Paths{}, err
		}
	}

	p.Content, err = pathOrDefault(c.ContentDir, p.Site, "content")
	if err != nil {
		return Paths{}, err
	}
	p.Public, err = pathOrDefault(c.PublicDir, p.Site, "public")
	if err != nil {
		return Paths{}, err
	}

	refs := c.ReferencesDir
	if refs == "" {
		refs = "references"
	}
	if filepath.IsAbs(ExpandHome(refs)) {
		p.References = filepath.Clean(ExpandHome(refs))
	} else {
		p.References = filepath.Join(p.Vault, refs)
	}

	p.Snapshot, err = pathOrDefault(c.SnapshotPath, filepath.Join(p.Vault, ".vpub"), "snapshot.db")
	if err != nil {
		return Paths{}, err
	}

	return p, nil
}

// BuildCommand returns the configured site build command.
func (c *Config) BuildCommand() []string {
	if len(c.Build.Command) > 0 {
		return append([]string(nil), c.Build.Command...)
	}
	concurrency := c.Build.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultBuildConcurrency
	}
	return []string{"npx", "quartz", "build", "--concurrency", fmt.Sprintf("%d", concurrency)}
}

// RsyncFlags returns the rsync flags used for deployment.
func (c *Config) RsyncFlags() []string {
	if len(c.Deploy.RsyncFlags) > 0 {
		return append([]string(nil), c.Deploy.RsyncFlags...)
	}
	return []string{"-avz", "--delete"}
}

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}

func absPath(p string) (string, error) {
	abs, err := filepath.Abs(ExpandHome(p))
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", p, err)
	}
	return abs, nil
}

func pathOrDefault(configured, base, name string) (string, error) {
	if configured != "" {
		return absPath(configured)
	}
	if base == "" {
		return "", nil
	}
	return filepath.Join(base, name), nil
}
