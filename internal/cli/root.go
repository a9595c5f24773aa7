// Package cli implements the command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/aidanlsb/vpub/internal/config"
	"github.com/aidanlsb/vpub/internal/logger"
	"github.com/aidanlsb/vpub/internal/ui"
)

var (
	// Global flags
	configPath      string
	vaultPathFlag   string
	contentPathFlag string
	verbose         bool

	// Resolved values, fixed for the rest of the run
	resolvedConfigPath string
	cfg                *config.Config
	dirs               config.Paths
	logs               *logger.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "vpub",
	Short: "vpub - publish notes from a Markdown vault",
	Long: `vpub manages which notes of a Markdown vault are published to a static site.

It marks notes with "publish" frontmatter, keeps ids and permalinks in sync,
copies published notes into the site generator's content folder, builds and
deploys the site, and checks that published notes only link to other
published notes.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := log.InfoLevel
		if verbose {
			level = log.DebugLevel
		}
		logs = logger.NewWithLevel(stderr, level)

		// Skip vault resolution for commands that don't need it
		switch cmd.Name() {
		case "completion", "help", "version":
			return nil
		}
		if cmd.Parent() != nil && (cmd.Parent().Name() == "completion" || cmd.Parent().Name() == "config") {
			return nil
		}

		var err error
		cfg, resolvedConfigPath, err = loadGlobalConfigWithPath()
		if err != nil {
			return handleError(ErrConfigInvalid, err, "")
		}
		ui.ConfigureTheme(cfg.UI.Accent)

		if vaultPathFlag != "" {
			cfg.Vault = vaultPathFlag
		}
		if contentPathFlag != "" {
			cfg.ContentDir = contentPathFlag
		}

		dirs, err = cfg.Paths()
		if errors.Is(err, config.ErrNoVault) {
			return handleErrorMsg(ErrVaultNotSpecified, "no vault specified",
				"Use --vault-path /path/to/vault or set vault in "+resolvedConfigPath+" (see 'vpub config init')")
		}
		if err != nil {
			return handleError(ErrConfigInvalid, err, "")
		}

		if info, err := os.Stat(dirs.Vault); err != nil || !info.IsDir() {
			return handleErrorMsg(ErrVaultNotFound, "vault not found: "+dirs.Vault, "")
		}
		return nil
	},
}

// Execute runs the CLI.
func Execute() error {
	return ExecuteContext(context.Background())
}

// ExecuteContext runs the CLI with ctx, which external commands (build,
// deploy) inherit.
func ExecuteContext(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	if err != nil && !errors.Is(err, errReported) {
		fmt.Fprintln(stderr, ui.Error(err.Error()))
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file")
	rootCmd.PersistentFlags().StringVar(&vaultPathFlag, "vault-path", "", "Path to the vault (overrides vault in config)")
	rootCmd.PersistentFlags().StringVar(&contentPathFlag, "content-path", "", "Site content folder (overrides content_dir in config)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format (for script use)")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Log skipped files and missing link targets")

	// Accept --vault_path as well as --vault-path.
	rootCmd.SetGlobalNormalizationFunc(func(f *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})
}

func loadGlobalConfigWithPath() (*config.Config, string, error) {
	resolvedPath := config.ResolveConfigPath(configPath)

	var loadedCfg *config.Config
	var err error
	if strings.TrimSpace(configPath) != "" {
		loadedCfg, err = config.LoadFrom(configPath)
	} else {
		loadedCfg, err = config.Load()
	}
	if err != nil {
		return nil, "", err
	}
	if loadedCfg == nil {
		loadedCfg = &config.Config{}
	}

	return loadedCfg, resolvedPath, nil
}
