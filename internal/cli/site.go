package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/vpub/internal/site"
	"github.com/aidanlsb/vpub/internal/ui"
)

var deployBuild bool

// newRunner returns the runner for external commands. Their output goes to
// stderr in JSON mode so stdout stays parseable. Tests replace it.
var newRunner = func() site.Runner {
	if isJSONOutput() {
		return site.ExecRunner{Stdout: stderr, Stderr: stderr}
	}
	return site.ExecRunner{Stdout: stdout, Stderr: stderr}
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Copy published notes into the site's content folder",
	Long: `Deletes the content folder and writes every note marked publish: "true" to
the same vault-relative path inside it.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		v, failures, err := loadVault()
		if err != nil {
			return handleError(ErrInternal, err, "")
		}

		res, err := site.CopyPublished(v, dirs.Content, logs)
		if err != nil {
			return handleSiteError(err)
		}

		if !isJSONOutput() {
			outln(ui.Successf("copied %s to %s", ui.Count(len(res.Copied), "note", "notes"), ui.FilePath(dirs.Content)))
		}
		return batchResult(ErrFrontmatterInvalid, res, nil, len(res.Copied), failures)
	},
}

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the site and write its .htaccess",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := site.Build(cmd.Context(), cfg, dirs, newRunner(), logs); err != nil {
			return handleSiteError(err)
		}
		if isJSONOutput() {
			outputSuccess(map[string]interface{}{"site": dirs.Site, "public": dirs.Public}, nil)
			return nil
		}
		outln(ui.Successf("built %s", ui.FilePath(dirs.Public)))
		return nil
	},
}

var htaccessCmd = &cobra.Command{
	Use:   "htaccess",
	Short: "Write .htaccess into the built site",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := site.WriteHtaccess(dirs.Public, cfg.Htaccess)
		if err != nil {
			return handleSiteError(err)
		}
		if isJSONOutput() {
			outputSuccess(map[string]interface{}{"path": path}, nil)
			return nil
		}
		outln(ui.Successf("wrote %s", ui.FilePath(path)))
		return nil
	},
}

var deployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Sync the built site to the deploy target with rsync",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		runner := newRunner()
		if deployBuild {
			if err := site.Build(cmd.Context(), cfg, dirs, runner, logs); err != nil {
				return handleSiteError(err)
			}
		}
		if err := site.Deploy(cmd.Context(), cfg, dirs, runner, logs); err != nil {
			return handleSiteError(err)
		}
		if isJSONOutput() {
			outputSuccess(map[string]interface{}{"target": cfg.Deploy.Target, "built": deployBuild}, nil)
			return nil
		}
		outln(ui.Successf("deployed to %s", ui.FilePath(cfg.Deploy.Target)))
		return nil
	},
}

func handleSiteError(err error) error {
	var cmdErr *site.CommandError
	switch {
	case errors.As(err, &cmdErr):
		return handleError(ErrExternalCommandFailed, err, "")
	case errors.Is(err, site.ErrNoSiteDir):
		return handleError(ErrSiteNotConfigured, err, "Set site_dir in the config")
	case errors.Is(err, site.ErrNoDeployTarget):
		return handleError(ErrSiteNotConfigured, err, "Set [deploy] target in the config")
	case errors.Is(err, site.ErrUnsafeContentDir):
		return handleError(ErrConfigInvalid, err, "content_dir must not contain the vault")
	default:
		return handleError(ErrFileWriteError, err, "")
	}
}

func init() {
	deployCmd.Flags().BoolVar(&deployBuild, "build", false, "Build the site first")
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(htaccessCmd)
	rootCmd.AddCommand(deployCmd)
}
