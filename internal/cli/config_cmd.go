package cli

import (
	"os"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/aidanlsb/vpub/internal/config"
	"github.com/aidanlsb/vpub/internal/ui"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the vpub config file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a commented default config if none exists",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.ResolveConfigPath(configPath)
		created, err := config.CreateDefault(path)
		if err != nil {
			return handleError(ErrFileWriteError, err, "")
		}

		if isJSONOutput() {
			outputSuccess(map[string]interface{}{"path": path, "created": created}, nil)
			return nil
		}
		if created {
			outln(ui.Successf("created %s", ui.FilePath(path)))
		} else {
			outln(ui.Infof("%s already exists", ui.FilePath(path)))
		}
		return nil
	},
}

type configShowData struct {
	ConfigPath string         `json:"config_path"`
	Exists     bool           `json:"exists"`
	Config     *config.Config `json:"config"`
	Paths      *config.Paths  `json:"paths,omitempty"`
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the loaded config and the paths it resolves to",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		loaded, path, err := loadGlobalConfigWithPath()
		if err != nil {
			return handleError(ErrConfigInvalid, err, "")
		}
		if vaultPathFlag != "" {
			loaded.Vault = vaultPathFlag
		}
		if contentPathFlag != "" {
			loaded.ContentDir = contentPathFlag
		}

		data := configShowData{ConfigPath: path, Config: loaded}
		if _, err := os.Stat(path); err == nil {
			data.Exists = true
		}
		if p, err := loaded.Paths(); err == nil {
			data.Paths = &p
		}

		if isJSONOutput() {
			outputSuccess(data, nil)
			return nil
		}

		status := "not found, using defaults"
		if data.Exists {
			status = "loaded"
		}
		outln(ui.Header("config") + " " + ui.FilePath(path) + " " + ui.Hint("("+status+")"))
		outln()
		if err := toml.NewEncoder(stdout).Encode(loaded); err != nil {
			return handleError(ErrInternal, err, "")
		}
		if data.Paths != nil {
			outln()
			outln(ui.Header("resolved paths"))
			tbl := ui.NewTable(2)
			tbl.AddRow(ui.Hint("vault"), data.Paths.Vault)
			tbl.AddRow(ui.Hint("site"), data.Paths.Site)
			tbl.AddRow(ui.Hint("content"), data.Paths.Content)
			tbl.AddRow(ui.Hint("public"), data.Paths.Public)
			tbl.AddRow(ui.Hint("references"), data.Paths.References)
			tbl.AddRow(ui.Hint("snapshot"), data.Paths.Snapshot)
			outf("%s", tbl.String())
		}
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}
