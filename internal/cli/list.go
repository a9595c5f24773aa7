package cli

import (
	"github.com/spf13/cobra"

	"github.com/aidanlsb/vpub/internal/vault"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List vault notes",
}

var listPublishedCmd = &cobra.Command{
	Use:   "published",
	Short: `List notes marked publish: "true"`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		published := []string{}
		failures, err := walkNotes(dirs.Vault, func(r vault.WalkResult) error {
			if r.Note.Published() {
				published = append(published, r.RelativePath)
			}
			return nil
		})
		if err != nil {
			return handleError(ErrInternal, err, "")
		}

		if !isJSONOutput() {
			for _, f := range published {
				outln(f)
			}
		}
		return batchResult(ErrFrontmatterInvalid, map[string]interface{}{"files": published}, nil, len(published), failures)
	},
}

var listFilesCmd = &cobra.Command{
	Use:   "files",
	Short: "List every note in the vault",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		files, err := vault.ListFiles(dirs.Vault, dirs.Vault)
		if err != nil {
			return handleError(ErrInternal, err, "")
		}
		if files == nil {
			files = []string{}
		}

		if isJSONOutput() {
			outputSuccess(map[string]interface{}{"files": files}, &Meta{Count: len(files)})
			return nil
		}
		for _, f := range files {
			outln(f)
		}
		return nil
	},
}

func init() {
	listCmd.AddCommand(listPublishedCmd)
	listCmd.AddCommand(listFilesCmd)
	rootCmd.AddCommand(listCmd)
}
