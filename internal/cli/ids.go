package cli

import (
	"github.com/spf13/cobra"

	"github.com/aidanlsb/vpub/internal/meta"
	"github.com/aidanlsb/vpub/internal/ui"
	"github.com/aidanlsb/vpub/internal/vault"
)

var addIDsCmd = &cobra.Command{
	Use:   "add-ids",
	Short: "Give every note matching id and permalink fields",
	Long: `Fills in missing id and permalink frontmatter across the vault.

A note with only one of the two gets the other copied from it; a note with
neither gets a new UUID for both. Notes that already have both are untouched,
so running the command twice changes nothing the second time.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		changed := []string{}
		failures, err := walkNotes(dirs.Vault, func(r vault.WalkResult) error {
			if !meta.AssignIDs(r.Note, meta.NewID) {
				return nil
			}
			if err := r.Note.Save(""); err != nil {
				return err
			}
			logs.Changed(r.RelativePath, "assigned id")
			changed = append(changed, r.RelativePath)
			return nil
		})
		if err != nil {
			return handleError(ErrFileWriteError, err, "")
		}

		if !isJSONOutput() {
			outln(ui.Successf("assigned ids %s", ui.Count(len(changed), "note", "notes")))
		}
		return batchResult(ErrFrontmatterInvalid, map[string]interface{}{"changed": changed}, nil, len(changed), failures)
	},
}

func init() {
	rootCmd.AddCommand(addIDsCmd)
}
