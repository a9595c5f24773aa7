package cli

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/vpub/internal/meta"
	"github.com/aidanlsb/vpub/internal/note"
	"github.com/aidanlsb/vpub/internal/ui"
	"github.com/aidanlsb/vpub/internal/vault"
)

var extractURLsCmd = &cobra.Command{
	Use:   "extract-urls",
	Short: "Copy each reference note's first URL into its body",
	Long: `For every note in the references folder, prepends a line

  #vpub/url_extraction [page-title](url)

built from the first url* frontmatter key. Notes that already carry the marker
are skipped; notes without a URL are reported and left unchanged.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat(dirs.References); err != nil {
			return handleError(ErrFileNotFound, err, "Set references_dir in the config")
		}

		changed := []string{}
		var warnings []Warning
		failures, err := walkNotes(dirs.References, func(r vault.WalkResult) error {
			ok, err := meta.ExtractURL(r.Note)
			if errors.Is(err, note.ErrNoURL) {
				logs.Warn("no url in frontmatter", "file", r.RelativePath)
				warnings = append(warnings, Warning{Code: WarnURLMissing, Message: "no url in frontmatter", File: r.RelativePath})
				return nil
			}
			if err != nil {
				return err
			}
			if !ok {
				logs.Skipped(r.RelativePath, "already extracted")
				return nil
			}
			if err := r.Note.Save(""); err != nil {
				return err
			}
			logs.Changed(r.RelativePath, "extracted url")
			changed = append(changed, r.RelativePath)
			return nil
		})
		if err != nil {
			return handleError(ErrFileWriteError, err, "")
		}

		if !isJSONOutput() {
			outln(ui.Successf("extracted urls %s", ui.Count(len(changed), "note", "notes")))
			if len(warnings) > 0 {
				outln(ui.Warningf("%s without a url", ui.Count(len(warnings), "note", "notes")))
			}
		}
		return batchResult(ErrFrontmatterInvalid, map[string]interface{}{"changed": changed}, warnings, len(changed), failures)
	},
}

func init() {
	rootCmd.AddCommand(extractURLsCmd)
}
