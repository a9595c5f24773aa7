package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/vpub/internal/ui"
	"github.com/aidanlsb/vpub/internal/vault"
)

var publishYes bool

type publishResult struct {
	Changed   []string `json:"changed"`
	Unchanged []string `json:"unchanged"`
}

var publishCmd = &cobra.Command{
	Use:   "publish <path>",
	Short: "Mark a note, or every note in a folder, as published",
	Long: `Sets publish: "true" in the frontmatter of the given note. When the path is a
folder every note below it is published after confirmation (or --yes).

The path may be vault-relative, absolute, or a note name such as "Team Retro".`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSetPublished(args[0], true)
	},
}

var unpublishCmd = &cobra.Command{
	Use:   "unpublish <path>",
	Short: "Mark a note, or every note in a folder, as not published",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSetPublished(args[0], false)
	},
}

func runSetPublished(ref string, publish bool) error {
	target, err := resolveTarget(ref)
	if err != nil {
		return err
	}
	info, err := os.Stat(target)
	if err != nil {
		return handleError(ErrFileNotFound, err, "")
	}

	if info.IsDir() {
		keys, err := vault.ListFiles(dirs.Vault, target)
		if err != nil {
			return handleError(ErrInternal, err, "")
		}
		if !publishYes {
			if !isJSONOutput() {
				outln(ui.Warningf("%s is a folder; this changes %d note(s):", relPath(target), len(keys)))
				for _, k := range keys {
					outln("  " + ui.FilePath(k))
				}
			}
			if !promptForConfirm("OK?") {
				return handleErrorMsg(ErrConfirmationRequired, "folder change not confirmed",
					"Re-run with --yes to apply without prompting")
			}
		}
	}

	action := "published"
	if !publish {
		action = "unpublished"
	}

	result := publishResult{Changed: []string{}, Unchanged: []string{}}
	failures, err := walkNotes(target, func(r vault.WalkResult) error {
		if r.Note.Published() == publish {
			result.Unchanged = append(result.Unchanged, r.RelativePath)
			logs.Skipped(r.RelativePath, "already "+action)
			return nil
		}
		r.Note.SetPublished(publish)
		if err := r.Note.Save(""); err != nil {
			return err
		}
		result.Changed = append(result.Changed, r.RelativePath)
		if !isJSONOutput() {
			outln(ui.Successf("%s %s", action, ui.FilePath(r.RelativePath)))
		}
		return nil
	})
	if err != nil {
		return handleError(ErrFileWriteError, err, "")
	}

	if !isJSONOutput() && len(result.Changed) == 0 && len(failures) == 0 {
		outln(ui.Infof("nothing to do: already %s", action))
	}
	return batchResult(ErrFrontmatterInvalid, result, nil, len(result.Changed), failures)
}

func init() {
	publishCmd.Flags().BoolVarP(&publishYes, "yes", "y", false, "Do not ask before changing a whole folder")
	unpublishCmd.Flags().BoolVarP(&publishYes, "yes", "y", false, "Do not ask before changing a whole folder")
	rootCmd.AddCommand(publishCmd)
	rootCmd.AddCommand(unpublishCmd)
}
