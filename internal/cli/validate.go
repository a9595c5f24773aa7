package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/vpub/internal/meta"
	"github.com/aidanlsb/vpub/internal/note"
	"github.com/aidanlsb/vpub/internal/ui"
	"github.com/aidanlsb/vpub/internal/vault"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check note frontmatter",
}

var validateReferencesCmd = &cobra.Command{
	Use:   "references",
	Short: "Check that reference notes have page-title and url",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat(dirs.References); err != nil {
			return handleError(ErrFileNotFound, err, "Set references_dir in the config")
		}
		checked, failures, err := validateNotes(dirs.References, meta.ValidateReference)
		if err != nil {
			return handleError(ErrInternal, err, "")
		}
		return finishValidation(checked, failures)
	},
}

var validateFilesCmd = &cobra.Command{
	Use:   "files",
	Short: "Check reference notes, then that every note has matching id and permalink",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var checked int
		var failures []fileFailure

		if _, err := os.Stat(dirs.References); err == nil {
			n, refFailures, err := validateNotes(dirs.References, meta.ValidateReference)
			if err != nil {
				return handleError(ErrInternal, err, "")
			}
			checked += n
			failures = append(failures, refFailures...)
		}

		n, idFailures, err := validateNotes(dirs.Vault, meta.ValidateIdentity)
		if err != nil {
			return handleError(ErrInternal, err, "")
		}
		checked += n
		failures = append(failures, idFailures...)

		return finishValidation(checked, failures)
	},
}

// validateNotes runs check on every note under dir. Unparseable notes count
// as failures too.
func validateNotes(dir string, check func(*note.Note) error) (int, []fileFailure, error) {
	checked := 0
	var invalid []fileFailure
	parseFailures, err := walkNotes(dir, func(r vault.WalkResult) error {
		checked++
		if err := check(r.Note); err != nil {
			if !isJSONOutput() {
				outln(ui.Errorf("invalid frontmatter in %s: %v", ui.FilePath(r.RelativePath), err))
			}
			invalid = append(invalid, fileFailure{File: r.RelativePath, Error: err.Error()})
		}
		return nil
	})
	return checked + len(parseFailures), append(parseFailures, invalid...), err
}

func finishValidation(checked int, failures []fileFailure) error {
	if !isJSONOutput() && len(failures) == 0 {
		outln(ui.Successf("all notes valid %s", ui.Count(checked, "note", "notes")))
	}
	data := map[string]interface{}{"checked": checked}
	if err := batchResult(ErrValidationFailed, data, nil, checked, failures); err != nil {
		if errors.Is(err, errReported) {
			return err
		}
		return fmt.Errorf("%d of %d notes failed validation", len(failures), checked)
	}
	return nil
}

func init() {
	validateCmd.AddCommand(validateReferencesCmd)
	validateCmd.AddCommand(validateFilesCmd)
	rootCmd.AddCommand(validateCmd)
}
