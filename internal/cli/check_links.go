package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/vpub/internal/closure"
	"github.com/aidanlsb/vpub/internal/index"
	"github.com/aidanlsb/vpub/internal/ui"
	"github.com/aidanlsb/vpub/internal/vault"
)

var checkLinksCached bool

var checkLinksCmd = &cobra.Command{
	Use:   "check-links",
	Short: "Find unpublished notes that published notes link to",
	Long: `Walks the wikilinks of every published note through the unpublished part of
the vault and lists, per published note, the unpublished notes it reaches.
Links to notes that do not exist are listed separately.

With --cached the graph is read from the snapshot written by 'vpub snapshot'
instead of parsing the vault.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var v *vault.Vault
		var failures []fileFailure
		var err error
		if checkLinksCached {
			if v, err = loadSnapshot(); err != nil {
				return err
			}
		} else {
			if v, failures, err = loadVault(); err != nil {
				return handleError(ErrInternal, err, "")
			}
		}

		report := closure.Check(v, v.Published())

		var warnings []Warning
		for _, c := range v.Collisions() {
			warnings = append(warnings, Warning{
				Code:    WarnAmbiguousName,
				Message: fmt.Sprintf("%q matches %s", c.ShortName, strings.Join(c.Keys, ", ")),
			})
		}

		if !isJSONOutput() {
			if err := printReport(report); err != nil {
				return handleError(ErrInternal, err, "")
			}
			for _, w := range warnings {
				fmt.Fprintln(stderr, ui.Warningf("ambiguous note name: %s", w.Message))
			}
		}
		return batchResult(ErrFrontmatterInvalid, report, warnings, report.MissingCount(), failures)
	},
}

func printReport(report closure.Report) error {
	if isTerminalWriter(stdout) {
		display := ui.NewDisplayContext()
		rendered, err := ui.RenderMarkdown(closure.Markdown(report), display.AvailableWidth(ui.MarkdownRenderMargin))
		if err == nil {
			outf("%s", rendered)
			return nil
		}
	}
	if report.Clean() && len(report.Nonexistent) == 0 {
		outln(ui.Success("every published note links only to published notes"))
		return nil
	}
	return closure.Format(stdout, report)
}

// loadSnapshot opens the snapshot database and rebuilds the vault graph.
func loadSnapshot() (*vault.Vault, error) {
	db, err := index.Open(dirs.Snapshot)
	if err != nil {
		return nil, handleError(ErrSnapshotError, err, "")
	}
	defer db.Close()

	v, err := db.Load()
	if errors.Is(err, index.ErrSnapshotMissing) {
		return nil, handleError(ErrSnapshotMissing, err, "Run 'vpub snapshot' to create it")
	}
	if err != nil {
		return nil, handleError(ErrSnapshotError, err, "")
	}
	return v, nil
}

func init() {
	checkLinksCmd.Flags().BoolVar(&checkLinksCached, "cached", false, "Use the saved vault snapshot instead of parsing notes")
	rootCmd.AddCommand(checkLinksCmd)
}
