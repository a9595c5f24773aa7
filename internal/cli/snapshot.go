package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/vpub/internal/index"
	"github.com/aidanlsb/vpub/internal/ui"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Save the vault's link graph for 'check-links --cached'",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		v, failures, err := loadVault()
		if err != nil {
			return handleError(ErrInternal, err, "")
		}

		db, err := index.Open(dirs.Snapshot)
		if err != nil {
			return handleError(ErrSnapshotError, err, "")
		}
		defer db.Close()

		if err := db.Save(v); err != nil {
			return handleError(ErrSnapshotError, err, "")
		}
		info, err := db.Info()
		if err != nil {
			return handleError(ErrSnapshotError, err, "")
		}

		if !isJSONOutput() {
			outln(ui.Successf("saved snapshot to %s", ui.FilePath(dirs.Snapshot)))
			tbl := ui.NewTable(2)
			tbl.AddRow(ui.Hint("notes"), fmt.Sprint(info.Notes))
			tbl.AddRow(ui.Hint("published"), fmt.Sprint(info.Published))
			tbl.AddRow(ui.Hint("links"), fmt.Sprint(info.Links))
			tbl.AddRow(ui.Hint("saved"), info.SavedAt.Format(time.DateTime))
			outf("%s", tbl.String())
		}
		return batchResult(ErrFrontmatterInvalid, info, nil, info.Notes, failures)
	},
}

func init() {
	rootCmd.AddCommand(snapshotCmd)
}
