package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hyperengineering/ascent/internal/backup"
	"github.com/hyperengineering/ascent/internal/types"
	"github.com/hyperengineering/ascent/internal/validation"
)

var (
	historyExercise string
	historyOutput   string
	historyFile     string
	historyAll      bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect and move session history",
	Long:  "List, export, import, delete, and back up the session history of an athlete.",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List logged sessions",
	Args:  cobra.NoArgs,
	RunE:  runHistoryList,
}

var historyExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export sessions as JSON Lines",
	Args:  cobra.NoArgs,
	RunE:  runHistoryExport,
}

var historyImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Import sessions from JSON Lines",
	Long:  "Import one JSON session per line. Invalid lines are reported and skipped; sessions matching an existing exercise, date and type replace it.",
	Args:  cobra.NoArgs,
	RunE:  runHistoryImport,
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <session-id>",
	Short: "Delete one logged session",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryDelete,
}

var historyBackupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Upload history to the configured backup bucket",
	Long:  "Export history as JSON Lines and upload it to S3-compatible storage. Backs up the --athlete athlete, or every athlete with --all.",
	Args:  cobra.NoArgs,
	RunE:  runHistoryBackup,
}

func init() {
	historyListCmd.Flags().StringVarP(&historyExercise, "exercise", "e", "", "Only sessions of this exercise")
	historyExportCmd.Flags().StringVarP(&historyExercise, "exercise", "e", "", "Only sessions of this exercise")
	historyExportCmd.Flags().StringVarP(&historyOutput, "output", "o", "", "Output file (default: stdout)")
	historyImportCmd.Flags().StringVarP(&historyFile, "file", "f", "", "JSON Lines file (default: stdin)")
	historyBackupCmd.Flags().BoolVar(&historyAll, "all", false, "Back up every athlete")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyExportCmd)
	historyCmd.AddCommand(historyImportCmd)
	historyCmd.AddCommand(historyDeleteCmd)
	historyCmd.AddCommand(historyBackupCmd)
}

// checkExercise rejects an unknown --exercise filter.
func checkExercise(id string) error {
	if id == "" {
		return nil
	}
	catalog, err := loadCatalog()
	if err != nil {
		return err
	}
	_, err = catalog.Get(id)
	return err
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if err := checkExercise(historyExercise); err != nil {
		return err
	}
	mgr, a, err := openAthlete(ctx)
	if err != nil {
		return err
	}
	defer mgr.Close()

	sessions, err := a.Store.ListSessions(ctx, historyExercise)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		if sessions == nil {
			sessions = []types.Session{}
		}
		return printJSON(out, map[string]any{
			"sessions": sessions,
			"total":    len(sessions),
		})
	}

	if len(sessions) == 0 {
		fmt.Fprintln(out, "No sessions found.")
		return nil
	}

	w := newTabWriter(out)
	fmt.Fprintln(w, "DATE\tEXERCISE\tTYPE\tVARIANT\tREPS\tBODYWEIGHT\tID")
	for _, s := range sessions {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%.1f kg\t%s\n",
			s.Date,
			s.ExerciseID,
			s.SessionType,
			s.Variant,
			describeSets(s),
			s.BodyweightKg,
			s.ID,
		)
	}
	return w.Flush()
}

func runHistoryExport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if err := checkExercise(historyExercise); err != nil {
		return err
	}
	mgr, a, err := openAthlete(ctx)
	if err != nil {
		return err
	}
	defer mgr.Close()

	w := cmd.OutOrStdout()
	if historyOutput != "" && historyOutput != "-" {
		f, err := os.Create(historyOutput)
		if err != nil {
			return fmt.Errorf("create export file: %w", err)
		}
		defer f.Close()
		w = f
	}

	n, err := a.Store.ExportJSONL(ctx, w, historyExercise)
	if err != nil {
		return err
	}
	if historyOutput != "" && historyOutput != "-" {
		fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d sessions to %s\n", n, historyOutput)
	}
	return nil
}

func runHistoryImport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	catalog, err := loadCatalog()
	if err != nil {
		return err
	}
	in, err := openInput(cmd, historyFile)
	if err != nil {
		return err
	}
	defer in.Close()

	mgr, a, err := openAthlete(ctx)
	if err != nil {
		return err
	}
	defer mgr.Close()

	res, err := a.Store.ImportJSONL(ctx, in, func(s types.Session) error {
		def, err := catalog.Get(s.ExerciseID)
		if err != nil {
			return err
		}
		if errs := validation.ValidateSession(s, def); len(errs) > 0 {
			return validation.Errors(errs)
		}
		return nil
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, res)
	}

	fmt.Fprintf(out, "Imported %d, replaced %d, rejected %d\n", res.Imported, res.Replaced, res.Rejected)
	for _, e := range res.Errors {
		fmt.Fprintf(cmd.ErrOrStderr(), "  %s\n", e)
	}
	return nil
}

func runHistoryDelete(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	id := args[0]

	if verr := validation.ValidateULID("session_id", id); verr != nil {
		return verr
	}
	mgr, a, err := openAthlete(ctx)
	if err != nil {
		return err
	}
	defer mgr.Close()

	if err := a.Store.DeleteSession(ctx, id); err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), map[string]any{
			"id":      id,
			"deleted": true,
		})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted session %s\n", id)
	return nil
}

func runHistoryBackup(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if cfg.Backup.Bucket == "" {
		return fmt.Errorf("%w: set backup.bucket or ASCENT_BACKUP_BUCKET", backup.ErrNotConfigured)
	}
	uploader, err := backup.NewUploader(cfg.Backup)
	if err != nil {
		return err
	}
	mgr, err := resolveManager()
	if err != nil {
		return err
	}
	defer mgr.Close()

	runner := backup.NewRunner(mgr, uploader)
	out := cmd.OutOrStdout()

	if historyAll {
		sum, err := runner.BackupAll(ctx)
		if jsonOutput {
			if perr := printJSON(out, sum); perr != nil {
				return perr
			}
		} else {
			fmt.Fprintf(out, "Backed up %d athletes (%d sessions), %d failed\n", sum.Athletes, sum.Sessions, sum.Failed)
		}
		return err
	}

	n, err := runner.BackupAthlete(ctx, athleteID)
	if err != nil {
		return err
	}
	url, expiry, err := uploader.PresignedURL(ctx, athleteID)
	if err != nil && !errors.Is(err, backup.ErrNotConfigured) {
		return err
	}

	if jsonOutput {
		return printJSON(out, map[string]any{
			"athlete_id":   athleteID,
			"sessions":     n,
			"download_url": url,
			"url_expiry":   expiry,
		})
	}
	fmt.Fprintf(out, "Backed up %d sessions for athlete %q\n", n, athleteID)
	if url != "" {
		fmt.Fprintf(out, "Download (until %s): %s\n", expiry.Format("2006-01-02 15:04 MST"), url)
	}
	return nil
}
