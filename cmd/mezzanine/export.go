package main

import (
	"fmt"
	"os"

	"mezzanine/adapters/excel"
	"mezzanine/domain/core"
	"mezzanine/internal/report"
	"mezzanine/models"

	"github.com/spf13/cobra"
)

// reportBeliefs caps the leading hypotheses listed in reports
const reportBeliefs = 10

func newExportCmd(flags *overrides) *cobra.Command {
	var out, reportPath string

	cmd := &cobra.Command{
		Use:   "export <session-id>",
		Short: "Write a stored session to an Excel workbook",
		Long: `Write the header, the answered questions and the standing hypotheses of a
stored session to an Excel workbook, and optionally an HTML report.

Example: mezzanine export 0190f3c2-7d4e-7a8b-9c1d-2e3f4a5b6c7d --out session.xlsx --report session.html`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := core.ParseSessionID(args[0])
			if err != nil {
				return err
			}
			rt, err := setup(ctx, flags)
			if err != nil {
				return err
			}
			defer rt.Close()

			session, transcript, err := rt.games.Transcript(ctx, id)
			if err != nil {
				return err
			}
			beliefs, err := rt.games.Beliefs(ctx, id, 0)
			if err != nil {
				return err
			}
			if out == "" {
				out = "session-" + session.ID + ".xlsx"
			}
			return writeOutputs(cmd, session, transcript, beliefs, out, reportPath)
		},
	}

	cmd.Flags().StringVar(&out, "out", "", "workbook path (default session-<id>.xlsx)")
	cmd.Flags().StringVar(&reportPath, "report", "", "also write an HTML report to this path")
	return cmd
}

func newReplayCmd(flags *overrides) *cobra.Command {
	var out, reportPath string

	cmd := &cobra.Command{
		Use:   "replay <workbook.xlsx>",
		Short: "Restore a session from an exported workbook",
		Long: `Rebuild the session a workbook was exported from by answering its recorded
questions again, store it as a new session and print where it stands.

Example: mezzanine replay session.xlsx --out restored.xlsx`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			book, err := excel.ReadWorkbook(f)
			f.Close()
			if err != nil {
				return err
			}

			rt, err := setup(ctx, flags)
			if err != nil {
				return err
			}
			defer rt.Close()

			session, step, err := rt.games.Import(ctx, book.Session, book.Observations)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Restored session %s as %s (%d answers)\n", book.Session.ID, session.ID, len(book.Observations))
			if step.Prompt != nil {
				fmt.Fprintf(w, "Next question: does %s have the property? (%.3f bits expected, %d hypotheses remain)\n",
					step.Prompt.Subject, step.Prompt.Value, step.Prompt.Remaining)
			} else {
				printOutcome(w, subjectNoun(session.Game), step.Outcome)
			}

			if out == "" && reportPath == "" {
				return nil
			}
			id := core.SessionID(session.ID)
			session, transcript, err := rt.games.Transcript(ctx, id)
			if err != nil {
				return err
			}
			beliefs, err := rt.games.Beliefs(ctx, id, 0)
			if err != nil {
				return err
			}
			return writeOutputs(cmd, session, transcript, beliefs, out, reportPath)
		},
	}

	cmd.Flags().StringVar(&out, "out", "", "write the restored session to this workbook")
	cmd.Flags().StringVar(&reportPath, "report", "", "write an HTML report to this path")
	return cmd
}

func writeOutputs(cmd *cobra.Command, session *models.GameSession, transcript []models.TranscriptEntry, beliefs []models.BeliefView, out, reportPath string) error {
	if out != "" {
		if err := excel.SaveWorkbook(out, session, transcript, beliefs); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", out)
	}
	if reportPath != "" {
		page, err := report.Page(session, transcript, beliefs, reportBeliefs)
		if err != nil {
			return err
		}
		if err := os.WriteFile(reportPath, page, 0o644); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", reportPath)
	}
	return nil
}
