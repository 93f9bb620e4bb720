package main

import (
	"fmt"
	"text/tabwriter"

	"mezzanine/internal/errors"
	"mezzanine/internal/migration"

	"github.com/spf13/cobra"
)

func newSessionsCmd(flags *overrides) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List stored sessions, most recently updated first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rt, err := setup(ctx, flags)
			if err != nil {
				return err
			}
			defer rt.Close()

			sessions, err := rt.games.List(ctx, limit)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tGAME\tSTATE\tUPDATED\tCONCLUSION")
			for _, s := range sessions {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", s.ID, s.Game, s.State, s.UpdatedAt.Format("2006-01-02 15:04:05"), s.Conclusion)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of sessions (0 for all)")
	return cmd
}

func newMigrateCmd(flags *overrides) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the session tables in the DATABASE_URL database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			if !cfg.Database.Enabled() {
				return errors.ConfigInvalid("DATABASE_URL is required")
			}
			db, err := openDatabase(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer db.Close()
			fmt.Fprintf(cmd.OutOrStdout(), "Schema at version %s\n", migration.NewRunner().Version())
			return nil
		},
	}
}
