package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/prospect-cli/internal/exclusion"
)

// sourceRoster tags contacted records imported from a roster file.
const sourceRoster = "roster"

var contactedCmd = &cobra.Command{
	Use:   "contacted",
	Short: "Manage the contacted list excluded from searches",
}

var (
	contactedFile  string
	contactedOwner string
)

var contactedImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a CSV or XLSX roster into the contacted list",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		keys, stats, err := exclusion.ReadRoster(ctx, contactedFile)
		if err != nil {
			return err
		}

		st, err := initStore(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		added, err := st.MarkContacted(ctx, contactedOwner, sourceRoster, keys)
		if err != nil {
			return eris.Wrap(err, "mark contacted")
		}

		zap.L().Info("contacted: roster imported",
			zap.String("file", contactedFile),
			zap.String("owner", contactedOwner),
			zap.Int("rows", stats.Rows),
			zap.Int("added", added),
		)
		fmt.Fprintf(cmd.OutOrStdout(), "Imported %s: %d rows, %d keys, %d skipped, %d new\n", //nolint:errcheck
			contactedFile, stats.Rows, stats.Keys, stats.Skipped, added)
		return nil
	},
}

var contactedListCmd = &cobra.Command{
	Use:   "list",
	Short: "List contacted records",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		recs, err := st.ListContacted(ctx, contactedOwner)
		if err != nil {
			return eris.Wrap(err, "list contacted")
		}
		return renderContacted(cmd.OutOrStdout(), recs)
	},
}

func init() {
	contactedImportCmd.Flags().StringVar(&contactedFile, "file", "", "roster file (.csv or .xlsx)")
	_ = contactedImportCmd.MarkFlagRequired("file")
	contactedCmd.PersistentFlags().StringVar(&contactedOwner, "owner", "", "owner of the contacted records (empty lists all owners)")

	contactedCmd.AddCommand(contactedImportCmd)
	contactedCmd.AddCommand(contactedListCmd)
	rootCmd.AddCommand(contactedCmd)
}
