package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	statex "github.com/tanpawarit/agent-sender/agent/state"
)

var (
	exportFormat string
	exportDir    string
)

var exportCmd = &cobra.Command{
	Use:       "export [leads|emails|steps]",
	Short:     "Export persisted records to CSV or XLSX",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{statex.ExportLeads, statex.ExportEmails, statex.ExportSteps},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		store, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer statex.Close(store)

		path, err := statex.Export(ctx, store, args[0], exportFormat, exportDir)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Exported %s to %s\n", args[0], path)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", statex.FormatCSV, "output format: csv or xlsx")
	exportCmd.Flags().StringVar(&exportDir, "dir", "logs", "directory for the exported file")
	rootCmd.AddCommand(exportCmd)
}
