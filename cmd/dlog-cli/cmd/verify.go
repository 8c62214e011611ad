package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/backbone81/durable-log/pkg/commitlog"
)

// verifyCmd represents the verify command.
var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Checks the commit log for corruption.",
	Long: `Checks every record of every segment like the recovery on open does, without modifying anything. Fails when a
sealed segment is corrupted. A torn tail of the last segment is reported, as it is recovered on the next open.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		reports, err := commitlog.Verify(directory)
		if err != nil {
			logger.Error("The commit log is corrupted.", zap.String("directory", directory), zap.Error(err))
			return err
		}

		var records int64
		for _, report := range reports {
			records += report.Records
			if report.TailCause != nil {
				fmt.Printf("Segment %d has a torn tail at position %d which is cut off on the next open: %v\n",
					report.ID, report.Size, report.TailCause)
			}
		}
		fmt.Printf("Verified %d records in %d segments.\n", records, len(reports))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}
