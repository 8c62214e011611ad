package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/backbone81/durable-log/pkg/commitlog"
)

var (
	dumpFrom  uint64
	dumpLimit uint64
)

// errDumpLimit stops the inspection once enough records were printed.
var errDumpLimit = errors.New("dump limit reached")

// dumpCmd represents the dump command.
var dumpCmd = &cobra.Command{
	Use:          "dump",
	Short:        "Prints the records of the commit log.",
	Long:         `Prints the offset and the payload of the records of the commit log. Nothing is modified.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		var printed uint64
		_, err := commitlog.Inspect(directory, func(segmentID uint64, value commitlog.ScanValue) error {
			if value.Header.Offset < dumpFrom {
				return nil
			}
			if dumpLimit > 0 && printed >= dumpLimit {
				return errDumpLimit
			}
			fmt.Printf("%d\t%q\n", value.Header.Offset, value.Payload)
			printed++
			return nil
		})
		if err != nil && !errors.Is(err, errDumpLimit) {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dumpCmd)

	dumpCmd.Flags().Uint64Var(&dumpFrom, "from", 0, "The offset of the first record to print.")
	dumpCmd.Flags().Uint64Var(&dumpLimit, "limit", 0, "The maximum number of records to print. Zero prints all.")
}
