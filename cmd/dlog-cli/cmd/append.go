package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

// appendCmd represents the append command.
var appendCmd = &cobra.Command{
	Use:          "append <payload>...",
	Short:        "Appends records to the commit log.",
	Long:         `Appends every argument as a record to the commit log and waits until they are durable.`,
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		commitLog, err := openLog()
		if err != nil {
			return err
		}
		defer func() {
			err = errors.Join(err, commitLog.Close())
		}()

		for _, payload := range args {
			offset, err := commitLog.AppendDurable(cmd.Context(), []byte(payload))
			if err != nil {
				return err
			}
			fmt.Printf("%d\n", offset)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(appendCmd)
}
