package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var trimBefore uint64

// trimCmd represents the trim command.
var trimCmd = &cobra.Command{
	Use:          "trim",
	Short:        "Deletes old segments of the commit log.",
	Long:         `Deletes every sealed segment whose records all have an offset below the given offset.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		commitLog, err := openLog()
		if err != nil {
			return err
		}
		defer func() {
			err = errors.Join(err, commitLog.Close())
		}()

		removed, err := commitLog.TrimBefore(trimBefore)
		if err != nil {
			return err
		}
		if len(removed) == 0 {
			fmt.Println("No segment qualified for deletion.")
			return nil
		}
		for _, id := range removed {
			fmt.Printf("Deleted segment %d.\n", id)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(trimCmd)

	trimCmd.Flags().Uint64Var(&trimBefore, "before", 0, "Segments whose records are all below this offset are deleted.")
	_ = trimCmd.MarkFlagRequired("before")
}
