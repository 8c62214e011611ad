package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/backbone81/durable-log/pkg/commitlog"
)

// initCmd represents the init command.
var initCmd = &cobra.Command{
	Use:          "init",
	Short:        "Initializes a new commit log.",
	Long:         `Initializes a new commit log by creating its first empty segment.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		initialized, err := commitlog.IsInitialized(directory)
		if err != nil {
			return err
		}
		if initialized {
			return fmt.Errorf("commit log already initialized at %q", directory)
		}

		if err := commitlog.Init(directory); err != nil {
			return err
		}
		fmt.Printf("Commit log initialized at %q.\n", directory)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
