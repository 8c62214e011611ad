package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/backbone81/durable-log/pkg/commitlog"
)

// describeCmd represents the describe command.
var describeCmd = &cobra.Command{
	Use:          "describe",
	Short:        "Provides detailed information about the commit log.",
	Long:         `Provides detailed information about every segment of the commit log. Nothing is modified.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		reports, err := commitlog.Inspect(directory, nil)
		if len(reports) == 0 && err == nil {
			return fmt.Errorf("no segment found in %q", directory)
		}
		for _, report := range reports {
			printReport(report)
		}
		return err
	},
}

func printReport(report commitlog.SegmentReport) {
	fmt.Printf("Segment:      %s\n", report.FilePath)
	fmt.Printf("Identifier:   %d\n", report.ID)
	fmt.Printf("File Size:    %d\n", report.FileSize)
	fmt.Printf("Valid Size:   %d\n", report.Size)
	fmt.Printf("Records:      %d\n", report.Records)
	if report.Records > 0 {
		fmt.Printf("First Offset: %d\n", report.FirstOffset)
		fmt.Printf("Last Offset:  %d\n", report.LastOffset)
	}
	fmt.Printf("Active:       %t\n", report.Last)
	switch {
	case report.TailCause == nil:
		fmt.Printf("Tail:         complete\n")
	case report.Last:
		fmt.Printf("Tail:         torn, %d bytes are cut off on the next open (%v)\n", report.FileSize-report.Size, report.TailCause)
	default:
		fmt.Printf("Tail:         corrupted (%v)\n", report.TailCause)
	}
	fmt.Println()
}

func init() {
	rootCmd.AddCommand(describeCmd)
}
