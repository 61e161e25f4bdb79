// Command quizctl runs the assessment engine offline: list and validate the
// question bank, score an answers file, render the PDF and compare types.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/nyashahama/realyou-backend/internal/content"
)

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "quizctl",
		Short:         "Offline tools for the RealYou assessment",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)

	root.AddCommand(
		newQuestionsCmd(),
		newValidateCmd(),
		newScoreCmd(),
		newPDFCmd(),
		newCompatCmd(),
	)
	return root
}

// loadContent is shared by every subcommand.
func loadContent() (*content.Content, error) {
	c, err := content.Load()
	if err != nil {
		return nil, fmt.Errorf("load content: %w", err)
	}
	return c, nil
}
