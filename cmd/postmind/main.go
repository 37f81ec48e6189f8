package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/inkwell-labs/postmind/internal/cli"
	"github.com/inkwell-labs/postmind/internal/cli/client"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "postmind",
		Short: "Postmind CLI - AI augmentation for blog posts",
		Long: `Postmind CLI provides commands to talk to a postmind server.

Environment variables:
  POSTMIND_API_URL   API base URL (default: http://localhost:8080)`,
		Version: version,
	}

	rootCmd.PersistentFlags().Bool("output", false, "Output as JSON")
	rootCmd.PersistentFlags().String("api-url", "", "API base URL (overrides env)")
	cli.AddHelpJSONFlag(rootCmd)

	rootCmd.AddCommand(client.AskCmd())
	rootCmd.AddCommand(client.ChatCmd())
	rootCmd.AddCommand(client.AugmentCmd())

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
