package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/inkwell-labs/postmind/internal/cli"
	"github.com/inkwell-labs/postmind/internal/cli/admin"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "postmindd",
		Short: "Postmind daemon",
		Long:  "Postmind daemon for running the API server and the augmentation job worker",
	}

	cli.AddHelpJSONFlag(rootCmd)
	rootCmd.AddCommand(admin.ServeCmd())

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
