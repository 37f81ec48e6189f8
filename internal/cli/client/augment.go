package client

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// AugmentResponse represents the augment API response.
type AugmentResponse struct {
	Enqueued []string `json:"enqueued"`
}

// AugmentCmd creates the augment command.
func AugmentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "augment <slug>",
		Short: "Schedule augmentation jobs for a post",
		Long:  "Enqueues the tag, category, and RAG preparation jobs for a post. Jobs already pending are not duplicated.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runAugment(cmd, args[0], outputJSON)
		},
	}

	return cmd
}

func runAugment(cmd *cobra.Command, slug string, outputJSON bool) error {
	api := NewAPIClient(cmd)

	resp, err := api.Post(fmt.Sprintf("/posts/%s/augment", slug), nil)
	if err != nil {
		return err
	}

	var result AugmentResponse
	if err := json.Unmarshal(resp.Data, &result); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(output))
		return nil
	}

	for _, kind := range result.Enqueued {
		fmt.Printf("enqueued %s job for %s\n", kind, slug)
	}
	return nil
}
