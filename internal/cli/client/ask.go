package client

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// AskRequest represents the ask API request.
type AskRequest struct {
	Question string `json:"question"`
}

// AskResponse represents the ask API response.
type AskResponse struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// AskCmd creates the ask command.
func AskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask <slug> <question...>",
		Short: "Ask a question about a post",
		Long:  "Sends a single question about a post and prints the answer.",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runAsk(cmd, args[0], strings.Join(args[1:], " "), outputJSON)
		},
	}

	return cmd
}

func runAsk(cmd *cobra.Command, slug, question string, outputJSON bool) error {
	api := NewAPIClient(cmd)

	resp, err := api.Post(fmt.Sprintf("/posts/%s/ask", slug), AskRequest{Question: question})
	if err != nil {
		return err
	}

	var answer AskResponse
	if err := json.Unmarshal(resp.Data, &answer); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, err := json.MarshalIndent(answer, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(output))
		return nil
	}

	fmt.Println(answer.Answer)
	return nil
}
