package client

import (
	"bufio"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

type chatFrame struct {
	Type     string `json:"type"`
	Question string `json:"question,omitempty"`
	Answer   string `json:"answer,omitempty"`
	Message  string `json:"message,omitempty"`
}

// ChatCmd creates the chat command.
func ChatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat <slug>",
		Short: "Open an interactive chat session about a post",
		Long:  "Connects to the post's websocket endpoint and relays questions from stdin until EOF.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd, args[0])
		},
	}

	return cmd
}

func runChat(cmd *cobra.Command, slug string) error {
	api := NewAPIClient(cmd)

	wsURL, err := websocketURL(api.BaseURL(), slug)
	if err != nil {
		return err
	}

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", wsURL, err)
	}
	defer conn.Close()

	var greeting chatFrame
	if err := conn.ReadJSON(&greeting); err != nil {
		return fmt.Errorf("failed to read greeting: %w", err)
	}
	if greeting.Type == "error" {
		return fmt.Errorf("server rejected session: %s", greeting.Message)
	}

	fmt.Printf("%s (ctrl-d to quit)\n", greeting.Message)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}

		if err := conn.WriteJSON(chatFrame{Question: question}); err != nil {
			return fmt.Errorf("failed to send question: %w", err)
		}

		var reply chatFrame
		if err := conn.ReadJSON(&reply); err != nil {
			return fmt.Errorf("connection closed: %w", err)
		}

		switch reply.Type {
		case "answer":
			fmt.Println(reply.Answer)
		case "error":
			fmt.Fprintf(os.Stderr, "error: %s\n", reply.Message)
		default:
			fmt.Fprintf(os.Stderr, "unexpected frame type %q\n", reply.Type)
		}
	}

	return scanner.Err()
}

// websocketURL converts the HTTP base URL into the ws endpoint for a post.
func websocketURL(baseURL, slug string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid API URL %q: %w", baseURL, err)
	}

	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported URL scheme %q", u.Scheme)
	}

	u.Path = strings.TrimRight(u.Path, "/") + fmt.Sprintf("/posts/%s/chat", slug)
	return u.String(), nil
}
