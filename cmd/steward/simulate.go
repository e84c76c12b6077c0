package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/propertystewards/steward/internal/phone"
	"github.com/propertystewards/steward/internal/webhook"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// payloadHandler is the slice of the pipeline the simulator drives.
type payloadHandler interface {
	Handle(ctx context.Context, payload webhook.Payload) (webhook.Result, error)
}

// consoleMessenger prints replies instead of sending them over WhatsApp.
type consoleMessenger struct {
	out io.Writer
}

func (c consoleMessenger) SendText(ctx context.Context, to, message string) error {
	_, err := fmt.Fprintf(c.out, "steward> %s\n", message)
	return err
}

func newSimulateCmd() *cobra.Command {
	var (
		configPath string
		number     string
	)

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Chat with Steward from the terminal as an inspector",
		Long: `Feeds each line of input through the webhook pipeline as if it came
from the given WhatsApp number, printing replies locally. Actions run against
the configured database. "/image <url>" and "/video <url>" send media;
"/quit" exits.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			a, err := loadApp(configPath, appOpts{messenger: consoleMessenger{out: out}})
			if err != nil {
				return err
			}
			defer a.Close()
			interactive := term.IsTerminal(int(os.Stdin.Fd()))
			return runSimulate(cmd.Context(), cmd.InOrStdin(), out, a.pipeline, number, interactive)
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().StringVar(&number, "phone", "", "inspector WhatsApp number to impersonate (required)")
	cmd.MarkFlagRequired("phone")
	return cmd
}

func runSimulate(ctx context.Context, in io.Reader, out io.Writer, h payloadHandler, number string, interactive bool) error {
	if _, err := phone.Normalize(number); err != nil {
		return err
	}

	scanner := bufio.NewScanner(in)
	for {
		if interactive {
			fmt.Fprint(out, "you> ")
		}
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "/quit" {
			return nil
		}

		result, err := h.Handle(ctx, simulatedPayload(number, line))
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			continue
		}
		switch result.Status {
		case webhook.StatusIgnored, webhook.StatusDuplicate:
			fmt.Fprintf(out, "(%s)\n", result.Status)
		}
	}
	return scanner.Err()
}

// simulatedPayload builds the webhook event for one line of input.
func simulatedPayload(number, line string) webhook.Payload {
	data := webhook.MessageData{
		ID:    uuid.NewString(),
		Phone: number,
		Type:  webhook.TypeText,
		Body:  line,
	}
	for _, kind := range []string{webhook.TypeImage, webhook.TypeVideo} {
		prefix := "/" + kind + " "
		if strings.HasPrefix(line, prefix) {
			data.Type = kind
			data.Body = ""
			data.URL = strings.TrimSpace(strings.TrimPrefix(line, prefix))
		}
	}
	return webhook.Payload{Event: "message", Data: data}
}
