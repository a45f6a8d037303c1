package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"routineforge/internal/delivery"
	"routineforge/internal/intake"
	"routineforge/internal/orchestrator"
)

// event is the wire envelope forwarded by the commerce ingress.
type event struct {
	Type    string          `json:"type"`
	Session *intake.Session `json:"session,omitempty"`
	Fields  intake.FieldMap `json:"fields,omitempty"`
}

// triggerTypes are the event types that start a fulfillment run.
var triggerTypes = map[string]bool{
	"checkout.completed": true,
	"form.submitted":     true,
}

// processCmd runs one event through the fulfillment pipeline
var processCmd = &cobra.Command{
	Use:   "process [event.json]",
	Short: "Process a commerce event through the fulfillment pipeline",
	Long: `Process reads an event envelope (a checkout session or an intake form
submission) from the given file, or from stdin when the path is "-", and
runs it through the full pipeline. The structured result is printed as
JSON.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		p, err := buildPipeline(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer p.Close()

		src := &eventSource{
			path:       args[0],
			normalizer: newNormalizer(),
		}

		result, err := p.orchestrator.Fulfill(ctx, src)
		out, merr := json.MarshalIndent(result, "", "  ")
		if merr != nil {
			return fmt.Errorf("failed to encode result: %w", merr)
		}
		fmt.Println(string(out))
		return err
	},
}

// newNormalizer builds the intake normalizer, wiring the follow-up email
// notifier when SMTP is configured.
func newNormalizer() *intake.Normalizer {
	var notifier intake.Notifier
	if cfg.Delivery.Email.Host != "" {
		notifier = &emailNotifier{
			sender: delivery.NewSMTPSender(delivery.SMTPConfig{
				Host:     cfg.Delivery.Email.Host,
				Port:     cfg.Delivery.Email.Port,
				From:     cfg.Delivery.Email.From,
				Username: cfg.Delivery.Email.Username,
				Password: cfg.Delivery.Email.Password,
			}),
		}
	}
	return intake.NewNormalizer(intake.NormalizerConfig{
		Notifier: notifier,
		Logger:   logger.Named("intake"),
	})
}

// eventSource normalizes the event file on demand. Each call re-reads the
// file so a retry sees the latest contents. Stdin is buffered on first
// read since it cannot be re-read.
type eventSource struct {
	path       string
	normalizer *intake.Normalizer
	stdin      []byte
}

var _ orchestrator.IntakeSource = (*eventSource)(nil)

func (s *eventSource) Normalize(ctx context.Context) (*intake.Intake, error) {
	data, err := s.read()
	if err != nil {
		return nil, err
	}

	var ev event
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, fmt.Errorf("failed to parse event: %w", err)
	}
	if !triggerTypes[strings.TrimSpace(ev.Type)] {
		return nil, nil
	}

	if ev.Session != nil {
		return s.normalizer.FromSession(ctx, ev.Session)
	}
	if ev.Fields != nil {
		return s.normalizer.FromFields(ctx, ev.Fields), nil
	}
	return nil, fmt.Errorf("event carries neither session nor fields")
}

func (s *eventSource) read() ([]byte, error) {
	if s.path == "-" {
		if s.stdin == nil {
			data, err := io.ReadAll(os.Stdin)
			if err != nil {
				return nil, fmt.Errorf("failed to read stdin: %w", err)
			}
			s.stdin = data
		}
		return s.stdin, nil
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read event file: %w", err)
	}
	return data, nil
}

// emailNotifier asks the customer for missing intake details.
type emailNotifier struct {
	sender delivery.EmailSender
}

func (n *emailNotifier) RequestInfo(ctx context.Context, email string, missing []string) error {
	text := fmt.Sprintf(
		"Thanks for your order! To build your routine kit we still need: %s.\n\nJust reply to this email with the details.",
		strings.Join(missing, ", "))
	_, err := n.sender.Send(ctx, email, "A quick question about your routine kit", text, "")
	return err
}
