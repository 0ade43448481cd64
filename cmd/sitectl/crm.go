package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/northbeam/leadsite/internal/crm"
)

func newCRMCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crm",
		Short: "Inspect CRM event deliveries",
	}
	cmd.AddCommand(newCRMVerifyCmd())
	return cmd
}

func newCRMVerifyCmd() *cobra.Command {
	var (
		signature string
		timestamp int64
		secret    string
		bodyPath  string
		window    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check the signature of a captured CRM event",
		Long: "Check a captured CRM event against its " + crm.HeaderSignature + " and " +
			crm.HeaderTimestamp + " headers.\n\n" +
			"The secret defaults to CRM_WEBHOOK_SECRET. Pass the raw body with --body <file> or --body - for stdin.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				secret = lookupEnv("CRM_WEBHOOK_SECRET")
			}
			if secret == "" {
				return errors.New("--secret or CRM_WEBHOOK_SECRET is required")
			}

			var (
				body []byte
				err  error
			)
			if bodyPath == "-" {
				body, err = io.ReadAll(cmd.InOrStdin())
			} else {
				body, err = os.ReadFile(bodyPath)
			}
			if err != nil {
				return fmt.Errorf("read body: %w", err)
			}

			if err := crm.Verify(secret, signature, timestamp, body, time.Now(), window); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "signature valid")
			return nil
		},
	}

	cmd.Flags().StringVar(&signature, "signature", "", "value of the "+crm.HeaderSignature+" header")
	cmd.Flags().Int64Var(&timestamp, "timestamp", 0, "value of the "+crm.HeaderTimestamp+" header")
	cmd.Flags().StringVar(&secret, "secret", "", "shared secret (default $CRM_WEBHOOK_SECRET)")
	cmd.Flags().StringVar(&bodyPath, "body", "-", "file holding the raw request body, or - for stdin")
	cmd.Flags().DurationVar(&window, "window", crm.DefaultReplayWindow, "accepted clock skew")
	_ = cmd.MarkFlagRequired("signature")
	_ = cmd.MarkFlagRequired("timestamp")

	return cmd
}
