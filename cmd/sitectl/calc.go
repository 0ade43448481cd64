package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/northbeam/leadsite/internal/calculator"
	"github.com/northbeam/leadsite/internal/service"
)

func newCalcCmd() *cobra.Command {
	var input string

	toolNames := make([]string, len(calculator.Tools))
	for i, t := range calculator.Tools {
		toolNames[i] = string(t)
	}

	long := "Run a calculator locally. Tools: " + strings.Join(toolNames, ", ") + ".\n\n" +
		"Pass the input with --input '<json>' or --input - to read it from stdin."

	cmd := &cobra.Command{
		Use:       "calc <tool>",
		Short:     "Run a calculator and print the result as JSON",
		Long:      long,
		Args:      cobra.ExactArgs(1),
		ValidArgs: toolNames,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw := input
			if raw == "-" {
				b, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
				raw = string(b)
			}

			result, err := service.Calculate(args[0], json.RawMessage(raw))
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}
	cmd.Flags().StringVar(&input, "input", "", "calculator input as JSON, or - for stdin")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}
