package cli

import (
	"context"
	"encoding/json"
	"fmt"

	flag "github.com/spf13/pflag"
)

// PrintConfigCmd returns the print-config command.
func PrintConfigCmd(e *env) *Command {
	return &Command{
		Flags: flag.NewFlagSet("print-config", flag.ContinueOnError),
		Usage: "print-config",
		Short: "Show the resolved configuration",
		Exec: func(_ context.Context, o *IO, _ []string) error {
			data, err := json.MarshalIndent(e.cfg, "", "  ")
			if err != nil {
				return fmt.Errorf("print-config: %w", err)
			}

			o.Println(string(data))

			return nil
		},
	}
}
