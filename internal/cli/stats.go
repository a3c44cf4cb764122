package cli

import (
	"context"
	"fmt"

	flag "github.com/spf13/pflag"
)

// StatsCmd returns the stats command: print lattice summary statistics,
// optionally exporting a full JSON snapshot.
func StatsCmd(e *env) *Command {
	fs := flag.NewFlagSet("stats", flag.ContinueOnError)
	fs.String("export", "", "Also export a full token/edge snapshot to `file` as JSON")

	return &Command{
		Flags: fs,
		Usage: "stats",
		Short: "Print lattice summary statistics",
		Exec: func(ctx context.Context, o *IO, _ []string) error {
			exportPath, _ := fs.GetString("export")
			return execStats(ctx, o, e, exportPath)
		},
	}
}

func execStats(ctx context.Context, o *IO, e *env, exportPath string) error {
	stats, err := e.lat.Stats(ctx)
	if err != nil {
		return fmt.Errorf("stats: %w", err)
	}

	o.Printf("tokens=%d edges=%d\n", stats.TokenCount, stats.EdgeCount)
	o.Printf("total_strength=%d total_edge_weight=%d\n", stats.TotalStrength, stats.TotalEdgeWeight)
	o.Printf("max_strength=%d max_degree=%d\n", stats.MaxStrength, stats.MaxDegree)
	o.Printf("strength_p50=%d strength_p90=%d strength_p99=%d\n",
		stats.StrengthP50, stats.StrengthP90, stats.StrengthP99)

	if exportPath != "" {
		if err := e.lat.ExportSnapshot(ctx, exportPath); err != nil {
			return fmt.Errorf("export snapshot: %w", err)
		}

		o.Println("snapshot written to", exportPath)
	}

	return nil
}
