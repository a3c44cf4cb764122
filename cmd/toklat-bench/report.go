package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// writeReport renders results as a markdown table, grounded on tk-bench's
// getSystemInfo/report-header style, and writes it to a timestamped file
// under cfg.OutDir.
func writeReport(cfg *config, results []runResult) error {
	var sb strings.Builder

	sb.WriteString("# toklat-bench report\n\n")
	sb.WriteString(systemInfo())

	sb.WriteString(fmt.Sprintf("vocab=%d doc-words=%d seed=%d\n\n", cfg.VocabSize, cfg.DocWords, cfg.Seed))

	sb.WriteString("| docs | codepoints | tokens | train time | cp/s | decode time | decode/s |\n")
	sb.WriteString("|---|---|---|---|---|---|---|\n")

	for _, r := range results {
		cps := rate(r.codepoints, r.trainTime)
		decodeRate := rate(int64(r.decodeRuns), r.decodeTime)

		sb.WriteString(fmt.Sprintf(
			"| %d | %d | %d | %s | %.0f | %s | %.1f |\n",
			r.docCount, r.codepoints, r.tokens, r.trainTime.Round(time.Millisecond), cps,
			r.decodeTime.Round(time.Millisecond), decodeRate,
		))
	}

	reportPath := filepath.Join(cfg.OutDir, fmt.Sprintf("report-%s.md", time.Now().UTC().Format("20060102-150405")))

	if err := os.WriteFile(reportPath, []byte(sb.String()), 0o644); err != nil { //nolint:gosec // report file, not sensitive
		return fmt.Errorf("write report: %w", err)
	}

	fmt.Fprintf(os.Stdout, "wrote %s\n", reportPath)

	return nil
}

func rate(count int64, elapsed time.Duration) float64 {
	if elapsed <= 0 {
		return 0
	}

	return float64(count) / elapsed.Seconds()
}
