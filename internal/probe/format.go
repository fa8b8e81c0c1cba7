package probe

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FormatText renders probe results as human-readable text.
func FormatText(results []*RunResult) string {
	var b strings.Builder

	totalSets := len(results)
	fmt.Fprintf(&b, "Running %d probe set", totalSets)
	if totalSets != 1 {
		b.WriteString("s")
	}
	b.WriteString("...\n\n")

	totalSteps := 0
	totalPassed := 0
	failedSets := 0

	for _, r := range results {
		totalSteps += r.Total
		totalPassed += r.Passed

		if r.Failed == 0 {
			fmt.Fprintf(&b, "  PASS  %s (%d/%d)\n", r.Name, r.Passed, r.Total)
		} else {
			failedSets++
			fmt.Fprintf(&b, "  FAIL  %s (%d/%d)\n", r.Name, r.Passed, r.Total)
			for _, s := range r.Steps {
				if !s.Passed {
					reason := s.Reason
					if len(reason) > 60 {
						reason = reason[:57] + "..."
					}
					fmt.Fprintf(&b, "    FAIL  step %d: %-28s %s\n", s.Index, s.Probe, reason)
				}
			}
		}
	}

	fmt.Fprintf(&b, "\n%d of %d probes passed.", totalPassed, totalSteps)
	if failedSets > 0 {
		fmt.Fprintf(&b, " %d of %d sets failed.", failedSets, totalSets)
	}
	b.WriteString("\n")

	return b.String()
}

// FormatJSON renders probe results as JSON.
func FormatJSON(results []*RunResult) (string, error) {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal results: %w", err)
	}
	return string(data), nil
}
