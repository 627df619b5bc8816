// ABOUTME: Shared utility functions for CLI commands
// ABOUTME: Output formatting, truncation and flag validation used across subcommands
package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
)

var outputFormats = []string{"auto", "table", "json"}

// truncate shortens a string to maxLen, adding "..." if truncated
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// oneLine collapses whitespace so chunk text fits a table cell
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// formatTime formats a time for display
func formatTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	diff := time.Since(t)

	if diff < time.Minute {
		return "just now"
	} else if diff < time.Hour {
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	} else if diff < 24*time.Hour {
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	} else if diff < 7*24*time.Hour {
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	}
	return t.Format("2006-01-02")
}

// containsString checks if a slice contains a string
func containsString(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

// validatePositiveInt returns error if n is not positive
func validatePositiveInt(n int, name string) error {
	if n <= 0 {
		return fmt.Errorf("%s must be positive, got %d", name, n)
	}
	return nil
}

// jsonOutput reports whether --format asks for JSON, rejecting unknown formats
func jsonOutput() (bool, error) {
	if !containsString(outputFormats, outputFormat) {
		return false, fmt.Errorf("unknown format %q (want one of %s)", outputFormat, strings.Join(outputFormats, ", "))
	}
	return outputFormat == "json", nil
}

func printJSON(w io.Writer, v any) error {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	fmt.Fprintf(w, "%s\n", jsonData)
	return nil
}

// parseDuration parses a duration flag value that must be positive
func parseDuration(s, name string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, s, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", name, d)
	}
	return d, nil
}
