package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hyperengineering/ascent/internal/types"
)

// printJSON marshals v to JSON and writes to the given writer.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// newTabWriter returns a configured tabwriter for aligned columns.
func newTabWriter(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

// formatSize returns a human-readable file size.
func formatSize(bytes int64) string {
	const (
		KB = 1024
		MB = 1024 * KB
		GB = 1024 * MB
	)
	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.1f GB", float64(bytes)/float64(GB))
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

// openInput returns the file at path, or stdin when path is empty or "-".
func openInput(cmd *cobra.Command, path string) (io.ReadCloser, error) {
	if path == "" || path == "-" {
		return io.NopCloser(cmd.InOrStdin()), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	return f, nil
}

// readSession decodes one JSON session from path or stdin.
func readSession(cmd *cobra.Command, path string) (types.Session, error) {
	in, err := openInput(cmd, path)
	if err != nil {
		return types.Session{}, err
	}
	defer in.Close()

	var s types.Session
	if err := json.NewDecoder(in).Decode(&s); err != nil {
		return types.Session{}, fmt.Errorf("decode session: %w", err)
	}
	return s, nil
}

// describeSets renders completed sets as "12+10+8", or the planned sets when
// nothing was performed.
func describeSets(s types.Session) string {
	sets := s.CompletedSets
	planned := len(sets) == 0
	if planned {
		sets = s.PlannedSets
	}
	if len(sets) == 0 {
		return "-"
	}
	out := ""
	for i, set := range sets {
		if i > 0 {
			out += "+"
		}
		reps := set.Reps()
		if planned {
			reps = set.TargetReps
		}
		out += fmt.Sprintf("%d", reps)
	}
	if planned {
		out += " (planned)"
	}
	return out
}

// describePlan renders a prescription as "5x8 +2.5kg r180". The rest shown is
// the one between sets; the first set has none.
func describePlan(p types.SessionPlan) string {
	if len(p.Sets) == 0 {
		return "-"
	}
	first := p.Sets[0]
	uniform := true
	for _, s := range p.Sets[1:] {
		if s.TargetReps != first.TargetReps {
			uniform = false
			break
		}
	}

	var out string
	if uniform {
		out = fmt.Sprintf("%dx%d", len(p.Sets), first.TargetReps)
	} else {
		for i, s := range p.Sets {
			if i > 0 {
				out += "/"
			}
			out += fmt.Sprintf("%d", s.TargetReps)
		}
	}
	if first.AddedWeightKg != 0 {
		out += fmt.Sprintf(" %+.1fkg", first.AddedWeightKg)
	}
	return out + fmt.Sprintf(" r%d", p.Sets[len(p.Sets)-1].RestSecondsBefore)
}
