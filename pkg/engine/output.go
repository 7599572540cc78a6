package engine

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/wildfunctions/factory_numbers/pkg/solution"
)

// SizeReport summarizes the search of one expression size.
type SizeReport struct {
	Size        int               `json:"size"`
	Shapes      int               `json:"shapes"`
	Assignments uint64            `json:"assignments"` // per shape; 0 if it overflows uint64
	Evaluations uint64            `json:"evaluations"`
	Accepted    uint64            `json:"accepted"`
	Rejected    map[string]uint64 `json:"rejected"`
	NewValues   int               `json:"new_values"`
	DurationMS  int64             `json:"duration_ms"`
}

// Report summarizes the entire run.
type Report struct {
	RunID      string              `json:"run_id"`
	Config     Config              `json:"config"`
	Sizes      []SizeReport        `json:"sizes"`
	Solutions  []solution.Solution `json:"solutions"`
	MaxValue   int64               `json:"max_value"`
	DurationMS int64               `json:"duration_ms"`
}

// TextOptions controls WriteText.
type TextOptions struct {
	// ShowMissing prints "n -> None" for every value in 1..MaxValue that
	// was not reached.
	ShowMissing bool
	// Limit caps the representations printed per value; 0 prints all.
	Limit int
}

// FormatLine renders one table row as `n -> (size) ["r1", "r2"]`.
func FormatLine(s solution.Solution, limit int) string {
	return string(appendLine(nil, s, limit))
}

func appendLine(dst []byte, s solution.Solution, limit int) []byte {
	dst = strconv.AppendInt(dst, s.Value, 10)
	dst = append(dst, " -> ("...)
	dst = strconv.AppendInt(dst, int64(s.Size), 10)
	dst = append(dst, ") ["...)
	reprs := s.Representations
	if limit > 0 && len(reprs) > limit {
		reprs = reprs[:limit]
	}
	for i, r := range reprs {
		if i > 0 {
			dst = append(dst, ", "...)
		}
		dst = strconv.AppendQuote(dst, r)
	}
	return append(dst, ']')
}

// WriteText writes the solution table, one line per value in ascending
// order.
func WriteText(w io.Writer, r Report, opts TextOptions) error {
	bw := bufio.NewWriter(w)
	var line []byte
	next := int64(1)
	for _, s := range r.Solutions {
		if opts.ShowMissing {
			for ; next < s.Value; next++ {
				fmt.Fprintf(bw, "%d -> None\n", next)
			}
			next = s.Value + 1
		}
		line = appendLine(line[:0], s, opts.Limit)
		line = append(line, '\n')
		if _, err := bw.Write(line); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteJSON writes the report as JSON.
func WriteJSON(w io.Writer, r Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// WriteSizeSummary writes one human-readable line per searched size.
func WriteSizeSummary(w io.Writer, r Report) {
	for _, s := range r.Sizes {
		fmt.Fprintf(w, "size %2d | shapes %6d | evaluations %12d | accepted %12d | new values %6d | %dms\n",
			s.Size, s.Shapes, s.Evaluations, s.Accepted, s.NewValues, s.DurationMS)
	}
}
