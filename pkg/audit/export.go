package audit

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"
)

// Format is an export encoding.
type Format string

const (
	FormatJSON  Format = "json"
	FormatJSONL Format = "jsonl"
	FormatCSV   Format = "csv"
)

// ParseFormat accepts json, jsonl and csv.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatJSON, FormatJSONL, FormatCSV:
		return f, nil
	}
	return "", fmt.Errorf("unsupported export format %q (want json, jsonl or csv)", s)
}

// Export writes events to w in the given format.
func Export(w io.Writer, events []*Event, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if events == nil {
			events = []*Event{}
		}
		return enc.Encode(events)
	case FormatJSONL:
		enc := json.NewEncoder(w)
		for _, e := range events {
			if err := enc.Encode(e); err != nil {
				return err
			}
		}
		return nil
	case FormatCSV:
		return exportCSV(w, events)
	}
	return fmt.Errorf("unsupported export format %q", format)
}

var csvHeader = []string{
	"ID", "Timestamp", "Action", "Kind", "Added", "Hierarchy", "Subject", "Conflicts", "UndoDepth", "RedoDepth",
}

func exportCSV(w io.Writer, events []*Event) (retErr error) {
	cw := csv.NewWriter(w)
	defer func() {
		cw.Flush()
		if err := cw.Error(); err != nil && retErr == nil {
			retErr = fmt.Errorf("csv flush: %w", err)
		}
	}()

	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, e := range events {
		record := []string{
			e.ID,
			e.Timestamp.Format(time.RFC3339),
			string(e.Action),
			e.Kind,
			strconv.FormatBool(e.Added),
			e.Hierarchy,
			e.Subject,
			strconv.Itoa(e.Conflicts),
			strconv.Itoa(e.UndoDepth),
			strconv.Itoa(e.RedoDepth),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	return nil
}

// Summary counts events by action and by hierarchy.
type Summary struct {
	Total       int            `json:"total"`
	ByAction    map[Action]int `json:"by_action"`
	ByHierarchy map[string]int `json:"by_hierarchy"`
	Declined    int            `json:"declined"`
	First       time.Time      `json:"first,omitempty"`
	Last        time.Time      `json:"last,omitempty"`
}

// Summarize counts events.
func Summarize(events []*Event) Summary {
	s := Summary{
		Total:       len(events),
		ByAction:    make(map[Action]int),
		ByHierarchy: make(map[string]int),
	}
	for _, e := range events {
		s.ByAction[e.Action]++
		if e.Hierarchy != "" {
			s.ByHierarchy[e.Hierarchy]++
		}
		if e.Action == ActionDeclined {
			s.Declined++
		}
		if s.First.IsZero() || e.Timestamp.Before(s.First) {
			s.First = e.Timestamp
		}
		if e.Timestamp.After(s.Last) {
			s.Last = e.Timestamp
		}
	}
	return s
}

// Hierarchies returns the hierarchies in the summary, busiest first.
func (s Summary) Hierarchies() []string {
	names := make([]string, 0, len(s.ByHierarchy))
	for name := range s.ByHierarchy {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if s.ByHierarchy[names[i]] != s.ByHierarchy[names[j]] {
			return s.ByHierarchy[names[i]] > s.ByHierarchy[names[j]]
		}
		return names[i] < names[j]
	})
	return names
}
