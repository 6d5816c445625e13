package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/persistorai/neighborrank/client"
)

func formatJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

func formatTable(w io.Writer, headers []string, rows [][]string) {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	printRow := func(cells []string) {
		parts := make([]string, len(cells))
		for i, cell := range cells {
			parts[i] = fmt.Sprintf("%-*s", widths[i], cell)
		}
		fmt.Fprintln(w, strings.TrimRight(strings.Join(parts, "  "), " "))
	}

	printRow(headers)
	seps := make([]string, len(headers))
	for i, n := range widths {
		seps[i] = strings.Repeat("-", n)
	}
	printRow(seps)
	for _, row := range rows {
		printRow(row)
	}
}

// rankOutput is the JSON shape printed by the rank command.
type rankOutput struct {
	State   string       `json:"state"`
	Visited int64        `json:"visited"`
	Hops    []client.Hop `json:"hops"`
}

// printRank writes resp in the selected format. Quiet prints the vertices of
// the last hop, one per line.
func printRank(w io.Writer, resp *client.RankResponse) error {
	switch flagFmt {
	case "quiet":
		if len(resp.Hops) > 0 {
			for _, s := range resp.Hops[len(resp.Hops)-1] {
				fmt.Fprintln(w, s.Vertex)
			}
		}
		return nil
	case "table":
		var rows [][]string
		for h, hop := range resp.Hops {
			for i, s := range hop {
				rows = append(rows, []string{
					strconv.Itoa(h + 1),
					strconv.Itoa(i + 1),
					s.Vertex,
					strconv.FormatFloat(s.Score, 'g', 6, 64),
				})
			}
		}
		formatTable(w, []string{"HOP", "RANK", "VERTEX", "SCORE"}, rows)
		fmt.Fprintf(w, "\nstate: %s, visited: %d\n", resp.State, resp.Visited)
		return nil
	default:
		return formatJSON(w, rankOutput{State: resp.State, Visited: resp.Visited, Hops: resp.Hops})
	}
}
