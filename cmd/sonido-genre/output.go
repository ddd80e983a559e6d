package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/RyanBlaney/sonido-genre/classifier"
	"github.com/RyanBlaney/sonido-genre/pipeline"
)

var titleCaser = cases.Title(language.English)

// writeJSON encodes v as a single JSON document
func writeJSON(w io.Writer, v any) error {
	return json.NewEncoder(w).Encode(v)
}

func writeResult(w io.Writer, format string, result *pipeline.Result) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(result); err != nil {
			return err
		}
		return enc.Close()
	case "table":
		_, err := io.WriteString(w, renderScores(result)+"\n")
		return err
	default:
		return writeJSON(w, result)
	}
}

// renderScores lays out every genre score, best first
func renderScores(result *pipeline.Result) string {
	scores := result.Scores
	if len(scores) == 0 {
		for i, g := range result.TopGenres {
			scores = append(scores, classifier.Score{Genre: g, Confidence: result.TopConfidences[i]})
		}
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.SetTitle("Genre: %s", titleCaser.String(result.Genre.String()))
	tw.AppendHeader(table.Row{"#", "Genre", "Confidence"})
	for i, sc := range scores {
		tw.AppendRow(table.Row{
			strconv.Itoa(i + 1),
			titleCaser.String(sc.Genre.String()),
			fmt.Sprintf("%.1f%%", 100*sc.Confidence),
		})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	if result.RunID != "" {
		tw.SetCaption("run %s, %.1fs analyzed", result.RunID, result.Duration)
	}
	return tw.Render()
}
