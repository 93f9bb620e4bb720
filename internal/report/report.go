// Package report summarizes a finished or running session as Markdown and
// HTML.
package report

import (
	"fmt"
	"strings"

	"mezzanine/models"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/montanaflynn/stats"
)

// Summary holds the information-gain statistics of a session
type Summary struct {
	Questions      int     `json:"questions"`
	InitialEntropy float64 `json:"initial_entropy"`
	FinalEntropy   float64 `json:"final_entropy"`
	TotalBits      float64 `json:"total_bits"`
	MeanBits       float64 `json:"mean_bits"`
	MedianBits     float64 `json:"median_bits"`
	MinBits        float64 `json:"min_bits"`
	MaxBits        float64 `json:"max_bits"`
	// MeanExpectedBits is the average value of information the questions
	// were chosen for, to compare with what the answers actually gave.
	MeanExpectedBits float64 `json:"mean_expected_bits"`
}

// Summarize computes per-question statistics over a transcript
func Summarize(transcript []models.TranscriptEntry) (Summary, error) {
	summary := Summary{Questions: len(transcript)}
	if len(transcript) == 0 {
		return summary, nil
	}
	summary.InitialEntropy = transcript[0].EntropyBefore
	summary.FinalEntropy = transcript[len(transcript)-1].EntropyAfter

	gained := make(stats.Float64Data, 0, len(transcript))
	expected := make(stats.Float64Data, 0, len(transcript))
	for _, entry := range transcript {
		gained = append(gained, entry.BitsGained())
		expected = append(expected, entry.Value)
	}

	var err error
	if summary.TotalBits, err = stats.Sum(gained); err != nil {
		return summary, err
	}
	if summary.MeanBits, err = stats.Mean(gained); err != nil {
		return summary, err
	}
	if summary.MedianBits, err = stats.Median(gained); err != nil {
		return summary, err
	}
	if summary.MinBits, err = stats.Min(gained); err != nil {
		return summary, err
	}
	if summary.MaxBits, err = stats.Max(gained); err != nil {
		return summary, err
	}
	if summary.MeanExpectedBits, err = stats.Mean(expected); err != nil {
		return summary, err
	}
	return summary, nil
}

// Markdown renders the session, its statistics, the questions asked and the
// leading hypotheses. At most maxBeliefs hypotheses are listed.
func Markdown(session *models.GameSession, transcript []models.TranscriptEntry, beliefs []models.BeliefView, maxBeliefs int) (string, error) {
	summary, err := Summarize(transcript)
	if err != nil {
		return "", fmt.Errorf("summarizing transcript: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Session %s\n\n", session.ID)
	fmt.Fprintf(&b, "- **Game:** %s\n", session.Game)
	if session.Bound > 0 {
		fmt.Fprintf(&b, "- **Bound:** %d\n", session.Bound)
	}
	fmt.Fprintf(&b, "- **Seed:** %d\n", session.Seed)
	fmt.Fprintf(&b, "- **State:** %s\n", session.State)
	if session.Conclusion != "" {
		fmt.Fprintf(&b, "- **Conclusion:** %s\n", session.Conclusion)
	}

	b.WriteString("\n## Information gained\n\n")
	if summary.Questions == 0 {
		b.WriteString("No questions have been answered yet.\n")
	} else {
		b.WriteString("| Statistic | Bits |\n|---|---|\n")
		rows := []struct {
			name  string
			value float64
		}{
			{"Initial entropy", summary.InitialEntropy},
			{"Final entropy", summary.FinalEntropy},
			{"Total gained", summary.TotalBits},
			{"Mean per question", summary.MeanBits},
			{"Median per question", summary.MedianBits},
			{"Least in one question", summary.MinBits},
			{"Most in one question", summary.MaxBits},
			{"Mean expected per question", summary.MeanExpectedBits},
		}
		for _, row := range rows {
			fmt.Fprintf(&b, "| %s | %.4f |\n", row.name, row.value)
		}
		fmt.Fprintf(&b, "\n%d questions asked.\n", summary.Questions)

		b.WriteString("\n## Questions\n\n")
		b.WriteString("| # | Subject | Answer | Expected bits | Bits gained | Hypotheses left |\n|---|---|---|---|---|---|\n")
		for _, entry := range transcript {
			answer := "no"
			if entry.Verdict {
				answer = "yes"
			}
			fmt.Fprintf(&b, "| %d | `%s` | %s | %.4f | %.4f | %d |\n",
				entry.Seq, entry.Subject, answer, entry.Value, entry.BitsGained(), entry.Remaining)
		}
	}

	b.WriteString("\n## Leading hypotheses\n\n")
	if len(beliefs) == 0 {
		b.WriteString("None.\n")
	}
	for i, belief := range beliefs {
		if maxBeliefs > 0 && i >= maxBeliefs {
			fmt.Fprintf(&b, "\n…and %d more.\n", len(beliefs)-maxBeliefs)
			break
		}
		fmt.Fprintf(&b, "%d. %s (%.4f)\n", i+1, escape(belief.Description), belief.Probability)
	}
	return b.String(), nil
}

// HTML converts report Markdown to an HTML fragment
func HTML(md string) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	return markdown.ToHTML([]byte(md), p, renderer)
}

// Page wraps the report of a session in a standalone HTML document
func Page(session *models.GameSession, transcript []models.TranscriptEntry, beliefs []models.BeliefView, maxBeliefs int) ([]byte, error) {
	md, err := Markdown(session, transcript, beliefs, maxBeliefs)
	if err != nil {
		return nil, err
	}
	var page strings.Builder
	page.WriteString("<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\">")
	fmt.Fprintf(&page, "<title>Mezzanine session %s</title></head><body>\n", session.ID)
	page.Write(HTML(md))
	page.WriteString("</body></html>\n")
	return []byte(page.String()), nil
}

func escape(s string) string {
	return strings.NewReplacer("*", `\*`, "_", `\_`, "|", `\|`).Replace(s)
}
