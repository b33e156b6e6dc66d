package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/rotisserie/eris"

	"github.com/sells-group/seo-dashboard/internal/model"
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	headerBox    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)

	bandColors = map[Band]lipgloss.Color{
		BandGood:    lipgloss.Color("#16a34a"),
		BandWarning: lipgloss.Color("#ca8a04"),
		BandPoor:    lipgloss.Color("#dc2626"),
	}
)

func scoreStyle(b Band) lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(bandColors[b])
}

// WriteText renders data for a terminal. Colours follow the score bands and
// degrade to plain text when the output is not a terminal.
func WriteText(w io.Writer, data *model.AnalysisData) error {
	v := NewView(data)
	var b strings.Builder

	header := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().Bold(true).Render(v.Header.Title),
		mutedStyle.Render(v.Header.URL),
		"Overall: "+scoreStyle(v.Header.Overall.Band).Render(v.Header.Overall.Label+"/100"),
	)
	b.WriteString(headerBox.Render(header))
	b.WriteString("\n\n")

	section(&b, "Priority Actions")
	for _, item := range v.PriorityActions {
		fmt.Fprintf(&b, "  %d. %s\n", item.Index, item.Text)
	}

	section(&b, "Overview")
	for _, c := range v.Overview.Cards {
		fmt.Fprintf(&b, "  %-18s %s\n", c.Title, scoreStyle(c.Score.Band).Render(c.Score.Label))
	}
	if len(v.Overview.Insights) > 0 {
		b.WriteString("\n  AI Insights & Recommendations\n")
		for _, item := range v.Overview.Insights {
			fmt.Fprintf(&b, "  %d. %s\n", item.Index, item.Text)
		}
	}

	t := v.TitleMeta.Title
	section(&b, "Title & Meta")
	scoreLine(&b, "Title score", t.Score)
	fmt.Fprintf(&b, "  Title length: %s\n", t.Length)
	bullets(&b, "Issues Found", t.Issues)
	bullets(&b, "Suggestions", t.Suggestions)

	m := v.TitleMeta.Meta
	scoreLine(&b, "Meta description score", m.Score)
	fmt.Fprintf(&b, "  Description length: %s\n", m.Length)
	fmt.Fprintf(&b, "  Meta description exists: %s\n", m.ExistsLabel())
	bullets(&b, "Suggestions", m.Suggestions)

	c := v.Content
	section(&b, "Content")
	scoreLine(&b, "Content score", c.Score)
	fmt.Fprintf(&b, "  Word count: %s\n", c.WordCount)
	if c.Readability != "" {
		fmt.Fprintf(&b, "  Readability score: %s\n", c.Readability)
	}
	if len(c.Headings) > 0 {
		parts := make([]string, 0, len(c.Headings))
		for _, h := range c.Headings {
			parts = append(parts, h.Key+"="+h.Value)
		}
		fmt.Fprintf(&b, "  Headings: %s\n", strings.Join(parts, " "))
	}
	bullets(&b, "Content Improvements", c.Suggestions)

	k := v.Keywords
	section(&b, "Keywords")
	fmt.Fprintf(&b, "  Extracted: %s\n", strings.Join(k.Extracted, ", "))
	fmt.Fprintf(&b, "  Suggested: %s\n", strings.Join(k.Suggested, ", "))

	tech := v.Technical
	section(&b, "Technical")
	scoreLine(&b, "Technical score", tech.Score)
	bullets(&b, "Technical Issues", tech.Issues)
	bullets(&b, "Recommended Improvements", tech.Improvements)

	if _, err := io.WriteString(w, b.String()); err != nil {
		return eris.Wrap(err, "report: write text")
	}
	return nil
}

func section(b *strings.Builder, title string) {
	b.WriteString("\n" + headingStyle.Render(title) + "\n")
}

func scoreLine(b *strings.Builder, label string, s Score) {
	fmt.Fprintf(b, "  %s: %s\n", label, scoreStyle(s.Band).Render(s.Label+"/100"))
}

func bullets(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "  %s\n", mutedStyle.Render(title))
	for _, item := range items {
		fmt.Fprintf(b, "    - %s\n", item)
	}
}
