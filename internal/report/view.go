package report

import (
	"fmt"
	"html/template"
	"sort"
	"strings"

	"github.com/sells-group/seo-dashboard/internal/model"
)

// DefaultTitle is shown when the scraped page has no title.
const DefaultTitle = "Website Analysis"

// Tab identifiers, in display order.
const (
	TabOverview  = "overview"
	TabTitle     = "title"
	TabContent   = "content"
	TabKeywords  = "keywords"
	TabTechnical = "technical"
)

// Score is a number with its display form and band.
type Score struct {
	Value float64
	Label string
	Band  Band
}

func newScore(v float64) Score {
	return Score{Value: v, Label: FormatNumber(v), Band: BandFor(v)}
}

// Percent clamps the score to 0..100 for progress bars.
func (s Score) Percent() float64 {
	switch {
	case s.Value < 0:
		return 0
	case s.Value > 100:
		return 100
	default:
		return s.Value
	}
}

// ListItem is one entry of a numbered list. Index starts at 1.
type ListItem struct {
	Index int
	Text  string
}

func numbered(items []string) []ListItem {
	out := make([]ListItem, 0, len(items))
	for i, s := range items {
		out = append(out, ListItem{Index: i + 1, Text: s})
	}
	return out
}

// Header is the top of the report.
type Header struct {
	URL     string
	Title   string
	Overall Score
}

// Tab is a navigation entry.
type Tab struct {
	ID    string
	Label string
}

// ScoreCard is one of the overview cards.
type ScoreCard struct {
	Title string
	Score Score
}

type OverviewTab struct {
	Cards    []ScoreCard
	Insights []ListItem
}

type TitleSection struct {
	Score       Score
	Length      string
	Issues      []string
	Suggestions []string
}

type MetaSection struct {
	Score       Score
	Length      string
	Exists      bool
	Suggestions []string
}

// ExistsLabel renders the exists flag as Yes or No.
func (m MetaSection) ExistsLabel() string {
	if m.Exists {
		return "Yes"
	}
	return "No"
}

type TitleMetaTab struct {
	Title TitleSection
	Meta  MetaSection
}

// Entry is a key and a printable value from an open-ended bag.
type Entry struct {
	Key   string
	Value string
}

type ContentTab struct {
	Score       Score
	WordCount   string
	Readability string
	Headings    []Entry
	Suggestions []string
	Preview     template.HTML
}

type KeywordsTab struct {
	Score     Score
	Extracted []string
	Suggested []string
	Density   []Entry
}

type TechnicalTab struct {
	Score        Score
	Issues       []string
	Improvements []string
}

// View is the display projection of one AnalysisData.
type View struct {
	Header          Header
	PriorityActions []ListItem
	Tabs            []Tab
	Overview        OverviewTab
	TitleMeta       TitleMetaTab
	Content         ContentTab
	Keywords        KeywordsTab
	Technical       TechnicalTab
}

// Tabs lists the report tabs in display order.
func Tabs() []Tab {
	return []Tab{
		{ID: TabOverview, Label: "Overview"},
		{ID: TabTitle, Label: "Title & Meta"},
		{ID: TabContent, Label: "Content"},
		{ID: TabKeywords, Label: "Keywords"},
		{ID: TabTechnical, Label: "Technical"},
	}
}

// NewView projects data into a View. It does not modify data.
func NewView(data *model.AnalysisData) View {
	a := data.SEOAnalysis

	title := data.PageTitle()
	if title == "" {
		title = DefaultTitle
	}

	v := View{
		Header: Header{
			URL:     data.URL,
			Title:   title,
			Overall: newScore(a.OverallScore),
		},
		PriorityActions: numbered(a.PriorityActions),
		Tabs:            Tabs(),
		Overview: OverviewTab{
			Cards: []ScoreCard{
				{Title: "Title SEO", Score: newScore(a.TitleAnalysis.Score)},
				{Title: "Meta Description", Score: newScore(a.MetaDescription.Score)},
				{Title: "Content Quality", Score: newScore(a.ContentAnalysis.Score)},
				{Title: "Technical SEO", Score: newScore(a.TechnicalSEO.Score)},
			},
			Insights: numbered(a.ActionableInsights),
		},
		TitleMeta: TitleMetaTab{
			Title: TitleSection{
				Score:       newScore(a.TitleAnalysis.Score),
				Length:      FormatNumber(a.TitleAnalysis.Length) + " characters",
				Issues:      a.TitleAnalysis.Issues,
				Suggestions: a.TitleAnalysis.Suggestions,
			},
			Meta: MetaSection{
				Score:       newScore(a.MetaDescription.Score),
				Length:      FormatNumber(a.MetaDescription.Length) + " characters",
				Exists:      a.MetaDescription.Exists,
				Suggestions: a.MetaDescription.Suggestions,
			},
		},
		Content: ContentTab{
			Score:       newScore(a.ContentAnalysis.Score),
			WordCount:   FormatNumber(a.ContentAnalysis.WordCount) + " words",
			Headings:    entries(a.ContentAnalysis.HeadingStructure),
			Suggestions: a.ContentAnalysis.Suggestions,
			Preview:     RenderMarkdown(previewSource(data.ScrapeData)),
		},
		Keywords: KeywordsTab{
			Score:     newScore(a.KeywordAnalysis.Score),
			Extracted: a.KeywordAnalysis.ExtractedKeywords,
			Suggested: a.KeywordAnalysis.SuggestedKeywords,
			Density:   entries(a.KeywordAnalysis.KeywordDensity),
		},
		Technical: TechnicalTab{
			Score:        newScore(a.TechnicalSEO.Score),
			Issues:       a.TechnicalSEO.Issues,
			Improvements: a.TechnicalSEO.Improvements,
		},
	}
	if r := a.ContentAnalysis.ReadabilityScore; r != nil {
		v.Content.Readability = FormatNumber(*r)
	}
	return v
}

// entries flattens an open-ended bag into key-sorted entries.
func entries(bag map[string]any) []Entry {
	if len(bag) == 0 {
		return nil
	}
	keys := make([]string, 0, len(bag))
	for k := range bag {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]Entry, 0, len(keys))
	for _, k := range keys {
		out = append(out, Entry{Key: k, Value: formatValue(bag[k])})
	}
	return out
}

func formatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return FormatNumber(t)
	case int:
		return FormatNumber(float64(t))
	case bool:
		if t {
			return "Yes"
		}
		return "No"
	case []any:
		parts := make([]string, 0, len(t))
		for _, e := range t {
			parts = append(parts, formatValue(e))
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprint(t)
	}
}
