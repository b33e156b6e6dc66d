package model

// SEOAnalysis is the structured report returned by the generation service.
// Numeric fields are float64 because the service only promises "number".
type SEOAnalysis struct {
	OverallScore       float64         `json:"overallScore"`
	TitleAnalysis      TitleAnalysis   `json:"titleAnalysis"`
	MetaDescription    MetaDescription `json:"metaDescription"`
	ContentAnalysis    ContentAnalysis `json:"contentAnalysis"`
	KeywordAnalysis    KeywordAnalysis `json:"keywordAnalysis"`
	TechnicalSEO       TechnicalSEO    `json:"technicalSEO"`
	ActionableInsights []string        `json:"actionableInsights"`
	PriorityActions    []string        `json:"priorityActions"`
}

type TitleAnalysis struct {
	Score       float64  `json:"score"`
	Length      float64  `json:"length"`
	Issues      []string `json:"issues"`
	Suggestions []string `json:"suggestions"`
}

type MetaDescription struct {
	Score       float64  `json:"score"`
	Length      float64  `json:"length"`
	Exists      bool     `json:"exists"`
	Suggestions []string `json:"suggestions"`
}

type ContentAnalysis struct {
	Score            float64        `json:"score"`
	WordCount        float64        `json:"wordCount"`
	ReadabilityScore *float64       `json:"readabilityScore,omitempty"`
	HeadingStructure map[string]any `json:"headingStructure,omitempty"`
	Suggestions      []string       `json:"suggestions"`
}

type KeywordAnalysis struct {
	Score             float64        `json:"score"`
	ExtractedKeywords []string       `json:"extractedKeywords"`
	SuggestedKeywords []string       `json:"suggestedKeywords"`
	KeywordDensity    map[string]any `json:"keywordDensity,omitempty"`
}

type TechnicalSEO struct {
	Score        float64  `json:"score"`
	Issues       []string `json:"issues"`
	Improvements []string `json:"improvements"`
}

// AnalysisData is the unified result of one successful analysis. It is built
// in one step after generation returns and is never partially populated.
type AnalysisData struct {
	URL         string         `json:"url"`
	Timestamp   string         `json:"timestamp"`
	Metadata    map[string]any `json:"metadata"`
	ScrapeData  *ScrapeResult  `json:"scrapeData"`
	SEOAnalysis SEOAnalysis    `json:"seoAnalysis"`
}

// PageTitle returns metadata["title"] when it is a non-empty string.
func (d *AnalysisData) PageTitle() string {
	return MetaString(d.Metadata, "title")
}
