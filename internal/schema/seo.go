package schema

// SEOAnalysisName is the tool / response-format name used when asking a model
// for an SEO report.
const SEOAnalysisName = "seo_analysis"

func score() *Node { return Range(0, 100) }

func stringList() *Node { return Array(String()) }

// SEOAnalysis returns the schema of the SEO report. Field names and order
// match model.SEOAnalysis.
func SEOAnalysis() *Node {
	return Object(
		Prop("overallScore", score()),
		Prop("titleAnalysis", Object(
			Prop("score", score()),
			Prop("length", Number()),
			Prop("issues", stringList()),
			Prop("suggestions", stringList()),
		)),
		Prop("metaDescription", Object(
			Prop("score", score()),
			Prop("length", Number()),
			Prop("exists", Boolean()),
			Prop("suggestions", stringList()),
		)),
		Prop("contentAnalysis", Object(
			Prop("score", score()),
			Prop("wordCount", Number()),
			OptionalProp("readabilityScore", Number()),
			OptionalProp("headingStructure", Object()),
			Prop("suggestions", stringList()),
		)),
		Prop("keywordAnalysis", Object(
			Prop("score", score()),
			Prop("extractedKeywords", stringList()),
			Prop("suggestedKeywords", stringList()),
			OptionalProp("keywordDensity", Object()),
		)),
		Prop("technicalSEO", Object(
			Prop("score", score()),
			Prop("issues", stringList()),
			Prop("improvements", stringList()),
		)),
		Prop("actionableInsights", stringList()),
		Prop("priorityActions", stringList()),
	).Describe("SEO analysis of a single web page")
}
