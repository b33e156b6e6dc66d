package report

import (
	"bytes"
	"embed"
	"html/template"
	"io"

	"github.com/rotisserie/eris"

	"github.com/sells-group/seo-dashboard/internal/model"
)

//go:embed templates/*.html
var templateFS embed.FS

// analyzingRefreshSecs is how often the analyzing screen reloads itself.
const analyzingRefreshSecs = 2

// Flash is a one-shot notice shown above the page content.
type Flash struct {
	Success bool
	Text    string
}

// Page is the data every template receives.
type Page struct {
	User      *model.Identity
	Flash     *Flash
	Refresh   int
	Tabs      []Tab
	URL       string
	Analyzing bool
	View      *View
}

// Renderer renders the dashboard screens.
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer parses the embedded templates.
func NewRenderer() (*Renderer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, eris.Wrap(err, "report: parse templates")
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Loading renders the screen shown while the identity is unresolved. It
// never refreshes itself.
func (r *Renderer) Loading(w io.Writer) error {
	return r.execute(w, "loading", Page{})
}

// Input renders the URL form with an optional notice.
func (r *Renderer) Input(w io.Writer, user *model.Identity, flash *Flash) error {
	return r.execute(w, "input", Page{User: user, Flash: flash})
}

// Analyzing renders the disabled form for url and reloads until the
// analysis settles.
func (r *Renderer) Analyzing(w io.Writer, user *model.Identity, url string) error {
	return r.execute(w, "input", Page{
		User:      user,
		URL:       url,
		Analyzing: true,
		Refresh:   analyzingRefreshSecs,
	})
}

// Report renders the tabbed report for data.
func (r *Renderer) Report(w io.Writer, user *model.Identity, flash *Flash, data *model.AnalysisData) error {
	v := NewView(data)
	return r.execute(w, "report", Page{User: user, Flash: flash, Tabs: v.Tabs, View: &v})
}

// execute renders into a buffer so a template error never leaves a partial
// page on w.
func (r *Renderer) execute(w io.Writer, name string, page Page) error {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, name, page); err != nil {
		return eris.Wrapf(err, "report: render %s", name)
	}
	if _, err := buf.WriteTo(w); err != nil {
		return eris.Wrapf(err, "report: write %s", name)
	}
	return nil
}
