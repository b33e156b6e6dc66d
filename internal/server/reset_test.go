package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/seo-dashboard/internal/generate"
	"github.com/sells-group/seo-dashboard/internal/model"
	"github.com/sells-group/seo-dashboard/internal/pipeline"
	"github.com/sells-group/seo-dashboard/internal/store"
)

// blockingScraper waits for its context to end.
type blockingScraper struct {
	started chan struct{}
}

func (b *blockingScraper) Name() string         { return "blocking" }
func (b *blockingScraper) Supports(string) bool { return true }
func (b *blockingScraper) Scrape(ctx context.Context, _ string) (*model.ScrapeResult, error) {
	close(b.started)
	<-ctx.Done()
	return nil, ctx.Err()
}

type unusedGenerator struct{}

func (unusedGenerator) Name() string { return "unused" }
func (unusedGenerator) Generate(context.Context, generate.Request) (json.RawMessage, error) {
	return nil, errors.New("generate should not be called")
}

func TestReset_CancelledRunIsSuperseded(t *testing.T) {
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	ctx := context.Background()
	require.NoError(t, st.Migrate(ctx))

	sc := &blockingScraper{started: make(chan struct{})}
	p := pipeline.New(sc, unusedGenerator{}, st)

	s := newTestServer(t, p, nil)
	c := newClient(s)
	c.get("/")

	c.submit("/analyze", "acme.com")
	select {
	case <-sc.started:
	case <-time.After(5 * time.Second):
		t.Fatal("scrape never started")
	}

	rec := c.do(http.MethodPost, "/reset", nil, "")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	s.wg.Wait()

	runs, err := st.ListRuns(ctx, store.RunFilter{})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, model.RunStatusSuperseded, runs[0].Status)

	// No failure notice for a run the user abandoned.
	body := c.get("/").Body.String()
	assert.Contains(t, body, "Start SEO Analysis")
	assert.NotContains(t, body, "Analysis failed")
}

func TestAnalyze_StaleFailureSupersedesRun(t *testing.T) {
	release := make(chan struct{})
	a := &mockAnalyzer{}
	a.On("Run", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { <-release }).
		Return(nil, &pipeline.AnalysisError{Stage: pipeline.StageGenerate, RunID: "run-7", Err: errors.New("529")}).Once()
	a.On("Supersede", mock.Anything, "run-7").Return().Once()

	s := newTestServer(t, a, nil)
	c := newClient(s)
	c.get("/")

	c.submit("/analyze", "acme.com")
	c.do(http.MethodPost, "/reset", nil, "")
	close(release)
	s.wg.Wait()

	assert.NotContains(t, c.get("/").Body.String(), "Analysis failed")
	a.AssertExpectations(t)
}
