package scrape

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/seo-dashboard/pkg/firecrawl"
)

type mockFirecrawl struct {
	mock.Mock
}

func (m *mockFirecrawl) Scrape(ctx context.Context, req firecrawl.ScrapeRequest) (*firecrawl.ScrapeResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*firecrawl.ScrapeResponse), args.Error(1)
}

func TestFirecrawlScraper_Scrape(t *testing.T) {
	fc := &mockFirecrawl{}
	fc.On("Scrape", mock.Anything, firecrawl.ScrapeRequest{
		URL:     "https://acme.com",
		Formats: []string{"markdown"},
		Timeout: 30000,
	}).Return(&firecrawl.ScrapeResponse{
		Success: true,
		Data: firecrawl.PageData{
			Markdown: "# Acme",
			Metadata: map[string]any{"title": "Acme", "statusCode": float64(200)},
		},
	}, nil)

	s := NewFirecrawlScraper(fc, 30*time.Second)
	result, err := s.Scrape(context.Background(), "https://acme.com")

	require.NoError(t, err)
	assert.Equal(t, "# Acme", result.Markdown)
	assert.Equal(t, SourceFirecrawl, result.Source)
	assert.Equal(t, "Acme", result.Metadata["title"])
	fc.AssertExpectations(t)
}

func TestFirecrawlScraper_TargetError(t *testing.T) {
	fc := &mockFirecrawl{}
	fc.On("Scrape", mock.Anything, mock.Anything).Return(&firecrawl.ScrapeResponse{
		Success: true,
		Data:    firecrawl.PageData{Metadata: map[string]any{"statusCode": float64(404)}},
	}, nil)

	_, err := NewFirecrawlScraper(fc, 0).Scrape(context.Background(), "https://acme.com/missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}

func TestFirecrawlScraper_ClientError(t *testing.T) {
	fc := &mockFirecrawl{}
	fc.On("Scrape", mock.Anything, mock.Anything).Return(nil, errors.New("firecrawl: HTTP 402"))

	s := NewFirecrawlScraper(fc, 0)
	_, err := s.Scrape(context.Background(), "https://acme.com")
	require.Error(t, err)
	assert.Equal(t, "firecrawl", s.Name())
	assert.True(t, s.Supports("https://anything.example"))
}
