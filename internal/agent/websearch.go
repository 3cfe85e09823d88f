package agent

import (
	"context"
	"encoding/xml"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/sacahan/casualtrader/pkg/errors"
)

const (
	defaultNewsBaseURL = "https://news.google.com/rss"
	searchTimeout      = 10 * time.Second
	maxHeadlines       = 10
)

// NewsSearcher is the external web/news search capability. One instance is
// provisioned per bundle and torn down with it.
type NewsSearcher struct {
	client *resty.Client
}

// NewNewsSearcher creates a news search handle. baseURL is optional and
// defaults to the Google News RSS endpoint.
func NewNewsSearcher(baseURL string) *NewsSearcher {
	if baseURL == "" {
		baseURL = defaultNewsBaseURL
	}

	return &NewsSearcher{
		client: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(searchTimeout),
	}
}

type rssFeed struct {
	Channel struct {
		Items []struct {
			Title   string `xml:"title"`
			PubDate string `xml:"pubDate"`
		} `xml:"item"`
	} `xml:"channel"`
}

// Search returns recent headlines matching the query, newest first.
func (s *NewsSearcher) Search(ctx context.Context, query string) ([]string, error) {
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParam("q", query).
		Get("/search")
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeExternalService, err, "news search failed for %q", query)
	}

	if resp.IsError() {
		return nil, errors.Newf(errors.ErrCodeExternalService, "news search returned %s", resp.Status())
	}

	var feed rssFeed
	if err := xml.Unmarshal(resp.Body(), &feed); err != nil {
		return nil, errors.Wrap(errors.ErrCodeExternalService, "failed to parse news feed", err)
	}

	headlines := make([]string, 0, len(feed.Channel.Items))

	for i, item := range feed.Channel.Items {
		if i >= maxHeadlines {
			break
		}

		headlines = append(headlines, fmt.Sprintf("%s (%s)", item.Title, item.PubDate))
	}

	return headlines, nil
}

// Close releases the underlying HTTP client's idle connections.
func (s *NewsSearcher) Close() {
	if s.client != nil {
		s.client.GetClient().CloseIdleConnections()
	}
}
