// Package research gathers lightweight web context for the generation
// prompts: topical lookups and "on this day" ephemerides for a target date.
package research

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

const instantAnswerURL = "https://api.duckduckgo.com/"

// Result is one search hit prepared for prompt injection.
type Result struct {
	Title   string
	Snippet string
	URL     string
}

// Client queries the DuckDuckGo Instant Answer API. The zero value is not
// usable; construct with New.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *logrus.Logger
}

func New(httpClient *http.Client, logger *logrus.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	return &Client{httpClient: httpClient, baseURL: instantAnswerURL, logger: logger}
}

// Search runs a query and returns up to maxResults hits.
func (c *Client) Search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("search query is empty")
	}
	if maxResults <= 0 {
		maxResults = 7
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return nil, err
	}
	q := url.Values{}
	q.Set("q", query)
	q.Set("format", "json")
	q.Set("no_html", "1")
	q.Set("skip_disambig", "1")
	req.URL.RawQuery = q.Encode()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search returned status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	results := extractResults(body, maxResults)
	c.logger.WithFields(logrus.Fields{"query": query, "results": len(results)}).Debug("search done")
	return results, nil
}

// extractResults pulls the abstract and related topics out of an Instant
// Answer response. Related topics may be nested one level under category
// groups.
func extractResults(body []byte, maxResults int) []Result {
	var results []Result

	if abstract := gjson.GetBytes(body, "AbstractText"); abstract.String() != "" {
		results = append(results, Result{
			Title:   gjson.GetBytes(body, "Heading").String(),
			Snippet: abstract.String(),
			URL:     gjson.GetBytes(body, "AbstractURL").String(),
		})
	}

	appendTopic := func(topic gjson.Result) bool {
		text := topic.Get("Text").String()
		if text == "" {
			return len(results) < maxResults
		}
		results = append(results, Result{
			Snippet: text,
			URL:     topic.Get("FirstURL").String(),
		})
		return len(results) < maxResults
	}

	gjson.GetBytes(body, "RelatedTopics").ForEach(func(_, topic gjson.Result) bool {
		if nested := topic.Get("Topics"); nested.IsArray() {
			keep := true
			nested.ForEach(func(_, t gjson.Result) bool {
				keep = appendTopic(t)
				return keep
			})
			return keep
		}
		return appendTopic(topic)
	})

	if len(results) > maxResults {
		results = results[:maxResults]
	}
	return results
}

// spanishMonths maps time.Month to the month names used in ephemerides
// queries.
var spanishMonths = [...]string{
	"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

// EphemeridesQuery builds the lookup query for a date, e.g.
// "efemérides del 5 de enero en Colombia medio ambiente".
func EphemeridesQuery(date string, topics []string) (string, error) {
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		return "", fmt.Errorf("invalid date %q: %w", date, err)
	}
	q := fmt.Sprintf("efemérides del %d de %s en Colombia", d.Day(), spanishMonths[d.Month()-1])
	if len(topics) > 0 {
		q += " " + strings.Join(topics, " ")
	}
	return q, nil
}

// SearchEphemerides looks up "on this day" context for a date and formats it
// for prompt injection. Search being unavailable degrades to an explanatory
// string rather than an error, so generation can proceed without context.
func (c *Client) SearchEphemerides(ctx context.Context, date string, topics []string) (string, error) {
	query, err := EphemeridesQuery(date, topics)
	if err != nil {
		return "", err
	}
	results, err := c.Search(ctx, query, 7)
	if err != nil {
		c.logger.WithField("query", query).Warnf("ephemerides search unavailable: %v", err)
		return fmt.Sprintf("Web search unavailable (%v); write from general knowledge of the date.", err), nil
	}
	if len(results) == 0 {
		return "No ephemerides found for this date.", nil
	}
	return FormatForPrompt(results), nil
}

// FormatForPrompt renders results as the plain numbered list the prompts use.
func FormatForPrompt(results []Result) string {
	var sb strings.Builder
	for i, r := range results {
		sb.WriteString(fmt.Sprintf("%d. ", i+1))
		if r.Title != "" {
			sb.WriteString(r.Title)
			sb.WriteString(": ")
		}
		sb.WriteString(r.Snippet)
		if r.URL != "" {
			sb.WriteString(fmt.Sprintf(" (%s)", r.URL))
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}
