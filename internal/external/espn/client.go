package espn

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/wonny/astrobet/internal/contracts"
	"github.com/wonny/astrobet/internal/scoring"
	"github.com/wonny/astrobet/pkg/httputil"
	"github.com/wonny/astrobet/pkg/logger"
)

// SourceName identifies records scraped from an HTML stat table
const SourceName = "html"

// headerFeatures maps lower-cased column headers to feature names
var headerFeatures = map[string]string{
	"gp":  "games_played",
	"min": "minutes",
	"pts": "points",
	"reb": "rebounds",
	"ast": "assists",
	"stl": "steals",
	"blk": "blocks",
	"to":  "turnovers",
	"tov": "turnovers",
	"pf":  "personal_fouls",
	"+/-": "plus_minus",
	"fg%": "field_goal_pct",
	"3p%": "three_point_pct",
	"ft%": "free_throw_pct",
}

// nameHeaders are the headers of the player column
var nameHeaders = map[string]bool{"name": true, "player": true}

// playerIDRe extracts the id from links like /nba/player/_/id/3112335/nikola-jokic
var playerIDRe = regexp.MustCompile(`/id/(\d+)`)

// Client scrapes per-game averages from an HTML stats page
// ⭐ SSOT: HTML 통계 테이블 스크래핑은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	url        string
}

// NewClient creates a new HTML stats client
func NewClient(httpClient *httputil.Client, pageURL string, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log.WithModule("espn"),
		url:        pageURL,
	}
}

// Name returns the source name
func (c *Client) Name() string {
	return SourceName
}

// FetchStatistics downloads the page and parses its stat table
func (c *Client) FetchStatistics(ctx context.Context) ([]contracts.StatisticRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request failed: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	records, err := ParseStatsTable(string(body))
	if err != nil {
		return nil, err
	}

	c.logger.WithFields(map[string]interface{}{
		"url":     c.url,
		"players": len(records),
	}).Info("Scraped stat table")

	return records, nil
}

// ParseStatsTable reads the first table that has a player column. Unknown
// columns are ignored; empty or "-" cells stay absent.
func ParseStatsTable(html string) ([]contracts.StatisticRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var (
		records []contracts.StatisticRecord
		found   bool
	)

	doc.Find("table").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		headers := tableHeaders(table)
		nameCol := -1
		for i, h := range headers {
			if nameHeaders[h] {
				nameCol = i
				break
			}
		}
		if nameCol < 0 {
			return true
		}
		found = true

		table.Find("tbody tr").Each(func(_ int, row *goquery.Selection) {
			if rec, ok := parseRow(row, headers, nameCol); ok {
				records = append(records, rec)
			}
		})
		return false
	})

	if !found {
		return nil, fmt.Errorf("no stat table with a player column")
	}
	return records, nil
}

func tableHeaders(table *goquery.Selection) []string {
	var headers []string
	table.Find("thead th").Each(func(_ int, th *goquery.Selection) {
		headers = append(headers, strings.ToLower(strings.TrimSpace(th.Text())))
	})
	return headers
}

func parseRow(row *goquery.Selection, headers []string, nameCol int) (contracts.StatisticRecord, bool) {
	cells := row.Find("td")
	if cells.Length() <= nameCol {
		return contracts.StatisticRecord{}, false
	}

	nameCell := cells.Eq(nameCol)
	name := strings.TrimSpace(nameCell.Text())
	if link := nameCell.Find("a").First(); link.Length() > 0 {
		name = strings.TrimSpace(link.Text())
	}
	if name == "" {
		return contracts.StatisticRecord{}, false
	}

	rec := contracts.StatisticRecord{
		Name:     name,
		Source:   SourceName,
		Features: make(map[string]*float64),
	}
	if href, ok := nameCell.Find("a").Attr("href"); ok {
		if m := playerIDRe.FindStringSubmatch(href); m != nil {
			rec.ExternalID = m[1]
		}
	}

	cells.Each(func(i int, cell *goquery.Selection) {
		if i >= len(headers) {
			return
		}
		feature, known := headerFeatures[headers[i]]
		if !known {
			return
		}
		if v, ok := parseNumber(cell.Text()); ok {
			rec.Set(feature, v)
		}
	})

	return scoring.FromAverages(rec), true
}

// parseNumber accepts "1,234", "+5.2", "48.3%" and ".365"
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimPrefix(s, "+")
	s = strings.TrimSuffix(s, "%")
	if s == "" || s == "-" || s == "--" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
