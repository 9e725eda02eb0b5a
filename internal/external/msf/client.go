package msf

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/wonny/astrobet/internal/contracts"
	"github.com/wonny/astrobet/internal/scoring"
	"github.com/wonny/astrobet/pkg/config"
	"github.com/wonny/astrobet/pkg/httputil"
	"github.com/wonny/astrobet/pkg/logger"
)

// SourceName identifies records fetched from MySportsFeeds
const SourceName = "msf"

// statsFields limits the payload to what the scoring profile reads
const statsFields = "gamesPlayed,pts,reb,ast,stl,blk,tov,foulPers,plusMinus,minSeconds,fgPct,fg3PtPct,ftPct"

// Client pulls season player totals from a MySportsFeeds-style API
// ⭐ SSOT: MySportsFeeds API 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
	apiKey     string
	password   string
	season     string
}

// NewClient creates a new stats API client. The httputil client carries
// retry, rate limiting and the circuit breaker.
func NewClient(httpClient *httputil.Client, cfg config.MSFConfig, season string, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log.WithModule("msf"),
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		password:   cfg.Password,
		season:     season,
	}
}

// NewHTTPClient builds the transport for the stats API: retry with backoff,
// the given limiter (Redis sliding window or in-process) and a circuit breaker.
func NewHTTPClient(cfg config.MSFConfig, limiter httputil.Limiter, log *logger.Logger) *httputil.Client {
	c := httputil.NewWithTimeout(log, cfg.Timeout).
		WithRetry(3, 2*time.Second).
		WithCircuitBreaker(httputil.DefaultBreakerConfig(SourceName))
	if limiter != nil {
		c = c.WithRateLimiter(limiter)
	}
	return c
}

// Name returns the source name
func (c *Client) Name() string {
	return SourceName
}

// FetchStatistics returns one per-game record per player for the season
func (c *Client) FetchStatistics(ctx context.Context) ([]contracts.StatisticRecord, error) {
	endpoint := fmt.Sprintf("%s/%s/player_stats_totals.json", c.baseURL, url.PathEscape(c.season))
	params := url.Values{}
	params.Set("stats", statsFields)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request failed: %w", err)
	}
	req.SetBasicAuth(c.apiKey, c.password)
	req.Header.Set("Accept-Encoding", "identity")

	var resp StatsTotalsResponse
	if err := c.httpClient.GetJSON(req, &resp); err != nil {
		return nil, fmt.Errorf("fetch player stats totals: %w", err)
	}

	records := make([]contracts.StatisticRecord, 0, len(resp.PlayerStatsTotals))
	for _, entry := range resp.PlayerStatsTotals {
		if entry.Player.ID == 0 {
			continue
		}
		records = append(records, entry.Record())
	}

	c.logger.WithFields(map[string]interface{}{
		"season":  c.season,
		"players": len(records),
		"updated": resp.LastUpdatedOn,
	}).Info("Fetched player stats totals")

	return records, nil
}

// Record converts season totals into a per-game statistic record
func (e PlayerStatsEntry) Record() contracts.StatisticRecord {
	rec := contracts.StatisticRecord{
		ExternalID: strconv.FormatInt(e.Player.ID, 10),
		Name:       strings.TrimSpace(e.Player.FirstName + " " + e.Player.LastName),
		Source:     SourceName,
		Features:   make(map[string]*float64),
	}

	s := e.Stats
	rec.Features["games_played"] = s.GamesPlayed
	rec.Features["points"] = s.Offense.Pts
	rec.Features["assists"] = s.Offense.Ast
	rec.Features["rebounds"] = s.Rebounds.Reb
	rec.Features["steals"] = s.Defense.Stl
	rec.Features["blocks"] = s.Defense.Blk
	rec.Features["turnovers"] = s.Defense.Tov
	rec.Features["personal_fouls"] = s.Miscellaneous.FoulPers
	rec.Features["plus_minus"] = s.Miscellaneous.PlusMinus
	rec.Features["field_goal_pct"] = s.FieldGoals.FgPct
	rec.Features["three_point_pct"] = s.FieldGoals.Fg3PtPct
	rec.Features["free_throw_pct"] = s.FreeThrows.FtPct
	if sec := s.Miscellaneous.MinSeconds; sec != nil {
		rec.Set("minutes", *sec/60)
	}

	return scoring.FromSeasonTotals(rec, "games_played")
}
