// Package raiderio encapsulates all outbound requests to the raider.io
// service and normalizes its heterogeneous response envelopes into plain
// lists of typed domain records. Weakly-typed payloads never leave this
// package.
package raiderio

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/tidwall/gjson"

	"github.com/mythra/keymates/internal/domain/extract"
	"github.com/mythra/keymates/internal/domain/model"
	"github.com/mythra/keymates/pkg/logger"
	"github.com/mythra/keymates/pkg/metrics"
)

// userAgent is the fixed identifying header attached to every request.
// Part of the external contract with the service; do not change.
const userAgent = "MythicTrackerBot/1.0 (+https://github.com)"

// Endpoint path templates. Paths and parameter names are an external
// contract with the remote service and are preserved byte-for-byte.
const (
	profilePath = "/api/v1/characters/profile?region=%s&realm=%s&name=%s" +
		"&access_key=%s&fields=mythic_plus_best_runs:all,mythic_plus_alternate_runs:all,mythic_plus_recent_runs"
	characterRunsPath = "/api/characters/mythic-plus-runs?season=%s" +
		"&characterId=%d&role=all&specId=0&mode=scored&affixes=all&date=all"
	runDetailsPath    = "/api/v1/mythic-plus/run-details?id=%d&season=%s&access_key=%s"
	characterPagePath = "/characters/%s/%s/%s?season=%s"
)

// Endpoint names used for metrics and log narration.
const (
	endpointProfile       = "profile"
	endpointCharacterRuns = "character-runs"
	endpointRunDetails    = "run-details"
	endpointCharacterPage = "character-page"
)

const defaultTimeout = 30 * time.Second

// Client issues query operations against the remote service.
type Client struct {
	baseURL    string
	accessKey  string
	season     string
	httpClient *http.Client
	logger     logger.Logger
}

// NewClient constructs a Client for the given credential and season.
func NewClient(accessKey, season string, opts ...Option) *Client {
	c := &Client{
		baseURL:   "https://raider.io",
		accessKey: accessKey,
		season:    season,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		logger: nil, // resolved lazily from the global logger
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.logger == nil {
		c.logger = logger.Named("raiderio")
	}
	return c
}

// DungeonIDs fetches the character profile and harvests the distinct
// dungeon/zone ids referenced by its best, alternate, and recent runs.
func (c *Client) DungeonIDs(ctx context.Context, region, realm, name string) ([]int64, error) {
	target := c.baseURL + fmt.Sprintf(profilePath,
		url.QueryEscape(region), url.QueryEscape(realm), url.QueryEscape(name), url.QueryEscape(c.accessKey))

	payload, err := c.getJSON(ctx, endpointProfile, target)
	if err != nil {
		return nil, err
	}
	return extract.ZoneIDs(payload), nil
}

// RunsForDungeon fetches the character's runs scoped to one dungeon.
// The envelope may be a bare list or an object wrapping the list under
// "runs" or "data"; both are normalized.
func (c *Client) RunsForDungeon(ctx context.Context, characterID, dungeonID int64) ([]model.Run, error) {
	target := c.baseURL + fmt.Sprintf(characterRunsPath, url.QueryEscape(c.season), characterID) +
		"&dungeonId=" + strconv.FormatInt(dungeonID, 10)

	payload, err := c.getJSON(ctx, endpointCharacterRuns, target)
	if err != nil {
		return nil, err
	}
	return projectRuns(payload), nil
}

// RunsForCharacter fetches all of the character's runs in one bulk request.
// Alternate discovery strategy to per-dungeon enumeration.
func (c *Client) RunsForCharacter(ctx context.Context, characterID int64) ([]model.Run, error) {
	target := c.baseURL + fmt.Sprintf(characterRunsPath, url.QueryEscape(c.season), characterID)

	payload, err := c.getJSON(ctx, endpointCharacterRuns, target)
	if err != nil {
		return nil, err
	}
	return projectRuns(payload), nil
}

// RunRoster fetches full run details and extracts the participant list,
// tolerating the four response shapes the service has been observed to emit.
func (c *Client) RunRoster(ctx context.Context, runID int64) ([]model.RosterMember, error) {
	target := c.baseURL + fmt.Sprintf(runDetailsPath, runID, url.QueryEscape(c.season), url.QueryEscape(c.accessKey))

	payload, err := c.getJSON(ctx, endpointRunDetails, target)
	if err != nil {
		return nil, err
	}
	return extract.Roster(payload), nil
}

// projectRuns normalizes the envelope and projects each record, keeping
// unidentified runs so discovery can count and drop them.
func projectRuns(payload gjson.Result) []model.Run {
	raw := extract.Runs(payload)
	runs := make([]model.Run, 0, len(raw))
	for _, record := range raw {
		runs = append(runs, extract.Run(record))
	}
	return runs
}

// get issues one GET with the identifying header and returns the body.
func (c *Client) get(ctx context.Context, endpoint, target string) ([]byte, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrRequestFailed, endpoint, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordAPIRequest(endpoint, "error")
		return nil, fmt.Errorf("%w: %s: %w", ErrRequestFailed, endpoint, err)
	}
	defer resp.Body.Close() //nolint:errcheck // response body close error is not actionable

	metrics.RecordAPIRequestDuration(endpoint, time.Since(start).Seconds())

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		metrics.RecordAPIRequest(endpoint, "error")
		return nil, fmt.Errorf("%w: %s: unexpected status %d", ErrRequestFailed, endpoint, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.RecordAPIRequest(endpoint, "error")
		return nil, fmt.Errorf("%w: %s: reading body: %w", ErrRequestFailed, endpoint, err)
	}

	metrics.RecordAPIRequest(endpoint, "success")
	c.logger.Debug(ctx, "request completed",
		logger.String("endpoint", endpoint),
		logger.Duration("elapsed", time.Since(start)),
	)
	return body, nil
}

// getJSON issues a GET and parses the body as JSON.
func (c *Client) getJSON(ctx context.Context, endpoint, target string) (gjson.Result, error) {
	body, err := c.get(ctx, endpoint, target)
	if err != nil {
		return gjson.Result{}, err
	}
	if !gjson.ValidBytes(body) {
		metrics.RecordAPIRequest(endpoint, "malformed")
		return gjson.Result{}, fmt.Errorf("%w: %s: malformed response body", ErrRequestFailed, endpoint)
	}
	return gjson.ParseBytes(body), nil
}
