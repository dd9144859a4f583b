// Package scorefeed retrieves match schedules and live scores from external
// sports-data providers. Two provider schemas are supported; both are
// normalized into the canonical snapshot shape before anything else in the
// system sees them. Availability is best effort: callers treat every error as
// "try again next tick".
package scorefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"time"
)

// Snapshot is the canonical shape of one externally-reported match
type Snapshot struct {
	ExternalID string
	League     string
	HomeTeam   string
	AwayTeam   string
	StartTime  time.Time
	Venue      string
	Status     string // scheduled, live, finished, postponed
	HomeScore  *int
	AwayScore  *int
}

// Client fetches from the primary provider and falls back to the secondary
// when the primary is unreachable or returns garbage.
type Client struct {
	PrimaryURL  string
	FallbackURL string
	APIKey      string
	MockFeed    bool
	client      *http.Client
}

// NewClient creates a new score feed client
func NewClient(primaryURL, fallbackURL, apiKey string, timeout time.Duration, mockFeed bool) *Client {
	return &Client{
		PrimaryURL:  primaryURL,
		FallbackURL: fallbackURL,
		APIKey:      apiKey,
		MockFeed:    mockFeed,
		client:      &http.Client{Timeout: timeout},
	}
}

// FetchLeague retrieves upcoming and live matches for one league
func (c *Client) FetchLeague(ctx context.Context, league string) ([]Snapshot, error) {
	if c.MockFeed {
		return c.mockLeague(league), nil
	}

	snaps, primaryErr := c.fetchPrimary(ctx, league)
	if primaryErr == nil {
		return snaps, nil
	}
	snaps, fallbackErr := c.fetchFallback(ctx, league)
	if fallbackErr != nil {
		return nil, fmt.Errorf("primary: %v; fallback: %w", primaryErr, fallbackErr)
	}
	return snaps, nil
}

// FetchLiveScores retrieves current scores for all leagues the providers cover
func (c *Client) FetchLiveScores(ctx context.Context) ([]Snapshot, error) {
	if c.MockFeed {
		return c.mockScores(), nil
	}

	snaps, primaryErr := c.fetchPrimary(ctx, "")
	if primaryErr == nil {
		return snaps, nil
	}
	snaps, fallbackErr := c.fetchFallback(ctx, "")
	if fallbackErr != nil {
		return nil, fmt.Errorf("primary: %v; fallback: %w", primaryErr, fallbackErr)
	}
	return snaps, nil
}

// primaryMatch is the primary provider's match document
type primaryMatch struct {
	FixtureID int64  `json:"fixture_id"`
	League    string `json:"league_key"`
	HomeName  string `json:"home_name"`
	AwayName  string `json:"away_name"`
	Kickoff   string `json:"kickoff_utc"` // RFC3339
	Venue     string `json:"venue"`
	Status    string `json:"status"` // NS, 1H, 2H, HT, FT, PST
	GoalsHome *int   `json:"goals_home"`
	GoalsAway *int   `json:"goals_away"`
}

type primaryResponse struct {
	Response []primaryMatch `json:"response"`
}

// fallbackMatch is the fallback provider's match document
type fallbackMatch struct {
	ID        string `json:"id"`
	Sport     string `json:"sport"`
	Home      string `json:"homeTeam"`
	Away      string `json:"awayTeam"`
	StartDate string `json:"startDate"` // 2006-01-02 15:04
	Completed bool   `json:"completed"`
	Scores    []struct {
		Name  string `json:"name"`
		Score int    `json:"score"`
	} `json:"scores"`
}

func (c *Client) fetchPrimary(ctx context.Context, league string) ([]Snapshot, error) {
	url := c.PrimaryURL + "/fixtures"
	if league != "" {
		url += "?league=" + league
	}
	body, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}

	var resp primaryResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse primary feed: %w", err)
	}

	snaps := make([]Snapshot, 0, len(resp.Response))
	for _, m := range resp.Response {
		snap, err := normalizePrimary(m)
		if err != nil {
			// One malformed fixture must not sink the batch.
			continue
		}
		snaps = append(snaps, snap)
	}
	return snaps, nil
}

func (c *Client) fetchFallback(ctx context.Context, league string) ([]Snapshot, error) {
	url := c.FallbackURL + "/scores"
	if league != "" {
		url += "?sport=" + league
	}
	body, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}

	var matches []fallbackMatch
	if err := json.Unmarshal(body, &matches); err != nil {
		return nil, fmt.Errorf("failed to parse fallback feed: %w", err)
	}

	snaps := make([]Snapshot, 0, len(matches))
	for _, m := range matches {
		snap, err := normalizeFallback(m)
		if err != nil {
			continue
		}
		snaps = append(snaps, snap)
	}
	return snaps, nil
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-Api-Key", c.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read feed response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned status %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}

// --- Mock feed ---

var mockTeams = map[string][][2]string{
	"epl": {
		{"Arsenal", "Chelsea"},
		{"Liverpool", "Manchester City"},
		{"Manchester United", "Tottenham Hotspur"},
		{"Newcastle United", "Aston Villa"},
		{"Brighton", "West Ham United"},
		{"Everton", "Fulham"},
	},
	"nba": {
		{"Los Angeles Lakers", "Boston Celtics"},
		{"Golden State Warriors", "Phoenix Suns"},
		{"Milwaukee Bucks", "Miami Heat"},
		{"Denver Nuggets", "Dallas Mavericks"},
		{"New York Knicks", "Philadelphia 76ers"},
		{"Cleveland Cavaliers", "Oklahoma City Thunder"},
	},
}

func (c *Client) mockLeague(league string) []Snapshot {
	pairs, ok := mockTeams[league]
	if !ok {
		return nil
	}
	now := time.Now().UTC()
	snaps := make([]Snapshot, 0, len(pairs))
	for i, p := range pairs {
		snaps = append(snaps, Snapshot{
			ExternalID: fmt.Sprintf("%s-%s-%d", league, now.Format("20060102"), i),
			League:     league,
			HomeTeam:   p[0],
			AwayTeam:   p[1],
			StartTime:  now.Add(time.Duration(12+i*2) * time.Hour),
			Venue:      p[0] + " Arena",
			Status:     "scheduled",
		})
	}
	return snaps
}

func (c *Client) mockScores() []Snapshot {
	var snaps []Snapshot
	now := time.Now().UTC()
	for league, pairs := range mockTeams {
		for i, p := range pairs {
			home := rand.Intn(4)
			away := rand.Intn(4)
			snaps = append(snaps, Snapshot{
				ExternalID: fmt.Sprintf("%s-%s-%d", league, now.Format("20060102"), i),
				League:     league,
				HomeTeam:   p[0],
				AwayTeam:   p[1],
				StartTime:  now.Add(-2 * time.Hour),
				Venue:      p[0] + " Arena",
				Status:     "finished",
				HomeScore:  &home,
				AwayScore:  &away,
			})
		}
	}
	return snaps
}
