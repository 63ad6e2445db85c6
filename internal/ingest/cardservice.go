package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/christopherklint97/worklog/internal/activity"
)

const (
	defaultCardBaseURL = "https://api.trello.com/1"

	// DefaultCommentDuration is how long writing one card comment is assumed
	// to take.
	DefaultCommentDuration = 10 * time.Minute

	// cardFetchLimit is the largest page the card service accepts.
	cardFetchLimit = 1000
)

type cardAction struct {
	ID   string    `json:"id"`
	Date time.Time `json:"date"`
	Data struct {
		Card *struct {
			Name      string `json:"name"`
			ShortLink string `json:"shortLink"`
		} `json:"card"`
		Board *struct {
			Name string `json:"name"`
		} `json:"board"`
	} `json:"data"`
}

// CardClient fetches card comments written by one member.
type CardClient struct {
	apiKey     string
	token      string
	username   string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	backoff    func(attempt int) time.Duration
}

func NewCardClient(apiKey, token, username, baseURL string, logger *slog.Logger) *CardClient {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if baseURL == "" {
		baseURL = defaultCardBaseURL
	}
	return &CardClient{
		apiKey:   apiKey,
		token:    token,
		username: username,
		baseURL:  strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger:  logger,
		backoff: backoff,
	}
}

func backoff(attempt int) time.Duration {
	return time.Duration(math.Pow(2, float64(attempt))) * time.Second
}

func (c *CardClient) doRequest(ctx context.Context, path string, query url.Values) ([]byte, error) {
	query.Set("key", c.apiKey)
	query.Set("token", c.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	c.logger.Debug("card service request", "path", path)

	var resp *http.Response
	maxRetries := 3
	requestStart := time.Now()
	for attempt := 0; attempt <= maxRetries; attempt++ {
		resp, err = c.httpClient.Do(req)
		if err != nil {
			if attempt == maxRetries || ctx.Err() != nil {
				c.logger.Error("card service transport error", "path", path, "error", err, "elapsed", time.Since(requestStart))
				return nil, fmt.Errorf("sending request: %w", err)
			}
			c.logger.Debug("card service transport error, retrying", "path", path, "attempt", attempt+1, "error", err)
			if err := sleep(ctx, c.backoff(attempt)); err != nil {
				return nil, err
			}
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			resp.Body.Close()
			if attempt == maxRetries {
				c.logger.Error("card service request failed after retries", "path", path, "status", resp.StatusCode, "attempts", maxRetries+1)
				return nil, fmt.Errorf("API returned status %d after %d retries", resp.StatusCode, maxRetries)
			}
			c.logger.Debug("card service retryable error", "path", path, "status", resp.StatusCode, "attempt", attempt+1)
			if err := sleep(ctx, c.backoff(attempt)); err != nil {
				return nil, err
			}
			continue
		}
		break
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	c.logger.Debug("card service response", "path", path, "status", resp.StatusCode, "bytes", len(body), "elapsed", time.Since(requestStart))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, truncate(string(body), 200))
	}
	return body, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// FetchActivities returns one activity per comment the member wrote between
// since and before. Each activity spans the DefaultCommentDuration leading up
// to the comment.
func (c *CardClient) FetchActivities(ctx context.Context, since, before time.Time) ([]activity.Activity, error) {
	if c.username == "" {
		return nil, fmt.Errorf("card service username is empty, set trello.username in config or TRELLO_USERNAME")
	}

	query := url.Values{}
	query.Set("filter", "commentCard")
	query.Set("member", "false")
	query.Set("memberCreator", "false")
	query.Set("limit", fmt.Sprint(cardFetchLimit))
	query.Set("since", since.Format("2006-01-02"))
	query.Set("before", before.Format("2006-01-02"))

	data, err := c.doRequest(ctx, "/members/"+url.PathEscape(c.username)+"/actions", query)
	if err != nil {
		return nil, fmt.Errorf("fetching comments: %w", err)
	}

	var actions []cardAction
	if err := json.Unmarshal(data, &actions); err != nil {
		return nil, fmt.Errorf("parsing comments response: %w", err)
	}

	activities := make([]activity.Activity, 0, len(actions))
	for _, act := range actions {
		a := activity.Activity{
			ID:          "card-service-" + act.ID,
			Title:       "Untitled",
			Start:       act.Date.Add(-DefaultCommentDuration).Local(),
			End:         act.Date.Local(),
			Description: "Board: Unknown Board",
			Source:      activity.SourceCardService,
		}
		if act.Data.Card != nil {
			a.Title = "Comment on " + act.Data.Card.Name
			a.Location = "https://trello.com/c/" + act.Data.Card.ShortLink
		}
		if act.Data.Board != nil && act.Data.Board.Name != "" {
			a.Description = "Board: " + act.Data.Board.Name
		}
		activities = append(activities, a)
	}
	if len(actions) == cardFetchLimit {
		c.logger.Warn("card service returned a full page, older comments may be missing", "limit", cardFetchLimit)
	}
	return activities, nil
}
