// Package riot is the HTTP client for the Riot Games API. Account and
// match endpoints go to the continental routing host, champion mastery
// to the platform host.
package riot

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/doyaji/rift-rewind/external/secrets"
	"github.com/doyaji/rift-rewind/internal/domain/account"
	"github.com/doyaji/rift-rewind/internal/domain/match"
	"github.com/doyaji/rift-rewind/internal/platform/logging"
	"github.com/doyaji/rift-rewind/internal/platform/resilience"
	"github.com/doyaji/rift-rewind/internal/usecase"
	"github.com/valyala/bytebufferpool"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	defaultTokenSecretName = "riot-api-key"
	defaultMaxAttempts     = 3
	maxResponseBytes       = 6 << 20
)

var riotTokenHeaderRegex = regexp.MustCompile(`(?i)x-riot-token:\s*\S+`)
var errRiotTransient = crerr.New("riot transient failure")

type ClientConfig struct {
	HTTPClient *http.Client
	// BaseURL overrides both routing and platform hosts when set.
	// Used by tests; production resolves hosts per region.
	BaseURL         string
	Secrets         secrets.Provider
	TokenSecretName string
	Timeout         time.Duration
	MaxAttempts     int
	Logger          *logging.Logger
	CircuitBreaker  resilience.CircuitBreakerConfig
}

type Client struct {
	httpClient  *http.Client
	baseURL     string
	secrets     secrets.Provider
	tokenName   string
	maxAttempts int
	logger      *logging.Logger
	breaker     *resilience.CircuitBreaker
	flight      *resilience.Group[[]byte]
}

var _ usecase.RiotAPI = (*Client)(nil)

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 15 * time.Second
	}

	tokenName := strings.TrimSpace(cfg.TokenSecretName)
	if tokenName == "" {
		tokenName = defaultTokenSecretName
	}

	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}

	return &Client{
		httpClient:  httpClient,
		baseURL:     strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		secrets:     cfg.Secrets,
		tokenName:   tokenName,
		maxAttempts: maxAttempts,
		logger:      logger,
		breaker:     resilience.NewCircuitBreaker(cfg.CircuitBreaker),
		flight:      resilience.NewGroup[[]byte](),
	}
}

// ResolveAccount looks up the account for a riot id on the region's
// continental routing host.
func (c *Client) ResolveAccount(ctx context.Context, region account.Region, id account.RiotID) (account.Identity, error) {
	path := fmt.Sprintf("/riot/account/v1/accounts/by-riot-id/%s/%s",
		url.PathEscape(id.GameName), url.PathEscape(id.TagLine))

	var identity account.Identity
	if err := c.getJSON(ctx, c.routingHost(region)+path, &identity); err != nil {
		if crerr.Is(err, usecase.ErrNotFound) {
			return account.Identity{}, fmt.Errorf("%w: riot id %s not found, check spelling and region", usecase.ErrNotFound, id)
		}
		return account.Identity{}, fmt.Errorf("resolve account %s: %w", id, err)
	}
	if identity.PUUID == "" {
		return account.Identity{}, fmt.Errorf("%w: account response missing puuid", usecase.ErrUpstream)
	}
	return identity, nil
}

// ListMatchIDs returns the player's most recent match ids, newest
// first.
func (c *Client) ListMatchIDs(ctx context.Context, region account.Region, puuid string, count int) ([]string, error) {
	path := fmt.Sprintf("/lol/match/v5/matches/by-puuid/%s/ids?start=0&count=%d",
		url.PathEscape(puuid), count)

	var ids []string
	if err := c.getJSON(ctx, c.routingHost(region)+path, &ids); err != nil {
		return nil, fmt.Errorf("list match ids: %w", err)
	}
	return ids, nil
}

// GetMatch fetches a full match document. The raw bytes are returned
// alongside the parsed payload so the archive keeps every field.
func (c *Client) GetMatch(ctx context.Context, region account.Region, matchID string) (match.Payload, []byte, error) {
	path := "/lol/match/v5/matches/" + url.PathEscape(matchID)

	var payload match.Payload
	raw, err := c.getJSONRaw(ctx, c.routingHost(region)+path, &payload)
	if err != nil {
		return match.Payload{}, nil, fmt.Errorf("fetch match %s: %w", matchID, err)
	}
	return payload, raw, nil
}

// TopMasteries returns the player's highest champion masteries from
// the platform host.
func (c *Client) TopMasteries(ctx context.Context, region account.Region, puuid string, count int) ([]usecase.ExternalMastery, error) {
	path := fmt.Sprintf("/lol/champion-mastery/v4/champion-masteries/by-puuid/%s/top?count=%d",
		url.PathEscape(puuid), count)

	var entries []MasteryEntry
	if err := c.getJSON(ctx, c.platformHost(region)+path, &entries); err != nil {
		return nil, fmt.Errorf("fetch champion mastery: %w", err)
	}

	out := make([]usecase.ExternalMastery, 0, len(entries))
	for _, e := range entries {
		out = append(out, usecase.ExternalMastery{
			ChampionID:           e.ChampionID,
			ChampionLevel:        e.ChampionLevel,
			ChampionPoints:       e.ChampionPoints,
			LastPlayTime:         e.LastPlayTime,
			PointsSinceLastLevel: e.ChampionPointsSinceLastLevel,
			PointsUntilNextLevel: e.ChampionPointsUntilNextLevel,
			TokensEarned:         e.TokensEarned,
			ChestGranted:         e.ChestGranted,
		})
	}
	return out, nil
}

func (c *Client) routingHost(region account.Region) string {
	if c.baseURL != "" {
		return c.baseURL
	}
	return fmt.Sprintf("https://%s.api.riotgames.com", region.Routing())
}

func (c *Client) platformHost(region account.Region) string {
	if c.baseURL != "" {
		return c.baseURL
	}
	return fmt.Sprintf("https://%s.api.riotgames.com", region)
}

func (c *Client) getJSON(ctx context.Context, fullURL string, target any) error {
	_, err := c.getJSONRaw(ctx, fullURL, target)
	return err
}

func (c *Client) getJSONRaw(ctx context.Context, fullURL string, target any) ([]byte, error) {
	raw, err := c.flight.Do(ctx, fullURL, func(ctx context.Context) ([]byte, error) {
		var out []byte
		breakerErr := c.breaker.Do(func() error {
			var reqErr error
			out, reqErr = c.executeRequest(ctx, fullURL)
			return reqErr
		}, func(err error) bool {
			return crerr.Is(err, errRiotTransient)
		})
		return out, breakerErr
	})
	if err != nil {
		if crerr.Is(err, resilience.ErrCircuitOpen) {
			c.logger.WarnContext(ctx, "riot circuit breaker rejected request", "state", c.breaker.State())
			return nil, fmt.Errorf("%w: riot api is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
		return nil, err
	}

	if err := sonic.Unmarshal(raw, target); err != nil {
		return nil, fmt.Errorf("decode riot payload: %w", err)
	}
	return raw, nil
}

func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	token, err := c.secrets.Get(ctx, c.tokenName)
	if err != nil {
		return nil, fmt.Errorf("%w: riot api credential: %v", usecase.ErrDependencyUnavailable, err)
	}

	var lastErr error
	transportFaults := 0
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("X-Riot-Token", token)

		wait := time.Duration(attempt) * time.Second

		resp, err := c.httpClient.Do(req)
		if err != nil {
			transportFaults++
			lastErr = fmt.Errorf("%w: send request: %s", errRiotTransient, sanitizeSensitiveText(err.Error(), token))
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
			_ = resp.Body.Close()

			switch {
			case readErr != nil:
				transportFaults++
				lastErr = fmt.Errorf("%w: read response body: %v", errRiotTransient, readErr)
			case resp.StatusCode >= 200 && resp.StatusCode < 300:
				return raw, nil
			case resp.StatusCode == http.StatusTooManyRequests:
				wait = retryAfter(resp.Header)
				lastErr = fmt.Errorf("%w: riot %s", usecase.ErrRateLimited, requestPreview(fullURL, resp.StatusCode, raw, token))
			case resp.StatusCode == http.StatusNotFound:
				return nil, fmt.Errorf("%w: riot %s", usecase.ErrNotFound, requestPreview(fullURL, resp.StatusCode, raw, token))
			case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
				return nil, fmt.Errorf("%w: riot api key rejected, regenerate it in the developer portal", usecase.ErrUnauthorized)
			case resp.StatusCode >= 500:
				lastErr = fmt.Errorf("%w: riot %s", errRiotTransient, requestPreview(fullURL, resp.StatusCode, raw, token))
			default:
				return nil, fmt.Errorf("%w: riot %s", usecase.ErrUpstream, requestPreview(fullURL, resp.StatusCode, raw, token))
			}
		}

		// Wire-level faults get exactly one retry; only 429 and 5xx
		// responses use the full attempt budget.
		if attempt == c.maxAttempts || transportFaults > 1 {
			break
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("%w: riot request failed", usecase.ErrUpstream)
	}
	if crerr.Is(lastErr, errRiotTransient) {
		lastErr = crerr.Mark(fmt.Errorf("%w: %v", usecase.ErrUpstream, lastErr), errRiotTransient)
	}
	c.logger.WarnContext(ctx, "riot request failed", "url", fullURL, "error", lastErr)
	return nil, lastErr
}

// retryAfter reads the Retry-After header in seconds, defaulting to
// one second when absent or malformed.
func retryAfter(h http.Header) time.Duration {
	raw := strings.TrimSpace(h.Get("Retry-After"))
	if raw == "" {
		return time.Second
	}
	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds < 0 {
		return time.Second
	}
	return time.Duration(seconds) * time.Second
}

// requestPreview assembles a short, token-free description of a failed
// exchange for error text and logs.
func requestPreview(fullURL string, status int, body []byte, token string) string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	_, _ = buf.WriteString("status=")
	_, _ = buf.WriteString(strconv.Itoa(status))
	_, _ = buf.WriteString(" url=")
	_, _ = buf.WriteString(fullURL)
	_, _ = buf.WriteString(" body=")
	_, _ = buf.WriteString(abbreviateBody(body))
	return sanitizeSensitiveText(buf.String(), token)
}

func abbreviateBody(raw []byte) string {
	const limit = 256
	body := strings.TrimSpace(string(raw))
	if len(body) > limit {
		return body[:limit] + "..."
	}
	if body == "" {
		return "<empty>"
	}
	return body
}

func sanitizeSensitiveText(value, token string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return value
	}
	if token != "" {
		value = strings.ReplaceAll(value, token, "REDACTED")
	}
	return riotTokenHeaderRegex.ReplaceAllString(value, "X-Riot-Token: REDACTED")
}
