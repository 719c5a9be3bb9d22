package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/bradleyfalzon/ghinstallation/v2"

	"github.com/jonmartinstorm/slsnusern/internal/config"
	"github.com/jonmartinstorm/slsnusern/internal/ratelimit"
)

const DefaultBaseURL = "https://api.github.com"

// Client snakker med GitHub REST og gater hvert kall gjennom limiteren.
type Client struct {
	HTTP    *http.Client
	BaseURL string
	Token   string
	Limiter *ratelimit.Limiter
}

// New bygger en klient fra konfigurasjonen. Med app-auth konfigurert settes
// Authorization av ghinstallation-transporten i stedet for bearer-token.
func New(cfg config.Config, limiter *ratelimit.Limiter) (*Client, error) {
	httpClient := &http.Client{Timeout: 30 * time.Second}
	token := cfg.Token

	if cfg.UsesAppAuth() {
		tr, err := ghinstallation.NewKeyFromFile(http.DefaultTransport, cfg.AppID, cfg.AppInstallationID, cfg.AppPrivateKey)
		if err != nil {
			return nil, fmt.Errorf("kunne ikke sette opp GitHub App-transport: %w", err)
		}
		httpClient.Transport = tr
		token = ""
	}

	return &Client{
		HTTP:    httpClient,
		BaseURL: DefaultBaseURL,
		Token:   token,
		Limiter: limiter,
	}, nil
}

// getJSON gjør ett GET, oppdaterer rate-limit-tilstanden fra svaret og
// dekoder kroppen inn i out. Status returneres også på feil, slik at
// kallere kan skille 404 fra transportfeil.
func (c *Client) getJSON(ctx context.Context, url string, out any) (int, http.Header, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, nil, err
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			slog.Warn("Klarte ikke å lukke body", "error", cerr)
		}
	}()

	c.Limiter.CheckAndWait(ctx, resp.Header)

	if resp.StatusCode == http.StatusNoContent {
		return resp.StatusCode, resp.Header, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, resp.Header, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, resp.Header, fmt.Errorf("GitHub API-feil: status %d – %s", resp.StatusCode, truncateBody(body))
	}
	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return resp.StatusCode, resp.Header, err
		}
	}
	return resp.StatusCode, resp.Header, nil
}

func truncateBody(body []byte) string {
	const max = 200
	s := string(body)
	if len(s) > max {
		return s[:max]
	}
	return s
}

// nextPageURL plukker rel="next"-lenken ut av en Link-header. Tom streng
// når det ikke finnes flere sider.
func nextPageURL(linkHeader string) string {
	for _, part := range strings.Split(linkHeader, ",") {
		sections := strings.Split(part, ";")
		if len(sections) < 2 {
			continue
		}
		if strings.TrimSpace(sections[1]) != `rel="next"` {
			continue
		}
		return strings.Trim(strings.TrimSpace(sections[0]), "<>")
	}
	return ""
}

// paginated drenerer et paginert endepunkt i siderekkefølge. Feil på en
// enkeltside logges og gir det vi har akkumulert så langt – delresultater
// er forventet, ikke unntak.
func (c *Client) paginated(ctx context.Context, url string, extract func(items []json.RawMessage) []string) []string {
	var all []string

	next := url
	for next != "" {
		var items []json.RawMessage
		status, header, err := c.getJSON(ctx, next, &items)
		if err != nil {
			slog.Warn("Paginert kall feilet – beholder delresultat", "url", next, "error", err)
			break
		}
		if status == http.StatusNoContent || len(items) == 0 {
			break
		}

		all = append(all, extract(items)...)
		next = nextPageURL(header.Get("Link"))
	}

	return all
}
