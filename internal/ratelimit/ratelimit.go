package ratelimit

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"
)

const (
	// GitHub-kvoten for autentiserte kall; startverdi til første svar er sett.
	defaultRemaining = 5000

	defaultThreshold     = 30
	defaultBuffer        = 15 * time.Second
	defaultProbeFallback = 60 * time.Second
)

// Limiter holder prosessens delte rate-limit-tilstand mot GitHub.
// All tilgang går gjennom mutexen, slik at parallelle workere ikke kan
// passere porten samtidig og sprenge kvoten.
type Limiter struct {
	mu        sync.Mutex
	remaining int
	reset     int64

	Threshold     int
	Buffer        time.Duration
	ProbeFallback time.Duration

	// Injiserbare for testbarhet.
	Client *http.Client
	Now    func() time.Time
	Sleep  func(ctx context.Context, d time.Duration)

	baseURL string
	token   string
}

func New(baseURL, token string, client *http.Client) *Limiter {
	if client == nil {
		client = http.DefaultClient
	}
	return &Limiter{
		remaining:     defaultRemaining,
		Threshold:     defaultThreshold,
		Buffer:        defaultBuffer,
		ProbeFallback: defaultProbeFallback,
		Client:        client,
		Now:           time.Now,
		Sleep:         sleepWithContext,
		baseURL:       baseURL,
		token:         token,
	}
}

// CheckAndWait oppdaterer tilstanden fra responsheadere, eller via et
// eksplisitt /rate_limit-kall når headere mangler, og sover til kvoten er
// tilbake hvis vi er under terskelen. Kall med nil headers før hvert nye
// repo. Blokkerer – aldri feil: usikkerhet om kvoten skal ikke velte batchen.
func (l *Limiter) CheckAndWait(ctx context.Context, headers http.Header) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if headers != nil && l.updateFromHeaders(headers) {
		l.waitIfLow(ctx)
		return
	}

	if !l.probe(ctx) {
		slog.Error("Klarte ikke hente rate limit – sover fast fallback", "varighet", l.ProbeFallback)
		l.Sleep(ctx, l.ProbeFallback)
		return
	}
	l.waitIfLow(ctx)
}

// Remaining er kun ment for logging og tester.
func (l *Limiter) Remaining() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.remaining
}

func (l *Limiter) updateFromHeaders(h http.Header) bool {
	rem, err := strconv.Atoi(h.Get("X-RateLimit-Remaining"))
	if err != nil {
		slog.Warn("Kunne ikke tolke rate-limit-headere – henter eksplisitt")
		return false
	}
	reset, err := strconv.ParseInt(h.Get("X-RateLimit-Reset"), 10, 64)
	if err != nil {
		slog.Warn("Kunne ikke tolke rate-limit-headere – henter eksplisitt")
		return false
	}

	l.remaining = rem
	l.reset = reset
	return true
}

func (l *Limiter) waitIfLow(ctx context.Context) {
	if l.remaining > l.Threshold {
		return
	}

	wait := time.Until(time.Unix(l.reset, 0)) + l.Buffer
	if l.Now != nil {
		wait = time.Unix(l.reset, 0).Sub(l.Now()) + l.Buffer
	}
	if wait <= 0 {
		return
	}

	slog.Warn("Rate limit lav – venter til reset", "remaining", l.remaining, "venter", wait.Truncate(time.Second))
	l.Sleep(ctx, wait)
}

// probe henter kvoten eksplisitt. Returnerer false ved transport- eller
// tolkningsfeil; tilstanden røres ikke da.
func (l *Limiter) probe(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.baseURL+"/rate_limit", nil)
	if err != nil {
		return false
	}
	if l.token != "" {
		req.Header.Set("Authorization", "Bearer "+l.token)
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := l.Client.Do(req)
	if err != nil {
		return false
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			slog.Warn("Klarte ikke å lukke body", "error", cerr)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return false
	}

	var payload struct {
		Rate struct {
			Remaining *int   `json:"remaining"`
			Reset     *int64 `json:"reset"`
		} `json:"rate"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return false
	}
	if payload.Rate.Remaining == nil || payload.Rate.Reset == nil {
		return false
	}

	l.remaining = *payload.Rate.Remaining
	l.reset = *payload.Rate.Reset
	slog.Debug("Rate limit hentet eksplisitt", "remaining", l.remaining)
	return true
}

func sleepWithContext(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
