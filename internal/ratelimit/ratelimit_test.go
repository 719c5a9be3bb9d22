package ratelimit_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/jonmartinstorm/slsnusern/internal/ratelimit"
)

func TestRatelimit(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Ratelimit Suite")
}

// fastClock gir deterministisk tid og samler opp søvn i stedet for å sove.
type fastClock struct {
	now   time.Time
	slept []time.Duration
}

func (f *fastClock) Now() time.Time {
	return f.now
}

func (f *fastClock) Sleep(_ context.Context, d time.Duration) {
	f.slept = append(f.slept, d)
}

func headersFor(remaining int, reset time.Time) http.Header {
	h := http.Header{}
	h.Set("X-RateLimit-Remaining", fmt.Sprint(remaining))
	h.Set("X-RateLimit-Reset", fmt.Sprint(reset.Unix()))
	return h
}

var _ = Describe("Limiter.CheckAndWait", func() {
	var (
		ctx   context.Context
		clock *fastClock
	)

	newLimiter := func(baseURL string) *ratelimit.Limiter {
		l := ratelimit.New(baseURL, "dummy-token", nil)
		l.Now = clock.Now
		l.Sleep = clock.Sleep
		return l
	}

	BeforeEach(func() {
		ctx = context.Background()
		clock = &fastClock{now: time.Unix(1_700_000_000, 0)}
	})

	It("blokkerer ikke når remaining er over terskelen", func() {
		l := newLimiter("http://unused.invalid")
		l.CheckAndWait(ctx, headersFor(500, clock.now.Add(time.Hour)))

		Expect(clock.slept).To(BeEmpty())
		Expect(l.Remaining()).To(Equal(500))
	})

	It("sover minst til reset pluss buffer når kvoten er lav", func() {
		l := newLimiter("http://unused.invalid")
		reset := clock.now.Add(10 * time.Second)

		l.CheckAndWait(ctx, headersFor(5, reset))

		Expect(clock.slept).To(HaveLen(1))
		Expect(clock.slept[0]).To(BeNumerically(">=", 10*time.Second))
		Expect(clock.slept[0]).To(Equal(10*time.Second + l.Buffer))
	})

	It("henter kvoten eksplisitt når headere mangler", func() {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			Expect(r.URL.Path).To(Equal("/rate_limit"))
			Expect(r.Header.Get("Authorization")).To(Equal("Bearer dummy-token"))
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprintf(w, `{"rate": {"remaining": 4321, "reset": %d}}`, clock.now.Add(time.Hour).Unix())
		}))
		defer ts.Close()

		l := newLimiter(ts.URL)
		l.Client = ts.Client()

		l.CheckAndWait(ctx, nil)

		Expect(l.Remaining()).To(Equal(4321))
		Expect(clock.slept).To(BeEmpty())
	})

	It("henter eksplisitt når headerne ikke lar seg tolke", func() {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprintf(w, `{"rate": {"remaining": 999, "reset": %d}}`, clock.now.Add(time.Hour).Unix())
		}))
		defer ts.Close()

		l := newLimiter(ts.URL)
		l.Client = ts.Client()

		h := http.Header{}
		h.Set("X-RateLimit-Remaining", "ikke-et-tall")
		l.CheckAndWait(ctx, h)

		Expect(l.Remaining()).To(Equal(999))
	})

	It("sover lav kvote fra eksplisitt henting også", func() {
		reset := clock.now.Add(20 * time.Second)
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprintf(w, `{"rate": {"remaining": 1, "reset": %d}}`, reset.Unix())
		}))
		defer ts.Close()

		l := newLimiter(ts.URL)
		l.Client = ts.Client()

		l.CheckAndWait(ctx, nil)

		Expect(clock.slept).To(HaveLen(1))
		Expect(clock.slept[0]).To(Equal(20*time.Second + l.Buffer))
	})

	It("sover fast fallback når proben feiler på transport", func() {
		l := newLimiter("http://127.0.0.1:0")

		l.CheckAndWait(ctx, nil)

		Expect(clock.slept).To(ConsistOf(l.ProbeFallback))
	})

	It("sover fast fallback når proben svarer med ugyldig JSON", func() {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `ikke json`)
		}))
		defer ts.Close()

		l := newLimiter(ts.URL)
		l.Client = ts.Client()

		l.CheckAndWait(ctx, nil)

		Expect(clock.slept).To(ConsistOf(l.ProbeFallback))
	})

	It("sover fast fallback når proben mangler felter", func() {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"rate": {}}`)
		}))
		defer ts.Close()

		l := newLimiter(ts.URL)
		l.Client = ts.Client()

		l.CheckAndWait(ctx, nil)

		Expect(clock.slept).To(ConsistOf(l.ProbeFallback))
	})
})
