package challenge

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"
)

// observingPage records every evaluated script and answers bool outputs
// with true, so injection and form submission both appear to succeed.
func observingPage() (*stubPage, *[]string) {
	exprs := &[]string{}
	page := &stubPage{
		evaluateFn: func(_ context.Context, expr string, out any) error {
			*exprs = append(*exprs, expr)
			if b, ok := out.(*bool); ok {
				*b = true
			}
			return nil
		},
	}
	return page, exprs
}

func anyExprContains(exprs []string, substrs ...string) bool {
	for _, expr := range exprs {
		all := true
		for _, sub := range substrs {
			if !strings.Contains(expr, sub) {
				all = false
				break
			}
		}
		if all {
			return true
		}
	}
	return false
}

func challengeDetection() *Detection {
	return &Detection{
		PageURL: "https://www.google.com/sorry/index?continue=https%3A%2F%2Fwww.google.com%2Fsearch%3Fq%3Dgolang",
		Kind:    KindChallenge,
		Sitekey: "sitekey-1",
	}
}

func TestResolverResolveImmediateToken(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"token":"T"}`))
	}))
	defer srv.Close()

	r := NewResolver(
		NewClient(srv.URL, "cred", WithClientLogger(testLogger())),
		WithResolverLogger(testLogger()),
	)
	page, exprs := observingPage()

	if !r.Resolve(context.Background(), page, challengeDetection()) {
		t.Fatal("expected the challenge to resolve")
	}
	if !anyExprContains(*exprs, "g-recaptcha-response", `"T"`) {
		t.Errorf("expected the token to be injected, scripts: %v", *exprs)
	}
}

func TestResolverAdvancesPastUnsupportedType(t *testing.T) {
	t.Parallel()

	var bodies []map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var body map[string]any
		_ = json.Unmarshal(raw, &body)
		bodies = append(bodies, body)

		if body["type"] == TypeRecaptchaV2 {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`Invalid type`))
			return
		}
		_, _ = w.Write([]byte(`{"token":"T3"}`))
	}))
	defer srv.Close()

	r := NewResolver(
		NewClient(srv.URL, "cred", WithClientLogger(testLogger())),
		WithResolverLogger(testLogger()),
	)
	page, exprs := observingPage()

	if !r.Resolve(context.Background(), page, challengeDetection()) {
		t.Fatal("expected the challenge to resolve on the second type")
	}
	if !anyExprContains(*exprs, `"T3"`) {
		t.Errorf("expected the second type's token injected, scripts: %v", *exprs)
	}
	if len(bodies) != 2 {
		t.Fatalf("expected 2 solve requests, got %d", len(bodies))
	}
	if bodies[1]["type"] != TypeRecaptchaV3 || bodies[1]["data"] != v3Action {
		t.Errorf("expected a v3 request with the default action, got %v", bodies[1])
	}
}

func TestResolverPollsTicket(t *testing.T) {
	t.Parallel()

	var polls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			_, _ = w.Write([]byte(`{"id":"9"}`))
			return
		}
		polls++
		if polls < 3 {
			_, _ = w.Write([]byte(`{}`))
			return
		}
		_, _ = w.Write([]byte(`{"solution":"S"}`))
	}))
	defer srv.Close()

	r := NewResolver(
		NewClient(srv.URL, "cred", WithClientLogger(testLogger())),
		WithResolverLogger(testLogger()),
		WithPollInterval(time.Millisecond),
	)
	page, exprs := observingPage()

	if !r.Resolve(context.Background(), page, challengeDetection()) {
		t.Fatal("expected the ticket to resolve")
	}
	if polls != 3 {
		t.Errorf("expected 3 polls, got %d", polls)
	}
	if !anyExprContains(*exprs, `"S"`) {
		t.Errorf("expected the polled token injected, scripts: %v", *exprs)
	}
}

func TestResolverRateLimitBackoff(t *testing.T) {
	t.Parallel()

	var posts int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		posts++
		if posts == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"token":"T"}`))
	}))
	defer srv.Close()

	r := NewResolver(
		NewClient(srv.URL, "cred", WithClientLogger(testLogger())),
		WithResolverLogger(testLogger()),
		WithRateLimitDelay(time.Millisecond),
	)
	page, _ := observingPage()

	if !r.Resolve(context.Background(), page, challengeDetection()) {
		t.Fatal("expected the retry after rate limiting to resolve")
	}
	if posts != 2 {
		t.Errorf("expected 2 solve requests, got %d", posts)
	}
}

func TestResolverAllTypesExhausted(t *testing.T) {
	t.Parallel()

	var posts int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		posts++
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`Invalid type`))
	}))
	defer srv.Close()

	r := NewResolver(
		NewClient(srv.URL, "cred", WithClientLogger(testLogger())),
		WithResolverLogger(testLogger()),
	)
	page, exprs := observingPage()

	if r.Resolve(context.Background(), page, challengeDetection()) {
		t.Fatal("expected unsolved after every type was rejected")
	}
	if posts != len(defaultTypeOrder) {
		t.Errorf("expected %d solve requests, got %d", len(defaultTypeOrder), posts)
	}
	if len(*exprs) != 0 {
		t.Errorf("expected no page scripts without a token, got %v", *exprs)
	}
}

func TestResolverSolveBudgetExhausted(t *testing.T) {
	t.Parallel()

	var posts int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		posts++
		_, _ = w.Write([]byte(`{"token":"T"}`))
	}))
	defer srv.Close()

	r := NewResolver(
		NewClient(srv.URL, "cred", WithClientLogger(testLogger())),
		WithResolverLogger(testLogger()),
		WithSolveBudget(-time.Second),
	)
	page, _ := observingPage()

	if r.Resolve(context.Background(), page, challengeDetection()) {
		t.Fatal("expected unsolved with an exhausted budget")
	}
	if posts != 0 {
		t.Errorf("expected no solve requests, got %d", posts)
	}
}

func TestResolverNoCredential(t *testing.T) {
	t.Parallel()

	r := NewResolver(nil, WithResolverLogger(testLogger()))
	page, exprs := observingPage()

	if r.Resolve(context.Background(), page, challengeDetection()) {
		t.Fatal("expected unsolved without a credential")
	}
	if len(*exprs) != 0 {
		t.Errorf("expected no page interaction, got %v", *exprs)
	}
}

func TestResolverNoSitekey(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("the solver must not be called without a sitekey")
	}))
	defer srv.Close()

	r := NewResolver(
		NewClient(srv.URL, "cred", WithClientLogger(testLogger())),
		WithResolverLogger(testLogger()),
	)
	det := challengeDetection()
	det.Sitekey = ""
	page, _ := observingPage()

	if r.Resolve(context.Background(), page, det) {
		t.Fatal("expected unsolved without a sitekey")
	}
}

func TestResolverExtensionWait(t *testing.T) {
	t.Parallel()

	r := NewResolver(nil,
		WithResolverLogger(testLogger()),
		WithExtensionSolver(time.Millisecond),
	)
	det := challengeDetection()
	det.Sitekey = ""
	page, _ := observingPage()

	if r.Resolve(context.Background(), page, det) {
		t.Fatal("extension solving is unobservable and must report unsolved")
	}
}

func TestResolverConsentKind(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("the solver must not be called for a consent wall")
	}))
	defer srv.Close()

	r := NewResolver(
		NewClient(srv.URL, "cred", WithClientLogger(testLogger())),
		WithResolverLogger(testLogger()),
	)
	det := &Detection{PageURL: "https://consent.google.com/m", Kind: KindConsent}
	page, _ := observingPage()

	if r.Resolve(context.Background(), page, det) {
		t.Fatal("expected unsolved for a surviving consent wall")
	}
}

func TestResolverNilDetection(t *testing.T) {
	t.Parallel()

	r := NewResolver(nil, WithResolverLogger(testLogger()))
	page, _ := observingPage()

	if !r.Resolve(context.Background(), page, nil) {
		t.Error("a nil detection means the page is clear")
	}
}

func TestResolverRevalidateNavigates(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"token":"T"}`))
	}))
	defer srv.Close()

	var navigated []string
	page := &stubPage{
		evaluateFn: func(_ context.Context, expr string, out any) error {
			if b, ok := out.(*bool); ok {
				// The challenge form is gone; only injection succeeds.
				*b = expr != submitFormScript
			}
			return nil
		},
		navigateFn: func(_ context.Context, url string) error {
			navigated = append(navigated, url)
			return nil
		},
	}

	r := NewResolver(
		NewClient(srv.URL, "cred", WithClientLogger(testLogger())),
		WithResolverLogger(testLogger()),
	)

	if !r.Resolve(context.Background(), page, challengeDetection()) {
		t.Fatal("expected the challenge to resolve")
	}
	want := []string{"https://www.google.com/search?q=golang"}
	if !reflect.DeepEqual(navigated, want) {
		t.Errorf("expected navigation to the original destination %v, got %v", want, navigated)
	}
}

func TestResolverRevalidateReloads(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"token":"T"}`))
	}))
	defer srv.Close()

	var reloads int
	page := &stubPage{
		evaluateFn: func(_ context.Context, expr string, out any) error {
			if b, ok := out.(*bool); ok {
				*b = expr != submitFormScript
			}
			return nil
		},
		reloadFn: func(context.Context) error {
			reloads++
			return nil
		},
	}

	det := challengeDetection()
	det.PageURL = "https://www.google.com/search?q=golang"

	r := NewResolver(
		NewClient(srv.URL, "cred", WithClientLogger(testLogger())),
		WithResolverLogger(testLogger()),
	)

	if !r.Resolve(context.Background(), page, det) {
		t.Fatal("expected the challenge to resolve")
	}
	if reloads != 1 {
		t.Errorf("expected one reload, got %d", reloads)
	}
}

func TestCandidateTypes(t *testing.T) {
	t.Parallel()

	r := NewResolver(nil)

	t.Run("no hint keeps the default order", func(t *testing.T) {
		t.Parallel()

		if got := r.candidateTypes(""); !reflect.DeepEqual(got, defaultTypeOrder) {
			t.Errorf("candidateTypes(\"\") = %v, want %v", got, defaultTypeOrder)
		}
	})

	t.Run("hint goes first without duplication", func(t *testing.T) {
		t.Parallel()

		want := []string{TypeHCaptcha, TypeRecaptchaV2, TypeRecaptchaV3, TypeTurnstile}
		if got := r.candidateTypes(TypeHCaptcha); !reflect.DeepEqual(got, want) {
			t.Errorf("candidateTypes(hcaptcha) = %v, want %v", got, want)
		}
	})
}

func TestResponseFieldFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		typ  string
		want string
	}{
		{TypeRecaptchaV2, "g-recaptcha-response"},
		{TypeRecaptchaV3, "g-recaptcha-response"},
		{TypeHCaptcha, "h-captcha-response"},
		{TypeTurnstile, "cf-turnstile-response"},
		{"", "g-recaptcha-response"},
	}

	for _, tt := range tests {
		if got := responseFieldFor(tt.typ); got != tt.want {
			t.Errorf("responseFieldFor(%q) = %q, want %q", tt.typ, got, tt.want)
		}
	}
}

func TestInjectTokenScript(t *testing.T) {
	t.Parallel()

	got := injectTokenScript(TypeTurnstile, `tok"en`)

	for _, want := range []string{
		`"cf-turnstile-response"`,
		`"tok\"en"`,
		"dispatchEvent",
		"new Event('change'",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("expected script to contain %q, got %q", want, got)
		}
	}
}

func TestContinueURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		pageURL string
		want    string
	}{
		{
			name:    "encoded continue parameter",
			pageURL: "https://www.google.com/sorry/index?continue=https%3A%2F%2Fwww.google.com%2Fsearch%3Fq%3Dgolang",
			want:    "https://www.google.com/search?q=golang",
		},
		{
			name:    "no continue parameter",
			pageURL: "https://www.google.com/search?q=golang",
			want:    "",
		},
		{
			name:    "unparseable url",
			pageURL: "://bad",
			want:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := continueURL(tt.pageURL); got != tt.want {
				t.Errorf("continueURL(%q) = %q, want %q", tt.pageURL, got, tt.want)
			}
		})
	}
}
