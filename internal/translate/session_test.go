package translate

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type stubProvider struct {
	mu       sync.Mutex
	calls    int
	bySource map[string]int
	payloads []map[string]string
	fail     map[string]bool
	block    chan struct{}
}

func newStubProvider() *stubProvider {
	return &stubProvider{
		bySource: make(map[string]int),
		fail:     make(map[string]bool),
	}
}

func (p *stubProvider) LocalizeObject(_ context.Context, fields map[string]string, sourceLocale, targetLocale string) (map[string]string, error) {
	p.mu.Lock()
	p.calls++
	p.bySource[sourceLocale]++
	captured := make(map[string]string, len(fields))
	for k, v := range fields {
		captured[k] = v
	}
	p.payloads = append(p.payloads, captured)
	block := p.block
	shouldFail := p.fail[sourceLocale]
	p.mu.Unlock()

	if block != nil {
		<-block
	}
	if shouldFail {
		return nil, errors.New("provider unavailable")
	}
	out := make(map[string]string, len(fields))
	for k, v := range fields {
		out[k] = "[" + targetLocale + "] " + v
	}
	return out, nil
}

func (p *stubProvider) LocalizeText(ctx context.Context, text, sourceLocale, targetLocale string) (string, error) {
	res, err := p.LocalizeObject(ctx, map[string]string{"text": text}, sourceLocale, targetLocale)
	if err != nil {
		return "", err
	}
	return res["text"], nil
}

func (p *stubProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func newTestSession(t *testing.T, p Provider) *Session {
	t.Helper()
	s, err := NewSession(p)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	return s
}

func TestTranslateIdentityShortCircuit(t *testing.T) {
	provider := newStubProvider()
	s := newTestSession(t, provider)

	fields := map[string]string{"title": "Hello", "content": "World"}
	got := s.Translate(context.Background(), fields, "en", "en")

	if got["title"] != "Hello" || got["content"] != "World" {
		t.Fatalf("identity translation changed content: %v", got)
	}
	if provider.callCount() != 0 {
		t.Fatalf("identity path must not call provider, got %d calls", provider.callCount())
	}
}

func TestTranslateCachesResult(t *testing.T) {
	provider := newStubProvider()
	s := newTestSession(t, provider)
	fields := map[string]string{"title": "Hello"}

	first := s.Translate(context.Background(), fields, "en", "fr")
	second := s.Translate(context.Background(), fields, "en", "fr")

	if first["title"] != "[fr] Hello" || second["title"] != "[fr] Hello" {
		t.Fatalf("unexpected translations: %v %v", first, second)
	}
	if provider.callCount() != 1 {
		t.Fatalf("expected one provider call, got %d", provider.callCount())
	}
}

func TestConcurrentTranslateIssuesOneCall(t *testing.T) {
	provider := newStubProvider()
	provider.block = make(chan struct{})
	s := newTestSession(t, provider)
	fields := map[string]string{"title": "Hello"}

	results := make(chan map[string]string, 2)
	for range 2 {
		go func() {
			results <- s.Translate(context.Background(), fields, "en", "fr")
		}()
	}

	// Both goroutines are either holding the flight or joined on it.
	deadline := time.After(2 * time.Second)
	for provider.callCount() == 0 {
		select {
		case <-deadline:
			t.Fatalf("provider was never called")
		default:
			time.Sleep(time.Millisecond)
		}
	}
	close(provider.block)

	for range 2 {
		got := <-results
		if got["title"] != "[fr] Hello" {
			t.Fatalf("caller received %v, want translated result", got)
		}
	}
	if provider.callCount() != 1 {
		t.Fatalf("expected one provider call for concurrent identical requests, got %d", provider.callCount())
	}
}

func TestTranslateFailureFallsBackAndRetries(t *testing.T) {
	provider := newStubProvider()
	provider.fail["en"] = true
	s := newTestSession(t, provider)
	fields := map[string]string{"title": "Hello"}

	got := s.Translate(context.Background(), fields, "en", "fr")
	if got["title"] != "Hello" {
		t.Fatalf("failure must return original content, got %v", got)
	}
	if provider.callCount() != 1 {
		t.Fatalf("expected one attempt, got %d", provider.callCount())
	}

	// Failure must not be cached: the next request retries the provider.
	provider.mu.Lock()
	provider.fail["en"] = false
	provider.mu.Unlock()

	got = s.Translate(context.Background(), fields, "en", "fr")
	if got["title"] != "[fr] Hello" {
		t.Fatalf("retry should translate, got %v", got)
	}
	if provider.callCount() != 2 {
		t.Fatalf("expected retry to reach provider, got %d calls", provider.callCount())
	}
}

func TestTranslateAsyncServesOriginalWhileInFlight(t *testing.T) {
	provider := newStubProvider()
	provider.block = make(chan struct{})
	s := newTestSession(t, provider)
	fields := map[string]string{"title": "Hello"}

	got, pendingNow := s.TranslateAsync(context.Background(), fields, "en", "fr")
	if !pendingNow {
		t.Fatalf("expected pending translation")
	}
	if got["title"] != "Hello" {
		t.Fatalf("async miss must serve original content, got %v", got)
	}
	if !s.Translating(fields, "en", "fr") {
		t.Fatalf("expected in-flight state to be observable")
	}

	// The background goroutine needs a moment to reach the provider.
	deadline := time.After(2 * time.Second)
	for provider.callCount() == 0 {
		select {
		case <-deadline:
			t.Fatalf("provider was never called")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	// A second request while in flight keeps serving the original and does
	// not issue another remote call.
	got, stillPending := s.TranslateAsync(context.Background(), fields, "en", "fr")
	if !stillPending || got["title"] != "Hello" {
		t.Fatalf("in-flight join should stay on original content, got %v pending=%v", got, stillPending)
	}
	if provider.callCount() != 1 {
		t.Fatalf("expected single in-flight call, got %d", provider.callCount())
	}

	close(provider.block)
	got = s.Translate(context.Background(), fields, "en", "fr")
	if got["title"] != "[fr] Hello" {
		t.Fatalf("completed translation should be cached, got %v", got)
	}
	if provider.callCount() != 1 {
		t.Fatalf("cache fill should not re-call provider, got %d", provider.callCount())
	}
}

// ctxCheckingProvider fails any call whose context is already cancelled.
type ctxCheckingProvider struct {
	*stubProvider
}

func (p ctxCheckingProvider) LocalizeObject(ctx context.Context, fields map[string]string, sourceLocale, targetLocale string) (map[string]string, error) {
	res, err := p.stubProvider.LocalizeObject(ctx, fields, sourceLocale, targetLocale)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

func TestTranslateAsyncSurvivesCallerCancel(t *testing.T) {
	stub := newStubProvider()
	stub.block = make(chan struct{})
	provider := ctxCheckingProvider{stub}
	s := newTestSession(t, provider)
	fields := map[string]string{"title": "Hello"}

	ctx, cancel := context.WithCancel(context.Background())
	if _, pending := s.TranslateAsync(ctx, fields, "en", "fr"); !pending {
		t.Fatalf("expected pending translation")
	}
	cancel()

	deadline := time.After(2 * time.Second)
	for stub.callCount() == 0 {
		select {
		case <-deadline:
			t.Fatalf("provider was never called")
		default:
			time.Sleep(time.Millisecond)
		}
	}
	close(stub.block)

	got := s.Translate(context.Background(), fields, "en", "fr")
	if got["title"] != "[fr] Hello" {
		t.Fatalf("background translation should land despite caller cancel, got %v", got)
	}
	if stub.callCount() != 1 {
		t.Fatalf("cached result expected, got %d provider calls", stub.callCount())
	}
}

func TestToggleOriginalSuppressesCachedTranslation(t *testing.T) {
	provider := newStubProvider()
	s := newTestSession(t, provider)
	fields := map[string]string{"title": "Hello"}

	if got := s.Translate(context.Background(), fields, "en", "fr"); got["title"] != "[fr] Hello" {
		t.Fatalf("priming translation failed: %v", got)
	}

	if showing := s.ToggleOriginal(fields, "en", "fr"); !showing {
		t.Fatalf("toggle should activate show-original")
	}
	if got := s.Translate(context.Background(), fields, "en", "fr"); got["title"] != "Hello" {
		t.Fatalf("show-original must suppress cached translation, got %v", got)
	}

	if showing := s.ToggleOriginal(fields, "en", "fr"); showing {
		t.Fatalf("second toggle should deactivate show-original")
	}
	if got := s.Translate(context.Background(), fields, "en", "fr"); got["title"] != "[fr] Hello" {
		t.Fatalf("cached translation should return after toggle back, got %v", got)
	}
	if provider.callCount() != 1 {
		t.Fatalf("toggling must not trigger provider calls, got %d", provider.callCount())
	}
}

func batchFixture() []Thread {
	return []Thread{
		{ID: "1", Title: "Bonjour", OriginalLanguage: "fr"},
		{ID: "2", Title: "Hola", OriginalLanguage: "es"},
		{ID: "3", Title: "Hi", OriginalLanguage: "en"},
	}
}

func TestBatchTranslateGroupsBySourceLanguage(t *testing.T) {
	provider := newStubProvider()
	s := newTestSession(t, provider)

	got := s.BatchTranslate(context.Background(), batchFixture(), "en")

	if provider.callCount() != 2 {
		t.Fatalf("expected one call per source language, got %d", provider.callCount())
	}
	provider.mu.Lock()
	frCalls, esCalls, enCalls := provider.bySource["fr"], provider.bySource["es"], provider.bySource["en"]
	provider.mu.Unlock()
	if frCalls != 1 || esCalls != 1 || enCalls != 0 {
		t.Fatalf("unexpected grouping fr=%d es=%d en=%d", frCalls, esCalls, enCalls)
	}

	byID := indexByID(got)
	if byID["1"].Title != "[en] Bonjour" || byID["2"].Title != "[en] Hola" {
		t.Fatalf("translations missing: %+v", got)
	}
	if byID["3"].Title != "Hi" {
		t.Fatalf("same-language thread must pass through unchanged, got %q", byID["3"].Title)
	}
}

func TestBatchTranslateCachesIDSet(t *testing.T) {
	provider := newStubProvider()
	s := newTestSession(t, provider)

	s.BatchTranslate(context.Background(), batchFixture(), "en")
	calls := provider.callCount()

	// Same id set in a different order must hit the cache.
	shuffled := []Thread{
		{ID: "3", Title: "Hi", OriginalLanguage: "en"},
		{ID: "1", Title: "Bonjour", OriginalLanguage: "fr"},
		{ID: "2", Title: "Hola", OriginalLanguage: "es"},
	}
	got := s.BatchTranslate(context.Background(), shuffled, "en")

	if provider.callCount() != calls {
		t.Fatalf("cached id set re-issued provider calls: %d -> %d", calls, provider.callCount())
	}
	if indexByID(got)["1"].Title != "[en] Bonjour" {
		t.Fatalf("cache returned wrong content: %+v", got)
	}
}

func TestBatchTranslatePartialFailureIsolated(t *testing.T) {
	provider := newStubProvider()
	provider.fail["es"] = true
	s := newTestSession(t, provider)

	got := s.BatchTranslate(context.Background(), batchFixture(), "en")
	byID := indexByID(got)

	if byID["1"].Title != "[en] Bonjour" {
		t.Fatalf("fr group should succeed despite es failure, got %q", byID["1"].Title)
	}
	if byID["2"].Title != "Hola" {
		t.Fatalf("failed group must fall back to original title, got %q", byID["2"].Title)
	}
	if byID["3"].Title != "Hi" {
		t.Fatalf("passthrough thread changed: %q", byID["3"].Title)
	}

	// A partially failed batch is not cached; the next request retries.
	provider.mu.Lock()
	provider.fail["es"] = false
	provider.mu.Unlock()

	got = s.BatchTranslate(context.Background(), batchFixture(), "en")
	if indexByID(got)["2"].Title != "[en] Hola" {
		t.Fatalf("retry after partial failure should translate, got %+v", got)
	}
}

func TestBatchTranslateAllSameLanguageSkipsProvider(t *testing.T) {
	provider := newStubProvider()
	s := newTestSession(t, provider)

	threads := []Thread{
		{ID: "1", Title: "Hi", OriginalLanguage: "en"},
		{ID: "2", Title: "Hello", OriginalLanguage: "en"},
	}
	got := s.BatchTranslate(context.Background(), threads, "en")

	if provider.callCount() != 0 {
		t.Fatalf("no thread needed translation, yet provider was called %d times", provider.callCount())
	}
	if got[0].Title != "Hi" || got[1].Title != "Hello" {
		t.Fatalf("passthrough changed titles: %+v", got)
	}
}

func TestBatchTranslateBodyContentUsesDistinctKeys(t *testing.T) {
	provider := newStubProvider()
	s := newTestSession(t, provider)

	threads := []Thread{
		{ID: "1", Title: "Bonjour", Content: "Le corps", OriginalLanguage: "fr"},
	}
	got := s.BatchTranslate(context.Background(), threads, "en")

	provider.mu.Lock()
	payload := provider.payloads[0]
	provider.mu.Unlock()
	if payload["1"] != "Bonjour" || payload["1"+contentKeySuffix] != "Le corps" {
		t.Fatalf("expected title and content under distinct keys, got %v", payload)
	}
	if got[0].Title != "[en] Bonjour" || got[0].Content != "[en] Le corps" {
		t.Fatalf("content translation missing: %+v", got[0])
	}
}

func TestContentKeyDeterministic(t *testing.T) {
	a := ContentKey(map[string]string{"title": "Hello", "content": "World"}, "en", "fr")
	b := ContentKey(map[string]string{"content": "World", "title": "Hello"}, "en", "fr")
	if a != b {
		t.Fatalf("key must not depend on map iteration order: %q vs %q", a, b)
	}
	c := ContentKey(map[string]string{"title": "Hello", "content": "World"}, "en", "de")
	if a == c {
		t.Fatalf("different locale pairs must not collide")
	}
}

func TestRegistrySessionLifecycle(t *testing.T) {
	provider := newStubProvider()
	r, err := NewRegistry(provider)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	s1 := r.Session("user-1")
	if s1 != r.Session("user-1") {
		t.Fatalf("expected stable session per id")
	}

	fields := map[string]string{"title": "Hello"}
	s1.Translate(context.Background(), fields, "en", "fr")
	if provider.callCount() != 1 {
		t.Fatalf("priming call expected")
	}

	r.Drop("user-1")
	s2 := r.Session("user-1")
	if s2 == s1 {
		t.Fatalf("dropped session must not be reused")
	}
	s2.Translate(context.Background(), fields, "en", "fr")
	if provider.callCount() != 2 {
		t.Fatalf("new session starts with an empty cache, got %d calls", provider.callCount())
	}
}

func indexByID(items []TranslatedThread) map[string]TranslatedThread {
	out := make(map[string]TranslatedThread, len(items))
	for _, item := range items {
		out[item.ID] = item
	}
	return out
}
