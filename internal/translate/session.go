package translate

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"lingoboard.org/internal/obs"
)

// contentKeySuffix separates a thread's body from its title inside one
// provider payload, so the two never collide on the thread id.
const contentKeySuffix = "::content"

// Thread is the batch translation input: one feedback item with the language
// its author wrote it in. Content may be empty for title-only lists.
type Thread struct {
	ID               string
	Title            string
	Content          string
	OriginalLanguage string
}

// TranslatedThread is the batch translation output for one thread.
type TranslatedThread struct {
	ID      string
	Title   string
	Content string
}

type pending struct {
	done   chan struct{}
	result map[string]string
	ok     bool
}

type batchPending struct {
	done   chan struct{}
	result []TranslatedThread
	ok     bool
}

// Session owns the translation caches for one UI session. It dedups
// concurrent identical requests, absorbs provider failures (callers always
// get renderable content, translated or original) and never caches a
// failure. Construct one per session and drop it at session end; it is not a
// process-wide singleton.
type Session struct {
	provider Provider

	mu           sync.Mutex
	content      map[string]map[string]string
	batches      map[string][]TranslatedThread
	inflight     map[string]*pending
	batchFlight  map[string]*batchPending
	originalOnly map[string]bool
}

// NewSession constructs an empty session over the given provider.
func NewSession(provider Provider) (*Session, error) {
	if provider == nil {
		return nil, errors.New("translate: provider is required")
	}
	return &Session{
		provider:     provider,
		content:      make(map[string]map[string]string),
		batches:      make(map[string][]TranslatedThread),
		inflight:     make(map[string]*pending),
		batchFlight:  make(map[string]*batchPending),
		originalOnly: make(map[string]bool),
	}, nil
}

// ContentKey derives the deterministic cache key for a content field map and
// locale pair: sorted (field, value) entries joined with both locales.
func ContentKey(fields map[string]string, sourceLocale, targetLocale string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(sourceLocale)
	b.WriteByte('\x1f')
	b.WriteString(targetLocale)
	for _, k := range keys {
		b.WriteByte('\x1f')
		b.WriteString(k)
		b.WriteByte('\x1e')
		b.WriteString(fields[k])
	}
	return b.String()
}

// BatchKey derives the cache key for a batch request: the sorted set of
// thread ids plus the target locale.
func BatchKey(threads []Thread, targetLocale string) string {
	ids := make([]string, 0, len(threads))
	for _, t := range threads {
		ids = append(ids, t.ID)
	}
	sort.Strings(ids)
	return strings.Join(ids, ",") + "\x1f" + targetLocale
}

// Translate returns the field map in targetLocale. Identical source and
// target locales short-circuit without touching cache or provider. A cache
// hit returns immediately; a miss marks the key in-flight before calling the
// provider so concurrent identical requests issue exactly one remote call —
// late arrivals join the pending result. On provider failure the original
// content comes back unchanged and the in-flight marker is removed so a
// later request retries.
func (s *Session) Translate(ctx context.Context, fields map[string]string, sourceLocale, targetLocale string) map[string]string {
	if sourceLocale == targetLocale || len(fields) == 0 {
		return fields
	}
	key := ContentKey(fields, sourceLocale, targetLocale)

	s.mu.Lock()
	if s.originalOnly[key] {
		s.mu.Unlock()
		return fields
	}
	if cached, ok := s.content[key]; ok {
		s.mu.Unlock()
		obs.ObserveCacheHit()
		return copyFields(cached)
	}
	if p, ok := s.inflight[key]; ok {
		s.mu.Unlock()
		return s.join(ctx, p, fields)
	}
	p := &pending{done: make(chan struct{})}
	s.inflight[key] = p
	s.mu.Unlock()
	obs.ObserveCacheMiss()

	return s.run(ctx, key, p, fields, sourceLocale, targetLocale)
}

// TranslateAsync is the non-blocking variant: it returns content renderable
// right now together with whether a translation is still pending. On a miss
// it starts the provider call in the background and returns the original
// content transiently; it never returns a mix of translated and
// untranslated fields.
func (s *Session) TranslateAsync(ctx context.Context, fields map[string]string, sourceLocale, targetLocale string) (map[string]string, bool) {
	if sourceLocale == targetLocale || len(fields) == 0 {
		return fields, false
	}
	key := ContentKey(fields, sourceLocale, targetLocale)

	s.mu.Lock()
	if s.originalOnly[key] {
		s.mu.Unlock()
		return fields, false
	}
	if cached, ok := s.content[key]; ok {
		s.mu.Unlock()
		obs.ObserveCacheHit()
		return copyFields(cached), false
	}
	if _, ok := s.inflight[key]; ok {
		s.mu.Unlock()
		return fields, true
	}
	p := &pending{done: make(chan struct{})}
	s.inflight[key] = p
	s.mu.Unlock()
	obs.ObserveCacheMiss()

	// The provider call outlives the request; a caller returning early must
	// not cancel it, only miss its result.
	go s.run(context.WithoutCancel(ctx), key, p, copyFields(fields), sourceLocale, targetLocale)
	return fields, true
}

func (s *Session) run(ctx context.Context, key string, p *pending, fields map[string]string, sourceLocale, targetLocale string) map[string]string {
	result, err := s.provider.LocalizeObject(ctx, fields, sourceLocale, targetLocale)

	s.mu.Lock()
	delete(s.inflight, key)
	if err != nil {
		p.ok = false
		close(p.done)
		s.mu.Unlock()
		obs.LogEvent(map[string]any{
			"level":  "warn",
			"msg":    "translation failed, serving original content",
			"source": sourceLocale,
			"target": targetLocale,
			"error":  err.Error(),
		})
		return fields
	}
	s.content[key] = result
	p.result = result
	p.ok = true
	close(p.done)
	s.mu.Unlock()
	return copyFields(result)
}

// join waits for an in-flight translation of the same key. A cancelled
// caller context falls back to the original content; the remote call itself
// is not torn down and its result still lands in the cache.
func (s *Session) join(ctx context.Context, p *pending, fields map[string]string) map[string]string {
	select {
	case <-ctx.Done():
		return fields
	case <-p.done:
	}
	if !p.ok {
		return fields
	}
	return copyFields(p.result)
}

// Translating reports whether a translation for this content is in flight.
func (s *Session) Translating(fields map[string]string, sourceLocale, targetLocale string) bool {
	if sourceLocale == targetLocale {
		return false
	}
	key := ContentKey(fields, sourceLocale, targetLocale)
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.inflight[key]
	return ok
}

// ToggleOriginal flips the show-original switch for one content instance and
// returns the new state. While active, Translate serves the original content
// even when a cached translation exists.
func (s *Session) ToggleOriginal(fields map[string]string, sourceLocale, targetLocale string) bool {
	key := ContentKey(fields, sourceLocale, targetLocale)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.originalOnly[key] = !s.originalOnly[key]
	return s.originalOnly[key]
}

// TranslateText translates a single string, falling back to the input when
// the provider fails.
func (s *Session) TranslateText(ctx context.Context, text, sourceLocale, targetLocale string) string {
	if sourceLocale == targetLocale || strings.TrimSpace(text) == "" {
		return text
	}
	translated, err := s.provider.LocalizeText(ctx, text, sourceLocale, targetLocale)
	if err != nil {
		obs.LogEvent(map[string]any{
			"level":  "warn",
			"msg":    "text translation failed, serving original",
			"source": sourceLocale,
			"target": targetLocale,
			"error":  err.Error(),
		})
		return text
	}
	return translated
}

// BatchTranslate renders a thread list in targetLocale. Threads already in
// the target language pass through unchanged; the rest are grouped by source
// language with one provider call per distinct language. A failing group
// falls back to its originals without affecting other groups. The merged
// result is cached under the id-set key only when every group succeeded, so
// partial failures stay retryable.
func (s *Session) BatchTranslate(ctx context.Context, threads []Thread, targetLocale string) []TranslatedThread {
	if len(threads) == 0 {
		return nil
	}

	needs := false
	for _, t := range threads {
		if t.OriginalLanguage != targetLocale {
			needs = true
			break
		}
	}
	if !needs {
		return passthrough(threads)
	}

	key := BatchKey(threads, targetLocale)

	s.mu.Lock()
	if cached, ok := s.batches[key]; ok {
		s.mu.Unlock()
		obs.ObserveCacheHit()
		return append([]TranslatedThread(nil), cached...)
	}
	if bp, ok := s.batchFlight[key]; ok {
		s.mu.Unlock()
		select {
		case <-ctx.Done():
			return passthrough(threads)
		case <-bp.done:
		}
		if !bp.ok {
			return passthrough(threads)
		}
		return append([]TranslatedThread(nil), bp.result...)
	}
	bp := &batchPending{done: make(chan struct{})}
	s.batchFlight[key] = bp
	s.mu.Unlock()
	obs.ObserveCacheMiss()

	groups := make(map[string][]Thread)
	for _, t := range threads {
		if t.OriginalLanguage == targetLocale {
			continue
		}
		groups[t.OriginalLanguage] = append(groups[t.OriginalLanguage], t)
	}

	var (
		resultMu   sync.Mutex
		translated = make(map[string]string)
		failures   int
	)
	var eg errgroup.Group
	for sourceLocale, group := range groups {
		eg.Go(func() error {
			payload := make(map[string]string, len(group)*2)
			for _, t := range group {
				payload[t.ID] = t.Title
				if t.Content != "" {
					payload[t.ID+contentKeySuffix] = t.Content
				}
			}
			res, err := s.provider.LocalizeObject(ctx, payload, sourceLocale, targetLocale)
			resultMu.Lock()
			defer resultMu.Unlock()
			if err != nil {
				failures++
				obs.LogEvent(map[string]any{
					"level":  "warn",
					"msg":    "batch translation group failed, serving originals",
					"source": sourceLocale,
					"target": targetLocale,
					"error":  err.Error(),
				})
				return nil
			}
			for k, v := range res {
				translated[k] = v
			}
			return nil
		})
	}
	_ = eg.Wait()

	out := make([]TranslatedThread, 0, len(threads))
	for _, t := range threads {
		item := TranslatedThread{ID: t.ID, Title: t.Title, Content: t.Content}
		if t.OriginalLanguage != targetLocale {
			if title, ok := translated[t.ID]; ok {
				item.Title = title
			}
			if content, ok := translated[t.ID+contentKeySuffix]; ok {
				item.Content = content
			}
		}
		out = append(out, item)
	}

	s.mu.Lock()
	delete(s.batchFlight, key)
	bp.result = out
	bp.ok = true
	if failures == 0 {
		s.batches[key] = out
	}
	close(bp.done)
	s.mu.Unlock()

	return append([]TranslatedThread(nil), out...)
}

func passthrough(threads []Thread) []TranslatedThread {
	out := make([]TranslatedThread, 0, len(threads))
	for _, t := range threads {
		out = append(out, TranslatedThread{ID: t.ID, Title: t.Title, Content: t.Content})
	}
	return out
}

func copyFields(fields map[string]string) map[string]string {
	out := make(map[string]string, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}
