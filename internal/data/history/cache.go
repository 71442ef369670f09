package history

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	domainerrors "repolens/internal/core/errors"
	"repolens/internal/shared/observability"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	// DefaultMaxEntries bounds the persisted list.
	DefaultMaxEntries = 20
	// DefaultStoreKey is the single key the serialized list lives under.
	DefaultStoreKey = "app_history"
)

// Store is the key/value persistence the cache writes through to.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// Cache is a bounded, key-deduplicated, most-recent-first log of analyses.
// Every call round-trips through the store; nothing is held in memory, so
// concurrent writers sharing one store resolve as last-writer-wins.
type Cache struct {
	store      Store
	key        string
	maxEntries int
	now        func() time.Time
}

type Option func(*Cache)

func WithMaxEntries(n int) Option {
	return func(c *Cache) {
		if n > 0 {
			c.maxEntries = n
		}
	}
}

func WithStoreKey(key string) Option {
	return func(c *Cache) {
		if k := strings.TrimSpace(key); k != "" {
			c.key = k
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

func NewCache(store Store, opts ...Option) *Cache {
	c := &Cache{
		store:      store,
		key:        DefaultStoreKey,
		maxEntries: DefaultMaxEntries,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Cache) MaxEntries() int { return c.maxEntries }

// Record promotes entry to the front of the list, replacing any entry with
// the same key and dropping whatever falls past the bound.
func (c *Cache) Record(ctx context.Context, entry Entry) error {
	ctx, span := observability.Tracer.Start(ctx, "history.Record", trace.WithAttributes(
		attribute.String("history.kind", string(entry.Kind)),
	))
	defer span.End()

	entry.Key = strings.TrimSpace(entry.Key)
	if entry.Key == "" {
		return domainerrors.AddContext(
			domainerrors.New(domainerrors.CodeValidationError, "history entry key must not be empty"),
			domainerrors.CtxKind, string(entry.Kind),
		)
	}
	if !entry.Kind.Valid() {
		return domainerrors.AddContext(
			domainerrors.Newf(domainerrors.CodeValidationError, "unknown history kind %q", entry.Kind),
			domainerrors.CtxKey, entry.Key,
		)
	}

	current := c.load(ctx)
	next := make([]Entry, 0, len(current)+1)
	for _, existing := range current {
		if existing.Key == entry.Key {
			observability.HistoryDuplicatesTotal.Inc()
			continue
		}
		next = append(next, existing)
	}

	entry.RecordedAt = c.now().UnixMilli()
	if len(next) > 0 && next[0].RecordedAt > entry.RecordedAt {
		// Keep the list non-increasing if the wall clock stepped back.
		entry.RecordedAt = next[0].RecordedAt
	}
	next = append([]Entry{entry}, next...)

	if len(next) > c.maxEntries {
		observability.HistoryEvictionsTotal.Add(float64(len(next) - c.maxEntries))
		next = next[:c.maxEntries]
	}

	if err := c.save(ctx, next); err != nil {
		span.RecordError(err)
		return err
	}

	observability.HistoryRecordsTotal.WithLabelValues(string(entry.Kind)).Inc()
	observability.HistoryEntries.Set(float64(len(next)))
	slog.Debug("history entry recorded", "kind", entry.Kind, "key", entry.Key, "entries", len(next))
	return nil
}

// List returns the persisted entries, most recent first. Missing, unreadable
// or malformed data reads as an empty history.
func (c *Cache) List(ctx context.Context) []Entry {
	ctx, span := observability.Tracer.Start(ctx, "history.List")
	defer span.End()

	entries := c.load(ctx)
	span.SetAttributes(attribute.Int("history.entries", len(entries)))
	return entries
}

// Clear drops the whole list. Clearing an empty history is a no-op.
func (c *Cache) Clear(ctx context.Context) error {
	ctx, span := observability.Tracer.Start(ctx, "history.Clear")
	defer span.End()

	if err := c.store.Remove(ctx, c.key); err != nil {
		span.RecordError(err)
		return domainerrors.AddContext(
			domainerrors.Wrap(err, domainerrors.CodeStorage, "clear history"),
			domainerrors.CtxKey, c.key,
		)
	}
	observability.HistoryEntries.Set(0)
	slog.Debug("history cleared", "key", c.key)
	return nil
}

func (c *Cache) load(ctx context.Context) []Entry {
	raw, ok, err := c.store.Get(ctx, c.key)
	if err != nil {
		observability.HistoryDecodeFailuresTotal.Inc()
		slog.Warn("history read failed, treating as empty", "key", c.key, "error", err)
		return []Entry{}
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return []Entry{}
	}

	entries, err := Decode(raw)
	if err != nil {
		observability.HistoryDecodeFailuresTotal.Inc()
		slog.Warn("history data malformed, treating as empty", "key", c.key, "error", err)
		return []Entry{}
	}
	if len(entries) > c.maxEntries {
		entries = entries[:c.maxEntries]
	}
	return entries
}

func (c *Cache) save(ctx context.Context, entries []Entry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "encode history")
	}
	if err := c.store.Set(ctx, c.key, string(data)); err != nil {
		return domainerrors.AddContext(
			domainerrors.Wrap(err, domainerrors.CodeStorage, "write history"),
			domainerrors.CtxKey, c.key,
		)
	}
	return nil
}

// Decode parses a serialized history list. A JSON null decodes to an empty
// list. Any element that is not an entry object, has an unknown kind or a
// blank key, or repeats an earlier key makes the whole list malformed.
func Decode(raw string) ([]Entry, error) {
	var elems []*Entry
	if err := json.Unmarshal([]byte(raw), &elems); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeDecode, "decode history")
	}

	entries := make([]Entry, 0, len(elems))
	seen := make(map[string]struct{}, len(elems))
	for i, e := range elems {
		switch {
		case e == nil:
			return nil, domainerrors.Newf(domainerrors.CodeDecode, "history element %d is null", i)
		case !e.Kind.Valid():
			return nil, domainerrors.Newf(domainerrors.CodeDecode, "history element %d has unknown kind %q", i, e.Kind)
		case strings.TrimSpace(e.Key) == "":
			return nil, domainerrors.Newf(domainerrors.CodeDecode, "history element %d has no key", i)
		}
		if _, dup := seen[e.Key]; dup {
			return nil, domainerrors.Newf(domainerrors.CodeDecode, "history key %q appears twice", e.Key)
		}
		seen[e.Key] = struct{}{}
		entries = append(entries, *e)
	}
	return entries, nil
}
