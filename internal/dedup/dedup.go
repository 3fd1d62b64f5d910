// Package dedup filters previously seen articles by normalized content
// hash and canonical URL. Postgres is the source of truth; a redis seen
// cache is a fast path in front of it.
package dedup

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/pulselabs/pulse/internal/domain"
	"github.com/pulselabs/pulse/internal/logger"
)

// excerptLen bounds how much body text feeds the hash; titles plus a
// stable excerpt are enough to identify re-syndicated copies.
const excerptLen = 200

// SeenStore answers whether an article hash or URL is already persisted.
type SeenStore interface {
	HasSeen(ctx context.Context, contentHash, url string) (bool, error)
}

// Deduplicator drops candidates whose hash or URL already exists, in the
// persisted store or earlier in the same batch. Order-preserving.
type Deduplicator struct {
	store  SeenStore
	cache  *SeenCache // optional fast path
	logger logger.Logger
}

func New(store SeenStore, cache *SeenCache, log logger.Logger) *Deduplicator {
	return &Deduplicator{
		store:  store,
		cache:  cache,
		logger: log,
	}
}

// ContentHash returns the stable digest of an article: lower-cased,
// whitespace-collapsed title concatenated with a body excerpt, SHA-256
// hex encoded.
func ContentHash(a *domain.Article) string {
	title := normalize(a.Title)
	body := normalize(a.Body())
	if len(body) > excerptLen {
		body = body[:excerptLen]
	}

	sum := sha256.Sum256([]byte(title + body))
	return hex.EncodeToString(sum[:])
}

// Filter returns the candidates not yet seen, preserving input order and
// assigning each survivor its content hash. The dropped count covers both
// persisted duplicates and in-batch repeats. A store error aborts the
// filter; dedup correctness is what makes retried fetches safe.
func (d *Deduplicator) Filter(ctx context.Context, candidates []domain.Article) ([]domain.Article, int, error) {
	unique := make([]domain.Article, 0, len(candidates))
	batch := make(map[string]bool, len(candidates)*2)
	dropped := 0

	for i := range candidates {
		art := candidates[i]
		art.ContentHash = ContentHash(&art)

		if batch[art.ContentHash] || batch[art.URL] {
			dropped++
			continue
		}

		seen, err := d.hasSeen(ctx, art.ContentHash, art.URL)
		if err != nil {
			return nil, 0, fmt.Errorf("check seen: %w", err)
		}
		if seen {
			d.logger.Debug("duplicate article skipped",
				logger.String("url", art.URL),
				logger.String("content_hash", art.ContentHash),
			)
			dropped++
			continue
		}

		batch[art.ContentHash] = true
		batch[art.URL] = true
		unique = append(unique, art)
	}

	return unique, dropped, nil
}

func (d *Deduplicator) hasSeen(ctx context.Context, contentHash, url string) (bool, error) {
	if d.cache != nil && d.cache.Has(ctx, contentHash) {
		return true, nil
	}

	seen, err := d.store.HasSeen(ctx, contentHash, url)
	if err != nil {
		return false, err
	}
	if seen && d.cache != nil {
		// backfill so the next job skips the store round trip
		_ = d.cache.Mark(ctx, contentHash)
	}
	return seen, nil
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
