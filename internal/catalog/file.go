// Giftwise - Conversational Gift Recommendation Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/giftwise

package catalog

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/giftwise/internal/embedding"
	"github.com/tomtom215/giftwise/internal/logging"
	"github.com/tomtom215/giftwise/internal/validation"
)

// ErrNotLoaded is returned before the first successful Load.
var ErrNotLoaded = errors.New("catalog: not loaded")

// FileCatalog is a Catalog backed by a JSON file.
type FileCatalog struct {
	path     string
	embedder embedding.Embedder
	logger   zerolog.Logger

	snap atomic.Pointer[snapshot]

	// reloadMu serializes Reload; readers never take it.
	reloadMu sync.Mutex
}

// NewFileCatalog creates a catalog reading path. Products without a
// precomputed embedding are embedded with embedder at load time; a nil
// embedder leaves them without vectors.
func NewFileCatalog(path string, embedder embedding.Embedder) *FileCatalog {
	return &FileCatalog{
		path:     path,
		embedder: embedder,
		logger:   logging.WithComponent("catalog"),
	}
}

// Load reads the file and publishes the first snapshot.
func (c *FileCatalog) Load(ctx context.Context) error {
	_, err := c.Reload(ctx)
	return err
}

// Reload re-reads the file and swaps in a new snapshot when the content
// changed. It reports whether a new snapshot was published. On error the
// previous snapshot stays in place.
func (c *FileCatalog) Reload(ctx context.Context) (bool, error) {
	c.reloadMu.Lock()
	defer c.reloadMu.Unlock()

	data, err := os.ReadFile(c.path)
	if err != nil {
		return false, fmt.Errorf("read catalog %s: %w", c.path, err)
	}

	sum := sha256.Sum256(data)
	hash := hex.EncodeToString(sum[:])
	if cur := c.snap.Load(); cur != nil && cur.hash == hash {
		return false, nil
	}

	products, err := c.decode(ctx, data)
	if err != nil {
		return false, err
	}

	c.snap.Store(newSnapshot(products, hash))
	c.logger.Info().
		Str("path", c.path).
		Int("products", len(products)).
		Str("hash", hash[:12]).
		Msg("Catalog loaded")
	return true, nil
}

func (c *FileCatalog) decode(ctx context.Context, data []byte) ([]Product, error) {
	var raw []Product
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode catalog %s: %w", c.path, err)
	}

	products := make([]Product, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for i := range raw {
		p := raw[i]
		if verr := validation.ValidateStruct(&p); verr != nil {
			c.logger.Warn().Int("position", i).Str("id", p.ID).Str("reason", verr.Error()).Msg("Skipping invalid product")
			continue
		}
		if _, dup := seen[p.ID]; dup {
			c.logger.Warn().Str("id", p.ID).Msg("Skipping duplicate product id")
			continue
		}
		seen[p.ID] = struct{}{}

		if len(p.Embedding) == 0 && c.embedder != nil {
			vec, err := c.embedder.Embed(ctx, p.EmbeddingText())
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return nil, ctxErr
				}
				c.logger.Warn().Err(err).Str("id", p.ID).Msg("Product not embedded; tag search only")
			} else {
				p.Embedding = vec
			}
		}
		products = append(products, p)
	}
	return products, nil
}

// Path returns the backing file path.
func (c *FileCatalog) Path() string {
	return c.path
}

// Len returns the number of products in the current snapshot.
func (c *FileCatalog) Len() int {
	if s := c.snap.Load(); s != nil {
		return len(s.products)
	}
	return 0
}

// ListAll implements Catalog.
func (c *FileCatalog) ListAll(ctx context.Context) ([]Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s := c.snap.Load()
	if s == nil {
		return nil, ErrNotLoaded
	}
	return s.list(), nil
}

// Get implements Catalog.
func (c *FileCatalog) Get(ctx context.Context, id string) (*Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s := c.snap.Load()
	if s == nil {
		return nil, ErrNotLoaded
	}
	return s.get(id)
}
