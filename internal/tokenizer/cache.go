// Package tokenizer maintains a per-model tiktoken encoder cache so
// postprocessing and budget accounting work against real token counts
// instead of a char/4 stub.
package tokenizer

import (
	"fmt"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// defaultEncoding is used for models whose caps entry doesn't name a
// tokenizer, or whose named tokenizer isn't recognized by tiktoken-go.
const defaultEncoding = "cl100k_base"

// Cache lazily builds and memoizes tiktoken encoders per model name so
// concurrent chat turns don't each pay encoder construction cost.
type Cache struct {
	mu       sync.RWMutex
	byModel  map[string]*tiktoken.Tiktoken
	modelEnc map[string]string // model name -> encoding name override from caps
}

// NewCache creates an empty tokenizer cache. modelEncodings maps a model
// name (as it appears in caps.yaml) to a tiktoken encoding name; entries
// absent from the map fall back to defaultEncoding.
func NewCache(modelEncodings map[string]string) *Cache {
	enc := make(map[string]string, len(modelEncodings))
	for k, v := range modelEncodings {
		enc[k] = v
	}
	return &Cache{
		byModel:  make(map[string]*tiktoken.Tiktoken),
		modelEnc: enc,
	}
}

// ForModel returns the cached encoder for a model, building one on first
// use. Construction failures fall back to the default encoding so a bad
// caps entry degrades token accounting rather than aborting a chat turn.
func (c *Cache) ForModel(model string) (*tiktoken.Tiktoken, error) {
	c.mu.RLock()
	if enc, ok := c.byModel[model]; ok {
		c.mu.RUnlock()
		return enc, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if enc, ok := c.byModel[model]; ok {
		return enc, nil
	}

	name := c.modelEnc[model]
	if name == "" {
		name = defaultEncoding
	}

	enc, err := tiktoken.GetEncoding(name)
	if err != nil {
		enc, err = tiktoken.GetEncoding(defaultEncoding)
		if err != nil {
			return nil, fmt.Errorf("tokenizer: building encoder for model %q: %w", model, err)
		}
	}
	c.byModel[model] = enc
	return enc, nil
}

// Count returns the token count of s under model's encoder.
func (c *Cache) Count(model, s string) (int, error) {
	enc, err := c.ForModel(model)
	if err != nil {
		return 0, err
	}
	return len(enc.Encode(s, nil, nil)), nil
}

// CountMany sums token counts across several strings, sharing one encoder
// lookup, used by postprocessing when scoring many context-file candidates.
func (c *Cache) CountMany(model string, strs []string) (int, error) {
	enc, err := c.ForModel(model)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, s := range strs {
		total += len(enc.Encode(s, nil, nil))
	}
	return total, nil
}

// EvictAll drops every cached encoder, forcing the next ForModel call per
// model to rebuild it. Used by the scheduled reindex job to bound memory
// held by encoders for models that fell out of caps.
func (c *Cache) EvictAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byModel = make(map[string]*tiktoken.Tiktoken)
}

// Evict drops the cached encoder for one model, if any.
func (c *Cache) Evict(model string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.byModel, model)
}
