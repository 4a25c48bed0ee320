package parser

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	"golang.org/x/sync/errgroup"

	"github.com/standardbeagle/lcq/internal/debug"
	lcqerrors "github.com/standardbeagle/lcq/internal/errors"
)

var (
	rustOnce     sync.Once
	rustLanguage *tree_sitter.Language
)

// grammarSlot publishes one grammar per language exactly once
type grammarSlot struct {
	once    sync.Once
	grammar *Grammar
	err     error
}

// Cache maps language tags to grammar handles for the process lifetime.
// Lookups after first publication are lock-free.
type Cache struct {
	slots   sync.Map // Language -> *grammarSlot
	created atomic.Int64
	size    atomic.Int64
}

// NewCache returns an empty cache. Most callers want Default.
func NewCache() *Cache {
	return &Cache{}
}

var defaultCache = NewCache()

// Default returns the process-wide cache
func Default() *Cache {
	return defaultCache
}

// GetOrCreate returns the grammar for lang, loading it on first use.
// Concurrent callers observe the same handle.
func (c *Cache) GetOrCreate(lang Language) (*Grammar, error) {
	if !IsKnown(lang) {
		return nil, lcqerrors.UnsupportedLanguage(string(lang))
	}
	if !IsParserBacked(lang) {
		return nil, lcqerrors.GrammarUnsupportedHere(DisplayName(lang))
	}

	v, _ := c.slots.LoadOrStore(lang, &grammarSlot{})
	slot := v.(*grammarSlot)
	slot.once.Do(func() {
		slot.grammar, slot.err = GrammarHandle(lang)
		if slot.err == nil {
			c.created.Add(1)
			c.size.Add(1)
			debug.LogAnalysis("loaded %s grammar\n", DisplayName(lang))
		}
	})
	return slot.grammar, slot.err
}

// MakeParser returns a fresh parser bound to the cached grammar.
// The caller must Close it.
func (c *Cache) MakeParser(lang Language) (*tree_sitter.Parser, error) {
	return c.MakeParserVariant(lang, VariantDefault)
}

// MakeParserVariant is MakeParser for a specific dialect
func (c *Cache) MakeParserVariant(lang Language, v Variant) (*tree_sitter.Parser, error) {
	g, err := c.GetOrCreate(lang)
	if err != nil {
		return nil, err
	}
	p := tree_sitter.NewParser()
	if err := p.SetLanguage(g.TS(v)); err != nil {
		p.Close()
		return nil, fmt.Errorf("binding %s grammar: %w", DisplayName(lang), err)
	}
	return p, nil
}

// Parse parses source with a short-lived parser. The returned tree is owned
// by the caller and must be closed.
func (c *Cache) Parse(lang Language, v Variant, source []byte) (*tree_sitter.Tree, error) {
	p, err := c.MakeParserVariant(lang, v)
	if err != nil {
		return nil, err
	}
	defer p.Close()

	tree := p.Parse(source, nil)
	if tree == nil {
		return nil, lcqerrors.ParseFailed(DisplayName(lang))
	}
	return tree, nil
}

// PreloadAll warms every parser-backed grammar concurrently
func (c *Cache) PreloadAll(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, lang := range ParserBacked() {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			_, err := c.GetOrCreate(lang)
			return err
		})
	}
	return g.Wait()
}

// Size reports how many grammars are currently cached
func (c *Cache) Size() int {
	return int(c.size.Load())
}

// Created reports how many grammars were created over the cache lifetime
func (c *Cache) Created() int64 {
	return c.created.Load()
}
