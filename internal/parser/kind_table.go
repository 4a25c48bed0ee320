package parser

import (
	"slices"
	"sync"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/lcq/internal/debug"
	lcqerrors "github.com/standardbeagle/lcq/internal/errors"
)

// kindEntry pairs a construct name with its grammar id. An id of zero means
// the grammar does not know the name and matching falls back to the string.
type kindEntry struct {
	name string
	id   uint16
}

// KindTable maps constructs to node-kind ids for one grammar dialect.
// Tables are immutable once built.
type KindTable struct {
	lang    Language
	entries [numConstructs][]kindEntry
	// ids lets Is answer with one lookup on the hot path
	ids      [numConstructs]map[uint16]struct{}
	fallback [numConstructs]bool
}

type tableKey struct {
	lang    Language
	variant Variant
}

type tableSlot struct {
	once  sync.Once
	table *KindTable
	err   error
}

var kindTables sync.Map // tableKey -> *tableSlot

// KindTableFor returns the table for lang's default dialect
func KindTableFor(lang Language) (*KindTable, error) {
	return KindTableForVariant(lang, VariantDefault)
}

// KindTableForVariant returns the table for a specific dialect, building it
// once per process. Rust and the config formats yield NotApplicable.
func KindTableForVariant(lang Language, v Variant) (*KindTable, error) {
	if !IsKnown(lang) {
		return nil, lcqerrors.UnsupportedLanguage(string(lang))
	}
	if !IsParserBacked(lang) {
		return nil, lcqerrors.NotApplicable(DisplayName(lang))
	}
	if lang != LanguageTypeScript {
		v = VariantDefault
	}

	s, _ := kindTables.LoadOrStore(tableKey{lang, v}, &tableSlot{})
	slot := s.(*tableSlot)
	slot.once.Do(func() {
		g, err := Default().GetOrCreate(lang)
		if err != nil {
			slot.err = err
			return
		}
		slot.table = buildKindTable(lang, g.TS(v))
	})
	return slot.table, slot.err
}

// KindTableForTree returns the table matching the dialect tree was parsed with
func KindTableForTree(lang Language, tree *tree_sitter.Tree) (*KindTable, error) {
	return KindTableForVariant(lang, VariantOfTree(lang, tree))
}

// VariantOfTree recovers the dialect of a parsed tree. The TSX grammar is a
// superset of TypeScript, so the two differ in their node-kind counts.
func VariantOfTree(lang Language, tree *tree_sitter.Tree) Variant {
	if lang != LanguageTypeScript || tree == nil {
		return VariantDefault
	}
	g, err := Default().GetOrCreate(lang)
	if err != nil {
		return VariantDefault
	}
	tsx := g.TS(VariantTSX).NodeKindCount()
	if tsx != g.TS(VariantDefault).NodeKindCount() && tree.Language().NodeKindCount() == tsx {
		return VariantTSX
	}
	return VariantDefault
}

func buildKindTable(lang Language, ts *tree_sitter.Language) *KindTable {
	t := &KindTable{lang: lang}
	names := languageKinds[lang]

	// Aliased productions share a name across several symbols, so collect
	// every named symbol rather than the first id IdForNodeKind reports.
	byName := make(map[string][]uint16)
	for id := uint32(1); id < ts.NodeKindCount(); id++ {
		sym := uint16(id)
		if !ts.NodeKindIsNamed(sym) {
			continue
		}
		name := ts.NodeKindForId(sym)
		byName[name] = append(byName[name], sym)
	}

	missing := 0
	for c := Construct(0); c < numConstructs; c++ {
		t.ids[c] = make(map[uint16]struct{}, len(names[c]))
		for _, name := range names[c] {
			id := ts.IdForNodeKind(name, true)
			t.entries[c] = append(t.entries[c], kindEntry{name: name, id: id})
			if id == 0 {
				missing++
				t.fallback[c] = true
				continue
			}
			t.ids[c][id] = struct{}{}
			for _, alias := range byName[name] {
				t.ids[c][alias] = struct{}{}
			}
		}
	}
	if missing > 0 {
		debug.LogAnalysis("%s kind table: %d construct names fall back to string matching\n",
			DisplayName(lang), missing)
	}
	return t
}

// Language returns the language the table was built for
func (t *KindTable) Language() Language { return t.lang }

// Is reports whether node plays the construct's role
func (t *KindTable) Is(c Construct, node *tree_sitter.Node) bool {
	if node == nil || c >= numConstructs {
		return false
	}
	if _, ok := t.ids[c][node.KindId()]; ok {
		return true
	}
	if !t.fallback[c] {
		return false
	}
	// Grammar-version skew: compare names for entries without an id.
	// Anonymous tokens such as the "if" keyword never match.
	if !node.IsNamed() {
		return false
	}
	kind := node.Kind()
	for _, e := range t.entries[c] {
		if e.id == 0 && e.name == kind {
			return true
		}
	}
	return false
}

// Any reports whether node matches at least one of the constructs
func (t *KindTable) Any(node *tree_sitter.Node, cs ...Construct) bool {
	for _, c := range cs {
		if t.Is(c, node) {
			return true
		}
	}
	return false
}

// Names lists the kind names configured for a construct
func (t *KindTable) Names(c Construct) []string {
	if c >= numConstructs {
		return nil
	}
	out := make([]string, 0, len(t.entries[c]))
	for _, e := range t.entries[c] {
		out = append(out, e.name)
	}
	return out
}

// Resolved lists the names that have a grammar id, sorted
func (t *KindTable) Resolved(c Construct) []string {
	if c >= numConstructs {
		return nil
	}
	var out []string
	for _, e := range t.entries[c] {
		if e.id != 0 {
			out = append(out, e.name)
		}
	}
	slices.Sort(out)
	return out
}
