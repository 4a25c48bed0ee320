package analysis

import (
	"fmt"
	"slices"
	"sync"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/lcq/internal/parser"
	"github.com/standardbeagle/lcq/internal/types"
)

// Rule is one independent check over a whole tree. Rules propose issues;
// the scorer owns deductions. Implementations must be stateless.
type Rule interface {
	ID() string
	Check(tree *tree_sitter.Tree, source []byte, lang parser.Language) []types.Issue
}

// Registry maps rule ids to rules
type Registry struct {
	mu    sync.RWMutex
	rules map[string]Rule
}

// NewRegistry returns an empty registry
func NewRegistry() *Registry {
	return &Registry{rules: make(map[string]Rule)}
}

// Register adds a rule. Ids must be unique.
func (r *Registry) Register(rule Rule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.rules[rule.ID()]; exists {
		return fmt.Errorf("rule %s already registered", rule.ID())
	}
	r.rules[rule.ID()] = rule
	return nil
}

// Get looks a rule up by id
func (r *Registry) Get(id string) (Rule, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rule, ok := r.rules[id]
	return rule, ok
}

// IDs lists registered ids in sorted order
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.rules))
	for id := range r.rules {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Run applies every rule in id order and returns the sorted issue stream
func (r *Registry) Run(tree *tree_sitter.Tree, source []byte, lang parser.Language) []types.Issue {
	var issues []types.Issue
	for _, id := range r.IDs() {
		rule, _ := r.Get(id)
		issues = append(issues, rule.Check(tree, source, lang)...)
	}
	types.SortIssues(issues)
	return issues
}

// Len reports the number of registered rules
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rules)
}

// DefaultRegistry returns a registry holding the built-in rules
var DefaultRegistry = sync.OnceValue(func() *Registry {
	r := NewRegistry()
	for _, rule := range BuiltinRules() {
		if err := r.Register(rule); err != nil {
			panic(err)
		}
	}
	return r
})

// BuiltinRules lists one instance of every built-in rule
func BuiltinRules() []Rule {
	return []Rule{
		TodoRule{},
		UnhandledErrorRule{},
		SecurityPatternRule{},
		ResourceLeakRule{},
		DeadCodeRule{},
		ComplexityRule{},
		LongLineRule{},
		LongMethodRule{},
	}
}

// walk visits every named node in document order
func walk(root *tree_sitter.Node, visit func(*tree_sitter.Node)) {
	stack := []*tree_sitter.Node{root}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if node.IsNamed() {
			visit(node)
		}
		for i := int(node.ChildCount()) - 1; i >= 0; i-- {
			if child := node.Child(uint(i)); child != nil {
				stack = append(stack, child)
			}
		}
	}
}

// ruleContext resolves what every tree rule needs up front
func ruleContext(tree *tree_sitter.Tree, lang parser.Language) (*classifier, bool) {
	table, err := parser.KindTableForTree(lang, tree)
	if err != nil {
		return nil, false
	}
	return newClassifier(lang, table), true
}
