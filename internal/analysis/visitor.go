package analysis

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/lcq/internal/parser"
	"github.com/standardbeagle/lcq/internal/types"
)

// frame is one pending node on the explicit walk stack. depth is the
// nesting depth the node was entered at; it never leaks past the subtree.
type frame struct {
	node  *tree_sitter.Node
	depth int
}

// ComplexityVisitor accumulates complexity metrics over a syntax tree
// without recursion, so arbitrarily deep trees are safe.
type ComplexityVisitor struct {
	cls     *classifier
	metrics types.ComplexityMetrics
}

// NewComplexityVisitor creates a visitor for one language dialect
func NewComplexityVisitor(lang parser.Language, table *parser.KindTable) *ComplexityVisitor {
	return &ComplexityVisitor{
		cls:     newClassifier(lang, table),
		metrics: types.ComplexityMetrics{CyclomaticComplexity: 1},
	}
}

// Visit walks the tree rooted at root
func (v *ComplexityVisitor) Visit(root *tree_sitter.Node) {
	stack := []frame{{node: root, depth: 0}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		childDepth := v.handle(f.node, f.depth)

		// right-to-left so children pop left-to-right
		for i := int(f.node.ChildCount()) - 1; i >= 0; i-- {
			if child := f.node.Child(uint(i)); child != nil {
				stack = append(stack, frame{node: child, depth: childDepth})
			}
		}
	}
}

// handle applies the node's role and returns the depth its children start at
func (v *ComplexityVisitor) handle(node *tree_sitter.Node, depth int) int {
	role := v.cls.role(node)
	m := &v.metrics

	if role.isDecision() {
		m.CyclomaticComplexity++
	}

	switch role {
	case roleFunction:
		m.FunctionCount++
		m.ParameterCount += countParameters(v.cls.lang, v.cls.table, node)
	case roleNestingDecision:
		m.CognitiveComplexity += 1 + depth
	case roleContinuation:
		// depth here is one below the if being continued
		m.CognitiveComplexity += max(depth, 1)
	case roleCatch:
		m.CognitiveComplexity++
	case roleReturn:
		m.ReturnPoints++
	}

	if role.opensScope() {
		depth++
		if depth > m.NestingDepth {
			m.NestingDepth = depth
		}
	}
	return depth
}

// Metrics returns the accumulated metrics. LineCount is set by the caller.
func (v *ComplexityVisitor) Metrics() types.ComplexityMetrics {
	return v.metrics
}

// functionScan is the per-function view used by the rule engines
type functionScan struct {
	complexity int
	maxDepth   int
}

// scanFunction measures cyclomatic complexity over a function's subtree and
// the deepest control-flow nesting inside its body. The function node itself
// contributes the base path but not a nesting level.
func scanFunction(role func(*tree_sitter.Node) nodeRole, fn *tree_sitter.Node) functionScan {
	scan := functionScan{complexity: 1}
	stack := make([]frame, 0, 64)
	for i := int(fn.ChildCount()) - 1; i >= 0; i-- {
		if child := fn.Child(uint(i)); child != nil {
			stack = append(stack, frame{node: child, depth: 0})
		}
	}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		r := role(f.node)
		if r.isDecision() {
			scan.complexity++
		}
		depth := f.depth
		if r.opensScope() && r != roleScope {
			depth++
			if depth > scan.maxDepth {
				scan.maxDepth = depth
			}
		}
		for i := int(f.node.ChildCount()) - 1; i >= 0; i-- {
			if child := f.node.Child(uint(i)); child != nil {
				stack = append(stack, frame{node: child, depth: depth})
			}
		}
	}
	return scan
}
