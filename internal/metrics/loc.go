package metrics

import (
	"bufio"
	"strings"
)

// LineCounts partitions a file's lines
type LineCounts struct {
	Code    int `json:"code"`
	Comment int `json:"comment"`
	Blank   int `json:"blank"`
}

// Total returns the number of classified lines
func (lc LineCounts) Total() int {
	return lc.Code + lc.Comment + lc.Blank
}

func (lc *LineCounts) add(other LineCounts) {
	lc.Code += other.Code
	lc.Comment += other.Comment
	lc.Blank += other.Blank
}

// commentSyntax describes how one language spells comments. Empty fields
// are unsupported forms.
type commentSyntax struct {
	line       string
	blockOpen  string
	blockClose string
	docLine    string
	docBlock   string
}

var (
	cFamilySyntax = commentSyntax{line: "//", blockOpen: "/*", blockClose: "*/", docBlock: "/**"}
	hashSyntax    = commentSyntax{line: "#"}
)

// commentSyntaxes is keyed by lowercase extension without the dot
var commentSyntaxes = map[string]commentSyntax{
	"rs":   {line: "//", blockOpen: "/*", blockClose: "*/", docLine: "///", docBlock: "/**"},
	"js":   cFamilySyntax,
	"jsx":  cFamilySyntax,
	"mjs":  cFamilySyntax,
	"cjs":  cFamilySyntax,
	"ts":   cFamilySyntax,
	"tsx":  cFamilySyntax,
	"java": cFamilySyntax,
	"go":   cFamilySyntax,
	"c":    cFamilySyntax,
	"h":    cFamilySyntax,
	"cpp":  cFamilySyntax,
	"cc":   cFamilySyntax,
	"cxx":  cFamilySyntax,
	"hpp":  cFamilySyntax,
	"cs":   {line: "//", blockOpen: "/*", blockClose: "*/", docLine: "///"},
	"php":  cFamilySyntax,
	"zig":  {line: "//", docLine: "///"},
	"py":   {line: "#", blockOpen: `"""`, blockClose: `"""`},
	"rb":   {line: "#", blockOpen: "=begin", blockClose: "=end"},
	"html": {blockOpen: "<!--", blockClose: "-->"},
	"xml":  {blockOpen: "<!--", blockClose: "-->"},
	"sh":   hashSyntax,
	"yaml": hashSyntax,
	"yml":  hashSyntax,
	"toml": hashSyntax,
}

// CountLines classifies each line of content as code, comment or blank.
// A line that opens a block comment counts as a comment line, and the block
// state carries over until the closing marker is seen. Extensions without
// a known comment syntax count every non-blank line as code.
func CountLines(content, ext string) LineCounts {
	var counts LineCounts
	syntax, known := commentSyntaxes[normalizeExt(ext)]

	inBlock := false
	scanner := bufio.NewScanner(strings.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)
	for scanner.Scan() {
		trimmed := strings.TrimSpace(scanner.Text())

		switch {
		case trimmed == "":
			counts.Blank++
		case !known:
			counts.Code++
		case inBlock:
			counts.Comment++
			if strings.Contains(trimmed, syntax.blockClose) {
				inBlock = false
			}
		case syntax.blockOpen != "" && strings.Contains(trimmed, syntax.blockOpen):
			counts.Comment++
			idx := strings.Index(trimmed, syntax.blockOpen)
			rest := trimmed[idx+len(syntax.blockOpen):]
			inBlock = !strings.Contains(rest, syntax.blockClose)
		case syntax.docLine != "" && strings.HasPrefix(trimmed, syntax.docLine):
			counts.Comment++
		case syntax.line != "" && strings.HasPrefix(trimmed, syntax.line):
			counts.Comment++
		default:
			counts.Code++
		}
	}
	return counts
}

func normalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
