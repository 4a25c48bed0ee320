package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCountLines_Rust(t *testing.T) {
	src := `
// This is a comment
/// This is a doc comment
fn main() {
    /* Multi-line
       comment */
    println!("Hello, world!"); // inline comment

    let x = 42;
}
`
	assert.Equal(t, LineCounts{Code: 4, Comment: 4, Blank: 2}, CountLines(src, "rs"))
}

func TestCountLines_JavaScript(t *testing.T) {
	src := `
// Single line comment
function test() {
    /* Multi-line
       comment */
    console.log("test");
    /** JSDoc comment
     * @param {string} x
     */
    return 42;
}
`
	assert.Equal(t, LineCounts{Code: 4, Comment: 6, Blank: 1}, CountLines(src, ".js"))
}

func TestCountLines_PythonDocstringTracked(t *testing.T) {
	src := `
# This is a comment
def main():
    """
    Docstring
    """
    print("Hello")  # inline comment
    x = 42

    return x
`
	assert.Equal(t, LineCounts{Code: 4, Comment: 4, Blank: 2}, CountLines(src, "py"))
}

func TestCountLines_PythonOneLineDocstring(t *testing.T) {
	src := "def f():\n    \"\"\"Short.\"\"\"\n    return 1\n"
	assert.Equal(t, LineCounts{Code: 2, Comment: 1, Blank: 0}, CountLines(src, "py"))
}

func TestCountLines_RubyBlock(t *testing.T) {
	src := "=begin\nnotes\n=end\nputs 1\n"
	assert.Equal(t, LineCounts{Code: 1, Comment: 3}, CountLines(src, "rb"))
}

func TestCountLines_UnknownLanguage(t *testing.T) {
	src := "# not a comment here\n\nplain text\n"
	got := CountLines(src, "weird")
	assert.Equal(t, LineCounts{Code: 2, Blank: 1}, got)
	assert.Equal(t, 3, got.Total())
}

func TestCountLines_Empty(t *testing.T) {
	assert.Equal(t, LineCounts{}, CountLines("", "go"))
}
