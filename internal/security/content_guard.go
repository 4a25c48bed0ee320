package security

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// ContentGuard refuses file content that is not source text before it
// reaches a parser: disguised images and archives, binary blobs saved under
// a code extension, and bytes that are not valid UTF-8.
type ContentGuard struct {
	// Files larger than this must also contain a pattern typical of their
	// language in the header.
	ValidationThreshold int64
	HeaderSize          int
}

// Guard errors
var (
	ErrBinaryContent = errors.New("content appears to be binary")
	ErrInvalidUTF8   = errors.New("content is not valid UTF-8")
)

// NewContentGuard returns a guard that pattern-checks files above thresholdKB
func NewContentGuard(thresholdKB int64) *ContentGuard {
	return &ContentGuard{
		ValidationThreshold: thresholdKB * 1024,
		HeaderSize:          64 * 1024,
	}
}

// magicBytes maps extensions that carry a fixed signature
var magicBytes = map[string][]byte{
	".png":  {0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A},
	".jpg":  {0xFF, 0xD8, 0xFF},
	".jpeg": {0xFF, 0xD8, 0xFF},
	".gif":  {0x47, 0x49, 0x46, 0x38},
	".pdf":  {0x25, 0x50, 0x44, 0x46, 0x2D},
	".zip":  {0x50, 0x4B, 0x03, 0x04},
	".exe":  {0x4D, 0x5A},
	".dll":  {0x4D, 0x5A},
}

// signatures that never start a text file
var binarySignatures = [][]byte{
	magicBytes[".png"],
	magicBytes[".jpg"],
	magicBytes[".pdf"],
	magicBytes[".zip"],
	{0x7F, 'E', 'L', 'F'},
	{0x1F, 0x8B},             // gzip
	{0xCA, 0xFE, 0xBA, 0xBE}, // java class
	{0x00, 'a', 's', 'm'},    // wasm
}

// languagePatterns lists fragments at least one of which appears near the
// top of any real file of that language
var languagePatterns = map[string][]string{
	".rs":   {"fn ", "let ", "struct ", "enum ", "impl ", "use ", "pub ", "mod "},
	".go":   {"package ", "import ", "func ", "type ", "var ", "const ", "//go:build"},
	".py":   {"def ", "import ", "from ", "class ", "if __name__", "self.", "None", "True", "False"},
	".js":   {"function ", "const ", "let ", "var ", "=>", "import ", "export ", "class ", "require("},
	".jsx":  {"function ", "const ", "let ", "var ", "=>", "import ", "export ", "class "},
	".ts":   {"interface ", "type ", "enum ", "namespace ", ": string", ": number", "export ", "import ", "const ", "function "},
	".tsx":  {"interface ", "type ", "export ", "import ", "const ", "function ", "=>"},
	".java": {"class ", "interface ", "package ", "import ", "public ", "private ", "protected "},
	".c":    {"#include", "int ", "void ", "struct ", "typedef ", "enum ", "char "},
	".h":    {"#include", "#define", "#ifndef", "struct ", "typedef ", "void ", "int "},
	".cpp":  {"#include", "class ", "template", "std::", "namespace ", "int ", "void "},
	".cc":   {"#include", "class ", "std::", "namespace ", "int ", "void "},
	".cxx":  {"#include", "class ", "std::", "namespace ", "int ", "void "},
	".hpp":  {"#include", "#pragma", "class ", "template", "namespace ", "struct "},
	".cs":   {"using ", "namespace ", "class ", "public ", "private ", "interface "},
	".php":  {"<?php", "<?=", "$", "function ", "class ", "echo "},
	".rb":   {"def ", "class ", "module ", "require", "puts ", "end"},
	".zig":  {"const ", "fn ", "pub ", "var ", "@import", "struct"},
}

// Check returns nil when content is acceptable for path's extension
func (g *ContentGuard) Check(path string, content []byte) error {
	header := content
	if g.HeaderSize > 0 && len(header) > g.HeaderSize {
		header = header[:g.HeaderSize]
	}
	ext := strings.ToLower(filepath.Ext(path))

	if err := checkMagicBytes(ext, header); err != nil {
		return err
	}
	for _, sig := range binarySignatures {
		if bytes.HasPrefix(header, sig) {
			return fmt.Errorf("%w: starts with a binary file signature", ErrBinaryContent)
		}
	}
	if IsBinary(header) {
		return ErrBinaryContent
	}
	if !utf8.Valid(content) {
		return ErrInvalidUTF8
	}

	if int64(len(content)) > g.ValidationThreshold {
		return checkLanguagePatterns(ext, header)
	}
	return nil
}

// checkMagicBytes verifies a fixed signature matches the extension
func checkMagicBytes(ext string, header []byte) error {
	if magic, ok := magicBytes[ext]; ok && !bytes.HasPrefix(header, magic) {
		return fmt.Errorf("magic bytes don't match %s extension (file may be disguised)", ext)
	}
	return nil
}

// IsBinary reports whether more than 30% of data is control characters
// other than tab, LF, VT, FF and CR, or data contains a NUL byte.
func IsBinary(data []byte) bool {
	if len(data) == 0 {
		return false
	}
	if bytes.IndexByte(data, 0) >= 0 {
		return true
	}

	nonPrintable := 0
	for _, b := range data {
		if b < 9 || (b > 13 && b < 32) || b == 127 {
			nonPrintable++
		}
	}
	return float64(nonPrintable)/float64(len(data)) > 0.3
}

func checkLanguagePatterns(ext string, header []byte) error {
	patterns, ok := languagePatterns[ext]
	if !ok {
		return nil
	}
	for _, p := range patterns {
		if bytes.Contains(header, []byte(p)) {
			return nil
		}
	}
	return fmt.Errorf("no %s patterns found in the first %d bytes", strings.TrimPrefix(ext, "."), len(header))
}
