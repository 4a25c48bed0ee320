package security

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentGuard(t *testing.T) {
	guard := NewContentGuard(100)

	t.Run("ValidRustFile", func(t *testing.T) {
		content := "fn main() {\n    println!(\"hi\");\n}\n"
		assert.NoError(t, guard.Check("src/main.rs", []byte(content)))
	})

	t.Run("ValidPythonFile", func(t *testing.T) {
		content := "def hello():\n    print('hi')\n\nif __name__ == '__main__':\n    hello()\n"
		assert.NoError(t, guard.Check("hello.py", []byte(content)))
	})

	t.Run("UnicodeText", func(t *testing.T) {
		assert.NoError(t, guard.Check("i18n.js", []byte("const s = 'тест 测试 テスト';\n")))
	})

	t.Run("SmallFileSkipsPatternCheck", func(t *testing.T) {
		assert.NoError(t, guard.Check("notes.go", []byte("just words\n")))
	})

	t.Run("ImageAsPHP", func(t *testing.T) {
		png := []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0x00, 0x00, 0x00, 0x0D}
		err := guard.Check("malicious.php", append(png, make([]byte, 1024)...))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrBinaryContent)
	})

	t.Run("DisguisedImage", func(t *testing.T) {
		err := guard.Check("photo.png", []byte("fn main() {}"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "magic bytes")
	})

	t.Run("NulBytes", func(t *testing.T) {
		assert.ErrorIs(t, guard.Check("a.go", []byte("package a\x00\x00")), ErrBinaryContent)
	})

	t.Run("InvalidUTF8", func(t *testing.T) {
		content := bytes.Repeat([]byte{0xC3, 0x28, 'a'}, 10)
		assert.ErrorIs(t, guard.Check("latin1.rb", content), ErrInvalidUTF8)
	})

	t.Run("LargeFileWithoutPatterns", func(t *testing.T) {
		content := strings.Repeat("Lorem ipsum dolor sit amet.\n", 5000)
		err := guard.Check("corrupted.go", []byte(content))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no go patterns")
	})

	t.Run("LargeFileWithPatterns", func(t *testing.T) {
		content := "package big\n" + strings.Repeat("var x = 1\n", 20000)
		assert.NoError(t, guard.Check("big.go", []byte(content)))
	})

	t.Run("LargeFileUnknownExtension", func(t *testing.T) {
		content := strings.Repeat("plain text\n", 20000)
		assert.NoError(t, guard.Check("big.txt", []byte(content)))
	})
}

func TestIsBinary(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want bool
	}{
		{"empty", nil, false},
		{"text", []byte("hello\tworld\r\n"), false},
		{"nul", []byte("abc\x00def"), true},
		{"control heavy", []byte{1, 2, 3, 4, 'a', 'b'}, true},
		{"few controls", []byte("abcdefghij\x01"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsBinary(tt.data))
		})
	}
}
