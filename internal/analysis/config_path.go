package analysis

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/standardbeagle/lcq/internal/parser"
	"github.com/standardbeagle/lcq/internal/types"
)

var (
	configCredential = regexp.MustCompile(`(?i)(password|api_key|secret|token)"?\s*[:=]\s*[^\s#]+`)
	yamlErrorLine    = regexp.MustCompile(`line (\d+)`)
)

// configIssues validates a JSON, YAML or TOML document. A document that
// fails to decode gets a single CFG001; otherwise each line is scanned for
// inline credentials.
func configIssues(lang parser.Language, source string) []types.Issue {
	var (
		line, col int
		err       error
	)
	switch lang {
	case parser.LanguageJSON:
		line, col, err = decodeJSON(source)
	case parser.LanguageYAML:
		line, col, err = decodeYAML(source)
	case parser.LanguageTOML:
		line, col, err = decodeTOML(source)
	}
	if err != nil {
		return []types.Issue{{
			Severity:       types.SeverityMinor,
			Category:       types.CategoryNamingConvention,
			Message:        fmt.Sprintf("%s parse error: %v", strings.ToUpper(string(lang)), err),
			Line:           max(line, 1),
			Column:         max(col, 1),
			RuleID:         "CFG001",
			PointsDeducted: 5,
		}}
	}

	var issues []types.Issue
	for i, text := range strings.Split(source, "\n") {
		if loc := configCredential.FindStringIndex(text); loc != nil {
			issues = append(issues, types.Issue{
				Severity:       types.SeverityCritical,
				Category:       types.CategoryHardcodedCredentials,
				Message:        "Potential hardcoded credentials in config",
				Line:           i + 1,
				Column:         loc[0] + 1,
				RuleID:         "CFGSEC001",
				PointsDeducted: 50,
			})
		}
	}
	return issues
}

func decodeJSON(source string) (int, int, error) {
	var v any
	err := json.Unmarshal([]byte(source), &v)
	if err == nil {
		return 0, 0, nil
	}
	var syntax *json.SyntaxError
	if errors.As(err, &syntax) {
		line, col := offsetToPosition(source, syntax.Offset)
		return line, col, err
	}
	return 1, 1, err
}

// offsetToPosition converts a byte offset into a 1-based line and column
func offsetToPosition(source string, offset int64) (int, int) {
	if offset > int64(len(source)) {
		offset = int64(len(source))
	}
	prefix := source[:offset]
	line := strings.Count(prefix, "\n") + 1
	col := len(prefix) - strings.LastIndexByte(prefix, '\n')
	return line, col
}

// decodeYAML walks every document in a stream
func decodeYAML(source string) (int, int, error) {
	dec := yaml.NewDecoder(strings.NewReader(source))
	for {
		var v any
		err := dec.Decode(&v)
		if errors.Is(err, io.EOF) {
			return 0, 0, nil
		}
		if err != nil {
			line := 1
			if m := yamlErrorLine.FindStringSubmatch(err.Error()); m != nil {
				line, _ = strconv.Atoi(m[1])
			}
			return line, 1, err
		}
	}
}

func decodeTOML(source string) (int, int, error) {
	var v map[string]any
	err := toml.NewDecoder(bytes.NewReader([]byte(source))).Decode(&v)
	if err == nil {
		return 0, 0, nil
	}
	var de *toml.DecodeError
	if errors.As(err, &de) {
		row, col := de.Position()
		return row, col, err
	}
	return 1, 1, err
}
