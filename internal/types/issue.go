package types

import (
	"cmp"
	"slices"
)

// Severity ranks how urgently an issue should be fixed
type Severity string

const (
	SeverityCritical Severity = "Critical"
	SeverityMajor    Severity = "Major"
	SeverityMinor    Severity = "Minor"
)

// Rank orders severities from most to least urgent
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityMajor:
		return 1
	default:
		return 2
	}
}

// Category identifies the nature of an issue. The scorer maps each category
// to the score component it reduces.
type Category string

const (
	// Functionality
	CategoryUnhandledError     Category = "UnhandledError"
	CategoryMissingReturnValue Category = "MissingReturnValue"
	CategoryInfiniteLoop       Category = "InfiniteLoop"
	CategoryDeadCode           Category = "DeadCode"
	CategoryUnreachableCode    Category = "UnreachableCode"

	// Reliability
	CategoryNullPointerRisk      Category = "NullPointerRisk"
	CategoryResourceLeak         Category = "ResourceLeak"
	CategoryRaceCondition        Category = "RaceCondition"
	CategoryMissingErrorHandling Category = "MissingErrorHandling"

	// Maintainability
	CategoryHighComplexity    Category = "HighComplexity"
	CategoryDuplicateCode     Category = "DuplicateCode"
	CategoryLongMethod        Category = "LongMethod"
	CategoryTooManyParameters Category = "TooManyParameters"
	CategoryDeepNesting       Category = "DeepNesting"

	// Performance
	CategoryInefficientAlgorithm Category = "InefficientAlgorithm"
	CategoryUnboundedRecursion   Category = "UnboundedRecursion"
	CategoryExcessiveMemoryUse   Category = "ExcessiveMemoryUse"
	CategorySynchronousBlocking  Category = "SynchronousBlocking"

	// Security
	CategorySqlInjection         Category = "SqlInjection"
	CategoryCommandInjection     Category = "CommandInjection"
	CategoryPathTraversal        Category = "PathTraversal"
	CategoryHardcodedCredentials Category = "HardcodedCredentials"
	CategoryInsecureRandom       Category = "InsecureRandom"

	// Standards
	CategoryNamingConvention     Category = "NamingConvention"
	CategoryMissingDocumentation Category = "MissingDocumentation"
	CategoryUnusedImports        Category = "UnusedImports"
	CategoryUnusedVariables      Category = "UnusedVariables"

	// Style and incompleteness, never deducted directly
	CategoryLongLine       Category = "LongLine"
	CategoryUnfinishedWork Category = "UnfinishedWork"
)

// Issue is one finding anchored to a 1-based line and column
type Issue struct {
	Severity       Severity `json:"severity"`
	Category       Category `json:"category"`
	Message        string   `json:"message"`
	FilePath       string   `json:"file_path,omitempty"`
	Line           int      `json:"line"`
	Column         int      `json:"column"`
	RuleID         string   `json:"rule_id"`
	PointsDeducted int      `json:"points_deducted"`
}

// CompareIssues orders issues by line, column, then rule id
func CompareIssues(a, b Issue) int {
	if c := cmp.Compare(a.Line, b.Line); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Column, b.Column); c != 0 {
		return c
	}
	if c := cmp.Compare(a.RuleID, b.RuleID); c != 0 {
		return c
	}
	// Remaining keys keep equal positions deterministic
	if c := cmp.Compare(a.Message, b.Message); c != 0 {
		return c
	}
	return cmp.Compare(a.Category, b.Category)
}

// SortIssues sorts issues in place by (line, column, rule id)
func SortIssues(issues []Issue) {
	slices.SortStableFunc(issues, CompareIssues)
}

// SortIssuesBySeverity sorts issues by severity, then line, then rule id
func SortIssuesBySeverity(issues []Issue) {
	slices.SortStableFunc(issues, func(a, b Issue) int {
		if c := cmp.Compare(a.Severity.Rank(), b.Severity.Rank()); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Line, b.Line); c != 0 {
			return c
		}
		return cmp.Compare(a.RuleID, b.RuleID)
	})
}
