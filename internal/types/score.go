package types

// Component maxima; the total budget is 1000.
const (
	MaxFunctionality   = 300
	MaxReliability     = 200
	MaxMaintainability = 200
	MaxPerformance     = 150
	MaxSecurity        = 100
	MaxStandards       = 50
	MaxTotal           = MaxFunctionality + MaxReliability + MaxMaintainability +
		MaxPerformance + MaxSecurity + MaxStandards
)

// QualityScore is the six-dimension score for one source body
type QualityScore struct {
	TotalScore           int     `json:"total_score"`
	FunctionalityScore   int     `json:"functionality_score"`
	ReliabilityScore     int     `json:"reliability_score"`
	MaintainabilityScore int     `json:"maintainability_score"`
	PerformanceScore     int     `json:"performance_score"`
	SecurityScore        int     `json:"security_score"`
	StandardsScore       int     `json:"standards_score"`
	Issues               []Issue `json:"issues"`
	TotalIssues          int     `json:"total_issues"`
	Message              string  `json:"message,omitempty"`
}

// NewQualityScore returns a score with every component at its maximum
func NewQualityScore() *QualityScore {
	s := &QualityScore{
		FunctionalityScore:   MaxFunctionality,
		ReliabilityScore:     MaxReliability,
		MaintainabilityScore: MaxMaintainability,
		PerformanceScore:     MaxPerformance,
		SecurityScore:        MaxSecurity,
		StandardsScore:       MaxStandards,
		Issues:               []Issue{},
	}
	s.Recompute()
	return s
}

// Recompute sets TotalScore to the sum of the components
func (s *QualityScore) Recompute() {
	s.TotalScore = s.FunctionalityScore + s.ReliabilityScore + s.MaintainabilityScore +
		s.PerformanceScore + s.SecurityScore + s.StandardsScore
}

// SaturatingSub subtracts points from v, clamping at zero
func SaturatingSub(v, points int) int {
	if points <= 0 {
		return v
	}
	if points >= v {
		return 0
	}
	return v - points
}
