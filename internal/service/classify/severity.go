package classify

import "strings"

// Severity 错误严重程度，按 none < slight < moderate < high 排序。
type Severity int

const (
	SeverityNone Severity = iota
	SeveritySlight
	SeverityModerate
	SeverityHigh
)

func (s Severity) String() string {
	switch s {
	case SeveritySlight:
		return "slight"
	case SeverityModerate:
		return "moderate"
	case SeverityHigh:
		return "high"
	default:
		return "none"
	}
}

// ParseSeverity 兼容英文与西语标签，无法识别的值一律视为 none。
func ParseSeverity(raw string) Severity {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "slight", "leve":
		return SeveritySlight
	case "moderate", "moderado":
		return SeverityModerate
	case "high", "alto":
		return SeverityHigh
	default:
		return SeverityNone
	}
}

// Evaluation 是错误评估的结果。
type Evaluation struct {
	HasErrors bool
	Severity  Severity
}
