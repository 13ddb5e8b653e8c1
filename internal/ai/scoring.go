package ai

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// ScoringItem is a single strength or gap in a scoring result.
type ScoringItem struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// ScoringResult is the validated resume scoring output.
type ScoringResult struct {
	Score       int           `json:"score"`
	Strengths   []ScoringItem `json:"strengths"`
	Gaps        []ScoringItem `json:"gaps"`
	Suggestions []string      `json:"suggestions"`
}

// ParseScoringResult validates the raw model output against the contract the
// prompt asks for. Models sometimes wrap JSON in markdown fences; those are
// stripped before decoding. The score is clamped to 0-100 and the item lists
// truncated to three entries each.
func ParseScoringResult(raw string) (*ScoringResult, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var decoded struct {
		Score       *float64      `json:"score"`
		Strengths   []ScoringItem `json:"strengths"`
		Gaps        []ScoringItem `json:"gaps"`
		Suggestions []string      `json:"suggestions"`
	}

	if err := json.Unmarshal([]byte(cleaned), &decoded); err != nil {
		return nil, fmt.Errorf("failed to parse ai response as JSON: %w", err)
	}

	if decoded.Score == nil {
		return nil, fmt.Errorf("ai response is missing a numeric score")
	}
	if decoded.Strengths == nil {
		return nil, fmt.Errorf("ai response is missing strengths array")
	}
	if decoded.Gaps == nil {
		return nil, fmt.Errorf("ai response is missing gaps array")
	}
	if decoded.Suggestions == nil {
		return nil, fmt.Errorf("ai response is missing suggestions array")
	}

	score := int(math.Round(*decoded.Score))
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	return &ScoringResult{
		Score:       score,
		Strengths:   truncateItems(decoded.Strengths, 3),
		Gaps:        truncateItems(decoded.Gaps, 3),
		Suggestions: decoded.Suggestions,
	}, nil
}

func truncateItems(items []ScoringItem, n int) []ScoringItem {
	if len(items) > n {
		return items[:n]
	}
	return items
}
