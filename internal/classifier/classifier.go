// Package classifier decides how an assistant payload should be
// rendered: as plain text/markdown or as a structured recommendation
// block. Classification is deterministic and pattern-based; anything
// that matches no known signal falls back to plain display, so a bad
// guess degrades to raw text rather than an empty card list.
package classifier

import (
	"regexp"
	"strings"
)

// Classification is the result of inspecting one assistant payload.
type Classification struct {
	IsRecommendation bool
	// Headline is the first top-level heading line, without the "# "
	// marker. Empty when the payload has none.
	Headline string
	// Lead is the free-text introduction before the first movie
	// section, with the headline stripped. Empty when absent.
	Lead string
}

// recommendationSignals is the union of structural markers the backend
// uses for recommendation sets: known section headings and labeled
// field markers. Any single match classifies the payload.
var recommendationSignals = []*regexp.Regexp{
	regexp.MustCompile(`(?i)# Đề Xuất Phim`),
	regexp.MustCompile(`(?i)# Phim Ngẫu Nhiên`),
	regexp.MustCompile(`(?i)# Kết Quả Tìm Kiếm`),
	regexp.MustCompile(`(?i)# Recommendations`),
	regexp.MustCompile(`(?i)# Random Picks`),
	regexp.MustCompile(`(?i)# Search Results`),
	regexp.MustCompile(`(?i)\*\*Năm phát hành\*\*`),
	regexp.MustCompile(`(?i)\*\*Thể loại\*\*`),
	regexp.MustCompile(`(?i)\*\*Year\*\*:`),
	regexp.MustCompile(`(?i)\*\*Genre\*\*:`),
}

// headlineRe matches a top-level heading line: a single # marker at the
// start of a line. Deeper headings (##) never match.
var headlineRe = regexp.MustCompile(`(?m)^# ([^\n]*)\n?`)

// Classify inspects text and reports whether it is a recommendation
// block, plus the headline and lead when present. Total function: empty
// or unknown input is simply not a recommendation.
func Classify(text string) Classification {
	if text == "" {
		return Classification{}
	}

	c := Classification{}
	for _, signal := range recommendationSignals {
		if signal.MatchString(text) {
			c.IsRecommendation = true
			break
		}
	}

	if m := headlineRe.FindStringSubmatch(text); m != nil {
		c.Headline = strings.TrimSpace(m[1])
	}
	c.Lead = extractLead(text)

	return c
}

// extractLead returns the introduction text: everything before the
// first second-level heading, minus the top-level heading line.
func extractLead(text string) string {
	intro := text
	if idx := strings.Index(text, "## "); idx >= 0 {
		intro = text[:idx]
	}
	intro = headlineRe.ReplaceAllString(intro, "")
	return strings.TrimSpace(intro)
}
