// Package parser turns a classified recommendation payload into
// discrete movie records. The input is semi-structured markdown with
// partially missing fields, so extraction is table-driven and every
// miss degrades to an empty field or a skipped section, never an error.
package parser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/vietvo371/wopai-assistant/internal/hashid"
	"github.com/vietvo371/wopai-assistant/internal/models"
)

// delimiterRe matches a section delimiter: a line consisting solely of
// three or more hyphens.
var delimiterRe = regexp.MustCompile(`(?m)^\s*-{3,}\s*$`)

// titleRe matches the required second-level heading of a movie section.
var titleRe = regexp.MustCompile(`## ([^\n]*)`)

// numericRe matches an all-digit path segment.
var numericRe = regexp.MustCompile(`^\d+$`)

// fieldRule is one row of the extraction table: a labeled pattern and
// where its first capture group lands on the record. Labels accept both
// the backend's Vietnamese form and the English alias.
type fieldRule struct {
	name   string
	re     *regexp.Regexp
	assign func(m *models.ExtractedMovie, value string)
}

var fieldRules = []fieldRule{
	{
		name: "year",
		re:   regexp.MustCompile(`\*\*(?:Năm phát hành|Year)\*\*:\s*([^\n]*)`),
		assign: func(m *models.ExtractedMovie, v string) { m.Year = v },
	},
	{
		// The genre value may share its line with other metadata
		// separated by a pipe; capture stops there.
		name: "genre",
		re:   regexp.MustCompile(`\*\*(?:Thể loại|Genre)\*\*:\s*([^|\n]*)`),
		assign: func(m *models.ExtractedMovie, v string) { m.Genre = v },
	},
	{
		name: "film_type",
		re:   regexp.MustCompile(`\*\*(?:Loại phim|Film Type)\*\*:\s*([^\n]*)`),
		assign: func(m *models.ExtractedMovie, v string) { m.FilmType = v },
	},
	{
		name: "summary",
		re:   regexp.MustCompile(`\*\*(?:Tóm tắt phim|Summary)\*\*:\s*([^\n]*)`),
		assign: func(m *models.ExtractedMovie, v string) { m.Summary = v },
	},
	{
		name: "link",
		re:   regexp.MustCompile(`\*\*(?:Đường dẫn|Link)\*\*:\s*(https?://[^\s)]+)`),
		assign: func(m *models.ExtractedMovie, v string) { m.ExternalLink = v },
	},
	{
		name: "image",
		re:   regexp.MustCompile(`!\[[^\]]*\]\((https?://[^\s)]+)`),
		assign: func(m *models.ExtractedMovie, v string) { m.ImageURL = v },
	},
}

// Parse extracts the ordered movie list from text. Section order is the
// backend's ranking and is preserved. Texts without any delimiter line
// are not recommendation sets and yield nothing. Parse never fails and
// is idempotent: identical input gives identical records and ids.
func Parse(text string) []models.ExtractedMovie {
	if !delimiterRe.MatchString(text) {
		return nil
	}

	var movies []models.ExtractedMovie
	for _, section := range delimiterRe.Split(text, -1) {
		if strings.TrimSpace(section) == "" {
			continue
		}
		if movie, ok := parseSection(section); ok {
			movies = append(movies, movie)
		}
	}
	return movies
}

// parseSection extracts one movie from a candidate section. Sections
// without a ## heading are decorative and dropped silently.
func parseSection(section string) (models.ExtractedMovie, bool) {
	title := titleRe.FindStringSubmatch(section)
	if title == nil {
		return models.ExtractedMovie{}, false
	}

	movie := models.ExtractedMovie{Title: strings.TrimSpace(title[1])}
	for _, rule := range fieldRules {
		if m := rule.re.FindStringSubmatch(section); m != nil {
			rule.assign(&movie, strings.TrimSpace(m[1]))
		}
	}

	movie.Slug = lastPathSegment(movie.ExternalLink)
	movie.ID = deriveID(movie.Title, movie.Slug)
	return movie, true
}

// deriveID prefers the catalog id embedded in the link's final path
// segment; free-form titles get a synthetic hashed id instead.
func deriveID(title, slug string) int {
	if numericRe.MatchString(slug) {
		if id, err := strconv.Atoi(slug); err == nil {
			return id
		}
	}
	return int(hashid.Sum(title))
}

func lastPathSegment(link string) string {
	if link == "" {
		return ""
	}
	if idx := strings.LastIndex(link, "/"); idx >= 0 {
		return link[idx+1:]
	}
	return ""
}
