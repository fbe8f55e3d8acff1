package render

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var lineBreaks = regexp.MustCompile(`(?i)<br\s*/?>|</p>|</li>`)

// AnswerSanitizer turns model output, which may carry stray HTML, into
// plain terminal text. It is safe for concurrent use.
type AnswerSanitizer struct {
	policy *bluemonday.Policy
}

// NewAnswerSanitizer strips every tag and attribute.
func NewAnswerSanitizer() *AnswerSanitizer {
	return &AnswerSanitizer{policy: bluemonday.StrictPolicy()}
}

// Sanitize keeps line structure, drops markup and decodes entities.
func (s *AnswerSanitizer) Sanitize(answer string) string {
	answer = lineBreaks.ReplaceAllString(answer, "\n")
	answer = s.policy.Sanitize(answer)
	return strings.TrimSpace(html.UnescapeString(answer))
}
