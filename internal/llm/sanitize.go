package llm

import "strings"

// StripFences removes markdown code fences the model sometimes wraps its
// JSON in despite the prompt, then trims to the outermost object so stray
// prose before or after the braces doesn't break decoding.
func StripFences(content string) string {
	s := strings.TrimSpace(content)
	if strings.Contains(s, "```json") {
		s = strings.ReplaceAll(s, "```json", "")
		s = strings.ReplaceAll(s, "```", "")
	} else if strings.Contains(s, "```") {
		s = strings.ReplaceAll(s, "```", "")
	}
	s = strings.TrimSpace(s)

	if i := strings.Index(s, "{"); i >= 0 {
		if j := strings.LastIndex(s, "}"); j > i {
			s = s[i : j+1]
		}
	}
	return s
}
