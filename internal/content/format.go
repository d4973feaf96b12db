package content

import (
	"os"
	"regexp"
	"strings"
)

// DefaultTemplate is the minimal post outline used when no post.md
// template file is present.
const DefaultTemplate = "# {title}\n\n{summary}\n\n{body}\n\n{cta}\n"

// LoadTemplate reads the post template from path, falling back to the
// built-in outline.
func LoadTemplate(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return DefaultTemplate
	}
	return string(data)
}

var (
	bulletLine   = regexp.MustCompile(`(?m)^- `)
	nonSlugChars = regexp.MustCompile(`[^a-z0-9\s-]`)
	spaceRuns    = regexp.MustCompile(`\s+`)
)

// FormatMarkdown applies structural touches without rewriting content:
// ensure an H1 title, collapse blank-line runs, and insert a Key
// Takeaways heading when bullets exist without one.
func FormatMarkdown(content, topic string) string {
	text := strings.ReplaceAll(content, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	lines := strings.Split(text, "\n")
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], " \t")
	}

	if len(lines) == 0 || !strings.HasPrefix(lines[0], "# ") {
		head := []string{"# " + topic}
		if len(lines) > 0 && lines[0] != "" {
			head = append(head, "")
		}
		lines = append(head, lines...)
	}

	// Collapse runs of blank lines.
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			if !blank {
				out = append(out, "")
			}
			blank = true
		} else {
			out = append(out, line)
			blank = false
		}
	}

	joined := strings.Join(out, "\n")
	if !strings.Contains(joined, "## Key Takeaways") && bulletLine.MatchString(joined) {
		insertAt := 1
		limit := len(out)
		if limit > 20 {
			limit = 20
		}
		for i := 0; i < limit; i++ {
			if strings.HasPrefix(out[i], "> ") {
				insertAt = i + 2
				break
			}
		}
		if insertAt > len(out) {
			insertAt = len(out)
		}
		rest := append([]string{"## Key Takeaways", ""}, out[insertAt:]...)
		out = append(out[:insertAt:insertAt], rest...)
	}

	return strings.TrimSpace(strings.Join(out, "\n")) + "\n"
}

// Slugify turns a topic into a short filename-safe slug of at most
// eight dash-joined words.
func Slugify(topic string) string {
	s := strings.ToLower(strings.TrimSpace(topic))
	s = nonSlugChars.ReplaceAllString(s, "")
	s = spaceRuns.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")

	parts := strings.Split(s, "-")
	if len(parts) > 8 {
		parts = parts[:8]
	}
	slug := strings.Join(parts, "-")
	if slug == "" {
		return "post"
	}
	return slug
}
