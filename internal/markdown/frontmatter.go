package markdown

import (
	"strings"

	"gopkg.in/yaml.v3"
)

const frontMatterFence = "---"

// splitFrontMatter detaches a leading YAML front matter block from the
// note text. The block must start on the first line, be closed by a
// matching fence, and parse as YAML; otherwise the text is returned
// untouched. The returned front matter includes both fences and the
// trailing newline so it can be re-attached verbatim.
func splitFrontMatter(text string) (front, body string) {
	if !strings.HasPrefix(text, frontMatterFence+"\n") {
		return "", text
	}
	rest := text[len(frontMatterFence)+1:]
	end := strings.Index(rest, "\n"+frontMatterFence+"\n")
	var inner, remainder string
	switch {
	case end >= 0:
		inner = rest[:end]
		remainder = rest[end+len(frontMatterFence)+2:]
	case strings.HasSuffix(rest, "\n"+frontMatterFence):
		inner = rest[:len(rest)-len(frontMatterFence)-1]
		remainder = ""
	default:
		return "", text
	}

	var probe map[string]any
	if err := yaml.Unmarshal([]byte(inner), &probe); err != nil {
		return "", text
	}

	front = frontMatterFence + "\n" + inner + "\n" + frontMatterFence + "\n"
	return front, remainder
}

// Compose re-attaches preserved front matter to serialized body text.
func Compose(frontMatter, body string) string {
	if frontMatter == "" {
		return body
	}
	return frontMatter + body
}
