package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// noteFrontMatter holds the fields recognized in a markdown file's YAML
// front matter block.
type noteFrontMatter struct {
	Title      string
	Collection string
}

func parseMarkdown(input string) (noteFrontMatter, string, error) {
	front := noteFrontMatter{}
	body := input

	lines := strings.Split(input, "\n")
	if len(lines) >= 3 && strings.TrimSpace(lines[0]) == "---" {
		end := -1
		for i := 1; i < len(lines); i++ {
			if strings.TrimSpace(lines[i]) == "---" {
				end = i
				break
			}
		}
		if end == -1 {
			return front, "", fmt.Errorf("front matter not closed")
		}
		frontText := strings.Join(lines[1:end], "\n")
		raw := map[string]any{}
		if err := yaml.Unmarshal([]byte(frontText), &raw); err != nil {
			return front, "", err
		}
		if value, ok := raw["title"].(string); ok {
			front.Title = value
		}
		if value, ok := raw["collection"].(string); ok {
			front.Collection = value
		}
		body = strings.Join(lines[end+1:], "\n")
	}

	return front, strings.TrimSpace(body), nil
}

// firstHeading returns the text of the first level-one heading, or "".
func firstHeading(body string) string {
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if rest, ok := strings.CutPrefix(trimmed, "# "); ok {
			return strings.TrimSpace(rest)
		}
	}
	return ""
}

// markdownContentJSON wraps a markdown body in the note content document.
func markdownContentJSON(body string) (string, error) {
	doc := map[string]any{
		"type": "markdown",
		"text": body,
	}
	encoded, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}
