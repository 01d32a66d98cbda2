package main

import (
	"encoding/json"
	"testing"
)

func TestParseMarkdownFrontMatter(t *testing.T) {
	input := "---\ntitle: Groceries\ncollection: co1234\n---\n\n- milk\n- eggs\n"
	front, body, err := parseMarkdown(input)
	if err != nil {
		t.Fatalf("parse markdown: %v", err)
	}
	if front.Title != "Groceries" {
		t.Fatalf("expected title Groceries, got %q", front.Title)
	}
	if front.Collection != "co1234" {
		t.Fatalf("expected collection co1234, got %q", front.Collection)
	}
	if body != "- milk\n- eggs" {
		t.Fatalf("unexpected body %q", body)
	}
}

func TestParseMarkdownWithoutFrontMatter(t *testing.T) {
	front, body, err := parseMarkdown("# Shopping\n\nplain text\n")
	if err != nil {
		t.Fatalf("parse markdown: %v", err)
	}
	if front.Title != "" || front.Collection != "" {
		t.Fatalf("expected empty front matter, got %+v", front)
	}
	if firstHeading(body) != "Shopping" {
		t.Fatalf("expected heading Shopping, got %q", firstHeading(body))
	}
}

func TestParseMarkdownUnclosedFrontMatter(t *testing.T) {
	if _, _, err := parseMarkdown("---\ntitle: broken\n\nbody"); err == nil {
		t.Fatal("expected error for unclosed front matter")
	}
}

func TestMarkdownContentJSON(t *testing.T) {
	content, err := markdownContentJSON("hello")
	if err != nil {
		t.Fatalf("encode content: %v", err)
	}
	doc := map[string]any{}
	if err := json.Unmarshal([]byte(content), &doc); err != nil {
		t.Fatalf("content is not valid JSON: %v", err)
	}
	if doc["type"] != "markdown" || doc["text"] != "hello" {
		t.Fatalf("unexpected content document %v", doc)
	}
}
