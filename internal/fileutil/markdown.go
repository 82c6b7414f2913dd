package fileutil

import (
	"fmt"
	"strings"
)

// MarkdownBuilder helps construct markdown documents
type MarkdownBuilder struct {
	content strings.Builder
}

// NewMarkdownBuilder creates a new markdown builder
func NewMarkdownBuilder() *MarkdownBuilder {
	return &MarkdownBuilder{}
}

// AddHeading adds a heading of the given level (1-6)
func (mb *MarkdownBuilder) AddHeading(level int, text string) *MarkdownBuilder {
	level = max(1, min(level, 6))
	fmt.Fprintf(&mb.content, "%s %s\n\n", strings.Repeat("#", level), text)
	return mb
}

// AddParagraph adds a paragraph of text to the content
func (mb *MarkdownBuilder) AddParagraph(text string) *MarkdownBuilder {
	if text == "" {
		return mb
	}

	mb.content.WriteString(text)
	mb.content.WriteString("\n\n")
	return mb
}

// AddBulletList adds an unordered list, skipping empty items
func (mb *MarkdownBuilder) AddBulletList(items ...string) *MarkdownBuilder {
	wrote := false
	for _, item := range items {
		if item == "" {
			continue
		}
		fmt.Fprintf(&mb.content, "- %s\n", item)
		wrote = true
	}
	if wrote {
		mb.content.WriteString("\n")
	}
	return mb
}

// AddTable adds a pipe table. Rows shorter than the header are padded.
func (mb *MarkdownBuilder) AddTable(headers []string, rows [][]string) *MarkdownBuilder {
	if len(headers) == 0 {
		return mb
	}

	writeRow := func(cells []string) {
		mb.content.WriteString("|")
		for i := range headers {
			cell := ""
			if i < len(cells) {
				cell = escapeCell(cells[i])
			}
			fmt.Fprintf(&mb.content, " %s |", cell)
		}
		mb.content.WriteString("\n")
	}

	writeRow(headers)
	mb.content.WriteString("|")
	for range headers {
		mb.content.WriteString(" --- |")
	}
	mb.content.WriteString("\n")
	for _, row := range rows {
		writeRow(row)
	}
	mb.content.WriteString("\n")
	return mb
}

// AddCallout adds a callout section to the content
func (mb *MarkdownBuilder) AddCallout(calloutType, title, content string) *MarkdownBuilder {
	if content == "" {
		return mb
	}

	if title != "" {
		fmt.Fprintf(&mb.content, ">[!%s]- %s\n", calloutType, title)
	} else {
		fmt.Fprintf(&mb.content, ">[!%s]\n", calloutType)
	}

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(&mb.content, "> %s\n", line)
	}

	mb.content.WriteString("\n")
	return mb
}

// Build returns the markdown content
func (mb *MarkdownBuilder) Build() string {
	return mb.content.String()
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.Join(strings.Fields(s), " ")
}
