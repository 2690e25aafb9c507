// Package report renders FC progress reports as Discord markdown.
package report

import "strings"

// Report is a titled block of preformatted data.
type Report struct {
	Emoji       string `json:"emoji"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Data        string `json:"data"`
	Footer      string `json:"footer,omitempty"`
}

// Markdown renders the report for a Discord message. Data goes in a code
// block so table columns line up.
func (r Report) Markdown() string {
	var b strings.Builder
	if r.Emoji != "" {
		b.WriteString(r.Emoji)
		b.WriteString(" ")
	}
	b.WriteString("**")
	b.WriteString(r.Title)
	b.WriteString("**\n")
	if r.Description != "" {
		b.WriteString(r.Description)
		b.WriteString("\n")
	}
	b.WriteString("```\n")
	b.WriteString(r.Data)
	b.WriteString("\n```")
	if r.Footer != "" {
		b.WriteString("\n")
		b.WriteString(r.Footer)
	}
	return b.String()
}
