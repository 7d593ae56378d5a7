// Package codegen pulls website code out of generated replies.
package codegen

import (
	"regexp"

	"github.com/MadScientist85/Ai-Web-App/internal/project"
)

// SystemPrompt is used when a chat request does not carry its own.
const SystemPrompt = "You are an AI web generator. Generate complete HTML, CSS, and JavaScript code for websites " +
	"and web applications. Always provide working, production-ready code that can be immediately deployed."

var (
	htmlBlock = regexp.MustCompile("(?s)```html\n(.*?)\n```")
	cssBlock  = regexp.MustCompile("(?s)```css\n(.*?)\n```")
	jsBlock   = regexp.MustCompile("(?s)```(?:javascript|js)\n(.*?)\n```")
)

type Code struct {
	HTML string `json:"html"`
	CSS  string `json:"css"`
	JS   string `json:"js"`
}

// Extract returns the first fenced html, css and js blocks of content. ok is
// false when none is present.
func Extract(content string) (code Code, ok bool) {
	code.HTML, ok = firstGroup(htmlBlock, content, ok)
	code.CSS, ok = firstGroup(cssBlock, content, ok)
	code.JS, ok = firstGroup(jsBlock, content, ok)
	return code, ok
}

func firstGroup(re *regexp.Regexp, s string, found bool) (string, bool) {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return "", found
	}
	return m[1], true
}

func (c Code) Files() []project.File {
	return project.FilesFromCode(c.HTML, c.CSS, c.JS)
}
