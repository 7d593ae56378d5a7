package codegen

import (
	"testing"
)

func TestExtract(t *testing.T) {
	content := "Here you go:\n```html\n<div id=\"app\"></div>\n```\n\n```css\nbody { margin: 0; }\n```\n\n```javascript\nconsole.log('hi')\n```\n"

	code, ok := Extract(content)
	if !ok {
		t.Fatalf("Expected code to be found")
	}
	if code.HTML != `<div id="app"></div>` {
		t.Errorf("Unexpected html %q", code.HTML)
	}
	if code.CSS != "body { margin: 0; }" {
		t.Errorf("Unexpected css %q", code.CSS)
	}
	if code.JS != "console.log('hi')" {
		t.Errorf("Unexpected js %q", code.JS)
	}
	if len(code.Files()) != 3 {
		t.Errorf("Expected 3 files, got %d", len(code.Files()))
	}
}

func TestExtract_JSAlias(t *testing.T) {
	code, ok := Extract("```js\nlet a = 1\nlet b = 2\n```")
	if !ok || code.JS != "let a = 1\nlet b = 2" {
		t.Errorf("Expected js block, got %q ok=%v", code.JS, ok)
	}
	if code.HTML != "" || code.CSS != "" {
		t.Errorf("Expected only js, got %+v", code)
	}
}

func TestExtract_FirstBlockWins(t *testing.T) {
	code, _ := Extract("```css\na{}\n```\n```css\nb{}\n```")
	if code.CSS != "a{}" {
		t.Errorf("Expected first css block, got %q", code.CSS)
	}
}

func TestExtract_None(t *testing.T) {
	if _, ok := Extract("Sure! What colors do you like?"); ok {
		t.Errorf("Expected no code")
	}
	if _, ok := Extract("```python\nprint(1)\n```"); ok {
		t.Errorf("Expected python block to be ignored")
	}
}
