package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"
)

var ErrInvalidProjectFile = errors.New("invalid project file format")

// Export is the downloadable project file.
type Export struct {
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	Files       []ExportFile `json:"files"`
	GeneratedAt time.Time    `json:"generated_at"`
}

type ExportFile struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

func NewExport(p *Project, now time.Time) Export {
	files := make([]ExportFile, 0, len(p.Files))
	for _, f := range p.Files {
		files = append(files, ExportFile{Name: f.Name, Content: f.Content})
	}
	return Export{
		Name:        p.Name,
		Description: p.Description,
		Files:       files,
		GeneratedAt: now.UTC(),
	}
}

var whitespace = regexp.MustCompile(`\s+`)

// ExportFilename turns "My Landing Page" into "my-landing-page.json".
func ExportFilename(name string) string {
	return strings.ToLower(whitespace.ReplaceAllString(name, "-")) + ".json"
}

// ParseFile reads an uploaded project file. It accepts both exported files
// and full project records.
func ParseFile(r io.Reader) (*Project, error) {
	var p Project
	if err := json.NewDecoder(r).Decode(&p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProjectFile, err)
	}
	if strings.TrimSpace(p.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidProjectFile)
	}
	for i := range p.Files {
		if p.Files[i].Type == "" {
			p.Files[i].Type = typeFromName(p.Files[i].Name)
		}
	}
	p.ID = ""
	p.UserID = ""
	return &p, nil
}

func typeFromName(name string) string {
	switch {
	case strings.HasSuffix(name, ".html"), strings.HasSuffix(name, ".htm"):
		return FileHTML
	case strings.HasSuffix(name, ".css"):
		return FileCSS
	case strings.HasSuffix(name, ".js"):
		return FileJS
	case strings.HasSuffix(name, ".json"):
		return FileJSON
	default:
		return FileTXT
	}
}

// FilesFromCode builds the conventional index.html, styles.css and script.js
// files, skipping parts that are blank.
func FilesFromCode(html, css, js string) []File {
	var files []File
	if strings.TrimSpace(html) != "" {
		files = append(files, File{Name: "index.html", Content: html, Type: FileHTML})
	}
	if strings.TrimSpace(css) != "" {
		files = append(files, File{Name: "styles.css", Content: css, Type: FileCSS})
	}
	if strings.TrimSpace(js) != "" {
		files = append(files, File{Name: "script.js", Content: js, Type: FileJS})
	}
	return files
}

// MergeFiles returns existing with every incoming file applied: a file with
// the same name is replaced in place, new names are appended.
func MergeFiles(existing, incoming []File) []File {
	merged := make([]File, len(existing), len(existing)+len(incoming))
	copy(merged, existing)

	index := make(map[string]int, len(merged))
	for i, f := range merged {
		index[f.Name] = i
	}
	for _, f := range incoming {
		if i, ok := index[f.Name]; ok {
			merged[i] = f
			continue
		}
		index[f.Name] = len(merged)
		merged = append(merged, f)
	}
	return merged
}
