package history

import "time"

const defaultExportName = "chat-history"

type Export struct {
	ExportedAt  time.Time  `json:"exported_at"`
	ProjectName string     `json:"project_name"`
	Messages    []*Message `json:"messages"`
}

func NewExport(projectName string, messages []*Message, now time.Time) Export {
	if projectName == "" {
		projectName = defaultExportName
	}
	if messages == nil {
		messages = []*Message{}
	}
	return Export{
		ExportedAt:  now.UTC(),
		ProjectName: projectName,
		Messages:    messages,
	}
}

// Filename is "<project>-chat-history.json".
func (e Export) Filename() string {
	return e.ProjectName + "-chat-history.json"
}
