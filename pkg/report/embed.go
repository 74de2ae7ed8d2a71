package report

import (
	"embed"
	"io/fs"
)

//go:embed templates/*.tpl
var templateFS embed.FS

func bundledTemplates() fs.FS {
	sub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		return templateFS
	}
	return sub
}
