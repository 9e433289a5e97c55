package render

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/devilmonastery/clubhouse/internal/models"
	"github.com/devilmonastery/clubhouse/internal/pkg/textutil"
	"github.com/devilmonastery/clubhouse/internal/pkg/timeutil"
	"github.com/devilmonastery/clubhouse/internal/pkg/urlutil"
)

// Version is stamped at build time with -ldflags "-X ...render.Version=..."
var Version = "dev"

//go:embed templates
var embedded embed.FS

//go:embed static
var staticFiles embed.FS

// TemplateSet holds all parsed page templates
// Each page is stored as a completely separate template.Template
// to avoid {{define "content"}} block collisions
type TemplateSet struct {
	pages map[string]*template.Template
	mu    sync.RWMutex
}

// Execute renders the specified page template
// pageName should be the filename like "clubs.html"
// This method always executes the "base" layout, which will use the
// {{define "content"}}, {{define "title"}}, etc. blocks from the specific page
func (ts *TemplateSet) Execute(w io.Writer, pageName string, data interface{}) error {
	ts.mu.RLock()
	tmpl, ok := ts.pages[pageName]
	ts.mu.RUnlock()

	if !ok {
		return fmt.Errorf("template %q not found", pageName)
	}
	return tmpl.ExecuteTemplate(w, "base", data)
}

// ExecuteTemplate executes a named template from a specific page's template set
func (ts *TemplateSet) ExecuteTemplate(w io.Writer, pageName string, templateName string, data interface{}) error {
	ts.mu.RLock()
	tmpl, ok := ts.pages[pageName]
	ts.mu.RUnlock()

	if !ok {
		return fmt.Errorf("page template %q not found", pageName)
	}
	return tmpl.ExecuteTemplate(w, templateName, data)
}

// Has checks if a template exists
func (ts *TemplateSet) Has(pageName string) bool {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	_, ok := ts.pages[pageName]
	return ok
}

// Names returns all available template names, sorted
func (ts *TemplateSet) Names() []string {
	ts.mu.RLock()
	defer ts.mu.RUnlock()

	names := make([]string, 0, len(ts.pages))
	for name := range ts.pages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FuncMap returns the helpers available to every template. timezone is used
// to display backend timestamps.
func FuncMap(timezone string) template.FuncMap {
	return template.FuncMap{
		"renderMarkdown": Markdown,
		"initials":       textutil.Initials,
		"truncate":       textutil.Truncate,
		"tags":           textutil.Tags,
		"clubPath": func(c models.Club) string {
			return urlutil.ClubPath(c.GroupID, c.Name)
		},
		"activityPath": func(a models.Activity) string {
			return urlutil.ActivityPath(a.ActivityID, a.Name)
		},
		"formatTime": func(value string) string {
			return timeutil.FormatEventTime(value, timezone)
		},
		"upcoming": func(value string) bool {
			return timeutil.IsUpcoming(value, timezone, time.Now())
		},
		"seats": func(a models.Activity) string {
			left := a.SeatsLeft()
			if left < 0 {
				return "open"
			}
			return fmt.Sprintf("%d left", left)
		},
		"list": func(items ...string) []string {
			return items
		},
		"dict": func(values ...interface{}) map[string]interface{} {
			if len(values)%2 != 0 {
				return nil
			}
			dict := make(map[string]interface{}, len(values)/2)
			for i := 0; i < len(values); i += 2 {
				key, ok := values[i].(string)
				if !ok {
					return nil
				}
				dict[key] = values[i+1]
			}
			return dict
		},
		"add": func(a, b int) int {
			return a + b
		},
		"sub": func(a, b int) int {
			return a - b
		},
		"assetURL": func(filename string) string {
			return "/static/" + Version + "/" + filename
		},
		"title": func(s string) string {
			if s == "" {
				return ""
			}
			return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
		},
	}
}

// LoadTemplates parses the page templates. An empty dir uses the templates
// compiled into the binary; otherwise dir must have the same
// layouts/components/pages structure.
func LoadTemplates(dir, timezone string) (*TemplateSet, error) {
	var fsys fs.FS
	if dir == "" {
		sub, err := fs.Sub(embedded, "templates")
		if err != nil {
			return nil, err
		}
		fsys = sub
	} else {
		fsys = os.DirFS(dir)
	}
	return LoadTemplatesFS(fsys, timezone)
}

// LoadTemplatesFS parses templates from fsys.
// Returns a TemplateSet where each page is completely isolated
func LoadTemplatesFS(fsys fs.FS, timezone string) (*TemplateSet, error) {
	funcMap := FuncMap(timezone)

	componentFiles, err := fs.Glob(fsys, path.Join("components", "*.html"))
	if err != nil {
		return nil, fmt.Errorf("failed to list component templates: %w", err)
	}

	pageFiles, err := fs.Glob(fsys, path.Join("pages", "*.html"))
	if err != nil {
		return nil, fmt.Errorf("failed to list page templates: %w", err)
	}
	if len(pageFiles) == 0 {
		return nil, fmt.Errorf("no page templates found in pages/")
	}

	ts := &TemplateSet{
		pages: make(map[string]*template.Template),
	}

	// Parse each page into its OWN completely isolated template
	for _, pageFile := range pageFiles {
		pageName := path.Base(pageFile)

		filesToParse := []string{path.Join("layouts", "base.html")}
		filesToParse = append(filesToParse, componentFiles...)
		filesToParse = append(filesToParse, pageFile)

		pageTemplate, err := template.New("base").Funcs(funcMap).ParseFS(fsys, filesToParse...)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", pageName, err)
		}
		ts.pages[pageName] = pageTemplate
	}

	return ts, nil
}

// Static returns the stylesheet and other assets compiled into the binary.
func Static() fs.FS {
	sub, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

// LogTemplateNames logs all available template names
func LogTemplateNames(ts *TemplateSet, log *slog.Logger) {
	log.Debug("loaded templates", slog.Any("names", ts.Names()))
}
