// Package prompts manages the YAML prompt templates used for ticket
// assessment. Templates ship embedded in the binary and can be overridden
// from a directory on disk.
package prompts

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	log "github.com/tuannvm/jiraclean/internal/logging"
)

//go:embed templates/*.yaml
var embedded embed.FS

// varPattern matches ${var} style placeholders.
var varPattern = regexp.MustCompile(`\$\{([a-zA-Z0-9_]+)\}`)

// Template is a named LLM prompt with ${var} placeholders. Required
// variables are detected from the template text on load.
type Template struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Text        string `yaml:"template"`

	required []string
}

// RequiredVars returns the placeholder names the template expects.
func (t *Template) RequiredVars() []string {
	return t.required
}

// Render substitutes the given values into the template. Every required
// variable must be present; values may be empty strings.
func (t *Template) Render(values map[string]string) (string, error) {
	var missing []string
	for _, v := range t.required {
		if _, ok := values[v]; !ok {
			missing = append(missing, v)
		}
	}
	if len(missing) > 0 {
		return "", fmt.Errorf("missing required variables for prompt %q: %s",
			t.Name, strings.Join(missing, ", "))
	}
	return varPattern.ReplaceAllStringFunc(t.Text, func(m string) string {
		key := varPattern.FindStringSubmatch(m)[1]
		return values[key]
	}), nil
}

// Registry holds the loaded templates by name.
type Registry struct {
	templates map[string]*Template
}

// NewRegistry loads the embedded templates, then layers any *.yaml files
// from overrideDir on top (same name wins).
func NewRegistry(overrideDir string) (*Registry, error) {
	r := &Registry{templates: make(map[string]*Template)}

	if err := r.loadFS(embedded, "templates"); err != nil {
		return nil, fmt.Errorf("failed to load embedded templates: %w", err)
	}
	if overrideDir != "" {
		if err := r.loadFS(os.DirFS(overrideDir), "."); err != nil {
			return nil, fmt.Errorf("failed to load templates from %s: %w", overrideDir, err)
		}
		log.Infof("Loaded prompt template overrides from %s", overrideDir)
	}
	if len(r.templates) == 0 {
		return nil, fmt.Errorf("no prompt templates found")
	}
	return r, nil
}

func (r *Registry) loadFS(fsys fs.FS, dir string) error {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		data, err := fs.ReadFile(fsys, filepath.Join(dir, entry.Name()))
		if err != nil {
			return fmt.Errorf("failed to read template %s: %w", entry.Name(), err)
		}
		var tpl Template
		if err := yaml.Unmarshal(data, &tpl); err != nil {
			return fmt.Errorf("failed to parse template %s: %w", entry.Name(), err)
		}
		if tpl.Name == "" || tpl.Text == "" {
			return fmt.Errorf("template %s is missing a name or template body", entry.Name())
		}
		tpl.required = detectVars(tpl.Text)
		r.templates[tpl.Name] = &tpl
	}
	return nil
}

// Get returns the template with the given name.
func (r *Registry) Get(name string) (*Template, error) {
	tpl, ok := r.templates[name]
	if !ok {
		return nil, fmt.Errorf("template %q not found (have: %s)",
			name, strings.Join(r.Names(), ", "))
	}
	return tpl, nil
}

// Names lists the loaded template names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.templates))
	for name := range r.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func detectVars(text string) []string {
	seen := make(map[string]bool)
	var vars []string
	for _, m := range varPattern.FindAllStringSubmatch(text, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			vars = append(vars, m[1])
		}
	}
	sort.Strings(vars)
	return vars
}
