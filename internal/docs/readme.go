// Package docs renders the command reference of the README.
package docs

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/template"

	"cyborgian/internal/command"
	"cyborgian/internal/config"
)

// CommandSections lists commands grouped by category, ordered by category
// weight and then by name.
func CommandSections(descriptors []*command.Descriptor, separator string) string {
	sorted := append([]*command.Descriptor(nil), descriptors...)
	sort.SliceStable(sorted, func(i, j int) bool {
		wi, wj := config.CategoryWeight(sorted[i].Category), config.CategoryWeight(sorted[j].Category)
		if wi == wj {
			return sorted[i].Name() < sorted[j].Name()
		}
		return wi < wj
	})

	var buf bytes.Buffer
	current := "\x00"
	for _, d := range sorted {
		if d.Category != current {
			if current != "\x00" {
				buf.WriteString("\n")
			}
			current = d.Category
			title := current
			if title == "" {
				title = "Other"
			}
			fmt.Fprintf(&buf, "### %s\n\n", title)
		}

		var names []string
		if d.Slash != nil {
			names = append(names, "/"+d.Slash.Name)
		}
		for _, t := range d.Triggers {
			names = append(names, separator+t)
		}
		for i, n := range names {
			names[i] = "`" + n + "`"
		}
		fmt.Fprintf(&buf, "- **%s** %s\n", strings.Join(names, ", "), d.Summary())
	}
	return buf.String()
}

// Render executes the README template with the command sections.
func Render(w io.Writer, tmpl string, descriptors []*command.Descriptor, separator string) error {
	t, err := template.New("readme").Parse(tmpl)
	if err != nil {
		return fmt.Errorf("parse template: %w", err)
	}
	data := struct {
		CommandSections string
	}{
		CommandSections: CommandSections(descriptors, separator),
	}
	if err := t.Execute(w, data); err != nil {
		return fmt.Errorf("render template: %w", err)
	}
	return nil
}
