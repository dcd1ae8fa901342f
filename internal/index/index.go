// Package index builds the browsable manifest for a pipeline run: one
// index.html at the run directory root, grouping the run's artifacts by
// category with one link per sample. Pure aggregation; nothing is computed.
package index

import (
	"html/template"
	"os"
	"path/filepath"
	"strings"
)

// Category labels one artifact kind in the manifest.
type Category struct {
	Label  string
	Suffix string
}

// Categories is the fixed grouping, in the order the manifest renders.
var Categories = []Category{
	{Label: "Results", Suffix: ".results.html"},
	{Label: "Summaries", Suffix: ".summ.json.gz"},
	{Label: "Mutation lists", Suffix: ".muts.json.gz"},
	{Label: "Pairwise", Suffix: ".pairwise.json"},
}

// Ref is one manifest entry: a sample's artifact file.
type Ref struct {
	Sample string
	File   string
}

// Group is all entries for one category, in filesystem-listing order.
type Group struct {
	Label   string
	Entries []Ref
}

// Build scans dir and returns the category groups. Grouping by category is
// deterministic; order within a category follows the directory listing.
func Build(dir string) ([]Group, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	groups := make([]Group, len(Categories))
	for i, cat := range Categories {
		groups[i].Label = cat.Label
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		for i, cat := range Categories {
			if !strings.HasSuffix(name, cat.Suffix) {
				continue
			}
			sample, _, _ := strings.Cut(name, ".")
			groups[i].Entries = append(groups[i].Entries, Ref{Sample: sample, File: name})
			break
		}
	}
	return groups, nil
}

var manifest = template.Must(template.New("index").Parse(`<!doctype html>
<html>
<head><meta charset="utf-8"><title>Pipeline run</title></head>
<body>
<h1>Pipeline run</h1>
{{range .}}
<h2>{{.Label}}</h2>
<ul>
{{range .Entries}}<li><a href="{{.File}}">{{.Sample}}</a></li>
{{end}}</ul>
{{end}}
</body>
</html>
`))

// Write builds the groups for dir and writes index.html at its root.
func Write(dir string) error {
	groups, err := Build(dir)
	if err != nil {
		return err
	}
	f, err := os.Create(filepath.Join(dir, "index.html"))
	if err != nil {
		return err
	}
	defer f.Close()
	return manifest.Execute(f, groups)
}
