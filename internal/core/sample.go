package core

import (
	"os"
	"strings"
)

// DiscoverSamples scans dir for files whose names end in suffix and returns
// the distinct sample ids, where an id is the portion of the filename before
// the first '.'. The result keeps filesystem-listing order and carries no
// duplicates even when several suffix variants exist for the same id. An
// empty result is not an error: a missing or empty directory simply yields
// no work downstream.
func DiscoverSamples(dir, suffix string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	seen := make(map[string]bool)
	var ids []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, suffix) {
			continue
		}
		id, _, ok := strings.Cut(name, ".")
		if !ok || id == "" {
			continue
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids, nil
}
