// Package film resolves detected film mentions to canonical identities.
package film

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"channel_etl/internal/slug"
)

//go:embed aliases.json
var defaultAliases []byte

// Alias is one entry of the static film reference dataset.
type Alias struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	OriginalTitle string   `json:"originalTitle,omitempty"`
	Year          int      `json:"year,omitempty"`
	Countries     string   `json:"countries,omitempty"`
	Aliases       []string `json:"aliases"`
}

// LoadAliases reads the reference dataset from a JSON file, or the
// embedded default set when path is empty.
func LoadAliases(path string) ([]Alias, error) {
	data := defaultAliases
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read aliases: %w", err)
		}
	}
	var aliases []Alias
	if err := json.Unmarshal(data, &aliases); err != nil {
		return nil, fmt.Errorf("decode aliases: %w", err)
	}
	return aliases, nil
}

// AliasIndex maps search keys to reference entries. The first writer wins
// on key collisions, so dataset order is significant.
type AliasIndex struct {
	entries map[string]*Alias
}

// NewAliasIndex indexes every entry title and alias under its search key.
func NewAliasIndex(aliases []Alias) *AliasIndex {
	idx := &AliasIndex{entries: make(map[string]*Alias)}
	for i := range aliases {
		entry := &aliases[i]
		idx.add(keyFor(entry.Title, entry.Year), entry)
		for _, alias := range entry.Aliases {
			idx.add(keyFor(alias, entry.Year), entry)
		}
	}
	return idx
}

func (idx *AliasIndex) add(key string, entry *Alias) {
	if key == "" {
		return
	}
	if _, ok := idx.entries[key]; ok {
		return
	}
	idx.entries[key] = entry
}

// Find returns the reference entry matching a title/year pair, or nil.
func (idx *AliasIndex) Find(title string, year int) *Alias {
	key := keyFor(title, year)
	if key == "" {
		return nil
	}
	return idx.entries[key]
}

// Len reports the number of distinct indexed keys.
func (idx *AliasIndex) Len() int {
	return len(idx.entries)
}

func keyFor(title string, year int) string {
	if key := slug.SearchKey(title, year); key != "" {
		return key
	}
	return slug.Make(title)
}
