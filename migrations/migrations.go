// Package migrations embeds the preference-store schema.
package migrations

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"
)

//go:embed *.sql
var files embed.FS

// Direction selects the up or down half of each migration.
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// Migration is one embedded SQL file.
type Migration struct {
	Name string
	SQL  string
}

// Load returns the migrations for d. Up runs in ascending order, down in descending order.
func Load(d Direction) ([]Migration, error) {
	if d != Up && d != Down {
		return nil, fmt.Errorf("unknown migration direction %q", d)
	}

	names, err := fs.Glob(files, "*."+string(d)+".sql")
	if err != nil {
		return nil, fmt.Errorf("failed to list migrations: %w", err)
	}
	sort.Strings(names)
	if d == Down {
		sort.Sort(sort.Reverse(sort.StringSlice(names)))
	}

	out := make([]Migration, 0, len(names))
	for _, name := range names {
		body, err := files.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("failed to read migration %s: %w", name, err)
		}
		out = append(out, Migration{
			Name: strings.TrimSuffix(name, "."+string(d)+".sql"),
			SQL:  string(body),
		})
	}
	return out, nil
}
