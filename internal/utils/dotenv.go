package utils

import (
	"fmt"
	"io"
	"sort"
	"strings"

	cerrors "github.com/clerk-dev/clerk/internal/errors"
	"github.com/joho/godotenv"
)

// EnvEntry is one KEY=value pair.
type EnvEntry struct {
	Key   string
	Value string
}

// ParseDotenv reads dotenv content. Blank lines and comments are skipped,
// surrounding quotes are removed and an "export " prefix is accepted.
// Entries are returned sorted by key; a repeated key keeps its last value.
func ParseDotenv(r io.Reader) ([]EnvEntry, error) {
	env, err := godotenv.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", cerrors.ErrInvalidDotenv, err)
	}

	entries := make([]EnvEntry, 0, len(env))
	for k, v := range env {
		entries = append(entries, EnvEntry{Key: k, Value: v})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })

	return entries, nil
}

// FormatDotenv renders entries as dotenv content. Each header line becomes
// a comment, followed by a blank line. Values are quoted and escaped so
// ParseDotenv reads them back unchanged.
func FormatDotenv(header []string, entries []EnvEntry) (string, error) {
	env := make(map[string]string, len(entries))
	for _, e := range entries {
		env[e.Key] = e.Value
	}

	body, err := godotenv.Marshal(env)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, line := range header {
		b.WriteString("# ")
		b.WriteString(line)
		b.WriteString("\n")
	}
	if len(header) > 0 {
		b.WriteString("\n")
	}
	if body != "" {
		b.WriteString(body)
		b.WriteString("\n")
	}
	return b.String(), nil
}

// EnvironList renders entries in the KEY=value form used by os/exec.
func EnvironList(entries []EnvEntry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Key+"="+e.Value)
	}
	return out
}
