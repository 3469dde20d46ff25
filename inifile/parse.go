// Package inifile reads the small INI dialect used by sequel.ini profiles.
package inifile

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// File represents a parsed INI file.
type File struct {
	Sections []Section
}

// Section represents a named section in an INI file.
type Section struct {
	Name   string     // e.g., "database", "database.reporting"
	Values []KeyValue // preserves order
}

// KeyValue represents a key-value pair.
type KeyValue struct {
	Key   string
	Value string
	Line  int
}

// SyntaxError reports a line that is neither a section header, a comment,
// nor a key = value pair.
type SyntaxError struct {
	Line int
	Text string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("line %d: expected key = value, got %q", e.Line, e.Text)
}

// Parse reads an INI file from the given reader. Keys before the first
// section header belong to a section named "".
func Parse(r io.Reader) (*File, error) {
	f := &File{}
	current := -1

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}

		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			name := strings.ToLower(strings.TrimSpace(strings.Trim(line, "[]")))
			f.Sections = append(f.Sections, Section{Name: name})
			current = len(f.Sections) - 1
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, &SyntaxError{Line: lineNo, Text: line}
		}
		if current < 0 {
			f.Sections = append(f.Sections, Section{})
			current = len(f.Sections) - 1
		}
		f.Sections[current].Values = append(f.Sections[current].Values, KeyValue{
			Key:   strings.ToLower(strings.TrimSpace(key)),
			Value: unquote(strings.TrimSpace(value)),
			Line:  lineNo,
		})
	}

	return f, scanner.Err()
}

// unquote strips matching double quotes, or a trailing " #"/" ;" comment
// from an unquoted value.
func unquote(v string) string {
	if len(v) >= 2 && v[0] == '"' && v[len(v)-1] == '"' {
		if s, err := strconv.Unquote(v); err == nil {
			return s
		}
		return v[1 : len(v)-1]
	}
	for _, marker := range []string{" #", " ;"} {
		if i := strings.Index(v, marker); i >= 0 {
			v = strings.TrimSpace(v[:i])
		}
	}
	return v
}

// ParseFile reads and parses an INI file from disk.
func ParseFile(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

// Section returns the section with the given name (case-insensitive).
func (f *File) Section(name string) *Section {
	name = strings.ToLower(name)
	for i := range f.Sections {
		if f.Sections[i].Name == name {
			return &f.Sections[i]
		}
	}
	return nil
}

// Get returns the last value for a key in a section.
func (f *File) Get(section, key string) string {
	s := f.Section(section)
	if s == nil {
		return ""
	}
	return s.Get(key)
}

// SectionsWithPrefix returns sections whose names start with prefix.
func (f *File) SectionsWithPrefix(prefix string) []Section {
	prefix = strings.ToLower(prefix)
	var result []Section
	for _, s := range f.Sections {
		if strings.HasPrefix(s.Name, prefix) {
			result = append(result, s)
		}
	}
	return result
}

// Get returns the last value for a key (case-insensitive).
func (s *Section) Get(key string) string {
	v, _ := s.Lookup(key)
	return v
}

// Lookup returns the last value for a key and whether the key was present.
func (s *Section) Lookup(key string) (string, bool) {
	key = strings.ToLower(key)
	var (
		result string
		found  bool
	)
	for _, kv := range s.Values {
		if kv.Key == key {
			result, found = kv.Value, true
		}
	}
	return result, found
}

// Keys returns the distinct keys in first-appearance order.
func (s *Section) Keys() []string {
	seen := make(map[string]bool, len(s.Values))
	var keys []string
	for _, kv := range s.Values {
		if !seen[kv.Key] {
			seen[kv.Key] = true
			keys = append(keys, kv.Key)
		}
	}
	return keys
}
