// Package manifest reads and rewrites the build counter kept in a Java JAR manifest.
//
// Only the main section (everything before the first blank line) is consulted.
// Rewrites replace a single attribute and preserve every other byte of the file:
// attribute order, unknown attributes, continuation lines and line endings.
package manifest

import (
	"bytes"
	"fmt"
	"strings"
)

// line is one physical manifest line together with its terminator.
type line struct {
	text string
	eol  string
}

// Manifest is a parsed manifest that can be edited in place.
type Manifest struct {
	lines []line
	main  int // number of lines in the main section
}

// Parse splits data into lines and locates the main section.
func Parse(data []byte) (*Manifest, error) {
	m := &Manifest{}
	rest := string(data)
	for len(rest) > 0 {
		idx := strings.IndexAny(rest, "\r\n")
		if idx < 0 {
			m.lines = append(m.lines, line{text: rest})
			break
		}
		eol := rest[idx : idx+1]
		if rest[idx] == '\r' && idx+1 < len(rest) && rest[idx+1] == '\n' {
			eol = "\r\n"
		}
		m.lines = append(m.lines, line{text: rest[:idx], eol: eol})
		rest = rest[idx+len(eol):]
	}

	m.main = len(m.lines)
	for i, l := range m.lines {
		if l.text == "" {
			m.main = i
			break
		}
	}
	for i := 0; i < m.main; i++ {
		text := m.lines[i].text
		if strings.HasPrefix(text, " ") {
			if i == 0 {
				return nil, fmt.Errorf("line 1: continuation without attribute")
			}
			continue
		}
		if !strings.Contains(text, ": ") && !strings.HasSuffix(text, ":") {
			return nil, fmt.Errorf("line %d: malformed attribute %q", i+1, text)
		}
	}
	return m, nil
}

// find returns the line index of attribute key in the main section, or -1.
// Attribute names are case-insensitive.
func (m *Manifest) find(key string) int {
	for i := 0; i < m.main; i++ {
		text := m.lines[i].text
		if strings.HasPrefix(text, " ") {
			continue
		}
		name, _, _ := strings.Cut(text, ":")
		if strings.EqualFold(name, key) {
			return i
		}
	}
	return -1
}

// Get returns the value of key, joining continuation lines.
func (m *Manifest) Get(key string) (string, bool) {
	i := m.find(key)
	if i < 0 {
		return "", false
	}
	_, value, _ := strings.Cut(m.lines[i].text, ":")
	var sb strings.Builder
	sb.WriteString(strings.TrimPrefix(value, " "))
	for j := i + 1; j < m.main && strings.HasPrefix(m.lines[j].text, " "); j++ {
		sb.WriteString(m.lines[j].text[1:])
	}
	return strings.TrimSpace(sb.String()), true
}

// Set replaces the value of an existing attribute. Continuation lines of the
// old value are dropped; the original name spelling and line ending are kept.
func (m *Manifest) Set(key, value string) error {
	i := m.find(key)
	if i < 0 {
		return fmt.Errorf("attribute %q not found", key)
	}
	name, _, _ := strings.Cut(m.lines[i].text, ":")
	m.lines[i].text = name + ": " + value

	end := i + 1
	for end < m.main && strings.HasPrefix(m.lines[end].text, " ") {
		end++
	}
	if removed := end - (i + 1); removed > 0 {
		m.lines = append(m.lines[:i+1], m.lines[end:]...)
		m.main -= removed
	}
	return nil
}

// Bytes renders the manifest.
func (m *Manifest) Bytes() []byte {
	var buf bytes.Buffer
	for _, l := range m.lines {
		buf.WriteString(l.text)
		buf.WriteString(l.eol)
	}
	return buf.Bytes()
}
