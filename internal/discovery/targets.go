// Package discovery finds ATS hubs by searching the web for recently posted
// roles that match the target keywords.
package discovery

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
)

// TargetLine is one OR-group of titles or keywords from the targets file.
type TargetLine struct {
	Raw   string
	Terms []string
}

var quoted = regexp.MustCompile(`"([^"]+)"`)

// LoadTargets reads the targets file at path.
func LoadTargets(path string) ([]TargetLine, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open targets file: %w", err)
	}
	defer f.Close()

	lines, err := ParseTargets(f)
	if err != nil {
		return nil, fmt.Errorf("parse targets file %s: %w", path, err)
	}
	return lines, nil
}

// ParseTargets reads newline-delimited OR-groups such as
//
//	"Marketo" OR "HubSpot Admin"
//
// Blank lines and anything after # are ignored. A line without quotes is
// taken as a single term.
func ParseTargets(r io.Reader) ([]TargetLine, error) {
	var lines []TargetLine
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if i := strings.Index(line, "#"); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		var terms []string
		for _, m := range quoted.FindAllStringSubmatch(line, -1) {
			if t := strings.TrimSpace(m[1]); t != "" {
				terms = append(terms, t)
			}
		}
		if len(terms) == 0 {
			terms = []string{line}
		}
		lines = append(lines, TargetLine{Raw: line, Terms: terms})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}
