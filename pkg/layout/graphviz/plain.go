package graphviz

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/matzehuels/familymap/pkg/layout/rank"
)

// parsePlain reads dot's "plain" output and returns node centers in pixels
// with a top-left origin. Plain output uses inches with the origin at the
// bottom left, so y is flipped against the graph height.
func parsePlain(out []byte, names map[string]string) (map[string]rank.Point, error) {
	var height float64
	var sawGraph bool
	centers := make(map[string]rank.Point, len(names))

	sc := bufio.NewScanner(bytes.NewReader(out))
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		fields := tokenize(sc.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "graph":
			if len(fields) < 4 {
				return nil, fmt.Errorf("plain output: short graph line %q", sc.Text())
			}
			h, err := strconv.ParseFloat(fields[3], 64)
			if err != nil {
				return nil, fmt.Errorf("plain output: graph height: %w", err)
			}
			height, sawGraph = h, true
		case "node":
			if !sawGraph {
				return nil, fmt.Errorf("plain output: node before graph line")
			}
			if len(fields) < 4 {
				return nil, fmt.Errorf("plain output: short node line %q", sc.Text())
			}
			id, ok := names[fields[1]]
			if !ok {
				continue
			}
			x, errX := strconv.ParseFloat(fields[2], 64)
			y, errY := strconv.ParseFloat(fields[3], 64)
			if errX != nil || errY != nil {
				return nil, fmt.Errorf("plain output: bad coordinates for %s", fields[1])
			}
			centers[id] = rank.Point{
				X: x * pointsPerInch,
				Y: (height - y) * pointsPerInch,
			}
		case "stop":
			return checkComplete(centers, names)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("plain output: %w", err)
	}
	return checkComplete(centers, names)
}

func checkComplete(centers map[string]rank.Point, names map[string]string) (map[string]rank.Point, error) {
	if len(centers) != len(names) {
		return nil, fmt.Errorf("plain output: positioned %d of %d nodes", len(centers), len(names))
	}
	return centers, nil
}

// tokenize splits a plain-format line on whitespace. Double-quoted fields may
// contain spaces and backslash escapes; quotes are removed.
func tokenize(line string) []string {
	var (
		fields  []string
		cur     strings.Builder
		inQuote bool
		inField bool
	)
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case inQuote && c == '\\' && i+1 < len(line):
			i++
			cur.WriteByte(line[i])
		case c == '"':
			inQuote = !inQuote
			inField = true
		case !inQuote && (c == ' ' || c == '\t'):
			if inField {
				fields = append(fields, cur.String())
				cur.Reset()
				inField = false
			}
		default:
			cur.WriteByte(c)
			inField = true
		}
	}
	if inField {
		fields = append(fields, cur.String())
	}
	return fields
}
