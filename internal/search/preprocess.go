package search

import (
	"bufio"
	"os"
	"strings"
)

// PrepareMarkdownInMemory reads the markdown at path, flattens table rows
// into standalone facts, and returns the processed bytes. The café menu file
// is mostly tables (item | size | price), and a flattened row like
// "Latte 12oz 4.50" retrieves far better than raw pipe syntax. When the file
// contains nothing to transform the original bytes are returned untouched.
func PrepareMarkdownInMemory(path string) ([]byte, error) {
	orig, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out strings.Builder
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	emitted := false
	atBlank := true // start true so the output never opens with a blank
	hadTable := false

	emitFact := func(s string) {
		s = strings.TrimSpace(s)
		if s == "" || strings.EqualFold(s, "text") {
			return
		}
		out.WriteString(s)
		out.WriteString("\n\n")
		emitted = true
		atBlank = true
	}

	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			if !atBlank {
				out.WriteByte('\n')
				atBlank = true
			}
			continue
		}

		// table row: "| ... |"
		if strings.HasPrefix(line, "|") && strings.HasSuffix(line, "|") {
			hadTable = true
			cols := strings.Split(strings.Trim(line, "|"), "|")

			sepRow := true
			cells := make([]string, 0, len(cols))
			for _, c := range cols {
				cell := strings.TrimSpace(c)
				if cell != "" {
					cells = append(cells, cell)
				}
				stripped := strings.ReplaceAll(cell, ":", "")
				stripped = strings.ReplaceAll(stripped, "-", "")
				if strings.TrimSpace(stripped) != "" {
					sepRow = false
				}
			}
			if sepRow || len(cells) == 0 {
				continue
			}
			emitFact(strings.Join(cells, " "))
			continue
		}

		// prose line, one fact per line
		atBlank = false
		emitFact(line)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	if !hadTable && !emitted {
		return orig, nil
	}

	s := out.String()
	if hadTable {
		// Table flows end with exactly one newline.
		s = strings.TrimRight(s, "\n") + "\n"
	}
	return []byte(s), nil
}
