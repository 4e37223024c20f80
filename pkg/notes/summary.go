package notes

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Summary blocks are free-text sections an operator writes by hand inside a
// generated document. They are delimited by marker comments keyed by the
// release tag name and must survive regeneration byte for byte.
const (
	summaryStartPrefix = "<!--Summary Block;"
	summaryEndPrefix   = "<!--Summary Block End;"
	summaryMarkerNote  = "Don't modify/delete this comment."
)

// DocumentPath returns where a component's release notes live.
func DocumentPath(componentRoot, component string) string {
	return filepath.Join(componentRoot, component, "release-notes.md")
}

// ExtractSummaries pulls the summary block of every release out of an
// existing document, keyed by release tag name. It is a two-state parser:
// outside a block, only a start marker matters; inside one, every line is
// the operator's text until the end marker closes it.
func ExtractSummaries(r io.Reader) (map[string]string, error) {
	summaries := make(map[string]string)

	var (
		inBlock bool
		tag     string
		buf     strings.Builder
	)
	flush := func() {
		summaries[tag] = strings.TrimLeft(buf.String(), " \t\n")
		buf.Reset()
		inBlock = false
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if inBlock {
			// The end-marker check comes first so marker lines never leak
			// into the preserved text.
			if strings.HasPrefix(line, summaryEndPrefix) {
				flush()
				continue
			}
			buf.WriteString(line)
			buf.WriteByte('\n')
			continue
		}
		if strings.HasPrefix(line, summaryStartPrefix) {
			tag = markerTag(line)
			inBlock = true
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if inBlock {
		// Unterminated block: keep what was collected rather than drop it.
		flush()
	}
	return summaries, nil
}

// markerTag extracts the release tag name from a marker comment of the form
// "<!--Summary Block; <tag>; ...-->".
func markerTag(line string) string {
	parts := strings.Split(line, ";")
	if len(parts) < 2 {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// LoadSummaries collects the summary blocks of every component document
// under componentRoot. Missing documents are fine; a component may never
// have been released.
func LoadSummaries(componentRoot string) (map[string]string, error) {
	summaries := make(map[string]string)

	entries, err := os.ReadDir(componentRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return summaries, nil
		}
		return nil, err
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		f, err := os.Open(DocumentPath(componentRoot, entry.Name()))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
		extracted, err := ExtractSummaries(f)
		f.Close()
		if err != nil {
			return nil, err
		}
		for tag, summary := range extracted {
			summaries[tag] = summary
		}
	}
	return summaries, nil
}
