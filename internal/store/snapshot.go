package store

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// WriteSnapshot writes one "Label=value" line per cell followed by the remark
// lines
func WriteSnapshot(w io.Writer, labels, cells, remarks []string) error {
	bw := bufio.NewWriter(w)
	for i, label := range labels {
		text := ""
		if i < len(cells) {
			text = cells[i]
		}
		if _, err := fmt.Fprintf(bw, "%s=%s\n", label, text); err != nil {
			return err
		}
	}
	for _, line := range remarks {
		if _, err := fmt.Fprintln(bw, line); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ReadSnapshot reads a file written by WriteSnapshot. lines of the form
// "Label=value" for a known label fill that cell; everything else is a
// remark.
func ReadSnapshot(r io.Reader, labels []string) (cells, remarks []string, err error) {
	index := make(map[string]int, len(labels))
	for i, label := range labels {
		index[strings.ToUpper(label)] = i
	}

	cells = make([]string, len(labels))
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if label, value, ok := strings.Cut(line, "="); ok {
			if i, known := index[strings.ToUpper(strings.TrimSpace(label))]; known {
				cells[i] = value
				continue
			}
		}
		remarks = append(remarks, line)
	}
	return cells, remarks, scanner.Err()
}

// SnapshotFile is a flat grid file used instead of the section store when a
// non-TOML path is given on the command line
type SnapshotFile struct {
	Path   string
	Labels []string
}

// Read loads the grid. a missing file is an empty grid.
func (f *SnapshotFile) Read() (cells, remarks []string, err error) {
	file, err := os.Open(f.Path)
	if os.IsNotExist(err) {
		return make([]string, len(f.Labels)), nil, nil
	}
	if err != nil {
		return nil, nil, wrapInternal("open grid file", err)
	}
	defer file.Close()
	return ReadSnapshot(file, f.Labels)
}

// Write replaces the file with the grid
func (f *SnapshotFile) Write(cells, remarks []string) error {
	file, err := os.Create(f.Path)
	if err != nil {
		return wrapInternal("create grid file", err)
	}
	if err := WriteSnapshot(file, f.Labels, cells, remarks); err != nil {
		file.Close()
		return wrapInternal("write grid file", err)
	}
	return file.Close()
}
