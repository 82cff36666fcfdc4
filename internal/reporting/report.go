package reporting

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"flowtagger/internal/analysis"
	"flowtagger/internal/models"
)

// Default report file names.
const (
	DefaultTagFile          = "tag_counts.csv"
	DefaultPortProtocolFile = "port_protocol_counts.csv"
)

var (
	tagHeader          = []string{"Tag", "Count"}
	portProtocolHeader = []string{"Port", "Protocol", "Count"}
)

// Files names the two report files inside the output directory.
type Files struct {
	Tag          string
	PortProtocol string
}

// DefaultFiles returns the default report file names.
func DefaultFiles() Files {
	return Files{Tag: DefaultTagFile, PortProtocol: DefaultPortProtocolFile}
}

// Paths holds the locations of the written reports.
type Paths struct {
	Tag          string
	PortProtocol string
}

// WriteTagCounts writes a Tag,Count CSV.
func WriteTagCounts(w io.Writer, rows []analysis.TagCount) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(tagHeader); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write([]string{r.Tag, strconv.Itoa(r.Count)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WritePortProtocolCounts writes a Port,Protocol,Count CSV.
func WritePortProtocolCounts(w io.Writer, rows []analysis.PortProtocolCount) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(portProtocolHeader); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write([]string{strconv.Itoa(r.Port), r.Protocol, strconv.Itoa(r.Count)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteReports writes both reports into dir. Each report is first written to
// a temporary file; the files are only renamed into place once both have been
// written, so a failed run leaves no report behind.
func WriteReports(dir string, files Files, tags []analysis.TagCount, portProtocols []analysis.PortProtocolCount) (Paths, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return Paths{}, models.WriteFailed(dir, fmt.Errorf("create output directory: %w", err))
	}

	paths := Paths{
		Tag:          filepath.Join(dir, files.Tag),
		PortProtocol: filepath.Join(dir, files.PortProtocol),
	}

	tagTmp, err := writeTemp(dir, files.Tag, func(w io.Writer) error {
		return WriteTagCounts(w, tags)
	})
	if err != nil {
		return Paths{}, models.WriteFailed(paths.Tag, err)
	}
	defer os.Remove(tagTmp)

	ppTmp, err := writeTemp(dir, files.PortProtocol, func(w io.Writer) error {
		return WritePortProtocolCounts(w, portProtocols)
	})
	if err != nil {
		return Paths{}, models.WriteFailed(paths.PortProtocol, err)
	}
	defer os.Remove(ppTmp)

	if err := os.Rename(tagTmp, paths.Tag); err != nil {
		return Paths{}, models.WriteFailed(paths.Tag, err)
	}
	if err := os.Rename(ppTmp, paths.PortProtocol); err != nil {
		os.Remove(paths.Tag)
		return Paths{}, models.WriteFailed(paths.PortProtocol, err)
	}
	return paths, nil
}

// writeTemp writes a file next to its final name and returns the temp path.
func writeTemp(dir, name string, fill func(io.Writer) error) (string, error) {
	f, err := os.CreateTemp(dir, "."+name+".*.tmp")
	if err != nil {
		return "", err
	}
	tmp := f.Name()

	if err := fill(f); err != nil {
		f.Close()
		os.Remove(tmp)
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return "", err
	}
	if err := os.Chmod(tmp, 0644); err != nil {
		os.Remove(tmp)
		return "", err
	}
	return tmp, nil
}
