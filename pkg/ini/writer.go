package ini

import (
	"bytes"
	"io"

	"github.com/thesabbir/phpmanager/pkg/util"
)

// WriteTo writes every entry, one per line, using the line endings of the
// parsed input
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	newline := "\n"
	if d.crlf {
		newline = "\r\n"
	}

	var buf bytes.Buffer
	for _, e := range d.entries {
		buf.WriteString(e.Text())
		buf.WriteString(newline)
	}

	return buf.WriteTo(w)
}

// Save writes the document to path through a temp file and rename.
// An empty path saves back to the file the document was loaded from.
func (d *Document) Save(path string) error {
	if path == "" {
		path = d.Path
	}
	if path == "" {
		return &ArgumentError{Name: "path", Reason: "document has no file to save to"}
	}

	err := util.WriteFileAtomic(path, 0644, func(w io.Writer) error {
		_, err := d.WriteTo(w)
		return err
	})
	if err != nil {
		return &FileError{Path: path, Err: err}
	}

	if d.Path == "" {
		d.Path = path
	}
	return nil
}
