package schema

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/juju/errors"
	"gopkg.in/yaml.v3"
)

const (
	FormatCSV  = "csv"
	FormatYAML = "yaml"

	YAMLFile = "mdb.yaml"
)

func (self *Document) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(self); err != nil {
		return errors.Annotate(err, "yaml encode")
	}
	return errors.Trace(enc.Close())
}

// ReadYAML loads a document written by WriteYAML, used on the GCS side.
func ReadYAML(r io.Reader) (*Document, error) {
	doc := new(Document)
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(doc); err != nil {
		return nil, errors.Annotate(err, "yaml decode")
	}
	return doc, nil
}

// Sheets returns CSV tables by file name, rows in document order.
func (self *Document) Sheets() map[string][][]string {
	sheets := map[string][][]string{
		"containers.csv": {{"name", "parent"}},
		"enums.csv":      {{"enum", "width", "member", "value"}},
		"packets.csv":    {{"id", "name", "period_ms", "size", "parameters"}},
		"parameters.csv": {{"id", "name", "container", "type", "period_ms", "packet", "offset", "description"}},
		"commands.csv":   {{"id", "name", "container", "return", "args", "description"}},
		"arguments.csv":  {{"command", "position", "name", "type", "min", "max"}},
	}
	add := func(sheet string, row ...string) { sheets[sheet] = append(sheets[sheet], row) }

	for _, c := range self.Containers {
		add("containers.csv", c.Name, c.Parent)
	}
	for _, e := range self.Enums {
		for _, m := range e.Members {
			add("enums.csv", e.Name, e.Width, m.Name, strconv.FormatInt(m.Value, 10))
		}
	}
	for _, p := range self.Packets {
		add("packets.csv", strconv.Itoa(p.ID), p.Name, strconv.FormatInt(p.PeriodMs, 10), strconv.Itoa(p.Size), strings.Join(p.Parameters, ";"))
	}
	for _, p := range self.Parameters {
		add("parameters.csv", strconv.Itoa(p.ID), p.Name, p.Container, p.Type, strconv.FormatInt(p.PeriodMs, 10), p.Packet, strconv.Itoa(p.Offset), p.Description)
	}
	for _, c := range self.Commands {
		add("commands.csv", strconv.Itoa(c.ID), c.Name, c.Container, c.Return, strconv.Itoa(len(c.Args)), c.Description)
		for i, a := range c.Args {
			add("arguments.csv", c.Name, strconv.Itoa(i), a.Name, a.Type, formatBound(a.Min), formatBound(a.Max))
		}
	}
	return sheets
}

// WriteCSV writes one file per table into dir, which must exist.
func (self *Document) WriteCSV(dir string) error {
	for name, rows := range self.Sheets() {
		if err := writeFile(filepath.Join(dir, name), func(w io.Writer) error {
			cw := csv.NewWriter(w)
			if err := cw.WriteAll(rows); err != nil {
				return err
			}
			return cw.Error()
		}); err != nil {
			return errors.Annotatef(err, "sheet=%s", name)
		}
	}
	return nil
}

// Export creates dir and writes requested formats. Empty formats means all.
func (self *Document) Export(dir string, formats []string) error {
	if len(formats) == 0 {
		formats = []string{FormatCSV, FormatYAML}
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Annotate(err, "schema.Export")
	}
	for _, f := range formats {
		var err error
		switch strings.ToLower(f) {
		case FormatCSV:
			err = self.WriteCSV(dir)
		case FormatYAML:
			err = writeFile(filepath.Join(dir, YAMLFile), self.WriteYAML)
		default:
			err = errors.NotSupportedf("schema format=%s", f)
		}
		if err != nil {
			return errors.Annotate(err, "schema.Export")
		}
	}
	return nil
}

func writeFile(path string, fun func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Trace(err)
	}
	if err = fun(f); err != nil {
		_ = f.Close()
		return errors.Annotate(err, path)
	}
	return errors.Trace(f.Close())
}

func formatBound(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'g', -1, 64)
}
