// Package convert runs the per-file conversion pass and the directory batch
// loop on top of the schema, decode and encoder packages.
package convert

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"example.com/canconv/internal/asc"
	"example.com/canconv/internal/canframe"
	"example.com/canconv/internal/common"
	"example.com/canconv/internal/config"
	"example.com/canconv/internal/decode"
	"example.com/canconv/internal/savvy"
	"example.com/canconv/internal/schema"
)

// ErrEmptyInput is returned for a file without a header row.
var ErrEmptyInput = errors.New("input has no header row")

// ErrEncoding is returned when a record is not valid UTF-8.
var ErrEncoding = errors.New("input is not valid UTF-8")

const utf8BOM = "\ufeff"

// OutputError wraps failures on the output side (directory, temp file,
// write, rename). A batch stops on these.
type OutputError struct {
	Op   string
	Path string
	Err  error
}

func (e *OutputError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *OutputError) Unwrap() error {
	return e.Err
}

// Options controls a conversion pass.
type Options struct {
	Format      config.Format
	Channel     int
	ASCDate     string
	DataBase    int
	Aliases     schema.Aliases
	Verbose     bool
	Diagnostics *common.DiagnosticLog
	Metrics     *common.Metrics
}

// OptionsFromConfig copies the conversion settings out of cfg.
func OptionsFromConfig(cfg config.Config) (Options, error) {
	aliases, err := cfg.SchemaAliases()
	if err != nil {
		return Options{}, err
	}
	return Options{
		Format:   cfg.Format,
		Channel:  cfg.Channel,
		ASCDate:  cfg.ASCDate,
		DataBase: cfg.DataBase,
		Aliases:  aliases,
		Verbose:  cfg.Verbose,
	}, nil
}

// Result summarizes one converted file.
type Result struct {
	Input    string        `json:"input"`
	Output   string        `json:"output,omitempty"`
	Layout   string        `json:"layout,omitempty"`
	Rows     int           `json:"rows"`
	Frames   int           `json:"frames"`
	Degraded int           `json:"degraded"`
	Duration time.Duration `json:"durationNs"`
	Error    string        `json:"error,omitempty"`
}

// OK reports whether the file converted without a file level error.
func (r Result) OK() bool {
	return r.Error == ""
}

type frameWriter interface {
	Write(canframe.Frame) error
	Flush() error
	Frames() int
}

func newFrameWriter(w io.Writer, opts Options) frameWriter {
	if opts.Format == config.FormatSavvy {
		return savvy.NewWriter(w)
	}
	return asc.NewWriter(w, opts.ASCDate, opts.Channel)
}

// OutputPath returns <outDir>/<input base>_savvycan.<ext>.
func OutputPath(outDir, input string, format config.Format) string {
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	return filepath.Join(outDir, base+"_savvycan"+format.Ext())
}

// ConvertFile converts input into output. The output appears only after a
// complete pass; on any error no file is left at output.
func ConvertFile(input, output string, opts Options) (res Result, err error) {
	started := time.Now()
	res.Input = input
	defer func() { res.Duration = time.Since(started) }()

	in, err := os.Open(input)
	if err != nil {
		return res, fmt.Errorf("open input: %w", err)
	}
	defer in.Close()

	r := csv.NewReader(in)
	r.FieldsPerRecord = -1
	r.ReuseRecord = true
	r.LazyQuotes = true
	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return res, ErrEmptyInput
		}
		return res, fmt.Errorf("read header: %w", err)
	}
	if !validRecord(header) {
		return res, fmt.Errorf("header: %w", ErrEncoding)
	}
	header = append([]string(nil), header...)
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], utf8BOM)
	}
	s, err := schema.Bind(header, opts.Aliases)
	if err != nil {
		return res, err
	}
	res.Layout = s.Layout().String()
	dec := decode.New(s, decode.WithFixedColumnBase(opts.DataBase))

	out, err := newTempOutput(output)
	if err != nil {
		return res, err
	}
	defer out.discard()

	fw := newFrameWriter(out.f, opts)
	offset := r.InputOffset()
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return res, fmt.Errorf("read row %d: %w", res.Rows+1, err)
		}
		line, _ := r.FieldPos(0)
		if !validRecord(row) {
			return res, fmt.Errorf("line %d: %w", line, ErrEncoding)
		}
		res.Rows++
		frame, deg := dec.Decode(row)
		if deg != 0 {
			res.Degraded++
			if opts.Verbose {
				common.Logf("%s line %d: defaulted %s", input, line, deg)
			}
			if err := opts.Diagnostics.Append(common.Diagnostic{File: input, Row: line, Fields: deg.Names()}); err != nil {
				return res, &OutputError{Op: "write diagnostics", Path: opts.Diagnostics.Path(), Err: err}
			}
		}
		next := r.InputOffset()
		opts.Metrics.AddRow(next-offset, deg != 0)
		offset = next
		if err := fw.Write(frame); err != nil {
			return res, &OutputError{Op: "write", Path: output, Err: err}
		}
	}
	if err := fw.Flush(); err != nil {
		return res, &OutputError{Op: "write", Path: output, Err: err}
	}
	res.Frames = fw.Frames()
	if err := out.commit(); err != nil {
		return res, err
	}
	res.Output = output
	return res, nil
}

func validRecord(record []string) bool {
	for _, cell := range record {
		if !utf8.ValidString(cell) {
			return false
		}
	}
	return true
}

type tempOutput struct {
	f      *os.File
	target string
	done   bool
}

func newTempOutput(target string) (*tempOutput, error) {
	dir := filepath.Dir(target)
	f, err := os.CreateTemp(dir, "."+filepath.Base(target)+".*.tmp")
	if err != nil {
		return nil, &OutputError{Op: "create", Path: target, Err: err}
	}
	return &tempOutput{f: f, target: target}, nil
}

func (t *tempOutput) commit() error {
	if err := t.f.Sync(); err != nil {
		return &OutputError{Op: "sync", Path: t.target, Err: err}
	}
	if err := t.f.Close(); err != nil {
		return &OutputError{Op: "close", Path: t.target, Err: err}
	}
	if err := os.Chmod(t.f.Name(), 0o644); err != nil {
		return &OutputError{Op: "chmod", Path: t.target, Err: err}
	}
	if err := os.Rename(t.f.Name(), t.target); err != nil {
		return &OutputError{Op: "rename", Path: t.target, Err: err}
	}
	t.done = true
	return nil
}

// discard removes the temp file unless commit succeeded.
func (t *tempOutput) discard() {
	if t.done {
		return
	}
	_ = t.f.Close()
	_ = os.Remove(t.f.Name())
}
