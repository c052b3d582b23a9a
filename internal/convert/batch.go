package convert

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"example.com/canconv/internal/common"
)

// BatchResult collects the outcome of every file in a batch.
type BatchResult struct {
	InputDir  string    `json:"inputDir"`
	OutputDir string    `json:"outputDir"`
	Format    string    `json:"format"`
	StartedAt time.Time `json:"startedAt"`
	Files     []Result  `json:"files"`
	Converted int       `json:"converted"`
	Failed    int       `json:"failed"`
}

// Outputs lists the files produced by successful conversions.
func (b BatchResult) Outputs() []string {
	var out []string
	for _, f := range b.Files {
		if f.OK() && f.Output != "" {
			out = append(out, f.Output)
		}
	}
	return out
}

// Discover returns the *.csv files directly inside dir, sorted by name.
func Discover(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		return nil, err
	}
	files := matches[:0]
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil || info.IsDir() {
			continue
		}
		files = append(files, m)
	}
	sort.Strings(files)
	return files, nil
}

// Batch converts every CSV in inDir into outDir, which is created when
// missing. A file that cannot be read or has no timestamp or ID column is
// recorded as failed and the loop moves on. Output side failures stop the
// batch and are returned.
func Batch(inDir, outDir string, opts Options) (BatchResult, error) {
	res := BatchResult{
		InputDir:  inDir,
		OutputDir: outDir,
		Format:    string(opts.Format),
		StartedAt: time.Now().UTC(),
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return res, &OutputError{Op: "create output dir", Path: outDir, Err: err}
	}
	inputs, err := Discover(inDir)
	if err != nil {
		return res, fmt.Errorf("discover %s: %w", inDir, err)
	}
	opts.Metrics.SetTotalFiles(int64(len(inputs)))
	for _, input := range inputs {
		output := OutputPath(outDir, input, opts.Format)
		fr, err := ConvertFile(input, output, opts)
		if err != nil {
			fr.Error = err.Error()
			res.Files = append(res.Files, fr)
			res.Failed++
			opts.Metrics.FileDone(false)
			var outErr *OutputError
			if errors.As(err, &outErr) {
				return res, err
			}
			common.Logf("Failed to convert %s: %v", input, err)
			continue
		}
		res.Files = append(res.Files, fr)
		res.Converted++
		opts.Metrics.FileDone(true)
		common.Logf("Converted %s -> %s (%d frames, %d degraded)", input, output, fr.Frames, fr.Degraded)
	}
	return res, nil
}
