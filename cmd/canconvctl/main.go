package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"example.com/canconv/internal/common"
	"example.com/canconv/internal/config"
	"example.com/canconv/internal/convert"
	"example.com/canconv/internal/manifest"
	"example.com/canconv/internal/report"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}
	cmd := os.Args[1]
	switch cmd {
	case "asc":
		convertCmd("asc", config.FormatASC, os.Args[2:])
	case "savvy":
		convertCmd("savvy", config.FormatSavvy, os.Args[2:])
	case "batch":
		batchCmd(os.Args[2:])
	case "report":
		reportCmd(os.Args[2:])
	case "manifest":
		manifestCmd(os.Args[2:])
	default:
		usage()
	}
}

func usage() {
	fmt.Printf(`canconvctl %s (built %s) <command> [options]

Commands:
  asc       --in <file.csv> [--out <file.asc>] [--config <canconv.yaml>] [--channel <n>] [--verbose]
  savvy     --in <file.csv> [--out <file.csv>] [--config <canconv.yaml>] [--verbose]
  batch     [--in <dir>] [--out-dir <dir>] [--format asc|savvy] [--config <canconv.yaml>]
            [--report <report.json>] [--pdf <report.pdf>] [--manifest <manifest.json>]
            [--diagnostics <diagnostics.jsonl>] [--progress] [--metrics] [--verbose]
  report    --report <report.json> --pdf <report.pdf> [--manifest <manifest.json>]
  manifest  --inputs <comma-separated> --out <manifest.json>
`, version, buildDate)
}

// loadConfig reads the YAML file when one is given and wires up logging.
func loadConfig(path string) (config.Config, io.Closer) {
	cfg := config.Default()
	if strings.TrimSpace(path) != "" {
		var err error
		cfg, err = config.Load(path)
		if err != nil {
			fmt.Println("load config:", err)
			os.Exit(1)
		}
	}
	closer, err := common.SetupLogging(cfg.Logs)
	if err != nil {
		fmt.Println("setup logging:", err)
		os.Exit(1)
	}
	return cfg, closer
}

func convertCmd(name string, format config.Format, args []string) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	in := fs.String("in", "", "input .csv")
	out := fs.String("out", "", "output file (defaults to <in>_savvycan"+format.Ext()+" next to the input)")
	configPath := fs.String("config", "", "YAML configuration file")
	channel := fs.Int("channel", 0, "ASC channel number (overrides config)")
	verbose := fs.Bool("verbose", false, "log every row that fell back to defaults")
	diagPath := fs.String("diagnostics", "", "write degraded rows to this JSONL file")
	fs.Parse(args)

	if *in == "" {
		fmt.Println("required: --in")
		os.Exit(1)
	}
	cfg, closer := loadConfig(*configPath)
	cfg.Format = format
	if *channel > 0 {
		cfg.Channel = *channel
	}
	if *verbose {
		cfg.Verbose = true
	}
	err := convertOne(cfg, *in, *out, *diagPath)
	closer.Close()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func convertOne(cfg config.Config, in, out, diagPath string) error {
	opts, err := convert.OptionsFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	diags, err := openDiagnostics(diagPath)
	if err != nil {
		return err
	}
	opts.Diagnostics = diags

	if out == "" {
		out = convert.OutputPath(filepath.Dir(in), in, cfg.Format)
	}
	res, err := convert.ConvertFile(in, out, opts)
	if cerr := diags.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("convert %s: %w", in, err)
	}
	fmt.Printf("Converted %s -> %s (rows=%d, frames=%d, degraded=%d)\n", res.Input, res.Output, res.Rows, res.Frames, res.Degraded)
	return nil
}

type batchOutputs struct {
	report   string
	pdf      string
	manifest string
	diag     string
	metrics  bool
	progress bool
}

func batchCmd(args []string) {
	fs := flag.NewFlagSet("batch", flag.ExitOnError)
	inDir := fs.String("in", "", "input directory (overrides config, default .)")
	outDir := fs.String("out-dir", "", "results directory (overrides config, default savvycan-playback)")
	formatFlag := fs.String("format", "", "output format: asc or savvy (overrides config)")
	configPath := fs.String("config", "", "YAML configuration file")
	reportPath := fs.String("report", "", "write batch report JSON")
	pdfPath := fs.String("pdf", "", "write batch report PDF")
	manifestPath := fs.String("manifest", "", "write SHA-256 manifest of produced files")
	diagPath := fs.String("diagnostics", "", "write degraded rows to this JSONL file")
	metricsFlag := fs.Bool("metrics", false, "print conversion throughput metrics")
	progressFlag := fs.Bool("progress", false, "display conversion progress updates")
	verbose := fs.Bool("verbose", false, "log every row that fell back to defaults")
	fs.Parse(args)

	var format config.Format
	if *formatFlag != "" {
		f, err := config.ParseFormat(*formatFlag)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		format = f
	}
	cfg, closer := loadConfig(*configPath)
	if *inDir != "" {
		cfg.InputDir = *inDir
	}
	if *outDir != "" {
		cfg.OutputDir = *outDir
	}
	if format != "" {
		cfg.Format = format
	}
	if *verbose {
		cfg.Verbose = true
	}
	err := runBatch(cfg, batchOutputs{
		report:   *reportPath,
		pdf:      *pdfPath,
		manifest: *manifestPath,
		diag:     *diagPath,
		metrics:  *metricsFlag,
		progress: *progressFlag,
	})
	closer.Close()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func runBatch(cfg config.Config, outs batchOutputs) error {
	opts, err := convert.OptionsFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	diags, err := openDiagnostics(outs.diag)
	if err != nil {
		return err
	}
	opts.Diagnostics = diags

	var metrics *common.Metrics
	if outs.metrics || outs.progress {
		metrics = common.NewMetrics()
		opts.Metrics = metrics
		metrics.Start()
	}
	var stopProgress func()
	if metrics != nil && outs.progress {
		stopProgress = common.StartProgressPrinter(os.Stderr, metrics, 500*time.Millisecond)
	}

	res, err := convert.Batch(cfg.InputDir, cfg.OutputDir, opts)
	if stopProgress != nil {
		stopProgress()
	}
	if metrics != nil {
		metrics.Stop()
	}
	if cerr := diags.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("batch: %w", err)
	}

	for _, f := range res.Files {
		if f.OK() {
			fmt.Printf("Converted %s -> %s\n", f.Input, f.Output)
		} else {
			fmt.Printf("Failed to convert %s: %s\n", f.Input, f.Error)
		}
	}
	fmt.Printf("converted=%d, failed=%d\n", res.Converted, res.Failed)

	var digest string
	if outs.manifest != "" {
		if digest, err = writeManifest(res.Outputs(), outs.manifest); err != nil {
			return err
		}
	}
	if outs.report != "" {
		if err := report.SaveBatchJSON(res, outs.report); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		fmt.Println("Wrote", outs.report)
	}
	if outs.pdf != "" {
		if err := report.SaveBatchPDF(res, outs.pdf, report.PDFOptions{ManifestDigest: digest}); err != nil {
			return fmt.Errorf("write pdf: %w", err)
		}
		fmt.Println("Wrote PDF:", outs.pdf)
	}
	if metrics != nil && outs.metrics {
		snap := metrics.Snapshot()
		fmt.Printf("Metrics: duration=%s files=%d failed=%d rows=%d degraded=%d processed=%s throughput=%.0f rows/s\n",
			snap.Duration.Round(10*time.Millisecond),
			snap.Files,
			snap.Failed,
			snap.Rows,
			snap.Degraded,
			common.FormatBytes(snap.Bytes),
			snap.RowsPerSecond(),
		)
	}
	return nil
}

func openDiagnostics(path string) (*common.DiagnosticLog, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	l, err := common.OpenDiagnosticLog(path)
	if err != nil {
		return nil, fmt.Errorf("open diagnostics: %w", err)
	}
	return l, nil
}

func writeManifest(paths []string, out string) (string, error) {
	m, err := manifest.Build(paths)
	if err != nil {
		return "", fmt.Errorf("manifest build: %w", err)
	}
	if err := manifest.Save(m, out); err != nil {
		return "", fmt.Errorf("manifest save: %w", err)
	}
	digest, err := manifest.Digest(m)
	if err != nil {
		return "", fmt.Errorf("manifest digest: %w", err)
	}
	fmt.Println("Wrote", out)
	return digest, nil
}

func reportCmd(args []string) {
	fs := flag.NewFlagSet("report", flag.ExitOnError)
	reportPath := fs.String("report", "", "batch report JSON")
	pdfPath := fs.String("pdf", "", "output report PDF")
	manifestPath := fs.String("manifest", "", "manifest JSON to embed as QR code")
	fs.Parse(args)

	if *reportPath == "" || *pdfPath == "" {
		fmt.Println("required: --report, --pdf")
		os.Exit(1)
	}
	rep, err := report.LoadBatchJSON(*reportPath)
	if err != nil {
		fmt.Println("load report:", err)
		os.Exit(1)
	}
	var opts report.PDFOptions
	if *manifestPath != "" {
		m, err := manifest.Load(*manifestPath)
		if err != nil {
			fmt.Println("load manifest:", err)
			os.Exit(1)
		}
		opts.ManifestDigest, err = manifest.Digest(m)
		if err != nil {
			fmt.Println("manifest digest:", err)
			os.Exit(1)
		}
	}
	if err := report.SaveBatchPDF(rep, *pdfPath, opts); err != nil {
		fmt.Println("write pdf:", err)
		os.Exit(1)
	}
	fmt.Println("Wrote PDF:", *pdfPath)
}

func manifestCmd(args []string) {
	fs := flag.NewFlagSet("manifest", flag.ExitOnError)
	inputs := fs.String("inputs", "", "comma-separated paths")
	out := fs.String("out", "manifest.json", "output json")
	fs.Parse(args)

	if *inputs == "" {
		fmt.Println("required: --inputs")
		os.Exit(1)
	}

	var paths []string
	for _, p := range strings.Split(*inputs, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		paths = append(paths, p)
	}
	if len(paths) == 0 {
		fmt.Println("no input paths specified")
		os.Exit(1)
	}
	digest, err := writeManifest(paths, *out)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	fmt.Println("SHA256:", digest)
}
