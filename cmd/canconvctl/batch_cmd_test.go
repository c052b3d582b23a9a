package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"example.com/canconv/internal/common"
	"example.com/canconv/internal/config"
	"example.com/canconv/internal/convert"
	"example.com/canconv/internal/manifest"
	"example.com/canconv/internal/report"
)

func TestBatchCmdGeneratesOutputs(t *testing.T) {
	root := t.TempDir()
	inputDir := filepath.Join(root, "inputs")
	if err := os.MkdirAll(inputDir, 0o755); err != nil {
		t.Fatalf("MkdirAll inputs: %v", err)
	}
	outDir := filepath.Join(root, "out")

	good := "Start Time,ID,DLC,Data,FDF,BRS,ESI\n" +
		"0.001,123,3,DE AD BE EF,0,0,0\n" +
		"0.002,0x1ABC,,01 02,1,1,0\n" +
		"bad,18FEF100,8,00 11 22 33 44 55 66 77,1,0,1\n"
	if err := os.WriteFile(filepath.Join(inputDir, "alpha.csv"), []byte(good), 0o644); err != nil {
		t.Fatalf("WriteFile alpha: %v", err)
	}
	if err := os.WriteFile(filepath.Join(inputDir, "beta.csv"), []byte("Timestamp,Signal\n1,rpm\n"), 0o644); err != nil {
		t.Fatalf("WriteFile beta: %v", err)
	}

	reportPath := filepath.Join(root, "report.json")
	pdfPath := filepath.Join(root, "report.pdf")
	manifestPath := filepath.Join(root, "manifest.json")
	diagPath := filepath.Join(root, "diagnostics.jsonl")

	batchCmd([]string{
		"--in", inputDir,
		"--out-dir", outDir,
		"--format", "asc",
		"--report", reportPath,
		"--pdf", pdfPath,
		"--manifest", manifestPath,
		"--diagnostics", diagPath,
		"--metrics",
	})

	data, err := os.ReadFile(filepath.Join(outDir, "alpha_savvycan.asc"))
	if err != nil {
		t.Fatalf("ReadFile output: %v", err)
	}
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	if len(lines) != 7 {
		t.Fatalf("expected 4 preamble lines and 3 frames, got %d:\n%s", len(lines), data)
	}
	if lines[4] != "0.0010000 1 7B Rx d 3 DE AD BE" {
		t.Fatalf("unexpected first frame %q", lines[4])
	}
	if lines[5] != "0.0020000 1 1ABCx Rx d 2 01 02 [FD BRS]" {
		t.Fatalf("unexpected second frame %q", lines[5])
	}
	if lines[6] != "0.0000000 1 18FEF100x Rx d 8 00 11 22 33 44 55 66 77 [FD ESI]" {
		t.Fatalf("unexpected third frame %q", lines[6])
	}
	if _, err := os.Stat(filepath.Join(outDir, "beta_savvycan.asc")); !os.IsNotExist(err) {
		t.Fatalf("beta should not produce output: %v", err)
	}

	rep, err := report.LoadBatchJSON(reportPath)
	if err != nil {
		t.Fatalf("LoadBatchJSON: %v", err)
	}
	if rep.Converted != 1 || rep.Failed != 1 {
		t.Fatalf("unexpected report summary %+v", rep)
	}

	m, err := manifest.Load(manifestPath)
	if err != nil {
		t.Fatalf("manifest.Load: %v", err)
	}
	if len(m.Items) != 1 || m.Items[0].Type != "asc" {
		t.Fatalf("unexpected manifest %+v", m)
	}

	pdf, err := os.ReadFile(pdfPath)
	if err != nil || !bytes.HasPrefix(pdf, []byte("%PDF-")) {
		t.Fatalf("missing PDF report: %v", err)
	}

	diags, err := common.ReadDiagnostics(diagPath)
	if err != nil {
		t.Fatalf("ReadDiagnostics: %v", err)
	}
	if len(diags) != 1 || diags[0].Row != 4 {
		t.Fatalf("unexpected diagnostics %+v", diags)
	}
}

func TestBatchCmdSavvyWithConfig(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "gamma.csv"), []byte("Time Stamp,ID,Len,Data0,Data1\n2.5,7FF,2,0A,FF\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	cfgPath := filepath.Join(root, "canconv.yaml")
	cfg := "inputDir: .\noutputDir: converted\nformat: savvy\ndataBase: 16\naliases:\n  timestamp: [\"Time Stamp\"]\n"
	if err := os.WriteFile(cfgPath, []byte(cfg), 0o644); err != nil {
		t.Fatalf("WriteFile config: %v", err)
	}

	batchCmd([]string{"--config", cfgPath})

	data, err := os.ReadFile(filepath.Join(root, "converted", "gamma_savvycan.csv"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	rows := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(rows) != 2 || !strings.HasPrefix(rows[0], "Timestamp,ID,Len,Data0,") {
		t.Fatalf("unexpected output:\n%s", data)
	}
	if !strings.HasPrefix(rows[1], "2.5,2047,2,10,255,,") {
		t.Fatalf("unexpected row %q", rows[1])
	}
}

func TestRunBatchReturnsOutputError(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "good.csv"), []byte("Timestamp,ID\n1,1\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	blocker := filepath.Join(root, "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile blocker: %v", err)
	}
	cfg := config.Default()
	cfg.InputDir = root
	cfg.OutputDir = filepath.Join(blocker, "out")

	err := runBatch(cfg, batchOutputs{report: filepath.Join(root, "report.json")})
	var outErr *convert.OutputError
	if !errors.As(err, &outErr) {
		t.Fatalf("expected OutputError, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "report.json")); !os.IsNotExist(err) {
		t.Fatalf("report must not be written after a fatal batch error: %v", err)
	}
}

func TestConvertOneReturnsError(t *testing.T) {
	root := t.TempDir()
	in := filepath.Join(root, "noid.csv")
	if err := os.WriteFile(in, []byte("Timestamp,Data\n1,00\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	err := convertOne(config.Default(), in, "", "")
	if err == nil || !strings.Contains(err.Error(), "noid.csv") {
		t.Fatalf("expected error naming the input, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "noid_savvycan.asc")); !os.IsNotExist(err) {
		t.Fatalf("no output expected: %v", err)
	}
}
