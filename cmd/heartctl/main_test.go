package main

import (
	"bytes"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"heart-predictor/internal/features"
	"heart-predictor/internal/ml"
	"heart-predictor/internal/storage"
	"heart-predictor/internal/web"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	testDataset = "../../data/heart.csv"
	testModel   = "../../models/heart_model.json"
)

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRanges(t *testing.T) {
	code, out, errOut := runCLI(t, "ranges", "--dataset", testDataset)
	if code != 0 {
		t.Fatalf("exit code = %d, stderr: %s", code, errOut)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 14 {
		t.Fatalf("got %d lines, want header + 13 features:\n%s", len(lines), out)
	}
	if !strings.HasPrefix(lines[0], "FEATURE") {
		t.Errorf("header = %q", lines[0])
	}
	if fields := strings.Fields(lines[1]); fields[0] != "age" || fields[3] != "1" {
		t.Errorf("age row = %q, want whole-number step", lines[1])
	}
	if strings.Contains(out, "target") {
		t.Error("label column must not be listed")
	}
}

func TestRanges_MissingDataset(t *testing.T) {
	code, _, errOut := runCLI(t, "ranges", "--dataset", filepath.Join(t.TempDir(), "nope.csv"))
	if code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
	if !strings.Contains(errOut, "heartctl:") {
		t.Errorf("stderr = %q, want heartctl prefix", errOut)
	}
}

func TestDefaults_Deterministic(t *testing.T) {
	_, first, _ := runCLI(t, "defaults", "--dataset", testDataset, "--seed", "7")
	code, second, errOut := runCLI(t, "defaults", "--dataset", testDataset, "--seed", "7")
	if code != 0 {
		t.Fatalf("exit code = %d, stderr: %s", code, errOut)
	}
	if first != second {
		t.Errorf("defaults differ for the same seed:\n%s\n%s", first, second)
	}
	if got := strings.Count(second, "\n"); got != 13 {
		t.Errorf("got %d lines, want 13", got)
	}
	if !strings.HasPrefix(second, "age=") {
		t.Errorf("output = %q, want age first", second)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		sets      []string
		wantLabel string
	}{
		{"typical angina, clear vessels, normal thal", []string{"cp=0", "ca=0", "thal=2"}, "label=1 (disease)"},
		{"typical angina, clear vessels, reversible thal", []string{"cp=0", "ca=0", "thal=3"}, "label=0 (no_disease)"},
		{"non-anginal pain, high oldpeak", []string{"cp=2", "oldpeak=3"}, "label=0 (no_disease)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := []string{"classify", "--model", testModel, "--dataset", testDataset}
			for _, s := range tt.sets {
				args = append(args, "--set", s)
			}
			code, out, errOut := runCLI(t, args...)
			if code != 0 {
				t.Fatalf("exit code = %d, stderr: %s", code, errOut)
			}
			if !strings.Contains(out, tt.wantLabel) {
				t.Errorf("output = %q, want %q", out, tt.wantLabel)
			}
			if !strings.Contains(out, "model=dt-2024.06-1") {
				t.Errorf("output = %q, want model version", out)
			}
		})
	}
}

func TestClassify_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		set     string
		wantErr string
	}{
		{"out of range", "age=200", "age"},
		{"unknown feature", "weight=80", "is not a model feature"},
		{"malformed", "age", "want name=value"},
		{"not a number", "age=old", "is not a number"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, out, errOut := runCLI(t, "classify", "--model", testModel, "--dataset", testDataset, "--set", tt.set)
			if code != 1 {
				t.Fatalf("exit code = %d, want 1 (stdout %q)", code, out)
			}
			if !strings.Contains(errOut, tt.wantErr) {
				t.Errorf("stderr = %q, want %q", errOut, tt.wantErr)
			}
		})
	}
}

func TestClassify_BadModel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")
	if err := os.WriteFile(path, []byte("not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	code, _, errOut := runCLI(t, "classify", "--model", path, "--dataset", testDataset)
	if code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
	if !strings.Contains(errOut, "corrupt or incompatible artifact") {
		t.Errorf("stderr = %q", errOut)
	}
}

func newRemote(t *testing.T) string {
	t.Helper()
	return newRemoteWithStore(t, nil)
}

func newRemoteWithStore(t *testing.T, store web.OutcomeStore) string {
	t.Helper()
	specs, err := features.LoadRanges(testDataset)
	if err != nil {
		t.Fatal(err)
	}
	svc, err := ml.Load(testModel, ml.WithFeatureSpecs(specs))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { svc.Close() })

	opts := web.Options{DefaultSeed: 11, Gatherer: prometheus.NewRegistry()}
	if store != nil {
		opts.Store = store
	}
	srv := web.NewServer(svc, opts)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts.URL
}

func TestPredict_Remote(t *testing.T) {
	url := newRemote(t)

	code, out, errOut := runCLI(t, "predict", "--server", url, "--set", "cp=0", "--set", "ca=0", "--set", "thal=2")
	if code != 0 {
		t.Fatalf("exit code = %d, stderr: %s", code, errOut)
	}
	if !strings.Contains(out, "label=1 model=dt-2024.06-1") {
		t.Errorf("output = %q", out)
	}

	code, _, errOut = runCLI(t, "predict", "--server", url, "--set", "chol=10000")
	if code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
	if !strings.Contains(errOut, "chol") {
		t.Errorf("stderr = %q, want feature name", errOut)
	}
}

func TestInfo_Remote(t *testing.T) {
	url := newRemote(t)

	code, out, errOut := runCLI(t, "info", "--server", url)
	if code != 0 {
		t.Fatalf("exit code = %d, stderr: %s", code, errOut)
	}
	for _, want := range []string{`"version": "dt-2024.06-1"`, `"kind": "decision_tree"`, `"age_seconds"`} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %s:\n%s", want, out)
		}
	}
}

func TestHealth_Remote(t *testing.T) {
	url := newRemote(t)

	code, out, errOut := runCLI(t, "health", "--server", url)
	if code != 0 {
		t.Fatalf("exit code = %d, stderr: %s", code, errOut)
	}
	if !strings.HasPrefix(out, "status=ok model=dt-2024.06-1 features=13 storage=false") {
		t.Errorf("output = %q", out)
	}
}

func TestStats_StorageDisabled(t *testing.T) {
	url := newRemote(t)

	code, _, errOut := runCLI(t, "stats", "--server", url)
	if code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
	if !strings.Contains(errOut, "status 404") {
		t.Errorf("stderr = %q", errOut)
	}
}

func TestStatsAndOutcomes_Remote(t *testing.T) {
	store, err := storage.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	url := newRemoteWithStore(t, store)

	if code, _, errOut := runCLI(t, "predict", "--server", url, "--request-id", "visit-7"); code != 0 {
		t.Fatalf("predict exit code = %d, stderr: %s", code, errOut)
	}

	code, out, errOut := runCLI(t, "stats", "--server", url)
	if code != 0 {
		t.Fatalf("exit code = %d, stderr: %s", code, errOut)
	}
	if !strings.Contains(out, `"total": 1`) {
		t.Errorf("stats output = %q", out)
	}

	code, out, errOut = runCLI(t, "outcomes", "--server", url)
	if code != 0 {
		t.Fatalf("exit code = %d, stderr: %s", code, errOut)
	}
	for _, want := range []string{`"count": 1`, `"request_id": "visit-7"`, `"model_version": "dt-2024.06-1"`} {
		if !strings.Contains(out, want) {
			t.Errorf("outcomes output missing %s:\n%s", want, out)
		}
	}

	code, out, errOut = runCLI(t, "outcomes", "--server", url, "--start", "1970-01-01T00:00:00Z", "--end", "1990-01-01T00:00:00Z")
	if code != 0 {
		t.Fatalf("exit code = %d, stderr: %s", code, errOut)
	}
	if !strings.Contains(out, `"count": 0`) {
		t.Errorf("outcomes before 1990 = %q, want none", out)
	}

	code, _, errOut = runCLI(t, "outcomes", "--server", url, "--start", "last week")
	if code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
	if !strings.Contains(errOut, "invalid --start") {
		t.Errorf("stderr = %q", errOut)
	}
}

func TestUnknownCommand(t *testing.T) {
	code, _, errOut := runCLI(t, "bogus")
	if code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
	if !strings.Contains(errOut, "unknown command") {
		t.Errorf("stderr = %q", errOut)
	}
}

func TestInvalidLogLevel(t *testing.T) {
	code, _, errOut := runCLI(t, "--log-level", "loud", "ranges", "--dataset", testDataset)
	if code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
	if !strings.Contains(errOut, "loud") {
		t.Errorf("stderr = %q", errOut)
	}
}
