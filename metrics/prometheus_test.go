package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveBatch(t *testing.T) {
	m := NewMetrics()
	m.ObserveBatch(16, 20*time.Millisecond)
	m.ObserveBatch(3, 5*time.Millisecond)

	if got := testutil.ToFloat64(m.CropsScored); got != 19 {
		t.Fatalf("crops = %v, want 19", got)
	}
	if got := testutil.ToFloat64(m.BatchesScored); got != 2 {
		t.Fatalf("batches = %v, want 2", got)
	}
}

func TestFoldMetrics(t *testing.T) {
	m := NewMetrics()
	m.ObserveClip(0)
	m.ObserveClip(0)
	m.ObserveClip(1)
	m.ObserveFold(1, 0.85, 2*time.Second)

	if got := testutil.ToFloat64(m.ClipsPredicted.WithLabelValues("0")); got != 2 {
		t.Fatalf("fold 0 clips = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.CheckpointScore.WithLabelValues("1")); got != 0.85 {
		t.Fatalf("fold 1 score = %v, want 0.85", got)
	}
	if got := testutil.ToFloat64(m.FoldDuration.WithLabelValues("1")); got != 2 {
		t.Fatalf("fold 1 duration = %v, want 2", got)
	}
}

func TestWriteTextfile(t *testing.T) {
	m := NewMetrics()
	m.ObserveBatch(4, time.Millisecond)
	m.Finish(true, time.Unix(1700000000, 0))

	path := filepath.Join(t.TempDir(), "fold_predict.prom")
	if err := m.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile returned error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	text := string(data)
	for _, want := range []string{
		"fold_predict_crops_total 4",
		"fold_predict_last_run_success 1",
		"fold_predict_last_run_timestamp_seconds 1.7e+09",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("textfile missing %q:\n%s", want, text)
		}
	}
	families, err := m.Gatherer().Gather()
	if err != nil {
		t.Fatalf("Gather returned error: %v", err)
	}
	if len(families) != 5 {
		t.Fatalf("gathered %d families, want 5 (fold vectors stay empty until a fold is observed)", len(families))
	}
	for _, mf := range families {
		if !strings.Contains(text, "# TYPE "+mf.GetName()+" ") {
			t.Errorf("gathered family %s not exported to the textfile", mf.GetName())
		}
	}
}
