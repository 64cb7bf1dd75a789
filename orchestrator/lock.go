package orchestrator

import (
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/maastricht-university/fold-predict/errkind"
)

const lockName = ".fold-predict.lock"

type runLock struct{ f *flock.Flock }

// acquireLock takes an exclusive lock on the experiment's prediction
// directory so two runs never write the same fold tables.
func acquireLock(predictionDir string) (*runLock, error) {
	if err := os.MkdirAll(predictionDir, 0o755); err != nil {
		return nil, errkind.IO(err, "create %s", predictionDir)
	}
	f := flock.New(filepath.Join(predictionDir, lockName))
	ok, err := f.TryLock()
	if err != nil {
		return nil, errkind.IO(err, "lock %s", predictionDir)
	}
	if !ok {
		return nil, errkind.Configuration("another run is already writing %s", predictionDir)
	}
	return &runLock{f: f}, nil
}

func (l *runLock) release() {
	_ = l.f.Unlock()
}
