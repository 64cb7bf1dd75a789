// Package checkpoint picks the best trained model of a fold.
//
// Training writes one file per improvement, named with the validation score
// it reached, e.g. "model-044-0.850.pth". The selector parses that trailing
// number and returns the highest-scoring file. Files whose names carry no
// score are not candidates.
package checkpoint

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/maastricht-university/fold-predict/errkind"
)

// Checkpoint is a model file and the score embedded in its name.
type Checkpoint struct {
	Path  string
	Score float64
}

var scoreRe = regexp.MustCompile(`-(\d+(?:\.\d+)?)$`)

// ParseScore extracts the number between the last '-' and the extension of
// name. ok is false when the name has no such number.
func ParseScore(name string) (score float64, ok bool) {
	base := filepath.Base(name)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	m := scoreRe.FindStringSubmatch(stem)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Scan lists the scorable checkpoints with extension ext in dir, in
// directory listing order.
func Scan(dir, ext string) ([]Checkpoint, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, errkind.NotFound("checkpoint directory %s", dir)
		}
		return nil, errkind.IO(err, "list %s", dir)
	}
	var out []Checkpoint
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ext {
			continue
		}
		score, ok := ParseScore(e.Name())
		if !ok {
			continue
		}
		out = append(out, Checkpoint{Path: filepath.Join(dir, e.Name()), Score: score})
	}
	return out, nil
}

// Best returns the checkpoint with the highest score in dir. Ties go to the
// file listed last. It fails with errkind.ErrNotFound when dir holds no
// scorable checkpoint; there is no fallback model.
func Best(dir, ext string) (Checkpoint, error) {
	candidates, err := Scan(dir, ext)
	if err != nil {
		return Checkpoint{}, err
	}
	return pick(dir, candidates)
}

func pick(dir string, candidates []Checkpoint) (Checkpoint, error) {
	if len(candidates) == 0 {
		return Checkpoint{}, errkind.NotFound("no scored checkpoint in %s", dir)
	}
	sorted := append([]Checkpoint(nil), candidates...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Score < sorted[j].Score })
	return sorted[len(sorted)-1], nil
}
