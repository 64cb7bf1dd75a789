package orchestrator

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/maastricht-university/fold-predict/errkind"
)

// ManifestName is the file persist writes into the prediction directory.
const ManifestName = "run.yaml"

func writeYAML(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := yaml.NewEncoder(f)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	return f.Close()
}

func persist(predictionDir string, m *Manifest) error {
	if err := os.MkdirAll(predictionDir, 0o755); err != nil {
		return errkind.IO(err, "create %s", predictionDir)
	}
	path := filepath.Join(predictionDir, ManifestName)
	if err := writeYAML(path, m); err != nil {
		return errkind.IO(err, "write manifest %s", path)
	}
	return nil
}

// ReadManifest loads the manifest of the last successful run in
// predictionDir.
func ReadManifest(predictionDir string) (*Manifest, error) {
	path := filepath.Join(predictionDir, ManifestName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errkind.IO(err, "read manifest %s", path)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, errkind.IO(err, "decode manifest %s", path)
	}
	return &m, nil
}
