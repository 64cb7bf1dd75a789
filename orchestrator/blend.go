package orchestrator

import (
	"github.com/sirupsen/logrus"

	"github.com/maastricht-university/fold-predict/table"
)

// blendTestPredictions loads the persisted table of every configured fold,
// checks each against schema, averages them and writes the result to the
// run's single destination.
func (p *Pipeline) blendTestPredictions(schema *table.Schema) (string, error) {
	tables := make([]*table.Table, 0, len(p.cfg.Folds))
	for _, fold := range p.cfg.Folds {
		t, err := table.ReadFile(p.cfg.FoldTestProbs(fold), schema)
		if err != nil {
			return "", err
		}
		tables = append(tables, t)
	}

	blend, err := table.Blend(tables...)
	if err != nil {
		return "", err
	}

	out := p.cfg.BlendPath()
	if err := blend.WriteFile(out); err != nil {
		return "", err
	}
	p.log.WithFields(logrus.Fields{"folds": len(tables), "output": out}).Info("wrote blended predictions")
	return out, nil
}
