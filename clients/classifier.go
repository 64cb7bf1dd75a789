package clients

import (
	"context"
	"fmt"

	"github.com/maastricht-university/fold-predict/predictor"
)

// --- Model server (/load, /predict, /unload) ---
type LoadReq struct {
	Checkpoint string `json:"checkpoint" msgpack:"checkpoint"`
	Device     string `json:"device" msgpack:"device"`
}
type LoadResp struct {
	ModelID    string `json:"model_id" msgpack:"model_id"`
	NumClasses int    `json:"num_classes" msgpack:"num_classes"`
}
type PredictReq struct {
	ModelID string    `json:"model_id" msgpack:"model_id"`
	Shape   []int     `json:"shape" msgpack:"shape"` // [crops, bins, width]
	Data    []float32 `json:"data" msgpack:"data"`
}
type PredictResp struct {
	Probabilities [][]float64 `json:"probabilities" msgpack:"probabilities"`
}
type UnloadReq struct {
	ModelID string `json:"model_id" msgpack:"model_id"`
}

func (h *HTTP) Load(ctx context.Context, url, encoding string, r LoadReq) (*LoadResp, error) {
	var out LoadResp
	if err := h.post(ctx, url, "/load", encoding, r, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (h *HTTP) Predict(ctx context.Context, url, encoding string, r PredictReq) (*PredictResp, error) {
	var out PredictResp
	if err := h.post(ctx, url, "/predict", encoding, r, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (h *HTTP) Unload(ctx context.Context, url, encoding, modelID string) error {
	return h.post(ctx, url, "/unload", encoding, UnloadReq{ModelID: modelID}, nil)
}

// Model is a checkpoint loaded on the model server. It implements
// predictor.Classifier; the server runs it in evaluation mode without
// gradient tracking.
type Model struct {
	h        *HTTP
	url      string
	encoding string
	id       string
}

// Open loads checkpoint on device and checks that the model's output
// width matches numClasses.
func (h *HTTP) Open(ctx context.Context, url, encoding, checkpoint, device string, numClasses int) (*Model, error) {
	resp, err := h.Load(ctx, url, encoding, LoadReq{Checkpoint: checkpoint, Device: device})
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", checkpoint, err)
	}
	m := &Model{h: h, url: url, encoding: encoding, id: resp.ModelID}
	if resp.NumClasses != numClasses {
		_ = m.Close(ctx)
		return nil, fmt.Errorf("load %s: model has %d classes, vocabulary has %d", checkpoint, resp.NumClasses, numClasses)
	}
	return m, nil
}

func (m *Model) ID() string { return m.id }

func (m *Model) Predict(ctx context.Context, b predictor.Batch) ([][]float64, error) {
	resp, err := m.h.Predict(ctx, m.url, m.encoding, PredictReq{
		ModelID: m.id,
		Shape:   []int{b.Size, b.Bins, b.Width},
		Data:    b.Data,
	})
	if err != nil {
		return nil, err
	}
	return resp.Probabilities, nil
}

// Close releases the model on the server.
func (m *Model) Close(ctx context.Context) error {
	return m.h.Unload(ctx, m.url, m.encoding, m.id)
}
