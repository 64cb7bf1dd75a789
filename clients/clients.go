package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

type HTTP struct{ c *http.Client }

func NewHTTP() *HTTP { return NewHTTPTimeout(60 * time.Second) }

func NewHTTPTimeout(d time.Duration) *HTTP { return &HTTP{c: &http.Client{Timeout: d}} }

const (
	EncodingJSON    = "json"
	EncodingMsgpack = "msgpack"
)

// post sends in to url+path encoded as JSON or msgpack and decodes the
// response body into out with the same encoding.
func (h *HTTP) post(ctx context.Context, url, path, encoding string, in, out any) error {
	var (
		b           []byte
		err         error
		contentType string
	)
	switch encoding {
	case EncodingMsgpack:
		b, err = msgpack.Marshal(in)
		contentType = "application/msgpack"
	case EncodingJSON, "":
		b, err = json.Marshal(in)
		contentType = "application/json"
	default:
		return fmt.Errorf("%s: unknown encoding %q", path, encoding)
	}
	if err != nil {
		return fmt.Errorf("%s encode: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url+path, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", contentType)

	resp, err := h.c.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s %s: %s", path, resp.Status, string(body))
	}
	if out == nil {
		return nil
	}

	if encoding == EncodingMsgpack {
		err = msgpack.NewDecoder(resp.Body).Decode(out)
	} else {
		err = json.NewDecoder(resp.Body).Decode(out)
	}
	if err != nil {
		return fmt.Errorf("%s decode: %w", path, err)
	}
	return nil
}
