package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/briefspark/briefspark/configs"
	"github.com/briefspark/briefspark/internal/fetch"
	"github.com/briefspark/briefspark/internal/log"
	"github.com/samber/do"
)

type instance struct {
	Prompt string `json:"prompt"`
}

type predictParameters struct {
	SampleCount int `json:"sampleCount"`
}

type predictRequest struct {
	Instances  []instance        `json:"instances"`
	Parameters predictParameters `json:"parameters"`
}

// PredictResponse is the provider's raw prediction payload.
type PredictResponse struct {
	Predictions []Prediction `json:"predictions"`
}

type Prediction struct {
	BytesBase64Encoded string `json:"bytesBase64Encoded"`
}

// PredictBody builds the request body for one image. The proxy forwards the
// same body upstream, so it lives here rather than inside a generator.
func PredictBody(prompt string) ([]byte, error) {
	return json.Marshal(predictRequest{
		Instances:  []instance{{Prompt: prompt}},
		Parameters: predictParameters{SampleCount: 1},
	})
}

// DataURI renders the first prediction as an inline PNG.
func DataURI(resp *PredictResponse) (string, error) {
	if len(resp.Predictions) == 0 || resp.Predictions[0].BytesBase64Encoded == "" {
		return "", errors.New("image response contains no prediction data")
	}
	return "data:image/png;base64," + resp.Predictions[0].BytesBase64Encoded, nil
}

// ImagenGenerator calls the predict endpoint directly with an API key. The
// studio uses it when no proxy is configured.
type ImagenGenerator struct {
	Fetcher *fetch.Client
	BaseURL string
	Model   string
	Key     string
}

func NewImagenGenerator(i *do.Injector) (Generator, error) {
	cfg := do.MustInvoke[*configs.StudioConfig](i)
	return &ImagenGenerator{
		Fetcher: do.MustInvoke[*fetch.Client](i),
		BaseURL: cfg.GeminiBaseURL,
		Model:   cfg.ImageModel,
		Key:     cfg.GeminiAPIKey,
	}, nil
}

func (g *ImagenGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	logger := log.FromContextOrDiscard(ctx).WithGroup("imagen").With("model", g.Model)
	logger.Info("generating image")

	body, err := PredictBody(prompt)
	if err != nil {
		return "", err
	}

	var out PredictResponse
	if err := g.Fetcher.DoJSON(ctx, fetch.Request{
		Method: http.MethodPost,
		URL:    endpoint(g.BaseURL, g.Model, "predict", g.Key),
		Body:   body,
	}, &out); err != nil {
		return "", err
	}
	return DataURI(&out)
}
