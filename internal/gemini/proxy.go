package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/briefspark/briefspark/configs"
	"github.com/briefspark/briefspark/internal/fetch"
	"github.com/briefspark/briefspark/internal/log"
	"github.com/samber/do"
)

// ProxyGenerator asks the image proxy instead of the provider, so this
// process never holds the image credential.
type ProxyGenerator struct {
	Fetcher *fetch.Client
	URL     string
}

func NewProxyGenerator(i *do.Injector) (Generator, error) {
	cfg := do.MustInvoke[*configs.StudioConfig](i)
	return &ProxyGenerator{
		Fetcher: do.MustInvoke[*fetch.Client](i),
		URL:     cfg.ProxyURL,
	}, nil
}

func (g *ProxyGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	logger := log.FromContextOrDiscard(ctx).WithGroup("imagen").With("proxy", g.URL)
	logger.Info("generating image via proxy")

	body, err := json.Marshal(struct {
		Prompt string `json:"prompt"`
	}{prompt})
	if err != nil {
		return "", err
	}

	var out PredictResponse
	if err := g.Fetcher.DoJSON(ctx, fetch.Request{
		Method: http.MethodPost,
		URL:    strings.TrimSuffix(g.URL, "/") + "/generate-image",
		Body:   body,
	}, &out); err != nil {
		return "", err
	}
	return DataURI(&out)
}
