package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/briefspark/briefspark/configs"
	"github.com/briefspark/briefspark/internal/fetch"
	"github.com/briefspark/briefspark/internal/log"
	"github.com/samber/do"
)

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generateContentRequest struct {
	Contents []content `json:"contents"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// TextClient calls the generateContent endpoint over the retrying fetch
// client.
type TextClient struct {
	Fetcher *fetch.Client
	BaseURL string
	Model   string
	Key     string
}

func NewTextClient(i *do.Injector) (*TextClient, error) {
	cfg := do.MustInvoke[*configs.StudioConfig](i)
	return &TextClient{
		Fetcher: do.MustInvoke[*fetch.Client](i),
		BaseURL: cfg.GeminiBaseURL,
		Model:   cfg.TextModel,
		Key:     cfg.GeminiAPIKey,
	}, nil
}

func (c *TextClient) Generate(ctx context.Context, prompt string) (string, error) {
	logger := log.FromContextOrDiscard(ctx).WithGroup("gemini").With("model", c.Model)
	logger.Info("generating concept text")

	body, err := json.Marshal(generateContentRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return "", err
	}

	var out generateContentResponse
	if err := c.Fetcher.DoJSON(ctx, fetch.Request{
		Method: http.MethodPost,
		URL:    endpoint(c.BaseURL, c.Model, "generateContent", c.Key),
		Body:   body,
	}, &out); err != nil {
		return "", err
	}

	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("text response is missing generated content")
	}
	return out.Candidates[0].Content.Parts[0].Text, nil
}

func endpoint(base, model, action, key string) string {
	if base == "" {
		base = DefaultBaseURL
	}
	u := fmt.Sprintf("%s/models/%s:%s", base, model, action)
	if key != "" {
		u += "?key=" + url.QueryEscape(key)
	}
	return u
}
