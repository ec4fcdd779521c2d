package proxy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/briefspark/briefspark/configs"
	"github.com/briefspark/briefspark/internal/fetch"
	"github.com/briefspark/briefspark/internal/gemini"
	"github.com/briefspark/briefspark/internal/log"
	"github.com/briefspark/briefspark/internal/param"
	"github.com/samber/do"
)

// MissingPromptMessage is the exact wire message for a request without a
// prompt.
const MissingPromptMessage = "Prompt is required."

var ErrMissingPrompt = errors.New("missing prompt")

// Service forwards one prompt to the image provider using a server-side
// credential and relays the raw prediction payload. The credential is
// fetched fresh on every call; nothing is shared between requests.
type Service struct {
	Fetcher     *fetch.Client
	Creds       param.Fetcher
	CredName    string
	UpstreamURL string
}

func NewService(i *do.Injector) (*Service, error) {
	cfg := do.MustInvoke[*configs.ProxyConfig](i)

	name := cfg.CredentialParam
	if name == "" {
		name = cfg.CredentialEnv
	}
	base := cfg.GeminiBaseURL
	if base == "" {
		base = gemini.DefaultBaseURL
	}
	return &Service{
		Fetcher:     do.MustInvoke[*fetch.Client](i),
		Creds:       do.MustInvoke[param.Fetcher](i),
		CredName:    name,
		UpstreamURL: fmt.Sprintf("%s/models/%s:predict", base, cfg.ImageModel),
	}, nil
}

// GenerateImage validates the prompt, acquires the upstream credential, and
// forwards the predict request. The returned payload is the provider's
// response verbatim.
func (s *Service) GenerateImage(ctx context.Context, prompt string) (json.RawMessage, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, ErrMissingPrompt
	}

	logger := log.FromContextOrDiscard(ctx).WithGroup("proxy")

	credential, err := s.Creds.Fetch(ctx, s.CredName)
	if err != nil {
		return nil, fmt.Errorf("acquiring upstream credential: %w", err)
	}

	body, err := gemini.PredictBody(prompt)
	if err != nil {
		return nil, err
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+credential)

	var payload json.RawMessage
	if err := s.Fetcher.DoJSON(ctx, fetch.Request{
		Method: http.MethodPost,
		URL:    s.UpstreamURL,
		Header: header,
		Body:   body,
	}, &payload); err != nil {
		return nil, err
	}

	logger.Info("relayed prediction payload", "bytes", len(payload))
	return payload, nil
}

// statusFor maps a service error onto the proxy's HTTP surface: 400 for a
// missing prompt, 500 with the upstream's message for everything else.
func statusFor(err error) (int, string) {
	if errors.Is(err, ErrMissingPrompt) {
		return http.StatusBadRequest, MissingPromptMessage
	}
	return http.StatusInternalServerError, err.Error()
}
