package proxy

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/briefspark/briefspark/internal/log"
	"github.com/samber/do"
)

// LambdaHandler fronts the service behind a Lambda function URL, for
// deployments where the proxy should not run as a long-lived server.
type LambdaHandler struct {
	service *Service
}

func NewLambdaHandler(i *do.Injector) (*LambdaHandler, error) {
	return &LambdaHandler{service: do.MustInvoke[*Service](i)}, nil
}

func (h *LambdaHandler) Handle(ctx context.Context, req events.LambdaFunctionURLRequest) (events.LambdaFunctionURLResponse, error) {
	logger := log.FromContextOrDiscard(ctx).WithGroup("proxy")

	if req.RequestContext.HTTP.Method != http.MethodPost {
		return errorResponse(http.StatusMethodNotAllowed, "method not allowed"), nil
	}

	body := []byte(req.Body)
	if req.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(req.Body)
		if err != nil {
			return errorResponse(http.StatusBadRequest, MissingPromptMessage), nil
		}
		body = decoded
	}

	var in struct {
		Prompt string `json:"prompt"`
	}
	_ = json.Unmarshal(body, &in)

	payload, err := h.service.GenerateImage(ctx, in.Prompt)
	if err != nil {
		status, message := statusFor(err)
		logger.Error("image generation failed", "status", status, "err", err)
		return errorResponse(status, message), nil
	}

	return events.LambdaFunctionURLResponse{
		StatusCode: http.StatusOK,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(payload),
	}, nil
}

func errorResponse(status int, message string) events.LambdaFunctionURLResponse {
	body, _ := json.Marshal(errorBody{Error: message})
	return events.LambdaFunctionURLResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(body),
	}
}
