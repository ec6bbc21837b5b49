package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"

	"basebot/internal/domain"
	"basebot/internal/integrations/telegram"
)

const (
	headerCorrelationID = "X-Correlation-Id"
	headerSecretToken   = "X-Telegram-Bot-Api-Secret-Token"

	errorUnauthorized = "UNAUTHORIZED"
	errorInvalidInput = "INVALID_INPUT"

	statusHandled = "handled"
	statusIgnored = "ignored"
	statusFailed  = "failed"
)

type MessageHandler interface {
	HandleMessage(ctx context.Context, msg domain.IncomingMessage) error
}

type updateResponse struct {
	Status   string `json:"status"`
	UpdateID int    `json:"updateId,omitempty"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Handler receives Telegram webhook deliveries through API Gateway.
type Handler struct {
	bot    MessageHandler
	secret string
	log    *slog.Logger
}

func NewHandler(bot MessageHandler, secret string) (*Handler, error) {
	if bot == nil {
		return nil, errors.New("handler: message handler must not be nil")
	}
	return &Handler{bot: bot, secret: strings.TrimSpace(secret), log: slog.Default()}, nil
}

// Handle answers 200 for every well-formed update, including ones the bot
// ignores or fails to answer, so Telegram does not redeliver them.
func (h *Handler) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	correlationID := header(req.Headers, headerCorrelationID)
	if correlationID == "" {
		correlationID = uuid.NewString()
	}
	log := h.log.With("correlation_id", correlationID)

	if h.secret != "" && header(req.Headers, headerSecretToken) != h.secret {
		log.Warn("rejected webhook with invalid secret token")
		return jsonResponse(http.StatusUnauthorized, correlationID, errorResponse{
			Error:   errorUnauthorized,
			Message: "invalid secret token",
		}), nil
	}

	body := req.Body
	if req.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(body)
		if err != nil {
			return invalidBody(correlationID), nil
		}
		body = string(decoded)
	}

	var update tgbotapi.Update
	if err := json.Unmarshal([]byte(body), &update); err != nil {
		log.Warn("malformed update body", "err", err)
		return invalidBody(correlationID), nil
	}

	msg, ok := telegram.ToIncoming(update)
	if !ok {
		return jsonResponse(http.StatusOK, correlationID, updateResponse{Status: statusIgnored, UpdateID: update.UpdateID}), nil
	}

	if err := h.bot.HandleMessage(ctx, msg); err != nil {
		log.Error("failed to handle update", "update_id", update.UpdateID, "chat_id", msg.ChatID, "err", err)
		return jsonResponse(http.StatusOK, correlationID, updateResponse{Status: statusFailed, UpdateID: update.UpdateID}), nil
	}
	return jsonResponse(http.StatusOK, correlationID, updateResponse{Status: statusHandled, UpdateID: update.UpdateID}), nil
}

func invalidBody(correlationID string) events.APIGatewayProxyResponse {
	return jsonResponse(http.StatusBadRequest, correlationID, errorResponse{
		Error:   errorInvalidInput,
		Message: "request body is not a Telegram update",
	})
}

func jsonResponse(status int, correlationID string, v any) events.APIGatewayProxyResponse {
	body, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		body = []byte(`{"error":"INTERNAL_ERROR","message":"encode response"}`)
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers: map[string]string{
			"Content-Type":      "application/json",
			headerCorrelationID: correlationID,
		},
		Body: string(body),
	}
}

// header looks up an API Gateway header, whose casing depends on the client.
func header(headers map[string]string, name string) string {
	if v, ok := headers[name]; ok {
		return strings.TrimSpace(v)
	}
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
