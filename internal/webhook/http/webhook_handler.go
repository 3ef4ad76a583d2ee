// Package http provides the HTTP handler for provider webhook callbacks.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/lunastra/payments/internal/errors"
	webhookDomain "github.com/lunastra/payments/internal/webhook/domain"
	"github.com/lunastra/payments/internal/webhook/signature"
	webhookUseCase "github.com/lunastra/payments/internal/webhook/usecase"
)

// SignatureHeader is the request header carrying the provider signature.
const SignatureHeader = "stripe-signature"

// WebhookHandler handles provider webhook callbacks: it verifies the request
// signature over the raw body, parses the event and hands it to the ingestor.
type WebhookHandler struct {
	verifier signature.Verifier
	ingestor webhookUseCase.UseCase
	logger   *slog.Logger
}

// NewWebhookHandler creates a new webhook handler with required dependencies.
func NewWebhookHandler(
	verifier signature.Verifier,
	ingestor webhookUseCase.UseCase,
	logger *slog.Logger,
) *WebhookHandler {
	return &WebhookHandler{
		verifier: verifier,
		ingestor: ingestor,
		logger:   logger,
	}
}

// HandleEvent processes a provider webhook callback.
// POST /v1/webhooks/stripe
//
// The body must stay unparsed until the signature over the raw bytes checks
// out: re-serializing JSON can change the bytes and break verification.
// Signature failures are terminal (400, the provider does not retry 4xx);
// anything that fails after a valid signature returns 500 so the provider
// redelivers the event.
func (h *WebhookHandler) HandleEvent(c *gin.Context) {
	setWebhookCORSHeaders(c)

	rawBody, err := c.GetRawData()
	if err != nil {
		h.logger.Error("failed to read webhook body", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read request body"})
		return
	}

	header := c.GetHeader(SignatureHeader)
	if header == "" {
		h.logger.Warn("webhook request missing signature header")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing stripe-signature header"})
		return
	}

	if err := h.verifier.Verify(rawBody, header); err != nil {
		h.logger.Warn("webhook signature verification failed", slog.Any("error", err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Webhook signature verification failed"})
		return
	}

	// A parse failure after a valid signature is a provider/client mismatch,
	// not attacker input: surface it as retryable.
	event, err := webhookDomain.ParseEvent(rawBody)
	if err != nil {
		h.logger.Error("failed to parse verified webhook payload", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to parse event payload"})
		return
	}

	if err := h.ingestor.Ingest(c.Request.Context(), event); err != nil {
		h.logger.Error("failed to ingest webhook event",
			slog.String("event_id", event.ID),
			slog.String("event_type", string(event.Type)),
			slog.Any("error", err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": apperrors.Wrap(err, "event ingestion failed").Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}

// HandlePreflight answers CORS preflight requests for the webhook endpoint.
// OPTIONS /v1/webhooks/stripe
func (h *WebhookHandler) HandlePreflight(c *gin.Context) {
	setWebhookCORSHeaders(c)
	c.Status(http.StatusNoContent)
}

// setWebhookCORSHeaders applies the permissive CORS headers the endpoint
// always answers with, independent of the storefront CORS configuration.
func setWebhookCORSHeaders(c *gin.Context) {
	c.Header("Access-Control-Allow-Origin", "*")
	c.Header("Access-Control-Allow-Headers",
		"authorization, x-client-info, apikey, content-type, "+SignatureHeader)
}
