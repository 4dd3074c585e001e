package controllers

import (
	"context"

	"github.com/fluxbyte/paddlesync/internal/pkg/paddle"
	"github.com/fluxbyte/paddlesync/internal/pkg/weblog"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// WebhookController handles inbound Paddle webhook requests. Dependencies
// are injected so tests can run against fakes and so no handler reaches for
// global state.
type WebhookController struct {
	svc      *paddle.Service
	verifier *paddle.Verifier
	log      weblog.Logger
	ring     *weblog.RingLogger
}

// NewWebhookController wires the webhook handler. ring may be nil when no
// diagnostic buffer is exposed.
func NewWebhookController(svc *paddle.Service, verifier *paddle.Verifier, log weblog.Logger, ring *weblog.RingLogger) *WebhookController {
	return &WebhookController{svc: svc, verifier: verifier, log: log, ring: ring}
}

// HandleWebhook processes POST /webhook: verify signature, parse and
// validate the payload, record it for auditing, then route it to the sync
// service. Store failures surface in the response message; they never retry
// and never roll back earlier writes of the same request.
func (wc *WebhookController) HandleWebhook(c *fiber.Ctx) error {
	requestID := uuid.NewString()
	rawBody := append([]byte(nil), c.BodyRaw()...)

	verify := wc.verifier.Verify(rawBody, c.Get("Paddle-Signature"))
	if !verify.Valid {
		if verify.Reason == paddle.ReasonMissingSigningSecret {
			wc.log.Errorf("request %s: webhook signing secret not configured", requestID)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error":     "webhook signing secret not configured",
				"requestId": requestID,
			})
		}
		wc.log.Warnf("request %s: signature rejected (%s)", requestID, verify.Reason)
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":  "invalid signature",
			"reason": string(verify.Reason),
		})
	}

	ev, err := paddle.ParseEvent(rawBody)
	if err != nil {
		wc.log.Warnf("request %s: malformed JSON body: %v", requestID, err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":     "malformed JSON body",
			"requestId": requestID,
		})
	}

	if violations := paddle.ValidateEvent(ev); len(violations) > 0 {
		wc.log.Warnf("request %s: invalid payload: %v", requestID, violations)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":     "invalid payload",
			"details":   violations,
			"requestId": requestID,
		})
	}

	ctx := context.Background()

	// Audit recording is best-effort: the log table is a diagnostic
	// collaborator, losing a row must not drop the event.
	audit, auditErr := wc.svc.RecordEvent(ctx, ev, rawBody, verify.Reason == paddle.ReasonValid)
	if auditErr != nil {
		wc.log.Errorf("request %s: audit record failed: %v", requestID, auditErr)
	}

	outcome, procErr := wc.svc.ProcessEvent(ctx, ev)
	if audit != nil {
		if err := wc.svc.MarkEventProcessed(ctx, audit.ID, procErr); err != nil {
			wc.log.Errorf("request %s: audit update failed: %v", requestID, err)
		}
	}

	if procErr != nil {
		wc.log.Errorf("request %s: event %s failed: %v", requestID, ev.EventID, procErr)
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"received":  false,
			"message":   procErr.Error(),
			"requestId": requestID,
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"received":  outcome.Processed,
		"message":   outcome.Message,
		"requestId": requestID,
	})
}

// HandlePreflight answers CORS preflight for the webhook endpoint.
func (wc *WebhookController) HandlePreflight(c *fiber.Ctx) error {
	return c.SendStatus(fiber.StatusOK)
}

// HandleDebugLogs exposes the retained log ring. Wired on dev builds only.
func (wc *WebhookController) HandleDebugLogs(c *fiber.Ctx) error {
	if wc.ring == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "no log buffer configured"})
	}
	return c.JSON(fiber.Map{"entries": wc.ring.Recent()})
}
