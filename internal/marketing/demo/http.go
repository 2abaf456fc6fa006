// Copyright (c) 2026 Flow Immersive. All rights reserved.
// Author: Flow Immersive Engineering

package demo

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/flowimmersive/flowsite/internal/platform/ctxutil"
	"github.com/flowimmersive/flowsite/internal/platform/respond"
)

const (
	MessageMissingFields = "Missing required fields"
	MessageSubmitted     = "Demo request submitted successfully"
	MessageInternal      = "Internal server error"
)

type errorBody struct {
	Error string `json:"error"`
}

type successBody struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Handler serves POST /api/demo-request.
type Handler struct {
	notifier  Notifier
	recipient string
	now       func() time.Time
}

// NewHandler constructs a [Handler] delivering to recipient.
func NewHandler(notifier Notifier, recipient string) *Handler {
	return &Handler{notifier: notifier, recipient: recipient, now: time.Now}
}

// Routes registers the endpoint on router.
func (handler *Handler) Routes(router chi.Router) {
	router.Post("/", handler.submit)
}

func (handler *Handler) submit(writer http.ResponseWriter, request *http.Request) {
	ctx := request.Context()
	logger := ctxutil.GetLogger(ctx)

	// ── 1. Payload Extraction ───────────────────────────────────────────
	var payload Request
	if err := json.NewDecoder(request.Body).Decode(&payload); err != nil {
		logger.ErrorContext(ctx, "demo_request_decode_failed", slog.Any("error", err))
		respond.JSON(writer, http.StatusInternalServerError, errorBody{Error: MessageInternal})
		return
	}

	// ── 2. Validation ───────────────────────────────────────────────────
	if !payload.Complete() {
		respond.JSON(writer, http.StatusBadRequest, errorBody{Error: MessageMissingFields})
		return
	}

	// ── 3. Delivery ─────────────────────────────────────────────────────
	submission := Submission{
		Request:     payload,
		Subject:     Subject(payload),
		Body:        ComposeBody(payload),
		Recipient:   handler.recipient,
		SubmittedAt: handler.now().UTC(),
	}
	if err := handler.notifier.Notify(ctx, submission); err != nil {
		logger.ErrorContext(ctx, "demo_request_notify_failed", slog.Any("error", err))
		respond.JSON(writer, http.StatusInternalServerError, errorBody{Error: MessageInternal})
		return
	}

	respond.JSON(writer, http.StatusOK, successBody{Success: true, Message: MessageSubmitted})
}
