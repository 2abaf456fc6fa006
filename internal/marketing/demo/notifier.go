// Copyright (c) 2026 Flow Immersive. All rights reserved.
// Author: Flow Immersive Engineering

package demo

import (
	"context"
	"log/slog"
	"time"
)

// Notifier delivers a demo request to the sales team.
type Notifier interface {
	Notify(ctx context.Context, submission Submission) error
}

// LogNotifier records submissions in the structured log instead of sending
// mail. It is the only notifier shipped today.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier constructs a [LogNotifier].
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs the full submission including the composed email.
func (notifier *LogNotifier) Notify(ctx context.Context, submission Submission) error {
	notifier.logger.InfoContext(ctx, "demo_request_received",
		slog.String("email", submission.Email),
		slog.String("first_name", submission.FirstName),
		slog.String("last_name", submission.LastName),
		slog.String("company", submission.Company),
		slog.String("use_case", submission.UseCase),
		slog.String("other_use_case", submission.OtherUseCase),
		slog.String("details", submission.Details),
		slog.String("subject", submission.Subject),
		slog.String("email_content", submission.Body),
		slog.String("recipient", submission.Recipient),
		slog.String("timestamp", submission.SubmittedAt.Format(time.RFC3339)),
	)
	return nil
}
