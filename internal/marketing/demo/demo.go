// Copyright (c) 2026 Flow Immersive. All rights reserved.
// Author: Flow Immersive Engineering

/*
Package demo accepts demo requests from the public marketing site.

A submission is validated, composed into a plain-text email body and handed
to a [Notifier]. The response bodies are fixed strings the site's form
script matches on, so they do not use the standard API envelope.
*/
package demo

import (
	"fmt"
	"strings"
	"time"
)

// OtherUseCase is the use case option that enables the free-text field.
const OtherUseCase = "Other (please specify)"

// NoDetails replaces an empty details field in the composed email.
const NoDetails = "No additional details provided."

// Request is the body posted by the demo form.
type Request struct {
	Email        string `json:"email"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	Company      string `json:"company"`
	UseCase      string `json:"useCase"`
	OtherUseCase string `json:"otherUseCase,omitempty"`
	Details      string `json:"details,omitempty"`
}

// Complete reports whether every required field is present. A value of only
// whitespace counts as present; the form script trims before posting.
func (request Request) Complete() bool {
	for _, value := range []string{request.Email, request.FirstName, request.LastName, request.Company, request.UseCase} {
		if value == "" {
			return false
		}
	}
	return true
}

// Submission is a validated request ready for delivery.
type Submission struct {
	Request
	Subject     string
	Body        string
	Recipient   string
	SubmittedAt time.Time
}

// Subject builds the email subject line.
func Subject(request Request) string {
	return fmt.Sprintf("Demo Request from %s %s - %s", request.FirstName, request.LastName, request.Company)
}

/*
ComposeBody renders the plain-text email sent to the sales inbox.

Description: The "Other Use Case" line appears only when the visitor chose
[OtherUseCase] and filled in the free-text field.
*/
func ComposeBody(request Request) string {
	var body strings.Builder

	body.WriteString("New Demo Request from Flow Immersive Website\n\n")
	body.WriteString("Contact Information:\n")
	fmt.Fprintf(&body, "- Name: %s %s\n", request.FirstName, request.LastName)
	fmt.Fprintf(&body, "- Email: %s\n", request.Email)
	fmt.Fprintf(&body, "- Company: %s\n\n", request.Company)

	fmt.Fprintf(&body, "Use Case: %s\n", request.UseCase)
	if request.UseCase == OtherUseCase && request.OtherUseCase != "" {
		fmt.Fprintf(&body, "Other Use Case: %s\n", request.OtherUseCase)
	}

	details := request.Details
	if details == "" {
		details = NoDetails
	}
	fmt.Fprintf(&body, "\nAdditional Details:\n%s\n\n", details)
	body.WriteString("---\nSent from Flow Immersive Demo Request Form")

	return body.String()
}
