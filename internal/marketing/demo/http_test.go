// Copyright (c) 2026 Flow Immersive. All rights reserved.
// Author: Flow Immersive Engineering

package demo_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/flowimmersive/flowsite/internal/marketing/demo"
)

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Notify(ctx context.Context, submission demo.Submission) error {
	args := m.Called(ctx, submission)
	return args.Error(0)
}

func post(t *testing.T, notifier demo.Notifier, body string) *httptest.ResponseRecorder {
	t.Helper()

	router := chi.NewRouter()
	router.Route("/api/demo-request", demo.NewHandler(notifier, "sales@flowimmersive.com").Routes)

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/api/demo-request", strings.NewReader(body)))
	return recorder
}

func TestSubmit_Success(t *testing.T) {
	notifier := &mockNotifier{}
	notifier.On("Notify", mock.Anything, mock.MatchedBy(func(submission demo.Submission) bool {
		return submission.Email == "jane@co.com" &&
			submission.Recipient == "sales@flowimmersive.com" &&
			submission.Subject == "Demo Request from Jane Doe - Co" &&
			!submission.SubmittedAt.IsZero()
	})).Return(nil).Once()

	recorder := post(t, notifier, `{"email":"jane@co.com","firstName":"Jane","lastName":"Doe","company":"Co","useCase":"Training"}`)

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.JSONEq(t, `{"success":true,"message":"Demo request submitted successfully"}`, recorder.Body.String())
	notifier.AssertExpectations(t)
}

func TestSubmit_MissingFields(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing_company", `{"email":"jane@co.com","firstName":"Jane","lastName":"Doe","useCase":"Training"}`},
		{"empty_email", `{"email":"","firstName":"Jane","lastName":"Doe","company":"Co","useCase":"Training"}`},
		{"empty_object", `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			notifier := &mockNotifier{}

			recorder := post(t, notifier, tt.body)

			assert.Equal(t, http.StatusBadRequest, recorder.Code)
			assert.JSONEq(t, `{"error":"Missing required fields"}`, recorder.Body.String())
			notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything)
		})
	}
}

func TestSubmit_WhitespaceCountsAsPresent(t *testing.T) {
	notifier := &mockNotifier{}
	notifier.On("Notify", mock.Anything, mock.MatchedBy(func(submission demo.Submission) bool {
		return submission.Company == " "
	})).Return(nil)

	recorder := post(t, notifier, `{"email":"jane@co.com","firstName":"Jane","lastName":"Doe","company":" ","useCase":"Training"}`)

	assert.Equal(t, http.StatusOK, recorder.Code)
	notifier.AssertExpectations(t)
}

func TestSubmit_Failures(t *testing.T) {
	// 1. Undecodable body
	recorder := post(t, &mockNotifier{}, `{"email":`)
	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, recorder.Body.String())

	// 2. Notifier failure
	notifier := &mockNotifier{}
	notifier.On("Notify", mock.Anything, mock.Anything).Return(errors.New("smtp unavailable"))

	recorder = post(t, notifier, `{"email":"a@b.co","firstName":"A","lastName":"B","company":"C","useCase":"Sales"}`)
	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, recorder.Body.String())
}

func TestComposeBody(t *testing.T) {
	request := demo.Request{
		Email: "jane@co.com", FirstName: "Jane", LastName: "Doe", Company: "Co",
		UseCase: demo.OtherUseCase, OtherUseCase: "Museum exhibits",
	}

	body := demo.ComposeBody(request)
	assert.Contains(t, body, "- Name: Jane Doe\n")
	assert.Contains(t, body, "Use Case: Other (please specify)\nOther Use Case: Museum exhibits\n")
	assert.Contains(t, body, demo.NoDetails)
	require.True(t, strings.HasSuffix(body, "Sent from Flow Immersive Demo Request Form"))

	// The free-text line is dropped for any other option.
	request.UseCase = "Training"
	request.Details = "Team of 12"
	body = demo.ComposeBody(request)
	assert.NotContains(t, body, "Other Use Case")
	assert.Contains(t, body, "Additional Details:\nTeam of 12\n")
}
