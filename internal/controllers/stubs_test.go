package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/campusvote/ballot-service/internal/models"
	"github.com/campusvote/ballot-service/internal/services"
	"github.com/campusvote/ballot-service/internal/utils"
)

// Function-valued stubs so each test declares exactly the behavior it needs.

type stubVerificationService struct {
	confirmFn func(ctx context.Context, tokenID uuid.UUID, studentRef, otp string) (string, time.Time, error)
	resendFn  func(ctx context.Context, tokenID uuid.UUID) (time.Time, error)
}

func (s *stubVerificationService) ConfirmCredentials(
	ctx context.Context, tokenID uuid.UUID, studentRef, otp string,
) (string, time.Time, error) {
	return s.confirmFn(ctx, tokenID, studentRef, otp)
}

func (s *stubVerificationService) ResendOTP(ctx context.Context, tokenID uuid.UUID) (time.Time, error) {
	return s.resendFn(ctx, tokenID)
}

type stubAccessService struct {
	validateFn func(ctx context.Context, accessToken string) (*services.AccessContext, error)
}

func (s *stubAccessService) GrantAccess(
	ctx context.Context, token *models.VoterToken,
) (string, time.Time, error) {
	panic("not used by controllers")
}

func (s *stubAccessService) ValidateAccess(
	ctx context.Context, accessToken string,
) (*services.AccessContext, error) {
	return s.validateFn(ctx, accessToken)
}

type stubVotingService struct {
	castFn func(ctx context.Context, accessToken string, selections []models.Selection) error
}

func (s *stubVotingService) CastVote(
	ctx context.Context, accessToken string, selections []models.Selection,
) error {
	return s.castFn(ctx, accessToken, selections)
}

type stubLifecycleService struct {
	activated []uuid.UUID
	closed    []uuid.UUID
	runErr    error
}

func (s *stubLifecycleService) ActivateDue(ctx context.Context) ([]uuid.UUID, error) {
	return s.activated, s.runErr
}

func (s *stubLifecycleService) CloseDue(ctx context.Context) ([]uuid.UUID, error) {
	return s.closed, s.runErr
}

func (s *stubLifecycleService) Run(ctx context.Context) ([]uuid.UUID, []uuid.UUID, error) {
	if s.runErr != nil {
		return nil, nil, s.runErr
	}
	return s.activated, s.closed, nil
}

func doJSON(t *testing.T, handler http.HandlerFunc, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(http.MethodPost, "/", &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) utils.ErrorResponse {
	t.Helper()
	var resp utils.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}
