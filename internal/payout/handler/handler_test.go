package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"parasol/internal/jwttoken"
	"parasol/internal/ledger"
	ledgerService "parasol/internal/ledger/service"
	"parasol/internal/oracle"
	"parasol/internal/payout"
	"parasol/internal/settlement"
	id "parasol/pkg/domain"
	"parasol/pkg/sentinel"
)

// =============================================================================
// Payout Handler Test Suite
// =============================================================================

const signingKey = "test-signing-key"

type PayoutHandlerSuite struct {
	suite.Suite
	router     chi.Router
	jwtService *jwttoken.JWTService
	ledger     *ledgerService.Service
	source     *oracle.Static
	admin      id.ParticipantID
}

func TestPayoutHandlerSuite(t *testing.T) {
	suite.Run(t, new(PayoutHandlerSuite))
}

func (s *PayoutHandlerSuite) SetupTest() {
	s.admin = "admin"
	store := ledger.NewInMemoryStore(ledger.Thresholds{Rainfall: 50, Temperature: 35})

	var err error
	s.ledger, err = ledgerService.New(store, s.admin)
	s.Require().NoError(err)

	s.source = &oracle.Static{Measurement: oracle.Measurement{Rainfall: 30, Temperature: 38}}
	processor, err := payout.New(s.ledger, s.source, settlement.NewMemoryRail())
	s.Require().NoError(err)

	s.jwtService = jwttoken.NewJWTService(signingKey, "parasol", "parasol-api")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := New(processor, logger, jwttoken.NewJWTServiceAdapter(s.jwtService))

	s.router = chi.NewRouter()
	handler.Register(s.router)
}

func (s *PayoutHandlerSuite) trigger(identity id.ParticipantID) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/claims/cycle", nil)
	if identity != "" {
		token, err := s.jwtService.GenerateAccessToken(identity, time.Hour)
		s.Require().NoError(err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *PayoutHandlerSuite) TestRunClaimCycle() {
	ctx := context.Background()
	_, err := s.ledger.Register(ctx, "alice", 100)
	s.Require().NoError(err)
	s.Require().NoError(s.ledger.AcceptFunds(ctx, s.admin, 100))

	s.Run("missing token returns 401", func() {
		rec := s.trigger("")
		s.Equal(http.StatusUnauthorized, rec.Code)
	})

	s.Run("non-admin returns 403", func() {
		rec := s.trigger("alice")
		s.Equal(http.StatusForbidden, rec.Code)
	})

	s.Run("admin trigger returns the cycle report", func() {
		rec := s.trigger(s.admin)
		s.Require().Equal(http.StatusOK, rec.Code)

		var resp CycleResponse
		s.Require().NoError(json.NewDecoder(rec.Body).Decode(&resp))
		s.Equal("breach", resp.Verdict)
		s.Equal(uint64(30), resp.Rainfall)
		s.Require().Len(resp.Paid, 1)
		s.Equal("alice", resp.Paid[0].Identity)
		s.Equal(uint64(200), resp.Paid[0].Amount)
		s.Empty(resp.Skipped)
	})

	s.Run("oracle failure returns 503", func() {
		s.source.Err = sentinel.ErrUnavailable
		rec := s.trigger(s.admin)
		s.Equal(http.StatusServiceUnavailable, rec.Code)
	})
}
