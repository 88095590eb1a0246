package jwttoken

import (
	"parasol/internal/platform/middleware"
	id "parasol/pkg/domain"
)

// JWTServiceAdapter bridges the token service to the middleware's validator
// interface.
type JWTServiceAdapter struct {
	service *JWTService
}

func NewJWTServiceAdapter(service *JWTService) *JWTServiceAdapter {
	return &JWTServiceAdapter{service: service}
}

func (a *JWTServiceAdapter) ValidateToken(tokenString string) (*middleware.JWTClaims, error) {
	claims, err := a.service.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	participant, err := id.ParseParticipantID(claims.Participant)
	if err != nil {
		return nil, err
	}
	return &middleware.JWTClaims{Participant: participant}, nil
}
