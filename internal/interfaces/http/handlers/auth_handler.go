package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	domainerrors "escrow-chain.backend/internal/domain/errors"
	"escrow-chain.backend/internal/interfaces/http/response"
	"escrow-chain.backend/pkg/jwt"
)

// AuthHandler issues party tokens. The engine has no user store; party
// identity is asserted per contract, so token issuance is a thin wrapper
// around the JWT service and performs no credential check. The route is
// registered behind the TOKEN_ISSUER_ENABLED flag and is intended for
// trusted networks and local development only.
type AuthHandler struct {
	jwtService *jwt.JWTService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(jwtService *jwt.JWTService) *AuthHandler {
	return &AuthHandler{jwtService: jwtService}
}

type issueTokenRequest struct {
	PartyID string `json:"partyId" binding:"required"`
	Role    string `json:"role"`
}

// IssueToken issues a bearer token for a party
// POST /api/v1/auth/token
func (h *AuthHandler) IssueToken(c *gin.Context) {
	var req issueTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	token, err := h.jwtService.GenerateToken(req.PartyID, req.Role)
	if err != nil {
		response.Error(c, domainerrors.InternalError(err))
		return
	}

	response.Success(c, http.StatusOK, gin.H{"token": token})
}
