package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/remission-backend/internal/http/response"
	"github.com/yungbote/remission-backend/internal/services"
)

type AuthHandler struct {
	authService services.AuthService
}

func NewAuthHandler(authService services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// GenerateUser creates a subject. The body and its password are optional.
func (ah *AuthHandler) GenerateUser(c *gin.Context) {
	var req struct {
		Password string `json:"password"`
	}
	if !bindJSON(c, &req, false) {
		return
	}
	user, token, err := ah.authService.GenerateUser(c.Request.Context(), req.Password)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{
		"message":      "User created successfully",
		"user_id":      user.SubjectID,
		"access_token": token,
		"expires_in":   int(ah.authService.GetAccessTTL().Seconds()),
	})
}

func (ah *AuthHandler) Login(c *gin.Context) {
	var req struct {
		subjectFields
		Password string `json:"password"`
	}
	if !bindJSON(c, &req, true) {
		return
	}
	accessToken, err := ah.authService.Login(c.Request.Context(), req.subject(), req.Password)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"access_token": accessToken,
		"expires_in":   int(ah.authService.GetAccessTTL().Seconds()),
	})
}
