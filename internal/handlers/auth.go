package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" binding:"required"`
}

type resetPasswordRequest struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required,max=72"`
}

func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if !BindJSON(c, &req, "Email and password required") {
		return
	}

	token, err := h.userService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (h *Handler) ForgotPassword(c *gin.Context) {
	var req forgotPasswordRequest
	if !BindJSON(c, &req, "Email required") {
		return
	}

	ticket, err := h.userService.ForgotPassword(c.Request.Context(), req.Email)
	if err != nil {
		h.respondError(c, err)
		return
	}

	// The token is returned directly; there is no mail delivery.
	c.JSON(http.StatusOK, ticket)
}

func (h *Handler) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if !BindJSON(c, &req, "Token and new password required") {
		return
	}

	if _, err := h.userService.ResetPassword(c.Request.Context(), c.ClientIP(), req.Token, req.Password); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password updated"})
}
