package handlers

import (
	"net/http"

	"linkvault/internal/services"

	"github.com/gin-gonic/gin"
)

type createUserRequest struct {
	Name     string `json:"name" binding:"required,max=120"`
	Email    string `json:"email" binding:"required,max=255"`
	Password string `json:"password" binding:"required,max=72"`
	Role     string `json:"role" binding:"required,oneof=user admin"`
}

type updateUserRequest struct {
	Name     *string `json:"name" binding:"omitempty,max=120"`
	Email    *string `json:"email" binding:"omitempty,max=255"`
	Role     *string `json:"role" binding:"omitempty,oneof=user admin"`
	Password string  `json:"password" binding:"max=72"`
}

func (h *Handler) CreateUser(c *gin.Context) {
	var req createUserRequest
	if !BindJSON(c, &req, "Name, email, password and role required") {
		return
	}

	user, err := h.userService.CreateUser(c.Request.Context(), actorFrom(c), services.CreateUserInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, user)
}

func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.userService.ListUsers(c.Request.Context(), c.Query("search"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *Handler) GetUser(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	user, err := h.userService.GetUser(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *Handler) UpdateUser(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req updateUserRequest
	if !BindJSON(c, &req, "Invalid request body") {
		return
	}

	user, err := h.userService.UpdateUser(c.Request.Context(), actorFrom(c), id, services.UpdateUserInput{
		Name:     req.Name,
		Email:    req.Email,
		Role:     req.Role,
		Password: req.Password,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *Handler) DeleteUser(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.userService.DeleteUser(c.Request.Context(), actorFrom(c), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
