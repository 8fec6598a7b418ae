package handlers

import (
	"net/http"

	"parkingapp/logs"

	"github.com/gin-gonic/gin"
)

type RegisterInput struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) Register(c *gin.Context) {
	var input RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		logs.Logger.Warnf("Invalid register input: %v", err)
		badRequest(c, "Invalid input data")
		return
	}
	account, err := h.Accounts.Register(c.Request.Context(), input.Email, input.Username, input.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	SuccessResponse(c, http.StatusCreated, "Account created", account.ToResponse())
}

func (h *Handler) Login(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		logs.Logger.Warnf("Invalid login input: %v", err)
		badRequest(c, "Invalid input data")
		return
	}
	result, err := h.Accounts.Login(c.Request.Context(), input.Email, input.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Login successful", result)
}

func (h *Handler) Profile(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	profile, err := h.Accounts.Profile(c.Request.Context(), p.AccountID)
	if err != nil {
		respondError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Profile retrieved", profile)
}
