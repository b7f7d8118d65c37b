package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"aicodegen-backend/internal/models"
)

type CreditsHandler struct {
	accounts       AccountStore
	defaultCredits int
}

func NewCreditsHandler(accounts AccountStore, defaultCredits int) *CreditsHandler {
	return &CreditsHandler{accounts: accounts, defaultCredits: defaultCredits}
}

// GetCredits returns the caller's balance, creating the account on first use.
func (h *CreditsHandler) GetCredits(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	account, err := h.accounts.GetOrCreateAccount(c.Request.Context(), userID, h.defaultCredits)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to load credits", Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, models.CreditsResponse{
		Credits:      account.Credits,
		MaxCredits:   account.MaxCredits,
		UsagePercent: usagePercent(account.Credits, account.MaxCredits),
	})
}

// usagePercent is the share of maxCredits already spent, clamped to 0..100.
func usagePercent(credits, maxCredits int) int {
	if maxCredits <= 0 {
		return 0
	}
	used := (maxCredits - credits) * 100 / maxCredits
	switch {
	case used < 0:
		return 0
	case used > 100:
		return 100
	}
	return used
}
