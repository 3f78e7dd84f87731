package donation

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/bloodbank-api/internal/handler"
	"github.com/jwalitptl/bloodbank-api/internal/middleware"
	"github.com/jwalitptl/bloodbank-api/internal/model"
	"github.com/jwalitptl/bloodbank-api/internal/service/donation"
)

type Handler struct {
	svc *donation.Service
}

func NewHandler(svc *donation.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, auth *middleware.AuthMiddleware) {
	donations := r.Group("/donations")
	{
		donations.POST("", auth.Protect(h.Donate))
		donations.GET("/me", auth.Protect(h.History, model.RoleDonor))
	}
}

func (h *Handler) Donate(c *gin.Context, claims *model.TokenClaims) {
	var req model.DonateRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	result, err := h.svc.RecordDonation(c.Request.Context(), claims.UserID, &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(result))
}

func (h *Handler) History(c *gin.Context, claims *model.TokenClaims) {
	entries, err := h.svc.History(c.Request.Context(), claims.UserID)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(entries))
}
