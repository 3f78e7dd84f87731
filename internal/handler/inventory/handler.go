package inventory

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/bloodbank-api/internal/handler"
	"github.com/jwalitptl/bloodbank-api/internal/middleware"
	"github.com/jwalitptl/bloodbank-api/internal/model"
	"github.com/jwalitptl/bloodbank-api/internal/service/inventory"
)

type Handler struct {
	svc *inventory.Service
}

func NewHandler(svc *inventory.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, auth *middleware.AuthMiddleware) {
	inv := r.Group("/inventory")
	{
		inv.GET("/summary", auth.Protect(h.Summary, model.RoleAdmin))
		inv.GET("/:bankId", h.ByBank)
	}
}

func (h *Handler) ByBank(c *gin.Context) {
	bankID, ok := handler.ParamID(c, "bankId")
	if !ok {
		return
	}

	inv, err := h.svc.AvailableUnits(c.Request.Context(), bankID)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(inv))
}

func (h *Handler) Summary(c *gin.Context, _ *model.TokenClaims) {
	totals, err := h.svc.Summary(c.Request.Context())
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(totals))
}
