package bloodbank

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/bloodbank-api/internal/handler"
	"github.com/jwalitptl/bloodbank-api/internal/middleware"
	"github.com/jwalitptl/bloodbank-api/internal/model"
	"github.com/jwalitptl/bloodbank-api/internal/service/bloodbank"
)

type Handler struct {
	svc *bloodbank.Service
}

func NewHandler(svc *bloodbank.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, auth *middleware.AuthMiddleware) {
	admin := r.Group("/admin/blood-banks")
	{
		admin.POST("", auth.Protect(h.Create, model.RoleAdmin))
		admin.GET("", auth.Protect(h.List, model.RoleAdmin))
		admin.DELETE("/:id", auth.Protect(h.Delete, model.RoleAdmin))
	}
	r.GET("/blood-banks", auth.Protect(h.ListPublic))
}

func (h *Handler) Create(c *gin.Context, claims *model.TokenClaims) {
	var req model.CreateBloodBankRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	bank, err := h.svc.Create(c.Request.Context(), claims.UserID, &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(bank))
}

func (h *Handler) List(c *gin.Context, _ *model.TokenClaims) {
	banks, err := h.svc.List(c.Request.Context())
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(banks))
}

func (h *Handler) ListPublic(c *gin.Context, _ *model.TokenClaims) {
	banks, err := h.svc.ListPublic(c.Request.Context())
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(banks))
}

func (h *Handler) Delete(c *gin.Context, claims *model.TokenClaims) {
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), id, claims.UserID); err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"message": "blood bank deleted"}))
}
