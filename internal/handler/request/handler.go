package request

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/bloodbank-api/internal/handler"
	"github.com/jwalitptl/bloodbank-api/internal/middleware"
	"github.com/jwalitptl/bloodbank-api/internal/model"
	"github.com/jwalitptl/bloodbank-api/internal/service/request"
)

type Handler struct {
	svc *request.Service
}

func NewHandler(svc *request.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, auth *middleware.AuthMiddleware) {
	reqs := r.Group("/blood-requests")
	{
		reqs.POST("", auth.Protect(h.Create))
		reqs.GET("", auth.Protect(h.ListAll, model.RoleAdmin, model.RoleHospital))
		reqs.GET("/me", auth.Protect(h.ListMine))
		reqs.PUT("/:id/status", auth.Protect(h.SetStatus, model.RoleAdmin))
		reqs.POST("/:id/fulfill", auth.Protect(h.Fulfill, model.RoleAdmin))
		reqs.GET("/:id/match-donors", auth.Protect(h.MatchDonors, model.RoleAdmin, model.RoleHospital))
	}
}

func (h *Handler) Create(c *gin.Context, claims *model.TokenClaims) {
	var req model.CreateBloodRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	created, err := h.svc.Create(c.Request.Context(), claims.UserID, &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(created))
}

func (h *Handler) ListAll(c *gin.Context, _ *model.TokenClaims) {
	reqs, err := h.svc.ListAll(c.Request.Context())
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(reqs))
}

func (h *Handler) ListMine(c *gin.Context, claims *model.TokenClaims) {
	reqs, err := h.svc.ListMine(c.Request.Context(), claims.UserID)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(reqs))
}

func (h *Handler) SetStatus(c *gin.Context, _ *model.TokenClaims) {
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}
	var req model.UpdateRequestStatus
	if !handler.BindJSON(c, &req) {
		return
	}

	if err := h.svc.SetStatus(c.Request.Context(), id, req.Status); err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"request_id": id, "status": req.Status}))
}

func (h *Handler) Fulfill(c *gin.Context, _ *model.TokenClaims) {
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}

	if err := h.svc.Fulfill(c.Request.Context(), id); err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"request_id": id, "status": model.RequestFulfilled}))
}

func (h *Handler) MatchDonors(c *gin.Context, _ *model.TokenClaims) {
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}

	result, err := h.svc.MatchDonors(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(result))
}
