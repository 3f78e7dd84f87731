package donor

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/bloodbank-api/internal/handler"
	"github.com/jwalitptl/bloodbank-api/internal/middleware"
	"github.com/jwalitptl/bloodbank-api/internal/model"
	"github.com/jwalitptl/bloodbank-api/internal/service/donor"
)

type Handler struct {
	svc *donor.Service
}

func NewHandler(svc *donor.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, auth *middleware.AuthMiddleware) {
	donors := r.Group("/donors")
	{
		donors.POST("/register", auth.Protect(h.Register))
		donors.GET("/me", auth.Protect(h.Me))
		// Left open so a scheduler can call it without credentials.
		donors.POST("/reset-eligibility", h.ResetEligibility)
	}
}

func (h *Handler) Register(c *gin.Context, claims *model.TokenClaims) {
	var req model.RegisterDonorRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	d, err := h.svc.Register(c.Request.Context(), claims.UserID, req.BloodGroup)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(d))
}

func (h *Handler) Me(c *gin.Context, claims *model.TokenClaims) {
	profile, err := h.svc.Profile(c.Request.Context(), claims.UserID)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(profile))
}

func (h *Handler) ResetEligibility(c *gin.Context) {
	n, err := h.svc.ResetEligibility(c.Request.Context())
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"donors_reset": n}))
}
