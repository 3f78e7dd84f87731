package dashboard

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/bloodbank-api/internal/handler"
	"github.com/jwalitptl/bloodbank-api/internal/middleware"
	"github.com/jwalitptl/bloodbank-api/internal/model"
	"github.com/jwalitptl/bloodbank-api/internal/service/bloodbank"
	"github.com/jwalitptl/bloodbank-api/internal/service/inventory"
	"github.com/jwalitptl/bloodbank-api/internal/service/request"
)

type Handler struct {
	banks     *bloodbank.Service
	requests  *request.Service
	inventory *inventory.Service
}

func NewHandler(banks *bloodbank.Service, requests *request.Service, inv *inventory.Service) *Handler {
	return &Handler{banks: banks, requests: requests, inventory: inv}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, auth *middleware.AuthMiddleware) {
	r.GET("/admin/dashboard", auth.Protect(h.Admin, model.RoleAdmin))
	r.GET("/donor/dashboard", auth.Protect(h.Donor, model.RoleDonor))
}

type adminDashboard struct {
	Message         string             `json:"message"`
	BloodBanks      int                `json:"blood_banks"`
	PendingRequests int                `json:"pending_requests"`
	Inventory       []model.GroupTotal `json:"inventory"`
}

func (h *Handler) Admin(c *gin.Context, _ *model.TokenClaims) {
	ctx := c.Request.Context()

	banks, err := h.banks.Count(ctx)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	pending, err := h.requests.CountPending(ctx)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	summary, err := h.inventory.Summary(ctx)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(adminDashboard{
		Message:         "Welcome Admin",
		BloodBanks:      banks,
		PendingRequests: pending,
		Inventory:       summary,
	}))
}

func (h *Handler) Donor(c *gin.Context, _ *model.TokenClaims) {
	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"message": "Welcome Donor"}))
}
