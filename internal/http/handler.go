package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"parking-gate-service/internal/service"
	"parking-gate-service/internal/ws"
)

type Handler struct {
	parkingService *service.ParkingService
	walletService  *service.WalletService
	plateService   *service.PlateService
	authService    *service.AuthService
	userService    *service.UserService
	hub            *ws.Hub
	log            zerolog.Logger
}

func NewHandler(
	parkingService *service.ParkingService,
	walletService *service.WalletService,
	plateService *service.PlateService,
	authService *service.AuthService,
	userService *service.UserService,
	hub *ws.Hub,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		parkingService: parkingService,
		walletService:  walletService,
		plateService:   plateService,
		authService:    authService,
		userService:    userService,
		hub:            hub,
		log:            log,
	}
}

func (h *Handler) Register(r *gin.Engine, authMiddleware gin.HandlerFunc) {
	// Gate endpoints, consumed by the camera feeds and the display.
	public := r.Group("/api/v1")
	{
		public.POST("/entry", h.registerEntry)
		public.POST("/exit", h.registerExit)
		public.GET("/status", h.parkingStatus)
		public.POST("/auth/login", h.login)
		public.GET("/events/stream", h.eventStream)
	}

	protected := r.Group("/api/v1")
	protected.Use(authMiddleware)
	{
		protected.POST("/auth/logout", h.logout)
		protected.GET("/auth/me", h.me)
		protected.GET("/wallet/balance", h.walletBalance)
		protected.POST("/wallet/charge", h.chargeWallet)
		protected.GET("/wallet/transactions", h.walletTransactions)
		protected.GET("/plates", h.listPlates)
		protected.POST("/plates", h.registerPlate)
		protected.DELETE("/plates/:id", h.deletePlate)
	}

	admin := r.Group("/api/v1/admin")
	admin.Use(authMiddleware, RequireAdmin())
	{
		admin.GET("/users", h.listUsers)
		admin.PUT("/users/:id/role", h.updateUserRole)
		admin.GET("/settings", h.getSettings)
		admin.PUT("/settings", h.updateSettings)
	}
}

type gateRequest struct {
	Plate     string `json:"plate" binding:"required"`
	ImagePath string `json:"image_path"`
}

func (h *Handler) registerEntry(c *gin.Context) {
	var req gateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	result, err := h.parkingService.RegisterEntry(c.Request.Context(), strings.TrimSpace(req.Plate), req.ImagePath)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, successResponse(result))
}

func (h *Handler) registerExit(c *gin.Context) {
	var req gateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	result, err := h.parkingService.RegisterExit(c.Request.Context(), strings.TrimSpace(req.Plate), req.ImagePath)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse(result))
}

func (h *Handler) parkingStatus(c *gin.Context) {
	status, err := h.parkingService.Status(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse(status))
}

type loginRequest struct {
	PhoneNumber string `json:"phone_number" binding:"required"`
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	result, err := h.authService.Login(c.Request.Context(), strings.TrimSpace(req.PhoneNumber))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse(result))
}

func (h *Handler) logout(c *gin.Context) {
	token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	if err := h.authService.Logout(c.Request.Context(), token); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) me(c *gin.Context) {
	c.JSON(http.StatusOK, successResponse(currentUser(c)))
}

func (h *Handler) walletBalance(c *gin.Context) {
	user := currentUser(c)
	balance, err := h.walletService.Balance(c.Request.Context(), user.ID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"balance": balance})
}

type chargeRequest struct {
	Amount int64 `json:"amount" binding:"required"`
}

func (h *Handler) chargeWallet(c *gin.Context) {
	var req chargeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	user := currentUser(c)
	result, err := h.walletService.Charge(c.Request.Context(), user.ID, req.Amount)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse(result))
}

func (h *Handler) walletTransactions(c *gin.Context) {
	user := currentUser(c)
	limit := queryInt(c, "limit", 50)
	offset := queryInt(c, "offset", 0)

	txs, err := h.walletService.Transactions(c.Request.Context(), user.ID, limit, offset)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse(txs))
}

func (h *Handler) listPlates(c *gin.Context) {
	user := currentUser(c)
	plates, err := h.plateService.ListForUser(c.Request.Context(), user.ID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse(plates))
}

type plateRequest struct {
	Plate string `json:"plate" binding:"required"`
}

func (h *Handler) registerPlate(c *gin.Context) {
	var req plateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	user := currentUser(c)
	plateID, err := h.plateService.Register(c.Request.Context(), user.ID, strings.TrimSpace(req.Plate))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"plate_id": plateID})
}

func (h *Handler) deletePlate(c *gin.Context) {
	plateID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid plate id"))
		return
	}

	user := currentUser(c)
	if err := h.plateService.Deactivate(c.Request.Context(), plateID, user.ID); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) listUsers(c *gin.Context) {
	limit := queryInt(c, "limit", 100)
	offset := queryInt(c, "offset", 0)

	users, err := h.userService.List(c.Request.Context(), limit, offset)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse(users))
}

type roleRequest struct {
	Role string `json:"role" binding:"required"`
}

func (h *Handler) updateUserRole(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid user id"))
		return
	}

	var req roleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	if err := h.userService.UpdateRole(c.Request.Context(), userID, req.Role); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) getSettings(c *gin.Context) {
	capacity, err := h.parkingService.Capacity(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	price, err := h.parkingService.PricePerHour(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"capacity": capacity, "price_per_hour": price})
}

type settingsRequest struct {
	Capacity     *int `json:"capacity"`
	PricePerHour *int `json:"price_per_hour"`
}

func (h *Handler) updateSettings(c *gin.Context) {
	var req settingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	ctx := c.Request.Context()
	if req.Capacity != nil {
		if err := h.parkingService.SetCapacity(ctx, *req.Capacity); err != nil {
			h.handleError(c, err)
			return
		}
	}
	if req.PricePerHour != nil {
		if err := h.parkingService.SetPricePerHour(ctx, *req.PricePerHour); err != nil {
			h.handleError(c, err)
			return
		}
	}
	h.getSettings(c)
}

func (h *Handler) eventStream(c *gin.Context) {
	h.hub.Serve(c.Writer, c.Request)
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, errorResponse(err.Error()))
	case errors.Is(err, service.ErrConflict):
		c.JSON(http.StatusConflict, errorResponse(err.Error()))
	case errors.Is(err, service.ErrUnauthorized):
		c.JSON(http.StatusForbidden, errorResponse(err.Error()))
	default:
		h.log.Error().Err(err).Msg("handler error")
		c.JSON(http.StatusInternalServerError, errorResponse("internal error"))
	}
}

func successResponse(data interface{}) gin.H {
	return gin.H{
		"data": data,
	}
}

func errorResponse(message string) gin.H {
	return gin.H{
		"error": message,
	}
}

func queryInt(c *gin.Context, name string, fallback int) int {
	if raw := c.Query(name); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			return v
		}
	}
	return fallback
}
