package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"carshop/internal/auth"
	"carshop/internal/models"
	"carshop/internal/service"
	"carshop/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
)

// Handler contains HTTP handlers
type Handler struct {
	catalog     *service.CatalogService
	purchases   *service.PurchaseService
	fulfillment *service.FulfillmentService
	ledger      *service.LedgerService
	topups      *service.TopUpService
}

// NewHandler creates a new HTTP handler
func NewHandler(
	catalog *service.CatalogService,
	purchases *service.PurchaseService,
	fulfillment *service.FulfillmentService,
	ledger *service.LedgerService,
	topups *service.TopUpService,
) *Handler {
	return &Handler{
		catalog:     catalog,
		purchases:   purchases,
		fulfillment: fulfillment,
		ledger:      ledger,
		topups:      topups,
	}
}

// SetupRoutes sets up HTTP routes. Every mutating route sits behind the
// identity middleware; admin routes additionally re-check the admin claim
// server-side on each request.
func (h *Handler) SetupRoutes(router *gin.Engine, accounts auth.AccountResolver) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	v1.Use(auth.Middleware(accounts))
	{
		v1.GET("/cars", h.listCars)
		v1.GET("/me", h.getMe)
		v1.POST("/purchases", h.createPurchase)
		v1.GET("/purchases", h.listOwnPurchases)
		v1.POST("/topups", h.createTopUp)

		admin := v1.Group("/admin")
		admin.Use(auth.RequireAdmin())
		{
			admin.GET("/accounts", h.listAccounts)
			admin.POST("/accounts/:id/credit", h.creditAccount)
			admin.GET("/purchases", h.listAllPurchases)
			admin.POST("/purchases/:id/advance", h.advancePurchase)
			admin.PUT("/purchases/:id/fulfillment", h.setFulfillment)
			admin.PUT("/purchases/:id/payment", h.setPayment)
			admin.DELETE("/purchases/:id", h.deletePurchase)
			admin.POST("/cars", h.createCar)
			admin.GET("/topups", h.listTopUps)
			admin.POST("/topups/:id/approve", h.approveTopUp)
			admin.POST("/topups/:id/reject", h.rejectTopUp)
		}
	}
}

func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "time": time.Now().Unix()})
}

func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ready", "time": time.Now().Unix()})
}

func (h *Handler) listCars(c *gin.Context) {
	cars, err := h.catalog.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cars": cars})
}

func (h *Handler) getMe(c *gin.Context) {
	caller, _ := auth.CallerFrom(c)
	account, err := h.ledger.GetAccount(c.Request.Context(), caller.AccountID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, account)
}

type purchaseRequest struct {
	CarID string `json:"car_id" binding:"required"`
}

func (h *Handler) createPurchase(c *gin.Context) {
	var req purchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	caller, _ := auth.CallerFrom(c)
	purchase, err := h.purchases.Purchase(
		c.Request.Context(), caller.AccountID, req.CarID, c.GetHeader("Idempotency-Key"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, purchase)
}

func (h *Handler) listOwnPurchases(c *gin.Context) {
	caller, _ := auth.CallerFrom(c)
	purchases, err := h.purchases.ListByAccount(c.Request.Context(), caller.AccountID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"purchases": purchases})
}

type amountRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
}

func (h *Handler) createTopUp(c *gin.Context) {
	var req amountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	caller, _ := auth.CallerFrom(c)
	topUp, err := h.topups.Request(c.Request.Context(), caller.AccountID, req.Amount)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, topUp)
}

func (h *Handler) listAccounts(c *gin.Context) {
	accounts, err := h.ledger.ListAccounts(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"accounts": accounts})
}

func (h *Handler) creditAccount(c *gin.Context) {
	var req amountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	newBalance, err := h.ledger.Credit(c.Request.Context(), c.Param("id"), req.Amount)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"account_id": c.Param("id"), "balance": newBalance})
}

func (h *Handler) listAllPurchases(c *gin.Context) {
	purchases, err := h.fulfillment.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"purchases": purchases})
}

func (h *Handler) advancePurchase(c *gin.Context) {
	purchase, err := h.fulfillment.Advance(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, purchase)
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h *Handler) setFulfillment(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	purchase, err := h.fulfillment.SetFulfillment(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, purchase)
}

func (h *Handler) setPayment(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	purchase, err := h.fulfillment.SetPayment(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, purchase)
}

func (h *Handler) deletePurchase(c *gin.Context) {
	if err := h.fulfillment.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) createCar(c *gin.Context) {
	var input service.CreateCarInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}

	car, err := h.catalog.Create(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, car)
}

func (h *Handler) listTopUps(c *gin.Context) {
	topUps, err := h.topups.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"topups": topUps})
}

func (h *Handler) approveTopUp(c *gin.Context) {
	req, newBalance, err := h.topups.Approve(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"request": req, "balance": newBalance})
}

func (h *Handler) rejectTopUp(c *gin.Context) {
	req, err := h.topups.Reject(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"request": req})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error": err.Error(),
		"code":  "VALIDATION_ERROR",
	})
}

// respondError maps the service error taxonomy onto HTTP statuses.
// Insufficient funds and conflicts get distinct codes so callers can
// react differently to "not enough money" and "retry the transaction".
func respondError(c *gin.Context, err error) {
	var status int
	var code string
	switch {
	case errors.Is(err, models.ErrValidation):
		status, code = http.StatusBadRequest, "VALIDATION_ERROR"
	case errors.Is(err, models.ErrUnauthenticated):
		status, code = http.StatusUnauthorized, "UNAUTHENTICATED"
	case errors.Is(err, models.ErrPermissionDenied):
		status, code = http.StatusForbidden, "PERMISSION_DENIED"
	case errors.Is(err, models.ErrNotFound):
		status, code = http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, models.ErrInsufficientFunds):
		status, code = http.StatusPaymentRequired, "INSUFFICIENT_FUNDS"
	case errors.Is(err, models.ErrConflict):
		status, code = http.StatusConflict, "CONFLICT_RETRYABLE"
	case errors.Is(err, models.ErrStoreUnavailable):
		status, code = http.StatusServiceUnavailable, "STORE_UNAVAILABLE"
	default:
		status, code = http.StatusInternalServerError, "INTERNAL"
	}
	c.JSON(status, gin.H{"error": err.Error(), "code": code})
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
