package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nexfinity/hosting-gateway/internal/models"
	"github.com/nexfinity/hosting-gateway/internal/service"
	"github.com/nexfinity/hosting-gateway/internal/upstream"
)

type Handler struct {
	deployService    *service.DeployService
	domainService    *service.DomainService
	hostingService   *service.HostingService
	vistaService     *service.VistaService
	promotionService *service.PromotionService
	catalogService   *service.CatalogService
}

func NewHandler(
	deployService *service.DeployService,
	domainService *service.DomainService,
	hostingService *service.HostingService,
	vistaService *service.VistaService,
	promotionService *service.PromotionService,
	catalogService *service.CatalogService,
) *Handler {
	return &Handler{
		deployService:    deployService,
		domainService:    domainService,
		hostingService:   hostingService,
		vistaService:     vistaService,
		promotionService: promotionService,
		catalogService:   catalogService,
	}
}

// respondError translates the upstream error taxonomy into HTTP statuses.
// Anything that is not an upstream.Error is an internal failure.
func respondError(c *gin.Context, err error) {
	ue := upstream.AsError(err)
	if ue == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	status := http.StatusBadGateway
	switch ue.Kind {
	case upstream.KindInvalidRequest:
		status = http.StatusBadRequest
	case upstream.KindNotAuthenticated:
		status = http.StatusUnauthorized
	case upstream.KindActionRequired:
		status = http.StatusConflict
	case upstream.KindIdentityUnresolved:
		status = http.StatusUnprocessableEntity
	case upstream.KindTimeout:
		status = http.StatusGatewayTimeout
	case upstream.KindInvariantViolation:
		status = http.StatusInternalServerError
	}

	c.JSON(status, gin.H{"error": ue.Message, "kind": string(ue.Kind)})
}

// ==================== Bot Hosting Handlers ====================

// Deploy provisions a new bot instance on the game panel.
func (h *Handler) Deploy(c *gin.Context) {
	var req models.DeployRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.deployService.Deploy(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) ListPlans(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"plans": h.catalogService.Plans()})
}

func (h *Handler) ListNodes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"nodes": h.catalogService.Nodes()})
}

// ==================== Domain Handlers ====================

// CheckDomain answers a registrar availability query with suggestions.
func (h *Handler) CheckDomain(c *gin.Context) {
	query := c.Query("domain")
	if query == "" {
		query = c.Query("q")
	}

	result, err := h.domainService.Check(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ==================== Promotion Handlers ====================

func (h *Handler) ListPromotions(c *gin.Context) {
	promos, err := h.promotionService.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load promotions"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"promotions": promos})
}

func (h *Handler) ValidatePromotion(c *gin.Context) {
	var req struct {
		Code string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.promotionService.Validate(c.Request.Context(), req.Code)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not validate code"})
		return
	}
	c.JSON(http.StatusOK, result)
}

// ==================== Billing Handlers ====================

func (h *Handler) ListInvoices(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"invoices": h.catalogService.Invoices(c.Query("year"))})
}

func (h *Handler) GetInvoice(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invoice id required"})
		return
	}
	c.JSON(http.StatusOK, h.catalogService.InvoiceDetail(id))
}

func (h *Handler) ListContracts(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"contracts": h.catalogService.Contracts(c.Query("status"))})
}

func (h *Handler) GetContract(c *gin.Context) {
	contract := h.catalogService.ContractDetail(c.Param("id"))
	if contract == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "contract not found"})
		return
	}
	c.JSON(http.StatusOK, contract)
}

func (h *Handler) Checkout(c *gin.Context) {
	var req models.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(req.Items) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cart is empty"})
		return
	}

	c.JSON(http.StatusOK, h.catalogService.Checkout(c.Request.Context(), &req))
}

// ==================== Account Handlers ====================

// AccountProfile returns the caller's identity as the middleware resolved it.
func (h *Handler) AccountProfile(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"userId": c.GetString("userID")})
}

// AccountServices lists the caller's active service agreements.
func (h *Handler) AccountServices(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"services": h.catalogService.Contracts("active")})
}

// ==================== Web Hosting Handlers ====================

// FullAccountInfo merges the locally stored account with the reseller's
// live domain listing.
func (h *Handler) FullAccountInfo(c *gin.Context) {
	username := c.Query("username")
	if username == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username required"})
		return
	}

	info, err := h.hostingService.FullAccountInfo(c.Request.Context(), username)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, info)
}

func (h *Handler) CreateHostingAccount(c *gin.Context) {
	var req models.CreateHostingAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.hostingService.CreateAccount(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

func (h *Handler) SuspendHostingAccount(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Reason   string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	apiResult, err := h.hostingService.Suspend(c.Request.Context(), req.Username, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": apiResult})
}

func (h *Handler) UnsuspendHostingAccount(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	apiResult, err := h.hostingService.Unsuspend(c.Request.Context(), req.Username)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": apiResult})
}

// CheckHostingDomain checks whether a domain is free on the reseller side.
func (h *Handler) CheckHostingDomain(c *gin.Context) {
	domain := c.Query("domain")
	if domain == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "domain required"})
		return
	}

	available, err := h.hostingService.CheckDomain(c.Request.Context(), domain)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"domain": domain, "available": available})
}

func (h *Handler) HostingUserDomains(c *gin.Context) {
	username := c.Query("username")
	if username == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username required"})
		return
	}

	domains, err := h.hostingService.UserDomainsXML(c.Request.Context(), username)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"domains": domains})
}

// ==================== Legacy Panel Handlers ====================

// VistaPanelInfo logs into the legacy panel with the submitted credentials
// and returns a one-shot snapshot of the account.
func (h *Handler) VistaPanelInfo(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	snapshot, err := h.vistaService.PanelInfo(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}
