package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hearthhq/hearth/internal/domain/model"
	"github.com/hearthhq/hearth/internal/domain/service"
)

// DomainHandler handles HTTP requests for the custom-domain flow.
type DomainHandler struct {
	engine *service.Engine
	logger *zap.Logger
}

// NewDomainHandler creates a DomainHandler.
func NewDomainHandler(engine *service.Engine, logger *zap.Logger) *DomainHandler {
	return &DomainHandler{engine: engine, logger: logger}
}

// Register mounts the custom-domain routes on the given router group.
// All routes require tenant authentication (see TenantAuth).
func (h *DomainHandler) Register(rg *gin.RouterGroup) {
	domains := rg.Group("/domains")
	{
		domains.POST("", h.Claim)
		domains.GET("", h.GetCurrent)
		domains.POST("/:id/recheck", h.Recheck)
		domains.POST("/:id/probe-tls", h.ProbeSecurity)
		domains.POST("/:id/redispatch", h.Redispatch)
		domains.DELETE("/:id", h.Delete)
	}
}

// Claim handles POST /domains.
//
// Request body: {"hostname": "blog.example.com"}
//
// Response: the claim with the DNS records the tenant must publish.
func (h *DomainHandler) Claim(c *gin.Context) {
	tenantID, ok := TenantID(c)
	if !ok {
		return
	}

	var req struct {
		Hostname string `json:"hostname" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	claim, err := h.engine.Claim(c.Request.Context(), tenantID, req.Hostname)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidHostname):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrHostnameTaken):
			c.JSON(http.StatusConflict, gin.H{"error": "hostname already claimed"})
		case errors.Is(err, service.ErrTenantHasClaim):
			c.JSON(http.StatusConflict, gin.H{"error": "tenant already has a custom domain"})
		default:
			h.logger.Error("claim domain", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to claim domain"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"claim": claim,
		"instructions": "Publish the listed DNS records, then call " +
			"POST /api/v1/domains/" + claim.ID.String() + "/recheck to verify.",
	})
}

// GetCurrent handles GET /domains — the calling tenant's claim, if any.
func (h *DomainHandler) GetCurrent(c *gin.Context) {
	tenantID, ok := TenantID(c)
	if !ok {
		return
	}

	claim, err := h.engine.GetByTenant(c.Request.Context(), tenantID)
	if err != nil {
		if errors.Is(err, service.ErrClaimNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no custom domain claimed"})
			return
		}
		h.logger.Error("get tenant domain", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load domain claim"})
		return
	}

	c.JSON(http.StatusOK, claim)
}

// Recheck handles POST /domains/:id/recheck — re-resolves outstanding
// requirements and returns the updated claim.
func (h *DomainHandler) Recheck(c *gin.Context) {
	claim, ok := h.authorizedClaim(c)
	if !ok {
		return
	}

	updated, err := h.engine.Recheck(c.Request.Context(), claim.ID)
	if err != nil {
		h.respondClaimError(c, "recheck domain", err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// ProbeSecurity handles POST /domains/:id/probe-tls.
func (h *DomainHandler) ProbeSecurity(c *gin.Context) {
	claim, ok := h.authorizedClaim(c)
	if !ok {
		return
	}

	updated, err := h.engine.ProbeSecurity(c.Request.Context(), claim.ID)
	if err != nil {
		h.respondClaimError(c, "probe domain tls", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":       updated.ID,
		"hostname": updated.Hostname,
		"secure":   updated.Secure,
	})
}

// Redispatch handles POST /domains/:id/redispatch — operator recovery for a
// lost provisioning hand-off.
func (h *DomainHandler) Redispatch(c *gin.Context) {
	claim, ok := h.authorizedClaim(c)
	if !ok {
		return
	}

	updated, err := h.engine.Redispatch(c.Request.Context(), claim.ID)
	if err != nil {
		if errors.Is(err, service.ErrNotVerified) {
			c.JSON(http.StatusConflict, gin.H{"error": "domain is not verified yet"})
			return
		}
		h.respondClaimError(c, "redispatch domain", err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// Delete handles DELETE /domains/:id — hard-deletes the claim.
func (h *DomainHandler) Delete(c *gin.Context) {
	claim, ok := h.authorizedClaim(c)
	if !ok {
		return
	}

	if err := h.engine.Delete(c.Request.Context(), claim.ID); err != nil {
		h.respondClaimError(c, "delete domain", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// authorizedClaim resolves the :id parameter and enforces that the claim
// belongs to the calling tenant. Foreign claims read as 404 so the API does
// not leak which hostnames other tenants hold.
func (h *DomainHandler) authorizedClaim(c *gin.Context) (*model.Claim, bool) {
	tenantID, ok := TenantID(c)
	if !ok {
		return nil, false
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid claim ID"})
		return nil, false
	}

	claim, err := h.engine.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrClaimNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "domain claim not found"})
			return nil, false
		}
		h.logger.Error("load domain claim", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load domain claim"})
		return nil, false
	}
	if claim.TenantID != tenantID {
		c.JSON(http.StatusNotFound, gin.H{"error": "domain claim not found"})
		return nil, false
	}
	return claim, true
}

func (h *DomainHandler) respondClaimError(c *gin.Context, op string, err error) {
	if errors.Is(err, service.ErrClaimNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "domain claim not found"})
		return
	}
	h.logger.Error(op, zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
