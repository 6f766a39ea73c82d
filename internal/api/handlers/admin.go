package handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/certifica/certserver/internal/db/repository"
	"github.com/gin-gonic/gin"
)

// AdminHandler handles administrative operations
type AdminHandler struct {
	certRepo  *repository.CertRepository
	auditRepo *repository.AuditRepository
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(certRepo *repository.CertRepository, auditRepo *repository.AuditRepository) *AdminHandler {
	return &AdminHandler{
		certRepo:  certRepo,
		auditRepo: auditRepo,
	}
}

// ListCertificados lists the most recent issuance records
// GET /v1/admin/certificados
func (h *AdminHandler) ListCertificados(c *gin.Context) {
	limit := parseLimit(c.Query("limit"), 100)

	recs, err := h.certRepo.List(limit)
	if err != nil {
		log.Printf("Error listing certificates: %v", err)
		RespondErro(c, http.StatusInternalServerError, "Falha ao listar certificados")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total":        len(recs),
		"certificados": recs,
	})
}

// ListAuditoria lists audit entries, optionally filtered by action
// GET /v1/admin/auditoria
func (h *AdminHandler) ListAuditoria(c *gin.Context) {
	action := c.Query("action")
	limit := parseLimit(c.Query("limit"), 100)

	logs, err := h.auditRepo.List(action, limit)
	if err != nil {
		log.Printf("Error listing audit logs: %v", err)
		RespondErro(c, http.StatusInternalServerError, "Falha ao listar auditoria")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total":     len(logs),
		"auditoria": logs,
	})
}

// parseLimit parses a limit query parameter with a default
func parseLimit(raw string, def int) int {
	if raw == "" {
		return def
	}

	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return def
	}

	return limit
}
