package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/certifica/certserver/internal/cert"
	"github.com/certifica/certserver/internal/db/repository"
	"github.com/certifica/certserver/internal/models"
	"github.com/certifica/certserver/internal/policy"
	"github.com/gin-gonic/gin"
)

// Wire messages of the public endpoints; existing clients match on these
const (
	msgCertificateNotFound = "Certificado não encontrado"
	msgArtifactNotFound    = "Arquivo não encontrado"
)

// CertHandler handles certificate issuance, download and validation
type CertHandler struct {
	service   *cert.Service
	auditRepo *repository.AuditRepository
	validator *policy.Validator
}

// NewCertHandler creates a new certificate handler
func NewCertHandler(service *cert.Service, auditRepo *repository.AuditRepository, validator *policy.Validator) *CertHandler {
	return &CertHandler{
		service:   service,
		auditRepo: auditRepo,
		validator: validator,
	}
}

// IssueResponse matches the original issuance contract
type IssueResponse struct {
	UUID    string `json:"uuid"`
	Arquivo string `json:"arquivo"`
}

// ValidateResponse matches the original validation contract
type ValidateResponse struct {
	Valido      bool   `json:"valido"`
	Nome        string `json:"nome,omitempty"`
	Evento      string `json:"evento,omitempty"`
	DataCriacao string `json:"data_criacao,omitempty"`
	Arquivo     string `json:"arquivo,omitempty"`
	Mensagem    string `json:"mensagem,omitempty"`
}

// GerarCertificado issues a new certificate
// POST /gerar-certificado/:evento/:pessoa
func (h *CertHandler) GerarCertificado(c *gin.Context) {
	evento := c.Param("evento")
	pessoa := c.Param("pessoa")

	clientIP := GetClientIP(c)
	userAgent := c.GetHeader("User-Agent")

	if err := h.validator.ValidateIssueRequest(evento, pessoa, clientIP); err != nil {
		var limitErr *policy.LimitExceededError
		status := http.StatusBadRequest
		if errors.As(err, &limitErr) {
			status = http.StatusTooManyRequests
		}
		h.logFailure(models.ActionCertIssue, "", clientIP, userAgent, err.Error())
		RespondErro(c, status, err.Error())
		return
	}

	result, err := h.service.Issue(evento, pessoa)
	if err != nil {
		log.Printf("Error issuing certificate: %v", err)
		h.logFailure(models.ActionCertIssue, "", clientIP, userAgent, err.Error())
		RespondErro(c, http.StatusInternalServerError, "Falha ao gerar certificado")
		return
	}

	h.logSuccess(models.ActionCertIssue, result.Identifier, clientIP, userAgent)

	c.JSON(http.StatusOK, IssueResponse{
		UUID:    result.Identifier,
		Arquivo: result.ArtifactPath,
	})
}

// BaixarCertificado serves the PDF artifact of an issued certificate
// GET /baixar-certificado/:certificado_id
func (h *CertHandler) BaixarCertificado(c *gin.Context) {
	identifier := c.Param("certificado_id")

	clientIP := GetClientIP(c)
	userAgent := c.GetHeader("User-Agent")

	artifact, err := h.service.Download(identifier)
	if errors.Is(err, cert.ErrCertificateNotFound) {
		h.logFailure(models.ActionCertDownload, identifier, clientIP, userAgent, msgCertificateNotFound)
		RespondErro(c, http.StatusNotFound, msgCertificateNotFound)
		return
	}
	if errors.Is(err, cert.ErrArtifactMissing) {
		h.logFailure(models.ActionCertDownload, identifier, clientIP, userAgent, msgArtifactNotFound)
		RespondErro(c, http.StatusNotFound, msgArtifactNotFound)
		return
	}
	if err != nil {
		log.Printf("Error downloading certificate: %v", err)
		h.logFailure(models.ActionCertDownload, identifier, clientIP, userAgent, err.Error())
		RespondErro(c, http.StatusInternalServerError, "Falha ao baixar certificado")
		return
	}

	h.logSuccess(models.ActionCertDownload, identifier, clientIP, userAgent)

	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", artifact.Filename))
	c.Data(http.StatusOK, "application/pdf", artifact.Bytes)
}

// ValidarCertificado confirms authenticity of an identifier. A lost artifact
// does not affect validity; only a missing record does.
// GET /validar-certificado/:certificado_id
func (h *CertHandler) ValidarCertificado(c *gin.Context) {
	identifier := c.Param("certificado_id")

	clientIP := GetClientIP(c)
	userAgent := c.GetHeader("User-Agent")

	validation, err := h.service.Validate(identifier)
	if err != nil {
		log.Printf("Error validating certificate: %v", err)
		h.logFailure(models.ActionCertValidate, identifier, clientIP, userAgent, err.Error())
		RespondErro(c, http.StatusInternalServerError, "Falha ao validar certificado")
		return
	}

	if !validation.Valid {
		h.logFailure(models.ActionCertValidate, identifier, clientIP, userAgent, msgCertificateNotFound)
		c.JSON(http.StatusOK, ValidateResponse{
			Valido:   false,
			Mensagem: msgCertificateNotFound,
		})
		return
	}

	h.logSuccess(models.ActionCertValidate, identifier, clientIP, userAgent)

	c.JSON(http.StatusOK, ValidateResponse{
		Valido:      true,
		Nome:        validation.RecipientName,
		Evento:      validation.EventName,
		DataCriacao: validation.CreatedAt.Format(time.RFC3339),
		Arquivo:     validation.ArtifactPath,
	})
}

// Helper methods for audit logging
func (h *CertHandler) logSuccess(action, identifier, clientIP, userAgent string) {
	if err := h.auditRepo.Create(&models.AuditLog{
		Action:          action,
		CertificateUUID: identifier,
		ClientIP:        clientIP,
		UserAgent:       userAgent,
		Success:         true,
	}); err != nil {
		log.Printf("Error writing audit log: %v", err)
	}
}

func (h *CertHandler) logFailure(action, identifier, clientIP, userAgent, reason string) {
	if err := h.auditRepo.Create(&models.AuditLog{
		Action:          action,
		CertificateUUID: identifier,
		ClientIP:        clientIP,
		UserAgent:       userAgent,
		Success:         false,
		ErrorMsg:        reason,
	}); err != nil {
		log.Printf("Error writing audit log: %v", err)
	}
}
