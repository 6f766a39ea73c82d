package policy

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/certifica/certserver/internal/config"
	"github.com/certifica/certserver/internal/db/repository"
	"github.com/certifica/certserver/internal/models"
)

// Validator validates issuance requests against policy
type Validator struct {
	config    *config.Config
	auditRepo *repository.AuditRepository
}

// NewValidator creates a new policy validator
func NewValidator(cfg *config.Config, auditRepo *repository.AuditRepository) *Validator {
	return &Validator{
		config:    cfg,
		auditRepo: auditRepo,
	}
}

// ValidateIssueRequest validates the names and the per-client daily limit
// before an issuance is attempted
func (v *Validator) ValidateIssueRequest(eventName, recipientName, clientIP string) error {
	if err := v.validateName("recipient name", recipientName); err != nil {
		return err
	}
	if err := v.validateName("event name", eventName); err != nil {
		return err
	}

	// Daily limit per client, disabled when zero
	if v.config.Policy.MaxIssuesPerDayPerIP > 0 {
		since := time.Now().UTC().Truncate(24 * time.Hour)
		count, err := v.auditRepo.CountByActionAndIP(models.ActionCertIssue, clientIP, since)
		if err != nil {
			return fmt.Errorf("failed to check daily limit: %w", err)
		}
		if count >= v.config.Policy.MaxIssuesPerDayPerIP {
			return &LimitExceededError{Count: count, Max: v.config.Policy.MaxIssuesPerDayPerIP}
		}
	}

	return nil
}

// validateName checks a free-text name field
func (v *Validator) validateName(field, value string) error {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fmt.Errorf("%s must not be empty", field)
	}

	if len(trimmed) > v.config.Policy.MaxNameLength {
		return fmt.Errorf("%s exceeds maximum length of %d", field, v.config.Policy.MaxNameLength)
	}

	for _, r := range trimmed {
		if unicode.IsControl(r) {
			return fmt.Errorf("%s contains control characters", field)
		}
	}

	return nil
}

// LimitExceededError indicates the per-client daily issuance cap was hit
type LimitExceededError struct {
	Count int
	Max   int
}

func (e *LimitExceededError) Error() string {
	return fmt.Sprintf("daily issuance limit exceeded (%d/%d)", e.Count, e.Max)
}
