package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/certifica/certserver/internal/models"
)

// AuditRepository handles audit log data access
type AuditRepository struct {
	db *sql.DB
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db *sql.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Create creates a new audit log entry
func (r *AuditRepository) Create(log *models.AuditLog) error {
	query := `
		INSERT INTO audit_logs (action, certificate_uuid, client_ip, user_agent, success, error_msg, details)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	success := 0
	if log.Success {
		success = 1
	}

	result, err := r.db.Exec(query,
		log.Action,
		log.CertificateUUID,
		log.ClientIP,
		log.UserAgent,
		success,
		log.ErrorMsg,
		log.Details,
	)
	if err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	log.ID = id
	log.Timestamp = time.Now()

	return nil
}

// List lists audit logs with optional filters
func (r *AuditRepository) List(action string, limit int) ([]*models.AuditLog, error) {
	query := `
		SELECT id, timestamp, action, certificate_uuid, client_ip, user_agent, success, error_msg, details
		FROM audit_logs
		WHERE 1=1
	`
	args := []interface{}{}

	if action != "" {
		query += " AND action = ?"
		args = append(args, action)
	}

	query += " ORDER BY timestamp DESC LIMIT ?"
	args = append(args, limit)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit logs: %w", err)
	}
	defer rows.Close()

	var logs []*models.AuditLog

	for rows.Next() {
		log, err := scanAuditLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, log)
	}

	return logs, nil
}

// CountByActionAndIP counts audit entries for one action from one client IP
func (r *AuditRepository) CountByActionAndIP(action, clientIP string, since time.Time) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM audit_logs
		WHERE action = ? AND client_ip = ? AND success = 1 AND timestamp >= ?
	`

	var count int
	err := r.db.QueryRow(query, action, clientIP, since).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count audit logs: %w", err)
	}

	return count, nil
}

// DeleteOld deletes audit logs older than the given date
func (r *AuditRepository) DeleteOld(before time.Time) (int64, error) {
	query := `
		DELETE FROM audit_logs
		WHERE timestamp < ?
	`

	result, err := r.db.Exec(query, before)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old audit logs: %w", err)
	}

	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return count, nil
}

func scanAuditLog(rows *sql.Rows) (*models.AuditLog, error) {
	log := &models.AuditLog{}
	var success int
	var certUUID, userAgent, errorMsg, details sql.NullString

	err := rows.Scan(
		&log.ID,
		&log.Timestamp,
		&log.Action,
		&certUUID,
		&log.ClientIP,
		&userAgent,
		&success,
		&errorMsg,
		&details,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan audit log: %w", err)
	}

	log.Success = success == 1
	if certUUID.Valid {
		log.CertificateUUID = certUUID.String
	}
	if userAgent.Valid {
		log.UserAgent = userAgent.String
	}
	if errorMsg.Valid {
		log.ErrorMsg = errorMsg.String
	}
	if details.Valid {
		log.Details = details.String
	}

	return log, nil
}
