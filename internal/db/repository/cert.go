package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/certifica/certserver/internal/models"
	"github.com/mattn/go-sqlite3"
)

var (
	// ErrNotFound is returned when no record exists for an identifier
	ErrNotFound = errors.New("certificate record not found")

	// ErrDuplicateIdentifier is returned when an insert hits the UNIQUE
	// constraint on the uuid column
	ErrDuplicateIdentifier = errors.New("certificate identifier already exists")
)

// CertRepository handles certificate record data access
type CertRepository struct {
	db *sql.DB
}

// NewCertRepository creates a new certificate repository
func NewCertRepository(db *sql.DB) *CertRepository {
	return &CertRepository{db: db}
}

// Create inserts a new certificate record. Uniqueness of the identifier is
// enforced by the store itself, not by a pre-check.
func (r *CertRepository) Create(rec *models.CertificateRecord) error {
	query := `
		INSERT INTO certificates (uuid, recipient_name, event_name, artifact_path, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	result, err := r.db.Exec(query,
		rec.UUID,
		rec.RecipientName,
		rec.EventName,
		rec.ArtifactPath,
		rec.CreatedAt,
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return fmt.Errorf("uuid %s: %w", rec.UUID, ErrDuplicateIdentifier)
		}
		return fmt.Errorf("failed to create certificate record: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	rec.ID = id

	return nil
}

// GetByIdentifier retrieves a certificate record by its uuid. If duplicates
// ever exist the most recently inserted one wins.
func (r *CertRepository) GetByIdentifier(uuid string) (*models.CertificateRecord, error) {
	query := `
		SELECT id, uuid, recipient_name, event_name, artifact_path, created_at
		FROM certificates
		WHERE uuid = ?
		ORDER BY id DESC
		LIMIT 1
	`

	rec := &models.CertificateRecord{}

	err := r.db.QueryRow(query, uuid).Scan(
		&rec.ID,
		&rec.UUID,
		&rec.RecipientName,
		&rec.EventName,
		&rec.ArtifactPath,
		&rec.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get certificate record: %w", err)
	}

	return rec, nil
}

// List lists the most recently issued certificates
func (r *CertRepository) List(limit int) ([]*models.CertificateRecord, error) {
	query := `
		SELECT id, uuid, recipient_name, event_name, artifact_path, created_at
		FROM certificates
		ORDER BY created_at DESC
		LIMIT ?
	`

	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list certificate records: %w", err)
	}
	defer rows.Close()

	var recs []*models.CertificateRecord

	for rows.Next() {
		rec := &models.CertificateRecord{}
		err := rows.Scan(
			&rec.ID,
			&rec.UUID,
			&rec.RecipientName,
			&rec.EventName,
			&rec.ArtifactPath,
			&rec.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan certificate record: %w", err)
		}

		recs = append(recs, rec)
	}

	return recs, nil
}

// CountToday returns the number of certificates issued today
func (r *CertRepository) CountToday() (int, error) {
	query := `
		SELECT COUNT(*)
		FROM certificates
		WHERE DATE(created_at) = DATE('now')
	`

	var count int
	err := r.db.QueryRow(query).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count certificates: %w", err)
	}

	return count, nil
}
