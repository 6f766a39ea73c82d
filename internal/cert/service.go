// Package cert implements certificate issuance: identifier generation,
// artifact rendering, durable write and record creation as one logical
// operation, plus the download and validation reads keyed by identifier.
package cert

import (
	"bytes"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/certifica/certserver/internal/db/repository"
	"github.com/certifica/certserver/internal/models"
	"github.com/certifica/certserver/internal/pdf"
	"github.com/google/uuid"
)

var (
	// ErrCertificateNotFound is returned when no record exists for an identifier
	ErrCertificateNotFound = errors.New("certificate not found")

	// ErrArtifactMissing is returned when the record exists but the PDF
	// file is absent from the artifact root
	ErrArtifactMissing = errors.New("certificate artifact missing")
)

// Service orchestrates certificate issuance and serves downstream reads
type Service struct {
	certRepo     *repository.CertRepository
	renderer     *pdf.Renderer
	artifactRoot string
}

// NewService creates a new issuance service. artifactRoot is the fixed
// directory all artifacts are written to and resolved against.
func NewService(certRepo *repository.CertRepository, renderer *pdf.Renderer, artifactRoot string) *Service {
	return &Service{
		certRepo:     certRepo,
		renderer:     renderer,
		artifactRoot: artifactRoot,
	}
}

// IssueResult is the outcome of a successful issuance
type IssueResult struct {
	Identifier   string
	ArtifactPath string
}

// Artifact holds downloaded certificate bytes
type Artifact struct {
	Bytes    []byte
	Filename string
}

// Validation holds the metadata returned for an authenticity check
type Validation struct {
	Valid         bool
	RecipientName string
	EventName     string
	CreatedAt     time.Time
	ArtifactPath  string
}

// Issue generates a fresh identifier, renders the certificate PDF, writes it
// under the artifact root and inserts the record. The timestamp is captured
// once so the printed date always equals the stored date. The file is written
// before the record so a visible record always had its artifact at issuance
// time. If the store rejects the identifier as a duplicate, one fresh
// identifier is tried before giving up.
func (s *Service) Issue(eventName, recipientName string) (*IssueResult, error) {
	createdAt := time.Now()

	result, err := s.issueOnce(eventName, recipientName, createdAt)
	if errors.Is(err, repository.ErrDuplicateIdentifier) {
		log.Printf("Identifier collision on issue, regenerating")
		result, err = s.issueOnce(eventName, recipientName, createdAt)
	}
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (s *Service) issueOnce(eventName, recipientName string, createdAt time.Time) (*IssueResult, error) {
	identifier := uuid.NewString()
	filename := identifier + ".pdf"
	absPath := filepath.Join(s.artifactRoot, filename)
	relPath := filepath.Join(filepath.Base(s.artifactRoot), filename)

	// Render before touching disk or the store
	var buf bytes.Buffer
	err := s.renderer.Render(&buf, pdf.CertificateData{
		Identifier:    identifier,
		RecipientName: recipientName,
		EventName:     eventName,
		IssuedAt:      createdAt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render artifact: %w", err)
	}

	// A write failure aborts the issuance, no record is inserted
	if err := os.WriteFile(absPath, buf.Bytes(), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write artifact: %w", err)
	}

	rec := &models.CertificateRecord{
		UUID:          identifier,
		RecipientName: recipientName,
		EventName:     eventName,
		ArtifactPath:  relPath,
		CreatedAt:     createdAt,
	}
	if err := s.certRepo.Create(rec); err != nil {
		// The file exists but no record points at it; remove it so the
		// failed issuance leaves no state behind
		if rmErr := os.Remove(absPath); rmErr != nil {
			log.Printf("Failed to remove orphaned artifact %s: %v", absPath, rmErr)
		}
		return nil, err
	}

	return &IssueResult{
		Identifier:   identifier,
		ArtifactPath: relPath,
	}, nil
}

// Download returns the artifact bytes for an issued certificate. The stored
// path is untrusted: only its base name is used, rejoined under the fixed
// artifact root, so a stored value can never escape the directory.
func (s *Service) Download(identifier string) (*Artifact, error) {
	rec, err := s.certRepo.GetByIdentifier(identifier)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrCertificateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up certificate: %w", err)
	}

	filename := filepath.Base(rec.ArtifactPath)
	absPath := filepath.Join(s.artifactRoot, filename)

	data, err := os.ReadFile(absPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrArtifactMissing
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact: %w", err)
	}

	return &Artifact{
		Bytes:    data,
		Filename: filename,
	}, nil
}

// Validate returns the stored metadata for an identifier. It never touches
// the filesystem: a lost artifact does not invalidate the record.
func (s *Service) Validate(identifier string) (*Validation, error) {
	rec, err := s.certRepo.GetByIdentifier(identifier)
	if errors.Is(err, repository.ErrNotFound) {
		return &Validation{Valid: false}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up certificate: %w", err)
	}

	return &Validation{
		Valid:         true,
		RecipientName: rec.RecipientName,
		EventName:     rec.EventName,
		CreatedAt:     rec.CreatedAt,
		ArtifactPath:  rec.ArtifactPath,
	}, nil
}
