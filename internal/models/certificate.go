package models

import "time"

// CertificateRecord represents one certificate issuance.
// The UUID is the only external reference; ArtifactPath is stored relative
// to the artifact root so records stay valid if the root moves.
type CertificateRecord struct {
	ID            int64     `json:"id"`
	UUID          string    `json:"uuid"`
	RecipientName string    `json:"nome"`
	EventName     string    `json:"evento"`
	ArtifactPath  string    `json:"arquivo"`
	CreatedAt     time.Time `json:"data_criacao"`
}
