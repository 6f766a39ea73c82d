package cert

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/certifica/certserver/internal/db"
	"github.com/certifica/certserver/internal/db/repository"
	"github.com/certifica/certserver/internal/models"
	"github.com/certifica/certserver/internal/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*Service, string) {
	t.Helper()

	dir := t.TempDir()
	artifactRoot := filepath.Join(dir, "arquivos")
	require.NoError(t, os.MkdirAll(artifactRoot, 0o755))

	database, err := db.New(filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	require.NoError(t, db.RunMigrations(database))

	certRepo := repository.NewCertRepository(database.DB)
	service := NewService(certRepo, pdf.NewRenderer(), artifactRoot)

	return service, artifactRoot
}

func TestIssueValidateDownloadRoundtrip(t *testing.T) {
	service, artifactRoot := newTestService(t)

	result, err := service.Issue("Workshop A", "Maria Silva")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Identifier)
	assert.Equal(t, filepath.Join("arquivos", result.Identifier+".pdf"), result.ArtifactPath)

	// Artifact exists under the root, named by identifier
	_, err = os.Stat(filepath.Join(artifactRoot, result.Identifier+".pdf"))
	require.NoError(t, err)

	validation, err := service.Validate(result.Identifier)
	require.NoError(t, err)
	assert.True(t, validation.Valid)
	assert.Equal(t, "Maria Silva", validation.RecipientName)
	assert.Equal(t, "Workshop A", validation.EventName)
	assert.Equal(t, result.ArtifactPath, validation.ArtifactPath)
	assert.WithinDuration(t, time.Now(), validation.CreatedAt, 5*time.Second)

	artifact, err := service.Download(result.Identifier)
	require.NoError(t, err)
	assert.Equal(t, result.Identifier+".pdf", artifact.Filename)
	assert.True(t, bytes.HasPrefix(artifact.Bytes, []byte("%PDF-")))
}

func TestIssueReturnsDistinctIdentifiers(t *testing.T) {
	service, _ := newTestService(t)

	seen := map[string]bool{}
	for i := 0; i < 5; i++ {
		result, err := service.Issue("Workshop A", "Maria Silva")
		require.NoError(t, err)
		assert.False(t, seen[result.Identifier], "identifier returned twice")
		seen[result.Identifier] = true
	}
}

func TestDownloadUnknownIdentifier(t *testing.T) {
	service, _ := newTestService(t)

	_, err := service.Download("not-a-real-id")
	assert.ErrorIs(t, err, ErrCertificateNotFound)
}

func TestValidateUnknownIdentifier(t *testing.T) {
	service, _ := newTestService(t)

	validation, err := service.Validate("not-a-real-id")
	require.NoError(t, err)
	assert.False(t, validation.Valid)
	assert.Empty(t, validation.RecipientName)
}

func TestDownloadAfterArtifactLoss(t *testing.T) {
	service, artifactRoot := newTestService(t)

	result, err := service.Issue("Workshop A", "Maria Silva")
	require.NoError(t, err)

	// Delete the file out-of-band; the record must survive
	require.NoError(t, os.Remove(filepath.Join(artifactRoot, result.Identifier+".pdf")))

	_, err = service.Download(result.Identifier)
	assert.ErrorIs(t, err, ErrArtifactMissing)

	validation, err := service.Validate(result.Identifier)
	require.NoError(t, err)
	assert.True(t, validation.Valid, "metadata must survive artifact loss")
}

func TestDownloadIgnoresStoredPathTraversal(t *testing.T) {
	service, artifactRoot := newTestService(t)

	// A record whose stored path tries to escape the artifact root: only
	// the base name may be honored
	rec := &models.CertificateRecord{
		UUID:          "traversal-id",
		RecipientName: "Maria Silva",
		EventName:     "Workshop A",
		ArtifactPath:  "../../secrets/traversal-id.pdf",
		CreatedAt:     time.Now(),
	}
	require.NoError(t, service.certRepo.Create(rec))

	// The escape target exists outside the root
	outside := filepath.Join(artifactRoot, "..", "secrets")
	require.NoError(t, os.MkdirAll(outside, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(outside, "traversal-id.pdf"), []byte("outside"), 0o644))

	// Nothing under the root matches the base name, so the download must
	// report a missing artifact instead of following the stored path
	_, err := service.Download("traversal-id")
	assert.ErrorIs(t, err, ErrArtifactMissing)

	// Once a file with that base name exists under the root, it is served
	require.NoError(t, os.WriteFile(filepath.Join(artifactRoot, "traversal-id.pdf"), []byte("inside"), 0o644))

	artifact, err := service.Download("traversal-id")
	require.NoError(t, err)
	assert.Equal(t, []byte("inside"), artifact.Bytes)
}

func TestConcurrentIssues(t *testing.T) {
	service, artifactRoot := newTestService(t)

	type outcome struct {
		result *IssueResult
		err    error
	}

	const n = 4
	outcomes := make([]outcome, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := service.Issue("Workshop A", "Participante")
			outcomes[i] = outcome{result: res, err: err}
		}(i)
	}
	wg.Wait()

	seen := map[string]bool{}
	for _, o := range outcomes {
		require.NoError(t, o.err)
		assert.False(t, seen[o.result.Identifier])
		seen[o.result.Identifier] = true

		_, err := os.Stat(filepath.Join(artifactRoot, o.result.Identifier+".pdf"))
		assert.NoError(t, err)

		validation, err := service.Validate(o.result.Identifier)
		require.NoError(t, err)
		assert.True(t, validation.Valid)
	}
}

func TestIssueFailsWhenArtifactRootUnwritable(t *testing.T) {
	dir := t.TempDir()
	database, err := db.New(filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	require.NoError(t, db.RunMigrations(database))

	certRepo := repository.NewCertRepository(database.DB)
	service := NewService(certRepo, pdf.NewRenderer(), filepath.Join(dir, "does-not-exist"))

	_, err = service.Issue("Workshop A", "Maria Silva")
	require.Error(t, err)

	// No record may exist for a failed issuance
	recs, listErr := certRepo.List(10)
	require.NoError(t, listErr)
	assert.Empty(t, recs)
}
