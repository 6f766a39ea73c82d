package policy

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/certifica/certserver/internal/config"
	"github.com/certifica/certserver/internal/db"
	"github.com/certifica/certserver/internal/db/repository"
	"github.com/certifica/certserver/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestValidator(t *testing.T, cfg *config.Config) (*Validator, *repository.AuditRepository) {
	t.Helper()

	database, err := db.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	require.NoError(t, db.RunMigrations(database))

	auditRepo := repository.NewAuditRepository(database.DB)
	return NewValidator(cfg, auditRepo), auditRepo
}

func testConfig() *config.Config {
	return &config.Config{
		Policy: config.PolicyConfig{MaxNameLength: 50},
	}
}

func TestValidateIssueRequestAccepted(t *testing.T) {
	v, _ := newTestValidator(t, testConfig())

	assert.NoError(t, v.ValidateIssueRequest("Workshop A", "Maria Silva", "127.0.0.1"))
}

func TestValidateIssueRequestEmptyNames(t *testing.T) {
	v, _ := newTestValidator(t, testConfig())

	assert.Error(t, v.ValidateIssueRequest("Workshop A", "   ", "127.0.0.1"))
	assert.Error(t, v.ValidateIssueRequest("", "Maria Silva", "127.0.0.1"))
}

func TestValidateIssueRequestTooLong(t *testing.T) {
	v, _ := newTestValidator(t, testConfig())

	long := strings.Repeat("a", 51)
	assert.Error(t, v.ValidateIssueRequest("Workshop A", long, "127.0.0.1"))
	assert.Error(t, v.ValidateIssueRequest(long, "Maria Silva", "127.0.0.1"))
}

func TestValidateIssueRequestControlCharacters(t *testing.T) {
	v, _ := newTestValidator(t, testConfig())

	assert.Error(t, v.ValidateIssueRequest("Workshop A", "Maria\nSilva", "127.0.0.1"))
}

func TestValidateIssueRequestDailyLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Policy.MaxIssuesPerDayPerIP = 2
	v, auditRepo := newTestValidator(t, cfg)

	for i := 0; i < 2; i++ {
		require.NoError(t, auditRepo.Create(&models.AuditLog{
			Action:   models.ActionCertIssue,
			ClientIP: "10.0.0.1",
			Success:  true,
		}))
	}

	err := v.ValidateIssueRequest("Workshop A", "Maria Silva", "10.0.0.1")
	require.Error(t, err)

	var limitErr *LimitExceededError
	assert.ErrorAs(t, err, &limitErr)

	// Another client is unaffected
	assert.NoError(t, v.ValidateIssueRequest("Workshop A", "Maria Silva", "10.0.0.2"))
}

func TestValidateIssueRequestLimitDisabled(t *testing.T) {
	v, auditRepo := newTestValidator(t, testConfig())

	for i := 0; i < 10; i++ {
		require.NoError(t, auditRepo.Create(&models.AuditLog{
			Action:   models.ActionCertIssue,
			ClientIP: "10.0.0.1",
			Success:  true,
		}))
	}

	assert.NoError(t, v.ValidateIssueRequest("Workshop A", "Maria Silva", "10.0.0.1"))
}
