package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/certifica/certserver/internal/config"
	"github.com/certifica/certserver/internal/db"
	"github.com/certifica/certserver/internal/db/repository"
	"github.com/spf13/cobra"
)

var (
	configPath string
	cfg        *config.Config
	database   *db.DB
)

var rootCmd = &cobra.Command{
	Use:   "admin",
	Short: "Certificate Server administration tool",
	Long:  "Administrative tool for inspecting issued certificates and audit logs",
}

var certCmd = &cobra.Command{
	Use:   "cert",
	Short: "Inspect issued certificates",
}

var certListCmd = &cobra.Command{
	Use:   "list",
	Short: "List issued certificates",
	RunE:  listCerts,
}

var certShowCmd = &cobra.Command{
	Use:   "show <uuid>",
	Short: "Show one certificate record and its artifact status",
	Args:  cobra.ExactArgs(1),
	RunE:  showCert,
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Inspect the audit trail",
}

var auditListCmd = &cobra.Command{
	Use:   "list",
	Short: "List audit entries",
	RunE:  listAudit,
}

var auditPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete audit entries older than a number of days",
	RunE:  pruneAudit,
}

var (
	listLimit   int
	auditAction string
	pruneDays   int
)

func init() {
	// Root flags
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "/etc/certserver/config.yaml", "Config file path")

	certListCmd.Flags().IntVar(&listLimit, "limit", 50, "Maximum records to list")

	auditListCmd.Flags().StringVar(&auditAction, "action", "", "Filter by action (cert_issue, cert_download, cert_validate)")
	auditListCmd.Flags().IntVar(&listLimit, "limit", 50, "Maximum entries to list")

	auditPruneCmd.Flags().IntVar(&pruneDays, "older-than", 90, "Delete entries older than this many days")

	// Add commands
	certCmd.AddCommand(certListCmd)
	certCmd.AddCommand(certShowCmd)
	auditCmd.AddCommand(auditListCmd)
	auditCmd.AddCommand(auditPruneCmd)
	rootCmd.AddCommand(certCmd)
	rootCmd.AddCommand(auditCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initDB() error {
	// Load configuration
	var err error
	cfg, err = config.LoadWithEnv(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Connect to database
	database, err = db.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	return nil
}

func listCerts(cmd *cobra.Command, args []string) error {
	if err := initDB(); err != nil {
		return err
	}
	defer database.Close()

	certRepo := repository.NewCertRepository(database.DB)
	recs, err := certRepo.List(listLimit)
	if err != nil {
		return fmt.Errorf("failed to list certificates: %w", err)
	}

	if len(recs) == 0 {
		fmt.Println("No certificates found")
		return nil
	}

	fmt.Printf("\nTotal certificates: %d\n\n", len(recs))
	fmt.Printf("%-38s %-25s %-25s %s\n", "UUID", "Recipient", "Event", "Issued")
	fmt.Println("--------------------------------------------------------------------------------------------------------")

	for _, rec := range recs {
		fmt.Printf("%-38s %-25s %-25s %s\n",
			rec.UUID,
			rec.RecipientName,
			rec.EventName,
			rec.CreatedAt.Format("2006-01-02 15:04:05"),
		)
	}

	return nil
}

func showCert(cmd *cobra.Command, args []string) error {
	if err := initDB(); err != nil {
		return err
	}
	defer database.Close()

	certRepo := repository.NewCertRepository(database.DB)
	rec, err := certRepo.GetByIdentifier(args[0])
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("no certificate with identifier %s", args[0])
	}
	if err != nil {
		return fmt.Errorf("failed to look up certificate: %w", err)
	}

	artifactPath := filepath.Join(cfg.Storage.ArtifactDir, filepath.Base(rec.ArtifactPath))
	artifactStatus := "present"
	if _, err := os.Stat(artifactPath); errors.Is(err, os.ErrNotExist) {
		artifactStatus = "MISSING"
	}

	fmt.Printf("\nUUID:      %s\n", rec.UUID)
	fmt.Printf("Recipient: %s\n", rec.RecipientName)
	fmt.Printf("Event:     %s\n", rec.EventName)
	fmt.Printf("Issued:    %s\n", rec.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("Artifact:  %s (%s)\n", rec.ArtifactPath, artifactStatus)

	return nil
}

func listAudit(cmd *cobra.Command, args []string) error {
	if err := initDB(); err != nil {
		return err
	}
	defer database.Close()

	auditRepo := repository.NewAuditRepository(database.DB)
	logs, err := auditRepo.List(auditAction, listLimit)
	if err != nil {
		return fmt.Errorf("failed to list audit logs: %w", err)
	}

	if len(logs) == 0 {
		fmt.Println("No audit entries found")
		return nil
	}

	fmt.Printf("\nTotal entries: %d\n\n", len(logs))
	fmt.Printf("%-20s %-15s %-38s %-16s %s\n", "Timestamp", "Action", "Certificate", "Client", "Result")
	fmt.Println("--------------------------------------------------------------------------------------------------------------")

	for _, entry := range logs {
		result := "ok"
		if !entry.Success {
			result = entry.ErrorMsg
		}
		fmt.Printf("%-20s %-15s %-38s %-16s %s\n",
			entry.Timestamp.Format("2006-01-02 15:04:05"),
			entry.Action,
			entry.CertificateUUID,
			entry.ClientIP,
			result,
		)
	}

	return nil
}

func pruneAudit(cmd *cobra.Command, args []string) error {
	if err := initDB(); err != nil {
		return err
	}
	defer database.Close()

	auditRepo := repository.NewAuditRepository(database.DB)
	before := time.Now().AddDate(0, 0, -pruneDays)

	count, err := auditRepo.DeleteOld(before)
	if err != nil {
		return fmt.Errorf("failed to prune audit logs: %w", err)
	}

	fmt.Printf("Deleted %d audit entries older than %s\n", count, before.Format("2006-01-02"))

	return nil
}
