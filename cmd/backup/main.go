package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"playlearn/internal/config"
	"playlearn/internal/database"
	"playlearn/internal/service"
	"playlearn/internal/storage"
)

func main() {
	// Define subcommands
	exportCmd := flag.NewFlagSet("export", flag.ExitOnError)
	importCmd := flag.NewFlagSet("import", flag.ExitOnError)
	uploadCmd := flag.NewFlagSet("upload", flag.ExitOnError)

	// Export flags
	exportOutput := exportCmd.String("output", "", "Output file path (default: backup_YYYYMMDD_HHMMSS.json)")

	// Import flags
	importInput := importCmd.String("input", "", "Input file path (required)")
	importClear := importCmd.Bool("clear", false, "Clear existing data before import (WARNING: destructive)")

	// Upload flags
	uploadPrefix := uploadCmd.String("prefix", "manual/", "Object key prefix inside the bucket")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Initialize database
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// Run migrations to ensure schema is up to date
	if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	backupService := service.NewBackupService(db, logger)

	switch os.Args[1] {
	case "export":
		exportCmd.Parse(os.Args[2:])
		handleExport(backupService, *exportOutput)

	case "import":
		importCmd.Parse(os.Args[2:])
		if *importInput == "" {
			fmt.Println("Error: -input flag is required")
			importCmd.PrintDefaults()
			os.Exit(1)
		}
		handleImport(backupService, db, *importInput, *importClear)

	case "upload":
		uploadCmd.Parse(os.Args[2:])
		handleUpload(cfg, backupService, *uploadPrefix)

	default:
		printUsage()
		os.Exit(1)
	}
}

func handleExport(backupService *service.BackupService, outputPath string) {
	// Generate default filename if not provided
	if outputPath == "" {
		timestamp := time.Now().Format("20060102_150405")
		outputPath = fmt.Sprintf("backup_%s.json", timestamp)
	}

	// Ensure directory exists
	dir := filepath.Dir(outputPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("Failed to create output directory: %v", err)
		}
	}

	log.Printf("Exporting database to: %s", outputPath)
	if err := backupService.Export(outputPath); err != nil {
		log.Fatalf("Export failed: %v", err)
	}

	fileInfo, err := os.Stat(outputPath)
	if err != nil {
		log.Fatalf("Failed to stat export: %v", err)
	}
	log.Printf("Export complete! File size: %.2f MB", float64(fileInfo.Size())/1024/1024)
}

func handleImport(backupService *service.BackupService, db *database.DB, inputPath string, clearData bool) {
	if _, err := os.Stat(inputPath); os.IsNotExist(err) {
		log.Fatalf("Input file does not exist: %s", inputPath)
	}

	if clearData {
		fmt.Print("WARNING: This will delete all existing data. Type 'yes' to confirm: ")
		var confirmation string
		fmt.Scanln(&confirmation)
		if confirmation != "yes" {
			log.Println("Import cancelled")
			return
		}

		log.Println("Clearing existing data...")
		if err := clearDatabase(db); err != nil {
			log.Fatalf("Failed to clear database: %v", err)
		}
	}

	log.Printf("Importing database from: %s", inputPath)
	if err := backupService.Import(inputPath); err != nil {
		log.Fatalf("Import failed: %v", err)
	}

	log.Println("Import complete!")
}

func handleUpload(cfg *config.Config, backupService *service.BackupService, prefix string) {
	if cfg.BackupS3Bucket == "" {
		log.Fatal("BACKUP_S3_BUCKET must be set to upload backups")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	store, err := storage.NewS3Store(ctx, storage.Config{
		Bucket:          cfg.BackupS3Bucket,
		Region:          cfg.BackupS3Region,
		Endpoint:        cfg.BackupS3Endpoint,
		AccessKeyID:     cfg.BackupS3AccessKeyID,
		SecretAccessKey: cfg.BackupS3SecretAccessKey,
	})
	if err != nil {
		log.Fatalf("Failed to configure object store: %v", err)
	}

	key, err := backupService.Upload(ctx, store, prefix)
	if err != nil {
		log.Fatalf("Upload failed: %v", err)
	}
	log.Printf("Uploaded backup to s3://%s/%s", cfg.BackupS3Bucket, key)
}

func clearDatabase(db *database.DB) error {
	// Delete in reverse order of dependencies. Games are catalog data and
	// are upserted by slug on import.
	tables := []string{
		"child_achievements",
		"completed_levels",
		"progress",
		"children",
		"users",
	}

	for _, table := range tables {
		query := fmt.Sprintf("DELETE FROM %s", table)
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to clear table %s: %w", table, err)
		}
		log.Printf("Cleared table: %s", table)
	}

	return nil
}

func printUsage() {
	fmt.Println("playlearn Database Backup Tool")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  backup export [options]    Export database to JSON file")
	fmt.Println("  backup import [options]    Import database from JSON file")
	fmt.Println("  backup upload [options]    Export database straight to the S3 backup bucket")
	fmt.Println()
	fmt.Println("Export Options:")
	fmt.Println("  -output <file>    Output file path (default: backup_YYYYMMDD_HHMMSS.json)")
	fmt.Println()
	fmt.Println("Import Options:")
	fmt.Println("  -input <file>     Input file path (required)")
	fmt.Println("  -clear            Clear existing data before import (WARNING: destructive)")
	fmt.Println()
	fmt.Println("Upload Options:")
	fmt.Println("  -prefix <prefix>  Object key prefix (default: manual/)")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  backup export -output mybackup.json")
	fmt.Println("  backup import -input backup.json -clear")
	fmt.Println("  backup upload -prefix weekly/")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  DATABASE_TYPE                Database type: sqlite, postgres, or mysql (default: sqlite)")
	fmt.Println("  DB_PATH                      SQLite database path (default: ./playlearn.db)")
	fmt.Println("  DATABASE_URL                 PostgreSQL or MySQL connection URL")
	fmt.Println("  BACKUP_S3_BUCKET             Bucket for uploaded backups")
	fmt.Println("  BACKUP_S3_REGION             Bucket region (default: auto)")
	fmt.Println("  BACKUP_S3_ENDPOINT           Custom S3-compatible endpoint")
	fmt.Println("  BACKUP_S3_ACCESS_KEY_ID      Static access key (optional)")
	fmt.Println("  BACKUP_S3_SECRET_ACCESS_KEY  Static secret key (optional)")
}
