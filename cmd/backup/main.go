package main

import (
	"context"
	"flag"
	"log"
	"os"
	"strings"
	"time"

	"github.com/2beens/gymstats-backend/internal/config"
	"github.com/2beens/gymstats-backend/internal/db"
	"github.com/2beens/gymstats-backend/internal/training"
	"github.com/2beens/gymstats-backend/internal/training/backup"

	"gopkg.in/natefinch/lumberjack.v2"
)

// one-shot google drive backup of the training sessions history,
// meant to be run from a cron job on the same host as the main service

func main() {
	env := flag.String("env", "development", "environment [prod | production | dev | development]")
	configPath := flag.String("config", "./config.toml", "path to TOML config file")
	credentialsFile := flag.String(
		"gd-creds",
		"./gymstats-drive-credentials.json",
		"google drive service account credentials json",
	)
	shareWithEmail := flag.String(
		"share-with",
		"",
		"google account email to share the backup files with (service account files are otherwise invisible in the drive ui)",
	)
	retentionCount := flag.Int("retention", 30, "number of most recent backup files to keep (0 or less keeps everything)")
	logsPath := flag.String("logs-path", "/var/log/gymstats-backend/sessions-backup.log", "logs file path (empty for stdout)")
	reinit := flag.Bool("reinit", false, "recreate the backups folder and reupload everything")
	destroy := flag.Bool("destroy", false, "destroy all files (warning!!) (try running more times, if more than 100 files are present)")

	flag.Parse()

	loggingSetup(*logsPath)

	log.Println("starting sessions backup ...")

	if *credentialsFile == "" {
		log.Fatalln("google drive credentials json not specified")
	}

	cfg, err := config.Load(*env, *configPath)
	if err != nil {
		log.Fatalf("load config: %s", err)
	}

	ctx := context.Background()

	if *destroy {
		if err := backup.DestroyAllFiles(ctx, *credentialsFile); err != nil {
			log.Fatalf("destroy failed: %s", err)
		}
		log.Println("destroy done!")
		return
	}

	dbPool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
		DBHost:         cfg.PostgresHost,
		DBPort:         cfg.PostgresPort,
		DBName:         cfg.PostgresDBName,
		TracingEnabled: false,
	})
	if err != nil {
		log.Fatalf("db pool: %s", err)
	}
	defer dbPool.Close()

	s, err := backup.NewGoogleDriveBackupService(ctx, backup.NewGoogleDriveBackupServiceParams{
		CredentialsPath:       *credentialsFile,
		Sessions:              training.NewRepo(dbPool),
		RetentionCount:        *retentionCount,
		ShareWithEmail:        *shareWithEmail,
		MetricsSocketDir:      cfg.BackupUnixSocketAddrDir,
		MetricsSocketFileName: cfg.BackupUnixSocketFileName,
	})
	if err != nil {
		log.Fatalf("failed to create google drive backup service: %s", err)
	}

	baseTime := time.Now()

	if *reinit {
		log.Println("!! attention: will reinitialize all again...")
		if err := s.Reinit(ctx, baseTime); err != nil {
			log.Fatalf("reinit failed: %s", err)
		}
		log.Println("reinit done")
		return
	}

	if err := s.DoBackup(ctx, baseTime); err != nil {
		log.Fatalf("%+v", err)
	}
}

func loggingSetup(logFileName string) {
	if logFileName == "" {
		log.SetOutput(os.Stdout)
		return
	}

	if !strings.HasSuffix(logFileName, ".log") {
		logFileName += ".log"
	}

	log.SetOutput(&lumberjack.Logger{
		Filename:  logFileName,
		MaxSize:   50,    // megabytes
		LocalTime: false, // false -> use UTC
		Compress:  true,
	})
}
