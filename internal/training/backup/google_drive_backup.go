package backup

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/2beens/gymstats-backend/internal/training"
	"github.com/2beens/gymstats-backend/pkg"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	htransport "google.golang.org/api/transport/http"
)

const (
	rootBackupsFolderName = "gymstats-backup"
	sessionsFileChunkSize = 500 // number of sessions in one backup file
)

type sessionsLister interface {
	ListAll(ctx context.Context, params training.SessionParams) ([]training.Session, error)
}

type GoogleDriveBackupService struct {
	sessions        sessionsLister
	service         *drive.Service
	backupsFolderId string
	retentionCount  int
	shareWithEmail  string

	// when set, backup stats get reported to the main service over its unix socket
	metricsSocketDir      string
	metricsSocketFileName string
}

type NewGoogleDriveBackupServiceParams struct {
	CredentialsPath string
	Sessions        sessionsLister
	// RetentionCount is the number of most recent backup files to keep,
	// 0 or less keeps everything
	RetentionCount int
	// files created by the service account are invisible in the Drive web UI
	// unless shared with a real account
	ShareWithEmail        string
	MetricsSocketDir      string
	MetricsSocketFileName string
}

func NewGoogleDriveBackupService(
	ctx context.Context,
	params NewGoogleDriveBackupServiceParams,
) (*GoogleDriveBackupService, error) {
	driveService, err := newDriveService(ctx, params.CredentialsPath)
	if err != nil {
		return nil, err
	}

	rootFolderQuery := fmt.Sprintf("mimeType = 'application/vnd.google-apps.folder' and trashed = false and name = '%s'", rootBackupsFolderName)
	backupsFolder, err := driveService.
		Files.List().
		Q(rootFolderQuery).
		Fields("files(id, name)").
		Do()
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve files: %w", err)
	}

	backupsFolderId := ""
	if len(backupsFolder.Files) == 1 {
		rbf := backupsFolder.Files[0]
		log.Printf("root backups folder found, %s: %s", rbf.Name, rbf.Id)
		backupsFolderId = rbf.Id
	} else if len(backupsFolder.Files) == 0 {
		log.Println("root backups folder not found, will recreate")
	} else {
		rbf := backupsFolder.Files[0]
		log.Printf("attention: found %d root backups folders, will take the first one: %s", len(backupsFolder.Files), rbf.Id)
		backupsFolderId = rbf.Id
	}

	s := &GoogleDriveBackupService{
		sessions:              params.Sessions,
		service:               driveService,
		retentionCount:        params.RetentionCount,
		shareWithEmail:        params.ShareWithEmail,
		metricsSocketDir:      params.MetricsSocketDir,
		metricsSocketFileName: params.MetricsSocketFileName,
	}

	if backupsFolderId == "" {
		backupsFolderId, err = s.createRootBackupsFolder()
		if err != nil {
			return nil, fmt.Errorf("failed to create root backups folder: %w", err)
		}
		log.Printf("new root backups folder created: %s", backupsFolderId)
	} else {
		log.Printf("found backups folder ID: %s", backupsFolderId)
	}

	s.backupsFolderId = backupsFolderId

	return s, nil
}

func newDriveService(ctx context.Context, credentialsPath string) (*drive.Service, error) {
	// https://github.com/googleapis/google-api-go-client/blob/master/drive/v3/drive-gen.go
	transport, err := htransport.NewTransport(
		ctx,
		otelhttp.NewTransport(http.DefaultTransport),
		option.WithCredentialsFile(credentialsPath),
		option.WithScopes(drive.DriveScope),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to create drive transport: %w", err)
	}

	driveService, err := drive.NewService(ctx, option.WithHTTPClient(&http.Client{Transport: transport}))
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve drive client: %w", err)
	}

	return driveService, nil
}

func (s *GoogleDriveBackupService) Reinit(ctx context.Context, baseTime time.Time) error {
	log.Println("gymstats sessions backup reinit starting ...")

	err := s.service.Files.
		Delete(s.backupsFolderId).
		Do()
	if err != nil {
		return err
	}

	backupsFolderId, err := s.createRootBackupsFolder()
	if err != nil {
		return fmt.Errorf("failed to create root backups folder: %w", err)
	}

	log.Printf("new root backups folder created: %s", backupsFolderId)

	s.backupsFolderId = backupsFolderId

	return s.DoBackup(ctx, baseTime)
}

func (s *GoogleDriveBackupService) DoBackup(ctx context.Context, baseTime time.Time) error {
	beginTimestamp := time.Now()

	currentAllBackupFiles, err := s.getSessionsBackupFiles(s.backupsFolderId)
	if err != nil {
		return err
	}

	if len(currentAllBackupFiles) == 0 {
		log.Println("backups empty, creating initial backup file ...")
		backedUp, err := s.createInitialBackupFile(ctx, baseTime)
		if err != nil {
			return err
		}
		log.Println("initial backup files created!")
		s.reportBackupStats(beginTimestamp, backedUp)
		return nil
	}

	log.Println("current backup files:")
	lastCreatedAt := time.Time{}
	for _, file := range currentAllBackupFiles {
		createdAt, err := time.Parse(time.RFC3339, file.CreatedTime)
		if err != nil {
			log.Printf(" ---> error parsing created at for file %s: %s", file.Name, err)
			continue
		}
		log.Printf(" -- [%v]: %s (%s)\n", createdAt, file.Name, file.Id)

		if createdAt.After(lastCreatedAt) {
			lastCreatedAt = createdAt
		}
	}

	sessionsToBackup, err := s.sessions.ListAll(ctx, training.SessionParams{
		From: &lastCreatedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to get next backup sessions: %w", err)
	}

	if len(sessionsToBackup) == 0 {
		log.Println("no new gymstats sessions to backup, done")
		return nil
	}

	log.Printf(" ---- backing up %d gymstats sessions since %v", len(sessionsToBackup), lastCreatedAt)

	baseFileName := fmt.Sprintf("gymstats-sessions-%d-%d-%d", baseTime.Day(), baseTime.Month(), baseTime.Year())
	nextBackupFileName := baseFileName
	runCounter := 1
	for {
		nameTaken := false
		for _, file := range currentAllBackupFiles {
			if strings.HasPrefix(file.Name, nextBackupFileName+"_") {
				nameTaken = true
				break
			}
		}
		if !nameTaken {
			break
		}
		runCounter++
		nextBackupFileName = fmt.Sprintf("%s-run%d", baseFileName, runCounter)
	}

	if err := s.backupSessions(sessionsToBackup, nextBackupFileName); err != nil {
		return fmt.Errorf("failed to backup sessions: %w", err)
	}

	log.Printf("next backup since %v successfully saved: %s", lastCreatedAt, nextBackupFileName)

	if err := s.pruneOldBackups(); err != nil {
		return fmt.Errorf("failed to prune old backups: %w", err)
	}

	s.reportBackupStats(beginTimestamp, len(sessionsToBackup))

	return nil
}

func (s *GoogleDriveBackupService) createRootBackupsFolder() (string, error) {
	backupsFolderMeta := &drive.File{
		Name:     rootBackupsFolderName,
		MimeType: "application/vnd.google-apps.folder",
	}

	bfRes, err := s.service.
		Files.Create(backupsFolderMeta).
		Fields("id").
		Do()
	if err != nil {
		return "", err
	}

	if pId, err := s.updateFilePermission(bfRes.Id); err != nil {
		return bfRes.Id, fmt.Errorf("failed to create additional permission for root backup folder: %s", err)
	} else if pId != "" {
		log.Printf("permission %s created for root backup folder %s", pId, bfRes.Id)
	}

	return bfRes.Id, nil
}

// createInitialBackupFile exports all sessions present in the database and
// returns the number of backed up sessions.
func (s *GoogleDriveBackupService) createInitialBackupFile(ctx context.Context, baseTime time.Time) (int, error) {
	sessions, err := s.sessions.ListAll(ctx, training.SessionParams{})
	if err != nil {
		return 0, fmt.Errorf("failed to get gymstats sessions from db: %w", err)
	}

	log.Printf("initial backup of %d sessions starting ...", len(sessions))

	baseFileName := fmt.Sprintf("initial-%d-%d-%d", baseTime.Day(), baseTime.Month(), baseTime.Year())
	if err := s.backupSessions(sessions, baseFileName); err != nil {
		return 0, fmt.Errorf("failed to backup sessions: %w", err)
	}

	return len(sessions), nil
}

func (s *GoogleDriveBackupService) backupSessions(sessions []training.Session, baseFileName string) error {
	chunks := len(sessions) / sessionsFileChunkSize
	fromIndex, toIndex := 0, sessionsFileChunkSize
	if len(sessions)%sessionsFileChunkSize > 0 {
		chunks++
	}

	if len(sessions) < sessionsFileChunkSize {
		toIndex = len(sessions)
	}

	for i := 1; i <= chunks; i++ {
		nextFileName := fmt.Sprintf("%s_%d.json.gz", baseFileName, i)
		nextSessions := sessions[fromIndex:toIndex]

		log.Printf("%s: create backup file with %d gymstats sessions [from %d to %d] ...", nextFileName, len(nextSessions), fromIndex, toIndex)

		nextSessionsJson, err := json.Marshal(nextSessions)
		if err != nil {
			return fmt.Errorf("%s failed to marshal gymstats sessions: %w", nextFileName, err)
		}

		var gzippedSessions bytes.Buffer
		gzWriter := gzip.NewWriter(&gzippedSessions)
		if _, err := gzWriter.Write(nextSessionsJson); err != nil {
			return fmt.Errorf("%s: failed to gzip sessions: %w", nextFileName, err)
		}
		if err := gzWriter.Close(); err != nil {
			return fmt.Errorf("%s: failed to close gzip writer: %w", nextFileName, err)
		}

		log.Printf("%s: creating file on google drive ...", nextFileName)
		fileMeta := &drive.File{
			Name: nextFileName,
			// https://developers.google.com/drive/api/v3/mime-types
			MimeType: "application/gzip",
			Parents:  []string{s.backupsFolderId},
		}

		nextBackupChunkFile, err := s.service.
			Files.Create(fileMeta).
			Fields("id, parents").
			Media(bytes.NewReader(gzippedSessions.Bytes())).
			Do()
		if err != nil {
			return fmt.Errorf("%s: failed to create sessions backups file: %w", nextFileName, err)
		}

		permissionId, err := s.updateFilePermission(nextBackupChunkFile.Id)
		if err != nil {
			return fmt.Errorf("%s: failed to create additional permission: %s", nextFileName, err)
		}

		log.Printf("%s: backup file [%s] [permission %s] saved: %s", nextFileName, fileMeta.Name, permissionId, nextBackupChunkFile.Id)

		fromIndex = toIndex
		toIndex = toIndex + sessionsFileChunkSize
		if toIndex >= len(sessions) {
			toIndex = len(sessions)
		}
	}

	return nil
}

// pruneOldBackups keeps the configured number of most recent backup files and
// deletes the rest.
func (s *GoogleDriveBackupService) pruneOldBackups() error {
	if s.retentionCount <= 0 {
		return nil
	}

	backupFiles, err := s.getSessionsBackupFiles(s.backupsFolderId)
	if err != nil {
		return err
	}

	if len(backupFiles) <= s.retentionCount {
		return nil
	}

	sort.Slice(backupFiles, func(i, j int) bool {
		return backupFiles[i].CreatedTime < backupFiles[j].CreatedTime
	})

	toDelete := backupFiles[:len(backupFiles)-s.retentionCount]
	log.Printf("pruning %d old backup files, retention count is %d", len(toDelete), s.retentionCount)

	for _, file := range toDelete {
		if err := s.service.Files.Delete(file.Id).Do(); err != nil {
			return fmt.Errorf("failed to delete old backup file %s: %w", file.Name, err)
		}
		log.Printf(" -- pruned: %s (%s)", file.Name, file.Id)
	}

	return nil
}

func (s *GoogleDriveBackupService) updateFilePermission(fileId string) (string, error) {
	if s.shareWithEmail == "" {
		return "", nil
	}

	permission := &drive.Permission{
		EmailAddress: s.shareWithEmail,
		Type:         "user",
		Role:         "reader",
	}

	createdPermission, err := s.service.Permissions.
		Create(fileId, permission).
		Do()
	if err != nil {
		return "", err
	}

	return createdPermission.Id, nil
}

func (s *GoogleDriveBackupService) getSessionsBackupFiles(backupsFolderId string) ([]*drive.File, error) {
	backupsQuery := fmt.Sprintf("'%s' in parents and mimeType != 'application/vnd.google-apps.folder' and trashed = false", backupsFolderId)
	backups, err := s.service.
		Files.List().
		Q(backupsQuery).
		Fields("files(id, name, createdTime)").
		Do()
	if err != nil {
		return nil, err
	}

	return backups.Files, nil
}

func (s *GoogleDriveBackupService) reportBackupStats(beginTimestamp time.Time, sessionsCount int) {
	if s.metricsSocketDir == "" || s.metricsSocketFileName == "" {
		return
	}
	trySendMetrics(beginTimestamp, sessionsCount, s.metricsSocketDir, s.metricsSocketFileName)
}

// trySendMetrics reports the backup stats to the main service over its unix
// socket, so they end up in Prometheus without a push gateway in between.
// Failures are logged and swallowed, a backup without metrics is still a backup.
func trySendMetrics(beginTimestamp time.Time, sessionsCount int, socketAddrDir, socketFileName string) {
	socket := filepath.Join(socketAddrDir, socketFileName)
	conn, err := net.DialTimeout("unix", socket, 10*time.Second)
	if err != nil {
		log.Printf("failed to dial main service unix socket %s: %s", socket, err)
		return
	}
	defer func() { _ = conn.Close() }()

	if err := conn.SetDeadline(time.Now().Add(10 * time.Second)); err != nil {
		log.Printf("failed to set unix socket conn deadline: %s", err)
		return
	}

	duration := time.Since(beginTimestamp).Seconds()
	message := fmt.Sprintf("sessions-count::%d||duration::%f", sessionsCount, duration)
	if _, err := conn.Write([]byte(message)); err != nil {
		log.Printf("failed to send backup stats: %s", err)
		return
	}

	buf := make([]byte, 64)
	n, err := conn.Read(buf)
	if err != nil {
		log.Printf("failed to read backup stats response: %s", err)
		return
	}

	if response := pkg.BytesToString(buf[:n]); response != "ok" {
		log.Printf("unexpected backup stats response: %s", response)
		return
	}

	log.Printf("backup stats sent: %s", message)
}

// DestroyAllFiles removes all files visible to the service account, the root
// backups folder included. Files.List returns at most 100 files per call, so
// it might need more than one run.
func DestroyAllFiles(ctx context.Context, credentialsPath string) error {
	driveService, err := newDriveService(ctx, credentialsPath)
	if err != nil {
		return err
	}

	root, err := driveService.
		Files.List().
		Fields("files(id, name)").
		Do()
	if err != nil {
		return fmt.Errorf("unable to retrieve files: %w", err)
	}

	if len(root.Files) == 0 {
		log.Println("no files found, nothing to destroy")
		return nil
	}

	for _, file := range root.Files {
		if err := driveService.Files.Delete(file.Id).Do(); err != nil {
			return fmt.Errorf("failed to delete file %s (%s): %w", file.Name, file.Id, err)
		}
		log.Printf(" -- destroyed: %s (%s)", file.Name, file.Id)
	}

	return nil
}
