// Package reliability provides database backups to object storage and
// periodic database maintenance.
package reliability

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	backupPrefix    = "folio-backup-"
	backupSuffix    = ".tar.gz"
	backupTimestamp = "2006-01-02-150405"
	metadataFile    = "backup-metadata.json"

	// MinBackupsToKeep survive rotation regardless of age
	MinBackupsToKeep = 3
)

// Snapshotter writes a consistent copy of a database to a file
type Snapshotter interface {
	Name() string
	SnapshotTo(ctx context.Context, destPath string) error
}

// BackupMetadata contains metadata about a backup
type BackupMetadata struct {
	Timestamp time.Time          `json:"timestamp"`
	Version   string             `json:"version"`
	Databases []DatabaseMetadata `json:"databases"`
}

// DatabaseMetadata contains metadata about a single database in the backup
type DatabaseMetadata struct {
	Name      string `json:"name"`
	Filename  string `json:"filename"`
	SizeBytes int64  `json:"size_bytes"`
	Checksum  string `json:"checksum"`
}

// BackupInfo represents information about a stored backup
type BackupInfo struct {
	Filename  string    `json:"filename"`
	Timestamp time.Time `json:"timestamp"`
	SizeBytes int64     `json:"size_bytes"`
	AgeHours  int64     `json:"age_hours"`
}

// BackupService snapshots databases into a tar.gz archive and uploads it
type BackupService struct {
	store     ObjectStore
	databases []Snapshotter
	dataDir   string
	log       zerolog.Logger
	now       func() time.Time
	mu        sync.Mutex // One backup at a time
}

// NewBackupService creates a new backup service
func NewBackupService(store ObjectStore, databases []Snapshotter, dataDir string, log zerolog.Logger) *BackupService {
	return &BackupService{
		store:     store,
		databases: databases,
		dataDir:   dataDir,
		log:       log.With().Str("service", "backup").Logger(),
		now:       time.Now,
	}
}

// CreateAndUploadBackup creates a backup archive and uploads it
func (s *BackupService) CreateAndUploadBackup(ctx context.Context) (*BackupInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.log.Info().Msg("Starting backup")
	startTime := time.Now()

	stagingDir, err := os.MkdirTemp(s.dataDir, "backup-staging-")
	if err != nil {
		return nil, fmt.Errorf("failed to create staging directory: %w", err)
	}
	defer os.RemoveAll(stagingDir)

	timestamp := s.now().UTC()
	metadata := BackupMetadata{
		Timestamp: timestamp,
		Version:   "1",
		Databases: make([]DatabaseMetadata, 0, len(s.databases)),
	}

	files := make([]string, 0, len(s.databases)+1)
	for _, db := range s.databases {
		filename := db.Name() + ".db"
		dbPath := filepath.Join(stagingDir, filename)

		if err := db.SnapshotTo(ctx, dbPath); err != nil {
			return nil, fmt.Errorf("failed to back up %s: %w", db.Name(), err)
		}

		info, err := os.Stat(dbPath)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s backup: %w", db.Name(), err)
		}

		checksum, err := calculateChecksum(dbPath)
		if err != nil {
			return nil, fmt.Errorf("failed to calculate checksum for %s: %w", db.Name(), err)
		}

		metadata.Databases = append(metadata.Databases, DatabaseMetadata{
			Name:      db.Name(),
			Filename:  filename,
			SizeBytes: info.Size(),
			Checksum:  checksum,
		})
		files = append(files, filename)
	}

	if err := writeMetadata(filepath.Join(stagingDir, metadataFile), metadata); err != nil {
		return nil, fmt.Errorf("failed to write metadata: %w", err)
	}
	files = append(files, metadataFile)

	archiveName := backupPrefix + timestamp.Format(backupTimestamp) + backupSuffix
	archivePath := filepath.Join(stagingDir, archiveName)
	if err := createArchive(archivePath, stagingDir, files); err != nil {
		return nil, fmt.Errorf("failed to create archive: %w", err)
	}

	archive, err := os.Open(archivePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	defer archive.Close()

	archiveInfo, err := archive.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat archive: %w", err)
	}

	if err := s.store.Upload(ctx, archiveName, archive); err != nil {
		return nil, err
	}

	s.log.Info().
		Dur("duration_ms", time.Since(startTime)).
		Str("archive", archiveName).
		Int64("size_bytes", archiveInfo.Size()).
		Msg("Backup completed successfully")

	return &BackupInfo{
		Filename:  archiveName,
		Timestamp: timestamp,
		SizeBytes: archiveInfo.Size(),
	}, nil
}

// ListBackups lists stored backups, newest first
func (s *BackupService) ListBackups(ctx context.Context) ([]BackupInfo, error) {
	objects, err := s.store.List(ctx, backupPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list backups: %w", err)
	}

	now := s.now()
	backups := make([]BackupInfo, 0, len(objects))
	for _, obj := range objects {
		if !strings.HasPrefix(obj.Key, backupPrefix) || !strings.HasSuffix(obj.Key, backupSuffix) {
			continue
		}

		raw := strings.TrimSuffix(strings.TrimPrefix(obj.Key, backupPrefix), backupSuffix)
		timestamp, err := time.Parse(backupTimestamp, raw)
		if err != nil {
			s.log.Warn().Str("filename", obj.Key).Msg("Failed to parse timestamp from filename")
			continue
		}

		backups = append(backups, BackupInfo{
			Filename:  obj.Key,
			Timestamp: timestamp,
			SizeBytes: obj.SizeBytes,
			AgeHours:  int64(now.Sub(timestamp).Hours()),
		})
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].Timestamp.After(backups[j].Timestamp)
	})
	return backups, nil
}

// RotateOldBackups deletes backups older than the retention period.
// The newest MinBackupsToKeep are always kept; retentionDays 0 keeps everything.
func (s *BackupService) RotateOldBackups(ctx context.Context, retentionDays int) (int, error) {
	backups, err := s.ListBackups(ctx)
	if err != nil {
		return 0, err
	}
	if retentionDays <= 0 || len(backups) <= MinBackupsToKeep {
		return 0, nil
	}

	cutoff := s.now().AddDate(0, 0, -retentionDays)
	deleted := 0
	for _, backup := range backups[MinBackupsToKeep:] {
		if !backup.Timestamp.Before(cutoff) {
			continue
		}
		if err := s.store.Delete(ctx, backup.Filename); err != nil {
			s.log.Error().Err(err).Str("filename", backup.Filename).Msg("Failed to delete old backup")
			continue
		}
		s.log.Info().Str("filename", backup.Filename).Time("timestamp", backup.Timestamp).Msg("Deleted old backup")
		deleted++
	}

	s.log.Info().Int("deleted", deleted).Int("remaining", len(backups)-deleted).Msg("Backup rotation completed")
	return deleted, nil
}

func calculateChecksum(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}
	return fmt.Sprintf("sha256:%x", hash.Sum(nil)), nil
}

func writeMetadata(path string, metadata BackupMetadata) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(metadata)
}

func createArchive(archivePath, sourceDir string, filenames []string) error {
	archiveFile, err := os.Create(archivePath)
	if err != nil {
		return fmt.Errorf("failed to create archive file: %w", err)
	}
	defer archiveFile.Close()

	gzipWriter := gzip.NewWriter(archiveFile)
	tarWriter := tar.NewWriter(gzipWriter)

	for _, filename := range filenames {
		if err := addFileToArchive(tarWriter, filepath.Join(sourceDir, filename), filename); err != nil {
			return fmt.Errorf("failed to add %s to archive: %w", filename, err)
		}
	}

	if err := tarWriter.Close(); err != nil {
		return err
	}
	return gzipWriter.Close()
}

func addFileToArchive(tarWriter *tar.Writer, filePath, nameInArchive string) error {
	file, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return err
	}

	header := &tar.Header{
		Name:    nameInArchive,
		Size:    info.Size(),
		Mode:    int64(info.Mode().Perm()),
		ModTime: info.ModTime(),
	}
	if err := tarWriter.WriteHeader(header); err != nil {
		return err
	}

	_, err = io.Copy(tarWriter, file)
	return err
}
