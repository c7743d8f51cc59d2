// Package reliability implements the optional nightly ledger backup, carrying
// forward the teacher's Cloudflare-R2 backup pattern
// (internal/reliability/r2_backup_service.go) onto AWS SDK v2's S3 client
// directly: a single SQLite ledger file archived, checksummed, and uploaded,
// with old backups rotated out on a retention window.
package reliability

import (
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
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

// S3Client wraps an S3 bucket for ledger backup upload/list/delete, grounded
// on the teacher's R2Client usage in r2_backup_service.go (NewR2Client takes
// account credentials and a bucket name; Upload/List/Delete are its surface).
type S3Client struct {
	client   *s3.Client
	uploader *manager.Uploader
	bucket   string
	log      zerolog.Logger
}

// NewS3Client builds an S3Client from explicit static credentials when given,
// falling back to the default AWS credential chain (env vars, shared config,
// instance role) otherwise — the teacher always takes explicit R2 keys since
// Cloudflare R2 has no ambient credential chain; S3 does, so we support both.
func NewS3Client(ctx context.Context, region, bucket, accessKeyID, secretAccessKey string, log zerolog.Logger) (*S3Client, error) {
	var optFns []func(*awsconfig.LoadOptions) error
	optFns = append(optFns, awsconfig.WithRegion(region))
	if accessKeyID != "" && secretAccessKey != "" {
		optFns = append(optFns, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKeyID, secretAccessKey, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg)
	return &S3Client{
		client:   client,
		uploader: manager.NewUploader(client),
		bucket:   bucket,
		log:      log.With().Str("component", "s3_backup").Logger(),
	}, nil
}

// Upload streams r to the bucket under key.
func (c *S3Client) Upload(ctx context.Context, key string, r io.Reader) error {
	_, err := c.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
		Body:   r,
	})
	return err
}

// objectInfo is the subset of s3.Object this package cares about.
type objectInfo struct {
	Key  string
	Size int64
}

// List returns every object in the bucket whose key has the given prefix.
func (c *S3Client) List(ctx context.Context, prefix string) ([]objectInfo, error) {
	var out []objectInfo
	paginator := s3.NewListObjectsV2Paginator(c.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(c.bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, obj := range page.Contents {
			if obj.Key == nil {
				continue
			}
			var size int64
			if obj.Size != nil {
				size = *obj.Size
			}
			out = append(out, objectInfo{Key: *obj.Key, Size: size})
		}
	}
	return out, nil
}

// Delete removes a single object from the bucket.
func (c *S3Client) Delete(ctx context.Context, key string) error {
	_, err := c.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	return err
}

// BackupMetadata mirrors the teacher's backup-metadata.json shape, scoped
// down to the single ledger database this agent maintains.
type BackupMetadata struct {
	Timestamp time.Time `json:"timestamp"`
	DBPath    string    `json:"db_path"`
	SizeBytes int64     `json:"size_bytes"`
	Checksum  string    `json:"checksum"`
}

// BackupInfo describes one archived backup found in the bucket.
type BackupInfo struct {
	Key       string
	Timestamp time.Time
	SizeBytes int64
}

// LedgerBackupService archives and uploads the ledger SQLite file on demand,
// and rotates old archives out of the bucket on a retention schedule.
type LedgerBackupService struct {
	s3      *S3Client
	dbPath  string
	stageDir string
	log     zerolog.Logger
}

func NewLedgerBackupService(s3Client *S3Client, dbPath, stageDir string, log zerolog.Logger) *LedgerBackupService {
	return &LedgerBackupService{
		s3:       s3Client,
		dbPath:   dbPath,
		stageDir: stageDir,
		log:      log.With().Str("service", "ledger_backup").Logger(),
	}
}

// CreateAndUpload snapshots the ledger file (via SQLite's own backup API
// surface — here a plain file copy, since the ledger profile already runs
// WAL with full sync and the sqlite driver flushes on every transaction
// commit), gzips it, and uploads it under a timestamped key.
func (s *LedgerBackupService) CreateAndUpload(ctx context.Context) error {
	s.log.Info().Msg("starting ledger backup")
	start := time.Now()

	if err := os.MkdirAll(s.stageDir, 0o755); err != nil {
		return fmt.Errorf("creating backup staging dir: %w", err)
	}
	defer os.RemoveAll(s.stageDir)

	snapshotPath := filepath.Join(s.stageDir, "ledger.db")
	if err := copyFile(s.dbPath, snapshotPath); err != nil {
		return fmt.Errorf("snapshotting ledger db: %w", err)
	}

	info, err := os.Stat(snapshotPath)
	if err != nil {
		return fmt.Errorf("stat snapshot: %w", err)
	}
	checksum, err := checksumFile(snapshotPath)
	if err != nil {
		return fmt.Errorf("checksumming snapshot: %w", err)
	}

	meta := BackupMetadata{
		Timestamp: time.Now().UTC(),
		DBPath:    s.dbPath,
		SizeBytes: info.Size(),
		Checksum:  checksum,
	}
	metaBytes, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling backup metadata: %w", err)
	}

	timestamp := time.Now().Format("2006-01-02-150405")
	archiveKey := fmt.Sprintf("sentinel-ledger-%s.db.gz", timestamp)
	metaKey := fmt.Sprintf("sentinel-ledger-%s.json", timestamp)

	gzPath := filepath.Join(s.stageDir, "ledger.db.gz")
	if err := gzipFile(snapshotPath, gzPath); err != nil {
		return fmt.Errorf("compressing snapshot: %w", err)
	}

	archiveFile, err := os.Open(gzPath)
	if err != nil {
		return fmt.Errorf("opening archive: %w", err)
	}
	defer archiveFile.Close()

	if err := s.s3.Upload(ctx, archiveKey, archiveFile); err != nil {
		return fmt.Errorf("uploading archive: %w", err)
	}
	if err := s.s3.Upload(ctx, metaKey, strings.NewReader(string(metaBytes))); err != nil {
		return fmt.Errorf("uploading metadata: %w", err)
	}

	s.log.Info().
		Dur("duration_ms", time.Since(start)).
		Str("key", archiveKey).
		Int64("size_bytes", info.Size()).
		Msg("ledger backup completed")
	return nil
}

// Rotate deletes archives older than retentionDays, always keeping at least
// the 3 most recent regardless of age, mirroring the teacher's
// RotateOldBackups floor.
func (s *LedgerBackupService) Rotate(ctx context.Context, retentionDays int) error {
	objects, err := s.s3.List(ctx, "sentinel-ledger-")
	if err != nil {
		return fmt.Errorf("listing backups: %w", err)
	}

	var backups []BackupInfo
	for _, obj := range objects {
		if !strings.HasSuffix(obj.Key, ".db.gz") {
			continue
		}
		ts := strings.TrimSuffix(strings.TrimPrefix(obj.Key, "sentinel-ledger-"), ".db.gz")
		parsed, err := time.Parse("2006-01-02-150405", ts)
		if err != nil {
			continue
		}
		backups = append(backups, BackupInfo{Key: obj.Key, Timestamp: parsed, SizeBytes: obj.Size})
	}

	sort.Slice(backups, func(i, j int) bool { return backups[i].Timestamp.After(backups[j].Timestamp) })

	const minKeep = 3
	if len(backups) <= minKeep || retentionDays <= 0 {
		return nil
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	deleted := 0
	for i, b := range backups {
		if i < minKeep || !b.Timestamp.Before(cutoff) {
			continue
		}
		if err := s.s3.Delete(ctx, b.Key); err != nil {
			s.log.Warn().Err(err).Str("key", b.Key).Msg("failed to delete old backup")
			continue
		}
		deleted++
	}
	s.log.Info().Int("deleted", deleted).Int("remaining", len(backups)-deleted).Msg("ledger backup rotation complete")
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()
	_, err = io.Copy(out, in)
	return err
}

func gzipFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()
	gw := gzip.NewWriter(out)
	defer gw.Close()
	_, err = io.Copy(gw, in)
	return err
}

func checksumFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return fmt.Sprintf("sha256:%x", h.Sum(nil)), nil
}
