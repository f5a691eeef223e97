package repository

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/compozy/kustomize-deploy/internal/domain"
	"github.com/gofrs/flock"
	"github.com/spf13/afero"
)

const (
	// ReportSchemaVersion defines the current schema version for run reports
	ReportSchemaVersion = "1.0.0"
	// ReportFilePermissions defines the permissions for report files
	ReportFilePermissions = 0600
	// ReportDirPermissions defines the permissions for the report directory
	ReportDirPermissions = 0700

	latestReportName = "latest.txt"
	reportLockName   = ".reports.lock"
)

// ErrReportNotFound is returned when no report exists for a run.
var ErrReportNotFound = errors.New("run report not found")

// RunReportRepository keeps the final state of runs as JSON files.
type RunReportRepository interface {
	Save(ctx context.Context, state *domain.RunState) error
	Load(ctx context.Context, runID string) (*domain.RunState, error)
	LoadLatest(ctx context.Context) (*domain.RunState, error)
}

// ReportMetadata contains metadata about a report file
type ReportMetadata struct {
	SchemaVersion string    `json:"schema_version"`
	Checksum      string    `json:"checksum"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ReportWrapper wraps the run state with metadata
type ReportWrapper struct {
	Metadata ReportMetadata   `json:"metadata"`
	State    *domain.RunState `json:"state"`
}

type jsonRunReportRepository struct {
	fs          FileSystemRepository
	dir         string
	lockTimeout time.Duration
}

// NewJSONRunReportRepository creates a report repository rooted at dir. Like
// the credential lock, the report lock lives on the real file system.
func NewJSONRunReportRepository(fs FileSystemRepository, dir string) RunReportRepository {
	return &jsonRunReportRepository{fs: fs, dir: dir, lockTimeout: LockTimeout}
}

// Save writes the report atomically and points latest.txt at it
func (r *jsonRunReportRepository) Save(ctx context.Context, state *domain.RunState) error {
	if err := r.fs.MkdirAll(r.dir, ReportDirPermissions); err != nil {
		return fmt.Errorf("failed to ensure report directory: %w", err)
	}
	lock := flock.New(filepath.Join(r.dir, reportLockName))
	if err := acquireLock(ctx, r.lockTimeout, lock.TryLock); err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	defer func() {
		if unlockErr := lock.Unlock(); unlockErr != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to unlock report dir: %v\n", unlockErr)
		}
	}()
	stateData, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal state for checksum: %w", err)
	}
	wrapper := ReportWrapper{
		Metadata: ReportMetadata{
			SchemaVersion: ReportSchemaVersion,
			Checksum:      checksum(stateData),
			CreatedAt:     state.StartedAt,
			UpdatedAt:     time.Now(),
		},
		State: state,
	}
	data, err := json.MarshalIndent(wrapper, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	filename := r.reportFilename(state.RunID)
	if err := r.writeAtomic(filename, data); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	if err := r.writeAtomic(filepath.Join(r.dir, latestReportName), []byte(filepath.Base(filename))); err != nil {
		return fmt.Errorf("failed to update latest report: %w", err)
	}
	return nil
}

// Load reads a report and verifies its schema version and checksum
func (r *jsonRunReportRepository) Load(ctx context.Context, runID string) (*domain.RunState, error) {
	filename := r.reportFilename(runID)
	if _, err := r.fs.Stat(filename); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrReportNotFound, runID)
		}
		return nil, fmt.Errorf("failed to stat report: %w", err)
	}
	lock := flock.New(filepath.Join(r.dir, reportLockName))
	if err := acquireLock(ctx, r.lockTimeout, lock.TryRLock); err != nil {
		return nil, fmt.Errorf("failed to acquire shared lock: %w", err)
	}
	defer func() {
		if unlockErr := lock.Unlock(); unlockErr != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to unlock report dir: %v\n", unlockErr)
		}
	}()
	data, err := afero.ReadFile(r.fs, filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read report: %w", err)
	}
	var wrapper ReportWrapper
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report: %w", err)
	}
	if wrapper.Metadata.SchemaVersion != ReportSchemaVersion {
		return nil, fmt.Errorf("incompatible schema version: expected %s, got %s",
			ReportSchemaVersion, wrapper.Metadata.SchemaVersion)
	}
	stateData, err := json.Marshal(wrapper.State)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal state for checksum validation: %w", err)
	}
	if wrapper.Metadata.Checksum != checksum(stateData) {
		return nil, fmt.Errorf("report checksum mismatch: data may be corrupted")
	}
	return wrapper.State, nil
}

// LoadLatest reads the report latest.txt points at
func (r *jsonRunReportRepository) LoadLatest(ctx context.Context) (*domain.RunState, error) {
	data, err := afero.ReadFile(r.fs, filepath.Join(r.dir, latestReportName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrReportNotFound
		}
		return nil, fmt.Errorf("failed to read latest report: %w", err)
	}
	runID := runIDFromFilename(strings.TrimSpace(string(data)))
	if runID == "" {
		return nil, fmt.Errorf("invalid latest report target: %s", data)
	}
	return r.Load(ctx, runID)
}

func (r *jsonRunReportRepository) writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := afero.WriteFile(r.fs, tmp, data, ReportFilePermissions); err != nil {
		return err
	}
	if err := r.fs.Rename(tmp, path); err != nil {
		if removeErr := r.fs.Remove(tmp); removeErr != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to remove temp file: %v\n", removeErr)
		}
		return err
	}
	return nil
}

func (r *jsonRunReportRepository) reportFilename(runID string) string {
	return filepath.Join(r.dir, fmt.Sprintf("run-%s.json", runID))
}

func runIDFromFilename(name string) string {
	base := filepath.Base(name)
	if !strings.HasPrefix(base, "run-") || !strings.HasSuffix(base, ".json") {
		return ""
	}
	return strings.TrimSuffix(strings.TrimPrefix(base, "run-"), ".json")
}

// checksum returns the hex SHA-256 of data
func checksum(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
