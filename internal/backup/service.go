package backup

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/rcoutinho/pdvgo/internal/backend"
	"github.com/rcoutinho/pdvgo/internal/session"
	"github.com/rcoutinho/pdvgo/pkg/enums"
	pkgerrors "github.com/rcoutinho/pdvgo/pkg/errors"
	"github.com/rcoutinho/pdvgo/pkg/logger"
)

type api interface {
	BackupStatsSummary(ctx context.Context) (*backend.BackupStats, error)
	ListBackups(ctx context.Context) ([]backend.BackupFile, error)
	CreateBackup(ctx context.Context) error
	DeleteBackup(ctx context.Context, filename string) error
	DownloadBackup(ctx context.Context, filename string, dst io.Writer) error
	RestoreBackup(ctx context.Context, filename string, archive io.Reader) error
}

type sessions interface {
	Snapshot() session.Snapshot
}

// Service backs the backup administration screen. Every operation is admin
// only. A successful restore replaces the backend database wholesale, so
// the terminal's session and caches are void afterwards; onReset tears them
// down and forces a fresh login.
type Service struct {
	api      api
	sessions sessions
	log      *logger.Logger
	onReset  func(ctx context.Context)
}

// NewService wires the backup operations. onReset may be nil in tests.
func NewService(api api, sessions sessions, log *logger.Logger, onReset func(ctx context.Context)) (*Service, error) {
	if api == nil {
		return nil, fmt.Errorf("backup api required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session source required")
	}
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Service{api: api, sessions: sessions, log: log, onReset: onReset}, nil
}

func (s *Service) requireAdmin() error {
	snap := s.sessions.Snapshot()
	if !snap.Authenticated() || snap.Credentials.Role != enums.RoleAdmin {
		return pkgerrors.New(pkgerrors.CodeForbidden, "backup administration requires admin access")
	}
	return nil
}

func checkFilename(filename string) error {
	if filename == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "backup filename required")
	}
	if strings.ContainsAny(filename, "/\\") || strings.Contains(filename, "..") {
		return pkgerrors.New(pkgerrors.CodeValidation, "backup filename cannot contain path separators")
	}
	return nil
}

// Stats fetches the database row counts and last backup time.
func (s *Service) Stats(ctx context.Context) (*backend.BackupStats, error) {
	if err := s.requireAdmin(); err != nil {
		return nil, err
	}
	return s.api.BackupStatsSummary(ctx)
}

// List fetches the server-side archives.
func (s *Service) List(ctx context.Context) ([]backend.BackupFile, error) {
	if err := s.requireAdmin(); err != nil {
		return nil, err
	}
	return s.api.ListBackups(ctx)
}

// Create asks the server to snapshot its database now.
func (s *Service) Create(ctx context.Context) error {
	if err := s.requireAdmin(); err != nil {
		return err
	}
	if err := s.api.CreateBackup(ctx); err != nil {
		return err
	}
	s.log.Info(ctx, "backup created")
	return nil
}

// Delete removes a server-side archive. Deletion is permanent, so callers
// must pass explicit confirmation.
func (s *Service) Delete(ctx context.Context, filename string, confirmed bool) error {
	if err := s.requireAdmin(); err != nil {
		return err
	}
	if err := checkFilename(filename); err != nil {
		return err
	}
	if !confirmed {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "deleting a backup requires confirmation")
	}
	if err := s.api.DeleteBackup(ctx, filename); err != nil {
		return err
	}
	s.log.Info(s.log.WithField(ctx, "filename", filename), "backup deleted")
	return nil
}

// Download streams an archive into dst, typically a local file.
func (s *Service) Download(ctx context.Context, filename string, dst io.Writer) error {
	if err := s.requireAdmin(); err != nil {
		return err
	}
	if err := checkFilename(filename); err != nil {
		return err
	}
	return s.api.DownloadBackup(ctx, filename, dst)
}

// Restore uploads an archive and replaces the backend database. On success
// the terminal state is reset: every cached snapshot and the current
// credential refer to a database that no longer exists.
func (s *Service) Restore(ctx context.Context, filename string, archive io.Reader, confirmed bool) error {
	if err := s.requireAdmin(); err != nil {
		return err
	}
	if err := checkFilename(filename); err != nil {
		return err
	}
	if archive == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "archive required")
	}
	if !confirmed {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "restoring a backup requires confirmation")
	}

	if err := s.api.RestoreBackup(ctx, filename, archive); err != nil {
		return err
	}
	s.log.Warn(s.log.WithField(ctx, "filename", filename), "backend database restored, resetting terminal state")
	if s.onReset != nil {
		s.onReset(ctx)
	}
	return nil
}
