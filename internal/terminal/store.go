package terminal

import (
	"context"
	stdErrors "errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/rcoutinho/pdvgo/pkg/enums"
	pkgerrors "github.com/rcoutinho/pdvgo/pkg/errors"
	"github.com/rcoutinho/pdvgo/pkg/logger"
)

// DefaultName seeds a terminal that has never been configured.
const DefaultName = "CAIXA-01"

// settingsRow is the single persisted row of terminal-local state. It plays
// the role of the browser's local storage: terminal identity plus the last
// issued credential, surviving restarts.
type settingsRow struct {
	ID         uint `gorm:"primaryKey"`
	TerminalID string
	Token      string
	Operator   string
	Role       string
	UpdatedAt  time.Time
}

func (settingsRow) TableName() string { return "terminal_settings" }

// Store persists terminal settings in a local SQLite file and serves them
// from memory. It implements the backend client's credential source.
type Store struct {
	mu  sync.RWMutex
	db  *gorm.DB
	log *logger.Logger
	row settingsRow
}

// OpenStore opens (creating if needed) the settings database. On first run
// the terminal id is seeded from defaultName, falling back to DefaultName.
func OpenStore(path, defaultName string, log *logger.Logger) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path required")
	}
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening settings store: %w", err)
	}
	if err := db.AutoMigrate(&settingsRow{}); err != nil {
		return nil, fmt.Errorf("migrating settings store: %w", err)
	}

	store := &Store{db: db, log: log}
	if err := store.load(defaultName); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *Store) load(defaultName string) error {
	var row settingsRow
	err := s.db.First(&row).Error
	switch {
	case err == nil:
		s.row = row
		return nil
	case stdErrors.Is(err, gorm.ErrRecordNotFound):
		name, nameErr := NormalizeName(defaultName)
		if nameErr != nil {
			name = DefaultName
		}
		row = settingsRow{TerminalID: name, UpdatedAt: time.Now()}
		if err := s.db.Create(&row).Error; err != nil {
			return fmt.Errorf("seeding settings store: %w", err)
		}
		s.row = row
		return nil
	default:
		return fmt.Errorf("loading settings store: %w", err)
	}
}

// NormalizeName validates and canonicalizes a terminal name. Names are
// stored uppercase so x-terminal-id comparisons server-side are stable.
func NormalizeName(name string) (string, error) {
	name = strings.ToUpper(strings.TrimSpace(name))
	if name == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "terminal name cannot be empty")
	}
	return name, nil
}

// TerminalID implements backend.CredentialSource.
func (s *Store) TerminalID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.row.TerminalID
}

// Token implements backend.CredentialSource.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.row.Token
}

// Operator returns the persisted operator display name.
func (s *Store) Operator() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.row.Operator
}

// Role returns the persisted role, empty when none was stored.
func (s *Store) Role() enums.Role {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return enums.Role(s.row.Role)
}

// Rename changes the terminal identity. Refused while the till is open:
// cashier sessions are keyed by terminal id and renaming mid-session would
// orphan the open session.
func (s *Store) Rename(ctx context.Context, name string, tillOpen bool) error {
	normalized, err := NormalizeName(name)
	if err != nil {
		return err
	}
	if tillOpen {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "terminal rename requires a closed cashier").
			WithDetail("Feche o caixa antes de renomear o terminal.")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if normalized == s.row.TerminalID {
		return nil
	}
	previous := s.row.TerminalID
	s.row.TerminalID = normalized
	if err := s.persistLocked(); err != nil {
		s.row.TerminalID = previous
		return err
	}
	s.log.Info(s.log.WithTerminalID(ctx, normalized), "terminal renamed")
	return nil
}

// SaveCredential persists the credential issued at login.
func (s *Store) SaveCredential(ctx context.Context, token, operator string, role enums.Role) error {
	if token == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "empty access token")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.row.Token = token
	s.row.Operator = operator
	s.row.Role = role.String()
	return s.persistLocked()
}

// ClearCredential wipes the persisted credential, keeping the terminal id.
// Called on logout, session expiry, and after a backend restore.
func (s *Store) ClearCredential(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.row.Token = ""
	s.row.Operator = ""
	s.row.Role = ""
	return s.persistLocked()
}

func (s *Store) persistLocked() error {
	s.row.UpdatedAt = time.Now()
	if err := s.db.Save(&s.row).Error; err != nil {
		return fmt.Errorf("persisting settings: %w", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	db, err := s.db.DB()
	if err != nil {
		return err
	}
	return db.Close()
}
