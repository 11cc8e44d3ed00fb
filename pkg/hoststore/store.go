// Package hoststore keeps the web server configuration PHP is registered
// with in SQLite and serves it as a phpconfig.HostConfig.
package hoststore

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/thesabbir/phpmanager/pkg/db"
	"github.com/thesabbir/phpmanager/pkg/logger"
	"github.com/thesabbir/phpmanager/pkg/phpconfig"
	"github.com/thesabbir/phpmanager/pkg/util"
)

const (
	// FeatureFastCgi is the feature row recording that FastCGI is installed
	FeatureFastCgi = "FastCgi"

	// DefaultHandlerName is the name given to handlers created by Register
	DefaultHandlerName = "PHP_via_FastCGI"

	// DefaultInstanceMaxRequests is the value new applications start with
	DefaultInstanceMaxRequests = 200
)

// Store implements phpconfig.HostConfig for one site path.
//
// Objects handed out by the getters are cached; CommitChanges writes their
// current state back in a single database transaction.
type Store struct {
	db       *gorm.DB
	sitePath string

	handlerRow *db.HandlerMapping
	handler    *phpconfig.Handler

	appRow *db.FastCgiApplication
	app    *phpconfig.FastCgiApplication

	docs *phpconfig.DefaultDocumentList
}

// New returns a store managing sitePath. An empty path means server level.
func New(gdb *gorm.DB, sitePath string) *Store {
	return &Store{db: gdb, sitePath: normalizeSitePath(sitePath)}
}

func normalizeSitePath(p string) string {
	p = strings.TrimSpace(strings.ReplaceAll(p, `\`, "/"))
	p = strings.TrimRight(p, "/")
	if p == "" {
		return db.ServerPath
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}

// SitePath returns the managed site path
func (s *Store) SitePath() string {
	return s.sitePath
}

// IsServerLevelPath reports whether the store manages the server root
func (s *Store) IsServerLevelPath() bool {
	return s.sitePath == db.ServerPath
}

// FastCgiInstalled reports whether the FastCGI feature row is set
func (s *Store) FastCgiInstalled() (bool, error) {
	var feature db.Feature
	err := s.db.Where("name = ?", FeatureFastCgi).First(&feature).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read feature: %w", err)
	}
	return feature.Installed, nil
}

// SetFastCgiInstalled records whether the FastCGI feature is available
func (s *Store) SetFastCgiInstalled(installed bool) error {
	feature := db.Feature{Name: FeatureFastCgi, Installed: installed}
	if err := s.db.Save(&feature).Error; err != nil {
		return fmt.Errorf("failed to save feature: %w", err)
	}
	return nil
}

// GetActiveHandler returns the first handler mapping for path defined at the
// site path, falling back to the server level mappings it inherits.
func (s *Store) GetActiveHandler(path string) (*phpconfig.Handler, error) {
	if s.handler != nil && strings.EqualFold(s.handler.Path, path) {
		return s.handler, nil
	}

	row, err := s.findHandler(s.sitePath, path)
	if err != nil {
		return nil, err
	}
	if row == nil && !s.IsServerLevelPath() {
		if row, err = s.findHandler(db.ServerPath, path); err != nil {
			return nil, err
		}
	}
	if row == nil {
		return nil, nil
	}

	s.handlerRow = row
	s.handler = &phpconfig.Handler{
		Name:            row.Name,
		Path:            row.Path,
		Modules:         row.Modules,
		ScriptProcessor: row.ScriptProcessor,
		ResourceType:    phpconfig.ResourceType(row.ResourceType),
	}
	return s.handler, nil
}

func (s *Store) findHandler(sitePath, path string) (*db.HandlerMapping, error) {
	var row db.HandlerMapping
	err := s.db.Where("site_path = ? AND lower(path) = lower(?)", sitePath, path).
		Order("position ASC").Order("id ASC").
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read handler mapping: %w", err)
	}
	return &row, nil
}

// GetFastCgiApplication returns the application for executable and
// arguments. Executables compare as Windows paths.
func (s *Store) GetFastCgiApplication(executable, arguments string) (*phpconfig.FastCgiApplication, error) {
	if s.app != nil && util.SamePath(s.app.FullPath, executable) && s.app.Arguments == arguments {
		return s.app, nil
	}

	row, err := findApplication(s.db, executable, arguments)
	if err != nil || row == nil {
		return nil, err
	}

	app := &phpconfig.FastCgiApplication{
		FullPath:            row.FullPath,
		Arguments:           row.Arguments,
		InstanceMaxRequests: row.InstanceMaxRequests,
		MonitorChangesTo:    row.MonitorChangesTo,
		MonitorSupported:    row.MonitorSupported,
	}
	for _, v := range row.EnvironmentVars {
		app.EnvironmentVariables = append(app.EnvironmentVariables, &phpconfig.EnvironmentVariable{
			Name:  v.Name,
			Value: v.Value,
		})
	}

	s.appRow = row
	s.app = app
	return app, nil
}

func findApplication(gdb *gorm.DB, executable, arguments string) (*db.FastCgiApplication, error) {
	var rows []db.FastCgiApplication
	err := gdb.Where("arguments = ?", arguments).
		Preload("EnvironmentVars", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("position ASC").Order("id ASC")
		}).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to read fastcgi applications: %w", err)
	}

	for i := range rows {
		if util.SamePath(rows[i].FullPath, executable) {
			return &rows[i], nil
		}
	}
	return nil, nil
}

// GetDefaultDocumentList returns the documents defined at the site path.
// When none are, the server level list is returned as inherited entries.
func (s *Store) GetDefaultDocumentList() (*phpconfig.DefaultDocumentList, error) {
	if s.docs != nil {
		return s.docs, nil
	}

	rows, err := s.listDocuments(s.sitePath)
	if err != nil {
		return nil, err
	}

	local := true
	if len(rows) == 0 && !s.IsServerLevelPath() {
		if rows, err = s.listDocuments(db.ServerPath); err != nil {
			return nil, err
		}
		local = false
	}

	list := &phpconfig.DefaultDocumentList{}
	for _, row := range rows {
		list.Files = append(list.Files, &phpconfig.DefaultDocument{Value: row.Value, Local: local})
	}

	s.docs = list
	return list, nil
}

func (s *Store) listDocuments(sitePath string) ([]db.DefaultDocument, error) {
	var rows []db.DefaultDocument
	if err := s.db.Where("site_path = ?", sitePath).Order("position ASC").Order("id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to read default documents: %w", err)
	}
	return rows, nil
}

// CommitChanges persists the cached objects
func (s *Store) CommitChanges() error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.commitHandler(tx); err != nil {
			return err
		}
		if err := s.commitApplication(tx); err != nil {
			return err
		}
		return s.commitDocuments(tx)
	})
	if err != nil {
		return fmt.Errorf("failed to commit host configuration: %w", err)
	}

	logger.Debug("Host configuration committed", "site_path", s.sitePath)
	return nil
}

func (s *Store) commitHandler(tx *gorm.DB) error {
	if s.handler == nil {
		return nil
	}

	row := s.handlerRow
	if !handlerChanged(row, s.handler) {
		return nil
	}

	row.Name = s.handler.Name
	row.Modules = s.handler.Modules
	row.ScriptProcessor = s.handler.ScriptProcessor
	row.ResourceType = string(s.handler.ResourceType)

	// An inherited mapping changed at a site becomes a local override
	if row.SitePath != s.sitePath {
		override := *row
		override.ID = 0
		override.SitePath = s.sitePath
		override.Position = 0
		if err := tx.Create(&override).Error; err != nil {
			return err
		}
		s.handlerRow = &override
		return nil
	}

	return tx.Save(row).Error
}

// handlerChanged reports whether h differs from the row it was read from
func handlerChanged(row *db.HandlerMapping, h *phpconfig.Handler) bool {
	return row.Name != h.Name ||
		row.Modules != h.Modules ||
		row.ScriptProcessor != h.ScriptProcessor ||
		row.ResourceType != string(h.ResourceType)
}

func (s *Store) commitApplication(tx *gorm.DB) error {
	if s.app == nil {
		return nil
	}

	row := s.appRow
	row.InstanceMaxRequests = s.app.InstanceMaxRequests
	row.MonitorChangesTo = s.app.MonitorChangesTo
	row.MonitorSupported = s.app.MonitorSupported

	if err := tx.Omit("EnvironmentVars").Save(row).Error; err != nil {
		return err
	}

	if err := tx.Where("application_id = ?", row.ID).Delete(&db.EnvironmentVariable{}).Error; err != nil {
		return err
	}

	vars := make([]db.EnvironmentVariable, 0, len(s.app.EnvironmentVariables))
	for i, v := range s.app.EnvironmentVariables {
		vars = append(vars, db.EnvironmentVariable{
			ApplicationID: row.ID,
			Name:          v.Name,
			Value:         v.Value,
			Position:      i,
		})
	}
	if len(vars) > 0 {
		if err := tx.Create(&vars).Error; err != nil {
			return err
		}
	}
	row.EnvironmentVars = vars
	return nil
}

func (s *Store) commitDocuments(tx *gorm.DB) error {
	if s.docs == nil {
		return nil
	}

	if err := tx.Where("site_path = ?", s.sitePath).Delete(&db.DefaultDocument{}).Error; err != nil {
		return err
	}

	var rows []db.DefaultDocument
	for _, f := range s.docs.Files {
		if !f.Local && !s.IsServerLevelPath() {
			continue
		}
		rows = append(rows, db.DefaultDocument{SitePath: s.sitePath, Value: f.Value, Position: len(rows)})
	}
	if len(rows) == 0 {
		return nil
	}
	return tx.Create(&rows).Error
}

// Reset drops the cached objects so the next getters read fresh rows
func (s *Store) Reset() {
	s.handlerRow, s.handler = nil, nil
	s.appRow, s.app = nil, nil
	s.docs = nil
}
