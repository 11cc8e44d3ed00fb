package hoststore

import (
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/thesabbir/phpmanager/pkg/db"
	"github.com/thesabbir/phpmanager/pkg/logger"
	"github.com/thesabbir/phpmanager/pkg/phpconfig"
	"github.com/thesabbir/phpmanager/pkg/util"
)

// Register makes executable the FastCGI handler for *.php at the site path.
// The application is created when missing and the new handler mapping is
// placed ahead of every existing mapping at that path.
func (s *Store) Register(executable, arguments string) error {
	if !util.IsAbsPath(executable) {
		return &phpconfig.ArgumentError{Name: "executable", Value: executable, Reason: "must be an absolute path"}
	}
	arguments = strings.TrimSpace(arguments)

	scriptProcessor := executable
	if arguments != "" {
		scriptProcessor += "|" + arguments
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&db.Feature{Name: FeatureFastCgi, Installed: true}).Error; err != nil {
			return err
		}

		app, err := findApplication(tx, executable, arguments)
		if err != nil {
			return err
		}
		if app == nil {
			app = &db.FastCgiApplication{
				FullPath:            executable,
				Arguments:           arguments,
				InstanceMaxRequests: DefaultInstanceMaxRequests,
				MonitorSupported:    true,
			}
			if err := tx.Create(app).Error; err != nil {
				return err
			}
		}

		// Shift the existing mappings down and drop stale PHP ones
		if err := tx.Where("site_path = ? AND lower(path) = lower(?)", s.sitePath, phpconfig.PHPHandlerPath).
			Delete(&db.HandlerMapping{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&db.HandlerMapping{}).Where("site_path = ?", s.sitePath).
			Update("position", gorm.Expr("position + 1")).Error; err != nil {
			return err
		}

		return tx.Create(&db.HandlerMapping{
			SitePath:        s.sitePath,
			Name:            DefaultHandlerName,
			Path:            phpconfig.PHPHandlerPath,
			Modules:         phpconfig.ModuleFastCgi,
			ScriptProcessor: scriptProcessor,
			ResourceType:    string(phpconfig.ResourceEither),
			Position:        0,
		}).Error
	})
	if err != nil {
		return fmt.Errorf("failed to register %s: %w", executable, err)
	}

	s.Reset()
	logger.Info("PHP registered", "executable", executable, "site_path", s.sitePath)
	return nil
}

// SetDefaultDocuments replaces the default documents defined at the site path
func (s *Store) SetDefaultDocuments(values ...string) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("site_path = ?", s.sitePath).Delete(&db.DefaultDocument{}).Error; err != nil {
			return err
		}
		if len(values) == 0 {
			return nil
		}

		rows := make([]db.DefaultDocument, 0, len(values))
		for i, v := range values {
			rows = append(rows, db.DefaultDocument{SitePath: s.sitePath, Value: v, Position: i})
		}
		return tx.Create(&rows).Error
	})
	if err != nil {
		return fmt.Errorf("failed to set default documents: %w", err)
	}

	s.docs = nil
	return nil
}
