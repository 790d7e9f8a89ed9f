// Package legacy reads the pre-rewrite local database, which kept
// restaurants, concepts and curators in separate tables. The package is
// consumed only by the migration engine and never writes.
package legacy

import (
	"fmt"
	"os"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/fieldkit/curator/internal/entities"
)

// Store is a read-only handle on a legacy database file.
type Store struct {
	db   *gorm.DB
	path string
}

// Open opens a legacy database file against the known legacy schema.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open legacy database %s: %w", path, err)
	}
	return &Store{db: db, path: path}, nil
}

// Detect probes the candidate paths in order and returns a store for
// the first one holding legacy restaurant data. Returns nil when no
// candidate has any.
func Detect(paths []string) (*Store, error) {
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}

		store, err := Open(path)
		if err != nil {
			continue
		}

		if !store.db.Migrator().HasTable("restaurants") {
			store.Close()
			continue
		}

		count, err := store.CountRestaurants()
		if err != nil || count == 0 {
			store.Close()
			continue
		}
		return store, nil
	}
	return nil, nil
}

func (s *Store) Path() string {
	return s.path
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// HasTable reports whether the legacy database contains the named
// table. Older installs predate the curators table.
func (s *Store) HasTable(name string) bool {
	return s.db.Migrator().HasTable(name)
}

func (s *Store) CountRestaurants() (int64, error) {
	var count int64
	err := s.db.Model(&entities.LegacyRestaurant{}).Count(&count).Error
	return count, err
}

func (s *Store) CountConcepts() (int64, error) {
	var count int64
	err := s.db.Model(&entities.LegacyConcept{}).Count(&count).Error
	return count, err
}

func (s *Store) CountCurators() (int64, error) {
	var count int64
	err := s.db.Model(&entities.LegacyCurator{}).Count(&count).Error
	return count, err
}

// Curators returns all legacy curators in primary key order.
func (s *Store) Curators() ([]entities.LegacyCurator, error) {
	var out []entities.LegacyCurator
	err := s.db.Order("id ASC").Find(&out).Error
	return out, err
}

// Restaurants returns all legacy restaurants in primary key order.
func (s *Store) Restaurants() ([]entities.LegacyRestaurant, error) {
	var out []entities.LegacyRestaurant
	err := s.db.Order("id ASC").Find(&out).Error
	return out, err
}

// Concepts returns all legacy concepts in primary key order.
func (s *Store) Concepts() ([]entities.LegacyConcept, error) {
	var out []entities.LegacyConcept
	err := s.db.Order("id ASC").Find(&out).Error
	return out, err
}
