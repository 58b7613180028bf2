// Package storage is the repository over the relational database. Each
// method runs a single statement or a short sequence of independent ones;
// no multi-statement transactions are used.
package storage

import (
	"errors"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when the requested row does not exist
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyReviewed is returned when a review targets a tree that is no longer pending
	ErrAlreadyReviewed = errors.New("tree has already been reviewed")
)

type Storage struct {
	db     *gorm.DB
	logger *logrus.Entry
}

func New(db *gorm.DB) *Storage {
	return &Storage{
		db:     db,
		logger: logrus.WithField("component", "storage"),
	}
}

// DB exposes the underlying handle for health checks and workers
func (s *Storage) DB() *gorm.DB {
	return s.db
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
