package models

import (
	"errors"
	"fmt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrStore = errors.New("visit counter store is unreachable")

// VisitCounter is one repository's visit tally, keyed by the deterministic
// counter key derived from owner and repository name.
type VisitCounter struct {
	Key   string `gorm:"primaryKey"`
	Count int64
}

type Database struct {
	GormDB *gorm.DB
}

// VisitCounterKey maps a repository to its counter key. Same owner and name
// always yield the same key.
func VisitCounterKey(owner string, name string) string {
	return fmt.Sprintf("github-repo-visit-%v-%v", owner, name)
}

// IncrementVisit bumps the counter under key and returns the new value. A
// missing row counts as zero, so the first visit returns 1. The increment is
// a single upsert, so concurrent visits never lose an increment.
func (db *Database) IncrementVisit(key string) (int64, error) {
	var counter VisitCounter
	err := db.GormDB.Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"count": gorm.Expr("count + 1")}),
		}).Create(&VisitCounter{Key: key, Count: 1}).Error
		if err != nil {
			return err
		}
		return tx.First(&counter, "key = ?", key).Error
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStore, err)
	}
	return counter.Count, nil
}

// GetVisitCount reads the counter under key without touching it. A missing
// row reads as zero.
func (db *Database) GetVisitCount(key string) (int64, error) {
	var counter VisitCounter
	err := db.GormDB.First(&counter, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStore, err)
	}
	return counter.Count, nil
}
