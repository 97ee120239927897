package repo

import (
	"errors"

	"gorm.io/gorm"
)

var (
	// ErrStaleRevision means the row changed between read and write.
	ErrStaleRevision = errors.New("stale revision")
	ErrDuplicate     = errors.New("duplicate")
)

type GormRepo struct {
	DB *gorm.DB
}

func New(db *gorm.DB) *GormRepo {
	return &GormRepo{DB: db}
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}
	return err
}
