package store

import (
	"context"

	"github.com/uptrace/bun"

	"github.com/PrORain-HCMUS/SOTS-Hackathon/internal/models"
)

type CropClassStore struct {
	db *bun.DB
}

func NewCropClassStore(db *bun.DB) *CropClassStore {
	return &CropClassStore{db: db}
}

// All returns the seeded class lookup keyed by class id.
func (s *CropClassStore) All(ctx context.Context) (map[int]*models.CropClass, error) {
	var classes []*models.CropClass
	if err := s.db.NewSelect().Model(&classes).Order("class_id ASC").Scan(ctx); err != nil {
		return nil, err
	}

	byID := make(map[int]*models.CropClass, len(classes))
	for _, c := range classes {
		byID[c.ClassID] = c
	}
	return byID, nil
}
