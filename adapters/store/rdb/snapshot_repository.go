package rdb

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/reldec/reldec/domain/model"
)

// SnapshotRepository implements domain.SnapshotRepository on GORM.
type SnapshotRepository struct{ db *gorm.DB }

func NewSnapshotRepository(db *gorm.DB) *SnapshotRepository { return &SnapshotRepository{db: db} }

func snapshotToRecord(s *model.ReleaseSnapshot) *SnapshotRecord {
	return &SnapshotRecord{ID: s.ID, Release: s.Release, Manifest: s.Manifest, CreatedAt: s.CreatedAt}
}

func snapshotToModel(r *SnapshotRecord) *model.ReleaseSnapshot {
	return &model.ReleaseSnapshot{ID: r.ID, Release: r.Release, Manifest: r.Manifest, CreatedAt: r.CreatedAt}
}

func (r *SnapshotRepository) Save(ctx context.Context, s *model.ReleaseSnapshot) error {
	rec := snapshotToRecord(s)
	if rec.ID == "" {
		rec.ID = "snap-" + uuid.NewString()
		s.ID = rec.ID
	}
	return r.db.WithContext(ctx).Create(rec).Error
}

func (r *SnapshotRepository) Latest(ctx context.Context, release string) (*model.ReleaseSnapshot, error) {
	var rec SnapshotRecord
	err := r.db.WithContext(ctx).
		Where("release_name = ?", release).
		Order("created_at DESC").
		First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrSnapshotNotFound
		}
		return nil, err
	}
	return snapshotToModel(&rec), nil
}

func (r *SnapshotRepository) List(ctx context.Context, release string) ([]*model.ReleaseSnapshot, error) {
	var recs []SnapshotRecord
	err := r.db.WithContext(ctx).
		Where("release_name = ?", release).
		Order("created_at ASC").
		Find(&recs).Error
	if err != nil {
		return nil, err
	}
	out := make([]*model.ReleaseSnapshot, 0, len(recs))
	for i := range recs {
		out = append(out, snapshotToModel(&recs[i]))
	}
	return out, nil
}
