package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/aura-backend/internal/domain"
)

// CreateRecognition inserts r and hydrates Giver and Receiver. GivenAt is
// stored in UTC; calendar keys must already be set by the caller.
func CreateRecognition(ctx context.Context, db *gorm.DB, r *domain.Recognition) error {
	r.GivenAt = r.GivenAt.UTC()
	if err := db.WithContext(ctx).Omit("Giver", "Receiver").Create(r).Error; err != nil {
		return err
	}
	return db.WithContext(ctx).
		Preload("Giver").
		Preload("Receiver").
		First(r, r.ID).Error
}

// GetRecognition fetches a recognition with both parties.
func GetRecognition(ctx context.Context, db *gorm.DB, id uint) (*domain.Recognition, error) {
	var r domain.Recognition
	err := db.WithContext(ctx).
		Preload("Giver").
		Preload("Receiver").
		First(&r, id).Error
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// DeleteRecognition hard-deletes a recognition.
func DeleteRecognition(ctx context.Context, db *gorm.DB, id uint) error {
	res := db.WithContext(ctx).Delete(&domain.Recognition{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CountGivenBetween counts recognitions by giverID with GivenAt in [from, to).
func CountGivenBetween(ctx context.Context, db *gorm.DB, giverID uint, from, to time.Time) (int64, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.Recognition{}).
		Where("giver_id = ? AND given_at >= ? AND given_at < ?", giverID, from.UTC(), to.UTC()).
		Count(&n).Error
	return n, err
}

// CountPairBetween counts recognitions from giverID to receiverID with
// GivenAt in [from, to).
func CountPairBetween(ctx context.Context, db *gorm.DB, giverID, receiverID uint, from, to time.Time) (int64, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.Recognition{}).
		Where("giver_id = ? AND receiver_id = ? AND given_at >= ? AND given_at < ?", giverID, receiverID, from.UTC(), to.UTC()).
		Count(&n).Error
	return n, err
}

// CountReceivedBetween counts recognitions received by any of receiverIDs in
// [from, to).
func CountReceivedBetween(ctx context.Context, db *gorm.DB, receiverIDs []uint, from, to time.Time) (int64, error) {
	if len(receiverIDs) == 0 {
		return 0, nil
	}
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.Recognition{}).
		Where("receiver_id IN ? AND given_at >= ? AND given_at < ?", receiverIDs, from.UTC(), to.UTC()).
		Count(&n).Error
	return n, err
}

// CountRecognitions counts recognitions where column (giver_id or
// receiver_id) equals userID.
func CountRecognitions(ctx context.Context, db *gorm.DB, column string, userID uint) (int64, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.Recognition{}).
		Where(column+" = ?", userID).
		Count(&n).Error
	return n, err
}

// ListRecognitionsPage returns recognitions where column equals userID,
// newest first, with both parties loaded.
func ListRecognitionsPage(ctx context.Context, db *gorm.DB, column string, userID uint, offset, limit int) ([]domain.Recognition, error) {
	var out []domain.Recognition
	err := db.WithContext(ctx).
		Preload("Giver").
		Preload("Receiver").
		Where(column+" = ?", userID).
		Order("given_at desc").
		Order("id desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// Columns accepted by CountRecognitions and ListRecognitionsPage.
const (
	ColumnGiver    = "giver_id"
	ColumnReceiver = "receiver_id"
)
