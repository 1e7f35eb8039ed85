package repository

import (
	"context"
	"errors"

	"auth-service/internal/model"

	"gorm.io/gorm"
)

type gormTokenStore struct {
	db *gorm.DB
}

func (s *gormTokenStore) Create(ctx context.Context, token *model.RefreshToken) error {
	return s.db.WithContext(ctx).Create(token).Error
}

func (s *gormTokenStore) ByToken(ctx context.Context, token string) (*model.RefreshToken, bool, error) {
	var refreshToken model.RefreshToken
	err := s.db.WithContext(ctx).Where("token = ?", token).First(&refreshToken).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &refreshToken, true, nil
}

func (s *gormTokenStore) Revoke(ctx context.Context, token string) (bool, error) {
	// The is_revoked = false predicate makes this a compare-and-set:
	// concurrent revocations of one token produce at most one affected row.
	result := s.db.WithContext(ctx).
		Model(&model.RefreshToken{}).
		Where("token = ? AND is_revoked = ?", token, false).
		Update("is_revoked", true)
	return result.RowsAffected > 0, result.Error
}

func (s *gormTokenStore) RevokeAllForUser(ctx context.Context, userID uint) (int64, error) {
	result := s.db.WithContext(ctx).
		Model(&model.RefreshToken{}).
		Where("user_id = ? AND is_revoked = ?", userID, false).
		Update("is_revoked", true)
	return result.RowsAffected, result.Error
}
