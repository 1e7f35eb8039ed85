package repository

import (
	"context"
	"errors"

	"auth-service/internal/model"

	"gorm.io/gorm"
)

type gormTenantStore struct {
	db *gorm.DB
}

func (s *gormTenantStore) Create(ctx context.Context, tenant *model.Tenant) error {
	return s.db.WithContext(ctx).Create(tenant).Error
}

func (s *gormTenantStore) ByID(ctx context.Context, id uint) (*model.Tenant, bool, error) {
	var tenant model.Tenant
	err := s.db.WithContext(ctx).First(&tenant, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &tenant, true, nil
}

func (s *gormTenantStore) ByEmail(ctx context.Context, email string) (*model.Tenant, bool, error) {
	var tenant model.Tenant
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&tenant).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &tenant, true, nil
}

func (s *gormTenantStore) SetName(ctx context.Context, id uint, name string) (*model.Tenant, bool, error) {
	tenant, found, err := s.ByID(ctx, id)
	if err != nil || !found {
		return nil, found, err
	}
	tenant.Name = name
	if err := s.db.WithContext(ctx).Save(tenant).Error; err != nil {
		return nil, false, err
	}
	return tenant, true, nil
}

func (s *gormTenantStore) SetActive(ctx context.Context, id uint, active bool) (*model.Tenant, bool, error) {
	tenant, found, err := s.ByID(ctx, id)
	if err != nil || !found {
		return nil, found, err
	}
	tenant.IsActive = active
	if err := s.db.WithContext(ctx).Save(tenant).Error; err != nil {
		return nil, false, err
	}
	return tenant, true, nil
}
