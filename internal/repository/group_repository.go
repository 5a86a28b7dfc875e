package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/d60-Lab/yatube/internal/model"
)

type GroupRepository interface {
	Create(ctx context.Context, group *model.Group) error
	GetByID(ctx context.Context, id uint64) (*model.Group, error)
	GetBySlug(ctx context.Context, slug string) (*model.Group, error)
	List(ctx context.Context) ([]*model.Group, error)
}

type groupRepository struct{ db *gorm.DB }

func NewGroupRepository(db *gorm.DB) GroupRepository { return &groupRepository{db: db} }

func (r *groupRepository) Create(ctx context.Context, group *model.Group) error {
	return r.db.WithContext(ctx).Create(group).Error
}

func (r *groupRepository) GetByID(ctx context.Context, id uint64) (*model.Group, error) {
	var g model.Group
	if err := r.db.WithContext(ctx).First(&g, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &g, nil
}

func (r *groupRepository) GetBySlug(ctx context.Context, slug string) (*model.Group, error) {
	var g model.Group
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&g).Error; err != nil {
		return nil, notFound(err)
	}
	return &g, nil
}

func (r *groupRepository) List(ctx context.Context) ([]*model.Group, error) {
	var res []*model.Group
	err := r.db.WithContext(ctx).Order("title").Find(&res).Error
	return res, err
}
