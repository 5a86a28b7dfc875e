package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/yatube/internal/model"
)

// PostFilter 帖子列表过滤条件，零值表示全部
type PostFilter struct {
	AuthorID   uint64
	GroupID    uint64
	FollowerID uint64 // 该用户关注的作者的帖子
}

type PostRepository interface {
	Create(ctx context.Context, post *model.Post) error
	Update(ctx context.Context, post *model.Post) error
	SetThumbnail(ctx context.Context, id uint64, image, thumbnail string) error
	GetByID(ctx context.Context, id uint64) (*model.Post, error)
	List(ctx context.Context, filter PostFilter, offset, limit int) ([]*model.Post, error)
	Count(ctx context.Context, filter PostFilter) (int64, error)
}

type postRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) PostRepository { return &postRepository{db: db} }

func (r *postRepository) Create(ctx context.Context, post *model.Post) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(post).Error
}

func (r *postRepository) Update(ctx context.Context, post *model.Post) error {
	return r.db.WithContext(ctx).
		Model(&model.Post{ID: post.ID}).
		Select("text", "group_id", "image", "thumbnail", "updated_at").
		Updates(post).Error
}

// SetThumbnail 仅当图片未被替换时写入缩略图
func (r *postRepository) SetThumbnail(ctx context.Context, id uint64, image, thumbnail string) error {
	return r.db.WithContext(ctx).
		Model(&model.Post{}).
		Where("id = ? AND image = ?", id, image).
		UpdateColumn("thumbnail", thumbnail).Error
}

func (r *postRepository) GetByID(ctx context.Context, id uint64) (*model.Post, error) {
	var p model.Post
	if err := r.db.WithContext(ctx).Preload("Author").Preload("Group").First(&p, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (r *postRepository) List(ctx context.Context, filter PostFilter, offset, limit int) ([]*model.Post, error) {
	var res []*model.Post
	err := r.scoped(ctx, filter).
		Preload("Author").
		Preload("Group").
		Order("created_at DESC, id DESC").
		Offset(offset).Limit(limit).
		Find(&res).Error
	return res, err
}

func (r *postRepository) Count(ctx context.Context, filter PostFilter) (int64, error) {
	var cnt int64
	err := r.scoped(ctx, filter).Count(&cnt).Error
	return cnt, err
}

func (r *postRepository) scoped(ctx context.Context, f PostFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&model.Post{})
	if f.AuthorID != 0 {
		q = q.Where("author_id = ?", f.AuthorID)
	}
	if f.GroupID != 0 {
		q = q.Where("group_id = ?", f.GroupID)
	}
	if f.FollowerID != 0 {
		sub := r.db.Model(&model.Follow{}).Select("author_id").Where("user_id = ?", f.FollowerID)
		q = q.Where("author_id IN (?)", sub)
	}
	return q
}
