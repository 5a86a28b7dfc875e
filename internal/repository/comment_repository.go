package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/yatube/internal/model"
)

type CommentRepository interface {
	Create(ctx context.Context, comment *model.Comment) error
	ListByPost(ctx context.Context, postID uint64, offset, limit int) ([]*model.Comment, error)
	CountByPost(ctx context.Context, postID uint64) (int64, error)
}

type commentRepository struct{ db *gorm.DB }

func NewCommentRepository(db *gorm.DB) CommentRepository { return &commentRepository{db: db} }

func (r *commentRepository) Create(ctx context.Context, comment *model.Comment) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(comment).Error
}

// ListByPost 按时间正序；limit <= 0 时返回全部
func (r *commentRepository) ListByPost(ctx context.Context, postID uint64, offset, limit int) ([]*model.Comment, error) {
	var res []*model.Comment
	q := r.db.WithContext(ctx).
		Preload("Author").
		Where("post_id = ?", postID).
		Order("created_at ASC, id ASC")
	if limit > 0 {
		q = q.Offset(offset).Limit(limit)
	}
	err := q.Find(&res).Error
	return res, err
}

func (r *commentRepository) CountByPost(ctx context.Context, postID uint64) (int64, error) {
	var cnt int64
	err := r.db.WithContext(ctx).Model(&model.Comment{}).Where("post_id = ?", postID).Count(&cnt).Error
	return cnt, err
}
