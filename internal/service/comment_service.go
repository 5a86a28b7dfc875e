package service

import (
	"context"
	"fmt"

	"github.com/d60-Lab/yatube/internal/model"
	"github.com/d60-Lab/yatube/internal/repository"
)

type CommentService interface {
	Add(ctx context.Context, author *model.User, postID uint64, form CommentForm) (*model.Comment, error)
	List(ctx context.Context, postID uint64) ([]*model.Comment, error)
}

type commentService struct {
	posts    repository.PostRepository
	comments repository.CommentRepository
}

func NewCommentService(posts repository.PostRepository, comments repository.CommentRepository) CommentService {
	return &commentService{posts: posts, comments: comments}
}

// Add 帖子不存在返回 ErrNotFound，空内容返回 FormErrors
func (s *commentService) Add(ctx context.Context, author *model.User, postID uint64, form CommentForm) (*model.Comment, error) {
	if author == nil {
		return nil, ErrForbidden
	}
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if err := validateForm(&form).Err(); err != nil {
		return nil, err
	}
	c := &model.Comment{PostID: post.ID, AuthorID: author.ID, Text: form.Text}
	if err := s.comments.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	c.Author = author
	return c, nil
}

func (s *commentService) List(ctx context.Context, postID uint64) ([]*model.Comment, error) {
	if _, err := s.posts.GetByID(ctx, postID); err != nil {
		return nil, err
	}
	return s.comments.ListByPost(ctx, postID, 0, 0)
}
