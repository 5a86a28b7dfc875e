package service

import (
	"context"

	"github.com/d60-Lab/yatube/internal/model"
	"github.com/d60-Lab/yatube/internal/repository"
)

// RelationshipService 关注关系
type RelationshipService interface {
	Follow(ctx context.Context, user *model.User, authorUsername string) error
	Unfollow(ctx context.Context, user *model.User, authorUsername string) error
	ListFollowing(ctx context.Context, username string, page, pageSize int) ([]*model.User, error)
	ListFollowers(ctx context.Context, username string, page, pageSize int) ([]*model.User, error)
}

type relationshipService struct {
	users   repository.UserRepository
	follows repository.FollowRepository
}

func NewRelationshipService(users repository.UserRepository, follows repository.FollowRepository) RelationshipService {
	return &relationshipService{users: users, follows: follows}
}

// Follow 重复关注不报错
func (s *relationshipService) Follow(ctx context.Context, user *model.User, authorUsername string) error {
	if user == nil {
		return ErrForbidden
	}
	author, err := s.users.GetByUsername(ctx, authorUsername)
	if err != nil {
		return err
	}
	if author.ID == user.ID {
		return ErrFollowSelf
	}
	return s.follows.Create(ctx, user.ID, author.ID)
}

// Unfollow 未关注时为空操作
func (s *relationshipService) Unfollow(ctx context.Context, user *model.User, authorUsername string) error {
	if user == nil {
		return ErrForbidden
	}
	author, err := s.users.GetByUsername(ctx, authorUsername)
	if err != nil {
		return err
	}
	return s.follows.Delete(ctx, user.ID, author.ID)
}

func pageBounds(page, pageSize int) (offset, limit int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}
	return (page - 1) * pageSize, pageSize
}

func (s *relationshipService) ListFollowing(ctx context.Context, username string, page, pageSize int) ([]*model.User, error) {
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	offset, limit := pageBounds(page, pageSize)
	items, err := s.follows.ListFollowings(ctx, u.ID, offset, limit)
	if err != nil {
		return nil, err
	}
	res := make([]*model.User, len(items))
	for i, it := range items {
		res[i] = it.Author
	}
	return res, nil
}

func (s *relationshipService) ListFollowers(ctx context.Context, username string, page, pageSize int) ([]*model.User, error) {
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	offset, limit := pageBounds(page, pageSize)
	items, err := s.follows.ListFollowers(ctx, u.ID, offset, limit)
	if err != nil {
		return nil, err
	}
	res := make([]*model.User, len(items))
	for i, it := range items {
		res[i] = it.User
	}
	return res, nil
}
