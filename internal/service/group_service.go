package service

import (
	"context"
	"errors"
	"strings"

	"github.com/d60-Lab/yatube/internal/model"
	"github.com/d60-Lab/yatube/internal/repository"
)

type GroupService interface {
	Create(ctx context.Context, form GroupForm) (*model.Group, error)
	List(ctx context.Context) ([]*model.Group, error)
}

type groupService struct {
	groups repository.GroupRepository
}

func NewGroupService(groups repository.GroupRepository) GroupService {
	return &groupService{groups: groups}
}

func (s *groupService) Create(ctx context.Context, form GroupForm) (*model.Group, error) {
	form.Title = strings.TrimSpace(form.Title)
	form.Slug = strings.TrimSpace(form.Slug)
	errs := validateForm(&form)
	if _, ok := errs["slug"]; !ok {
		_, err := s.groups.GetBySlug(ctx, form.Slug)
		switch {
		case err == nil:
			errs.Add("slug", "Group with this Slug already exists.")
		case !errors.Is(err, ErrNotFound):
			return nil, err
		}
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}
	g := &model.Group{Title: form.Title, Slug: form.Slug, Description: form.Description}
	if err := s.groups.Create(ctx, g); err != nil {
		return nil, err
	}
	return g, nil
}

func (s *groupService) List(ctx context.Context) ([]*model.Group, error) {
	return s.groups.List(ctx)
}
