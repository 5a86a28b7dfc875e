package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/d60-Lab/yatube/internal/model"
	"github.com/d60-Lab/yatube/internal/pagination"
	"github.com/d60-Lab/yatube/internal/repository"
	"github.com/d60-Lab/yatube/pkg/imageutil"
	"github.com/d60-Lab/yatube/pkg/logger"
	"github.com/d60-Lab/yatube/pkg/storage"
)

type PostPage = pagination.Page[*model.Post]

// ProfileView 个人主页
type ProfileView struct {
	Author     *model.User
	Page       *PostPage
	PostsCount int64
	Following  bool
	Followers  int64
	Followings int64
}

// DetailView 帖子详情页
type DetailView struct {
	Post       *model.Post
	PostsCount int64
	Comments   []*model.Comment
}

type PostService interface {
	Index(ctx context.Context, page string) (*PostPage, error)
	GroupPosts(ctx context.Context, slug, page string) (*model.Group, *PostPage, error)
	Profile(ctx context.Context, username string, viewer *model.User, page string) (*ProfileView, error)
	Detail(ctx context.Context, postID uint64) (*DetailView, error)
	Get(ctx context.Context, postID uint64) (*model.Post, error)
	Create(ctx context.Context, author *model.User, form PostForm) (*model.Post, error)
	Edit(ctx context.Context, editor *model.User, postID uint64, form PostForm) (*model.Post, error)
	Feed(ctx context.Context, user *model.User, page string) (*PostPage, error)
}

type postService struct {
	posts    repository.PostRepository
	groups   repository.GroupRepository
	users    repository.UserRepository
	comments repository.CommentRepository
	follows  repository.FollowRepository
	store    storage.Storage
	thumbs   *Thumbnailer
	perPage  int
}

func NewPostService(
	posts repository.PostRepository,
	groups repository.GroupRepository,
	users repository.UserRepository,
	comments repository.CommentRepository,
	follows repository.FollowRepository,
	store storage.Storage,
	thumbs *Thumbnailer,
	perPage int,
) PostService {
	if perPage <= 0 {
		perPage = pagination.PostsPerPage
	}
	return &postService{
		posts:    posts,
		groups:   groups,
		users:    users,
		comments: comments,
		follows:  follows,
		store:    store,
		thumbs:   thumbs,
		perPage:  perPage,
	}
}

func (s *postService) page(ctx context.Context, f repository.PostFilter, pageParam string) (*PostPage, error) {
	total, err := s.posts.Count(ctx, f)
	if err != nil {
		return nil, err
	}
	w := pagination.Paginate(total, pageParam, s.perPage)
	items, err := s.posts.List(ctx, f, w.Offset(), w.Limit())
	if err != nil {
		return nil, err
	}
	return pagination.With(w, items), nil
}

func (s *postService) Index(ctx context.Context, page string) (*PostPage, error) {
	return s.page(ctx, repository.PostFilter{}, page)
}

func (s *postService) GroupPosts(ctx context.Context, slug, page string) (*model.Group, *PostPage, error) {
	group, err := s.groups.GetBySlug(ctx, slug)
	if err != nil {
		return nil, nil, err
	}
	p, err := s.page(ctx, repository.PostFilter{GroupID: group.ID}, page)
	if err != nil {
		return nil, nil, err
	}
	return group, p, nil
}

func (s *postService) Profile(ctx context.Context, username string, viewer *model.User, page string) (*ProfileView, error) {
	author, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	p, err := s.page(ctx, repository.PostFilter{AuthorID: author.ID}, page)
	if err != nil {
		return nil, err
	}
	view := &ProfileView{Author: author, Page: p, PostsCount: p.Count}
	if viewer != nil {
		if view.Following, err = s.follows.Exists(ctx, viewer.ID, author.ID); err != nil {
			return nil, err
		}
	}
	if view.Followers, err = s.follows.CountFollowers(ctx, author.ID); err != nil {
		return nil, err
	}
	if view.Followings, err = s.follows.CountFollowings(ctx, author.ID); err != nil {
		return nil, err
	}
	return view, nil
}

func (s *postService) Detail(ctx context.Context, postID uint64) (*DetailView, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	count, err := s.posts.Count(ctx, repository.PostFilter{AuthorID: post.AuthorID})
	if err != nil {
		return nil, err
	}
	comments, err := s.comments.ListByPost(ctx, post.ID, 0, 0)
	if err != nil {
		return nil, err
	}
	return &DetailView{Post: post, PostsCount: count, Comments: comments}, nil
}

func (s *postService) Get(ctx context.Context, postID uint64) (*model.Post, error) {
	return s.posts.GetByID(ctx, postID)
}

func (s *postService) Create(ctx context.Context, author *model.User, form PostForm) (*model.Post, error) {
	if author == nil {
		return nil, ErrForbidden
	}
	groupID, err := s.clean(ctx, &form)
	if err != nil {
		return nil, err
	}
	post := &model.Post{Text: form.Text, AuthorID: author.ID, GroupID: groupID}
	if form.Image != nil {
		if post.Image, err = s.saveImage(ctx, form.Image); err != nil {
			return nil, err
		}
	}
	if err := s.posts.Create(ctx, post); err != nil {
		s.removeFiles(ctx, post.Image)
		return nil, fmt.Errorf("create post: %w", err)
	}
	if s.thumbs != nil {
		s.thumbs.Enqueue(post.ID, post.Image)
	}
	post.Author = author
	return post, nil
}

func (s *postService) Edit(ctx context.Context, editor *model.User, postID uint64, form PostForm) (*model.Post, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if editor == nil || editor.ID != post.AuthorID {
		return post, ErrForbidden
	}
	groupID, err := s.clean(ctx, &form)
	if err != nil {
		return post, err
	}

	oldImage, oldThumb := post.Image, post.Thumbnail
	post.Text = form.Text
	post.GroupID = groupID
	post.Group = nil
	switch {
	case form.Image != nil:
		if post.Image, err = s.saveImage(ctx, form.Image); err != nil {
			return post, err
		}
		post.Thumbnail = ""
	case form.ClearImage:
		post.Image, post.Thumbnail = "", ""
	}

	if err := s.posts.Update(ctx, post); err != nil {
		// 新图未落库，删掉以免成为孤儿文件
		if form.Image != nil && post.Image != oldImage {
			s.removeFiles(ctx, post.Image)
		}
		return post, fmt.Errorf("update post: %w", err)
	}
	if post.Image != oldImage {
		s.removeFiles(ctx, oldImage, oldThumb)
		if s.thumbs != nil {
			s.thumbs.Enqueue(post.ID, post.Image)
		}
	}
	return s.posts.GetByID(ctx, post.ID)
}

func (s *postService) Feed(ctx context.Context, user *model.User, page string) (*PostPage, error) {
	if user == nil {
		return nil, ErrForbidden
	}
	return s.page(ctx, repository.PostFilter{FollowerID: user.ID}, page)
}

// clean 校验表单，返回分组 id
func (s *postService) clean(ctx context.Context, form *PostForm) (*uint64, error) {
	errs := validateForm(form)
	groupID, ok := form.groupID()
	if !ok {
		errs.Add("group", "Select a valid choice. That choice is not one of the available choices.")
	} else if groupID != nil {
		if _, err := s.groups.GetByID(ctx, *groupID); err != nil {
			if !errors.Is(err, ErrNotFound) {
				return nil, err
			}
			errs.Add("group", "Select a valid choice. That choice is not one of the available choices.")
		}
	}
	if form.Image != nil {
		if len(form.Image.Data) > imageutil.MaxUploadSize {
			errs.Add("image", "The uploaded file is too large.")
		} else if _, err := imageutil.Detect(form.Image.Data); err != nil {
			errs.Add("image", "Upload a valid image. The file you uploaded was either not an image or a corrupted image.")
		}
	}
	return groupID, errs.Err()
}

func (s *postService) saveImage(ctx context.Context, up *Upload) (string, error) {
	info, err := imageutil.Detect(up.Data)
	if err != nil {
		return "", FormErrors{"image": err.Error()}
	}
	key := storage.NewKey("posts", info.Ext)
	if _, err := s.store.Save(ctx, key, bytes.NewReader(up.Data), info.ContentType); err != nil {
		return "", fmt.Errorf("save image: %w", err)
	}
	return key, nil
}

func (s *postService) removeFiles(ctx context.Context, keys ...string) {
	for _, k := range keys {
		if k == "" {
			continue
		}
		if err := s.store.Delete(ctx, k); err != nil {
			logger.Warn("remove stale image", zap.String("key", k), zap.Error(err))
		}
	}
}
