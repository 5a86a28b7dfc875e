package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/d60-Lab/yatube/internal/model"
	"github.com/d60-Lab/yatube/pkg/database"
)

func setupDB(t testing.TB) *gorm.DB {
	db, err := database.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

func seedUser(t testing.TB, db *gorm.DB, username string) *model.User {
	u := &model.User{Username: username, Email: username + "@example.com", PasswordHash: "x"}
	require.NoError(t, db.Create(u).Error)
	return u
}

func seedPost(t testing.TB, db *gorm.DB, author *model.User, group *model.Group, text string, at time.Time) *model.Post {
	p := &model.Post{Text: text, AuthorID: author.ID, CreatedAt: at}
	if group != nil {
		p.GroupID = &group.ID
	}
	require.NoError(t, NewPostRepository(db).Create(context.Background(), p))
	return p
}

func TestUserRepository(t *testing.T) {
	db := setupDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	u := &model.User{Username: "leo", Email: "Leo@Example.com", PasswordHash: "h1"}
	require.NoError(t, repo.Create(ctx, u))
	assert.NotZero(t, u.ID)

	got, err := repo.GetByUsername(ctx, "leo")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	got, err = repo.GetByEmail(ctx, "leo@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = repo.GetByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, ErrNotFound)

	err = repo.Create(ctx, &model.User{Username: "leo", PasswordHash: "h"})
	assert.Error(t, err, "username must be unique")

	require.NoError(t, repo.UpdatePassword(ctx, u.ID, "h2"))
	got, err = repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "h2", got.PasswordHash)

	assert.ErrorIs(t, repo.UpdatePassword(ctx, 9999, "h"), ErrNotFound)
}

func TestGroupRepository(t *testing.T) {
	db := setupDB(t)
	repo := NewGroupRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &model.Group{Title: "Коты", Slug: "cats"}))
	require.NoError(t, repo.Create(ctx, &model.Group{Title: "Авто", Slug: "cars"}))

	g, err := repo.GetBySlug(ctx, "cats")
	require.NoError(t, err)
	assert.Equal(t, "Коты", g.Title)

	_, err = repo.GetBySlug(ctx, "dogs")
	assert.ErrorIs(t, err, ErrNotFound)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "cars", list[0].Slug)

	assert.Error(t, repo.Create(ctx, &model.Group{Title: "dup", Slug: "cats"}))
}

func TestPostRepository_ListAndFilters(t *testing.T) {
	db := setupDB(t)
	repo := NewPostRepository(db)
	follows := NewFollowRepository(db)
	ctx := context.Background()

	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")
	carol := seedUser(t, db, "carol")
	group := &model.Group{Title: "g", Slug: "g"}
	require.NoError(t, db.Create(group).Error)

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 15; i++ {
		seedPost(t, db, alice, group, fmt.Sprintf("alice %d", i), base.Add(time.Duration(i)*time.Minute))
	}
	seedPost(t, db, bob, nil, "bob 0", base.Add(30*time.Minute))

	all, err := repo.Count(ctx, PostFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 16, all)

	page, err := repo.List(ctx, PostFilter{}, 0, 10)
	require.NoError(t, err)
	require.Len(t, page, 10)
	assert.Equal(t, "bob 0", page[0].Text, "newest first")
	require.NotNil(t, page[0].Author, "author preloaded")
	assert.Equal(t, "bob", page[0].Author.Username)
	assert.Nil(t, page[0].Group)
	require.NotNil(t, page[1].Group, "group preloaded")

	byGroup, err := repo.Count(ctx, PostFilter{GroupID: group.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 15, byGroup)

	second, err := repo.List(ctx, PostFilter{AuthorID: alice.ID}, 10, 10)
	require.NoError(t, err)
	assert.Len(t, second, 5)

	require.NoError(t, follows.Create(ctx, carol.ID, bob.ID))
	feed, err := repo.List(ctx, PostFilter{FollowerID: carol.ID}, 0, 10)
	require.NoError(t, err)
	require.Len(t, feed, 1)
	assert.Equal(t, bob.ID, feed[0].AuthorID)

	empty, err := repo.Count(ctx, PostFilter{FollowerID: alice.ID})
	require.NoError(t, err)
	assert.Zero(t, empty)
}

func TestPostRepository_UpdateAndThumbnail(t *testing.T) {
	db := setupDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	alice := seedUser(t, db, "alice")
	group := &model.Group{Title: "g", Slug: "g"}
	require.NoError(t, db.Create(group).Error)
	p := seedPost(t, db, alice, group, "before", time.Now())

	p.Text = "after"
	p.GroupID = nil
	p.Image = "posts/a.png"
	require.NoError(t, repo.Update(ctx, p))

	got, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "after", got.Text)
	assert.Nil(t, got.GroupID)
	assert.Equal(t, "posts/a.png", got.Image)

	// 图片已被替换时忽略过期的缩略图
	require.NoError(t, repo.SetThumbnail(ctx, p.ID, "posts/old.png", "thumbs/old.jpg"))
	require.NoError(t, repo.SetThumbnail(ctx, p.ID, "posts/a.png", "thumbs/a.jpg"))
	got, err = repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "thumbs/a.jpg", got.Thumbnail)

	_, err = repo.GetByID(ctx, 4242)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCommentRepository(t *testing.T) {
	db := setupDB(t)
	repo := NewCommentRepository(db)
	ctx := context.Background()

	alice := seedUser(t, db, "alice")
	p := seedPost(t, db, alice, nil, "post", time.Now())

	now := time.Now()
	require.NoError(t, repo.Create(ctx, &model.Comment{PostID: p.ID, AuthorID: alice.ID, Text: "second", CreatedAt: now}))
	require.NoError(t, repo.Create(ctx, &model.Comment{PostID: p.ID, AuthorID: alice.ID, Text: "first", CreatedAt: now.Add(-time.Minute)}))

	list, err := repo.ListByPost(ctx, p.ID, 0, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "first", list[0].Text)
	require.NotNil(t, list[0].Author)
	assert.Equal(t, "alice", list[0].Author.Username)

	cnt, err := repo.CountByPost(ctx, p.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, cnt)
}

func TestFollowRepository(t *testing.T) {
	db := setupDB(t)
	repo := NewFollowRepository(db)
	ctx := context.Background()

	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")

	require.NoError(t, repo.Create(ctx, alice.ID, bob.ID))
	// 重复关注不报错也不重复
	require.NoError(t, repo.Create(ctx, alice.ID, bob.ID))

	ok, err := repo.Exists(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Exists(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	followers, err := repo.CountFollowers(ctx, bob.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, followers)

	followings, err := repo.CountFollowings(ctx, alice.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, followings)

	list, err := repo.ListFollowings(ctx, alice.ID, 0, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.NotNil(t, list[0].Author)
	assert.Equal(t, "bob", list[0].Author.Username)

	fans, err := repo.ListFollowers(ctx, bob.ID, 0, 10)
	require.NoError(t, err)
	require.Len(t, fans, 1)
	assert.Equal(t, "alice", fans[0].User.Username)

	assert.Error(t, repo.Create(ctx, alice.ID, alice.ID), "self follow violates check constraint")

	require.NoError(t, repo.Delete(ctx, alice.ID, bob.ID))
	require.NoError(t, repo.Delete(ctx, alice.ID, bob.ID))
	ok, err = repo.Exists(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}
