package service

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/d60-Lab/yatube/internal/model"
	"github.com/d60-Lab/yatube/internal/repository"
	"github.com/d60-Lab/yatube/pkg/database"
)

func init() {
	BcryptCost = bcrypt.MinCost
}

type env struct {
	db       *gorm.DB
	users    repository.UserRepository
	groups   repository.GroupRepository
	posts    repository.PostRepository
	comments repository.CommentRepository
	follows  repository.FollowRepository
	store    *mockStorage
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db, err := database.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	return &env{
		db:       db,
		users:    repository.NewUserRepository(db),
		groups:   repository.NewGroupRepository(db),
		posts:    repository.NewPostRepository(db),
		comments: repository.NewCommentRepository(db),
		follows:  repository.NewFollowRepository(db),
		store:    &mockStorage{},
	}
}

func (e *env) postService() PostService {
	return NewPostService(e.posts, e.groups, e.users, e.comments, e.follows, e.store, nil, 10)
}

func (e *env) user(t *testing.T, username string) *model.User {
	t.Helper()
	u := &model.User{Username: username, Email: username + "@example.com", PasswordHash: "x"}
	require.NoError(t, e.users.Create(context.Background(), u))
	return u
}

func (e *env) group(t *testing.T, slug string) *model.Group {
	t.Helper()
	g := &model.Group{Title: "Group " + slug, Slug: slug}
	require.NoError(t, e.groups.Create(context.Background(), g))
	return g
}

func (e *env) post(t *testing.T, author *model.User, group *model.Group, text string) *model.Post {
	t.Helper()
	p := &model.Post{Text: text, AuthorID: author.ID}
	if group != nil {
		p.GroupID = &group.ID
	}
	require.NoError(t, e.posts.Create(context.Background(), p))
	return p
}

// posts 按时间递增写入 n 条
func (e *env) manyPosts(t *testing.T, author *model.User, group *model.Group, n int) {
	t.Helper()
	base := time.Now().Add(-time.Hour)
	for i := 0; i < n; i++ {
		p := &model.Post{Text: fmt.Sprintf("post %d", i), AuthorID: author.ID, CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		if group != nil {
			p.GroupID = &group.ID
		}
		require.NoError(t, e.posts.Create(context.Background(), p))
	}
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{G: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// resizedPNG 改写 IHDR 中的宽高，文件仍然很小
func resizedPNG(t *testing.T, w, h uint32) []byte {
	t.Helper()
	data := pngBytes(t, 1, 1)
	// 签名 8 字节，随后是 IHDR 的长度、类型、13 字节数据和 CRC
	binary.BigEndian.PutUint32(data[16:20], w)
	binary.BigEndian.PutUint32(data[20:24], h)
	binary.BigEndian.PutUint32(data[29:33], crc32.ChecksumIEEE(data[12:29]))
	return data
}

type mockStorage struct {
	mock.Mock
}

func (m *mockStorage) Save(ctx context.Context, key string, r io.Reader, contentType string) (int64, error) {
	args := m.Called(ctx, key, r, contentType)
	return int64(args.Int(0)), args.Error(1)
}

func (m *mockStorage) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	args := m.Called(ctx, key)
	rc, _ := args.Get(0).(io.ReadCloser)
	return rc, args.Error(1)
}

func (m *mockStorage) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *mockStorage) Serve(w http.ResponseWriter, r *http.Request, key string) {
	m.Called(w, r, key)
}

func (m *mockStorage) URL(key string) string { return "/media/" + key }

// fakeTokens 把 id 和 stamp 拼接成令牌
type fakeTokens struct{}

func (fakeTokens) Issue(userID uint64, stamp string) (string, error) {
	return fmt.Sprintf("%d.%s", userID, stamp), nil
}

func (fakeTokens) Parse(token string) (uint64, string, error) {
	var id uint64
	var stamp string
	if _, err := fmt.Sscanf(token, "%d.%s", &id, &stamp); err != nil {
		return 0, "", errors.New("malformed")
	}
	return id, stamp, nil
}

func postFilterAuthor(id uint64) repository.PostFilter {
	return repository.PostFilter{AuthorID: id}
}

func withImage(p *model.Post, image, thumb string) *model.Post {
	p.Image, p.Thumbnail = image, thumb
	return p
}
