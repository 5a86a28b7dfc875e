package service

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/yatube/pkg/storage"
)

func TestThumbKey(t *testing.T) {
	assert.Equal(t, "thumbs/abc.jpg", ThumbKey("posts/abc.png"))
	assert.Equal(t, "thumbs/abc.jpg", ThumbKey("abc"))
}

func TestThumbnailer_Process(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	disk, err := storage.NewDiskStorage(t.TempDir(), "/media/")
	require.NoError(t, err)

	leo := e.user(t, "leo")
	post := e.post(t, leo, nil, "with image")
	_, err = disk.Save(ctx, "posts/big.png", bytes.NewReader(pngBytes(t, 2000, 1000)), "image/png")
	require.NoError(t, err)
	require.NoError(t, e.posts.Update(ctx, withImage(post, "posts/big.png", "")))

	th := NewThumbnailer(e.posts, disk, 4)
	stop := th.Start(1)
	th.Enqueue(post.ID, "posts/big.png")

	select {
	case <-th.Metrics():
	case <-time.After(10 * time.Second):
		t.Fatal("thumbnail was not generated")
	}
	require.NoError(t, stop(ctx))

	got, err := e.posts.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "thumbs/big.jpg", got.Thumbnail)
	assert.Equal(t, "thumbs/big.jpg", got.DisplayImage())

	rc, err := disk.Open(ctx, got.Thumbnail)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
}

func TestThumbnailer_DropsWhenFull(t *testing.T) {
	e := newEnv(t)
	th := NewThumbnailer(e.posts, e.store, 1)
	th.Enqueue(1, "posts/a.png")
	th.Enqueue(2, "posts/b.png")
	th.Enqueue(3, "")
	assert.Equal(t, 1, th.QueueLen())
}

func TestThumbnailer_StaleImageIgnored(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	disk, err := storage.NewDiskStorage(t.TempDir(), "/media/")
	require.NoError(t, err)

	leo := e.user(t, "leo")
	post := e.post(t, leo, nil, "replaced")
	_, err = disk.Save(ctx, "posts/old.png", bytes.NewReader(pngBytes(t, 10, 10)), "image/png")
	require.NoError(t, err)
	require.NoError(t, e.posts.Update(ctx, withImage(post, "posts/new.png", "")))

	th := NewThumbnailer(e.posts, disk, 1)
	require.NoError(t, th.process(ctx, thumbJob{postID: post.ID, image: "posts/old.png"}))

	got, err := e.posts.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Thumbnail)
}

func TestThumbnailer_StopWaitsForRunningJob(t *testing.T) {
	e := newEnv(t)
	e.store.On("Open", mock.Anything, "posts/slow.png").
		After(300*time.Millisecond).
		Return(nil, errors.New("storage gone"))

	th := NewThumbnailer(e.posts, e.store, 4)
	stop := th.Start(1)
	th.Enqueue(1, "posts/slow.png")
	require.Eventually(t, func() bool { return th.QueueLen() == 0 }, 5*time.Second, 5*time.Millisecond)

	start := time.Now()
	require.NoError(t, stop(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond)

	select {
	case <-th.Metrics():
	default:
		t.Fatal("stop returned before the running job finished")
	}
	e.store.AssertExpectations(t)
}

func TestThumbnailer_StopHonoursDeadline(t *testing.T) {
	e := newEnv(t)
	e.store.On("Open", mock.Anything, "posts/slow.png").
		After(time.Second).
		Return(nil, errors.New("storage gone"))

	th := NewThumbnailer(e.posts, e.store, 4)
	stop := th.Start(1)
	th.Enqueue(1, "posts/slow.png")
	require.Eventually(t, func() bool { return th.QueueLen() == 0 }, 5*time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, stop(ctx), context.DeadlineExceeded)
}
