package service

import (
	"bytes"
	"context"
	"path"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/d60-Lab/yatube/internal/repository"
	"github.com/d60-Lab/yatube/pkg/imageutil"
	"github.com/d60-Lab/yatube/pkg/logger"
	"github.com/d60-Lab/yatube/pkg/storage"
)

type thumbJob struct {
	postID uint64
	image  string
	enqAt  time.Time
}

// Thumbnailer 本地异步生成帖子缩略图，队列满时丢弃（页面退回原图）
type Thumbnailer struct {
	posts     repository.PostRepository
	store     storage.Storage
	size      uint
	ch        chan thumbJob
	metricsCh chan time.Duration
}

func NewThumbnailer(posts repository.PostRepository, store storage.Storage, queueSize int) *Thumbnailer {
	if queueSize <= 0 {
		queueSize = 1024
	}
	return &Thumbnailer{
		posts:     posts,
		store:     store,
		size:      imageutil.ThumbSize,
		ch:        make(chan thumbJob, queueSize),
		metricsCh: make(chan time.Duration, 4096),
	}
}

// ThumbKey 原图对应的缩略图路径
func ThumbKey(image string) string {
	base := path.Base(image)
	return path.Join("thumbs", strings.TrimSuffix(base, path.Ext(base))+".jpg")
}

// Start 启动 worker，返回的 stop 先排空队列，再等待正在处理的任务结束
func (t *Thumbnailer) Start(workers int) func(context.Context) error {
	if workers <= 0 {
		workers = 2
	}
	stopCh := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case job := <-t.ch:
					t.run(job)
				case <-stopCh:
					return
				}
			}
		}()
	}
	return func(ctx context.Context) error {
		ticker := time.NewTicker(50 * time.Millisecond)
		defer ticker.Stop()
		for len(t.ch) > 0 {
			select {
			case <-ctx.Done():
				close(stopCh)
				return ctx.Err()
			case <-ticker.C:
			}
		}
		close(stopCh)

		done := make(chan struct{})
		go func() {
			wg.Wait()
			close(done)
		}()
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (t *Thumbnailer) run(job thumbJob) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := t.process(ctx, job); err != nil {
		logger.Warn("thumbnail failed",
			zap.Uint64("post", job.postID),
			zap.String("image", job.image),
			zap.Error(err),
		)
	}
	select {
	case t.metricsCh <- time.Since(job.enqAt):
	default:
	}
}

func (t *Thumbnailer) process(ctx context.Context, job thumbJob) error {
	src, err := t.store.Open(ctx, job.image)
	if err != nil {
		return err
	}
	defer src.Close()

	var buf bytes.Buffer
	if _, err := imageutil.CreateThumb(t.size, src, &buf); err != nil {
		return err
	}
	key := ThumbKey(job.image)
	if _, err := t.store.Save(ctx, key, &buf, "image/jpeg"); err != nil {
		return err
	}
	return t.posts.SetThumbnail(ctx, job.postID, job.image, key)
}

// Enqueue 非阻塞入队
func (t *Thumbnailer) Enqueue(postID uint64, image string) {
	if image == "" {
		return
	}
	select {
	case t.ch <- thumbJob{postID: postID, image: image, enqAt: time.Now()}:
	default:
		logger.Warn("thumbnail queue full, drop", zap.Uint64("post", postID), zap.String("image", image))
	}
}

// Metrics 每处理一条发送一次从入队到完成的耗时
func (t *Thumbnailer) Metrics() <-chan time.Duration { return t.metricsCh }

func (t *Thumbnailer) QueueLen() int { return len(t.ch) }
