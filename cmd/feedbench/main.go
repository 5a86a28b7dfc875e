package main

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"sort"
	"strconv"
	"time"

	"gorm.io/gorm"

	"github.com/d60-Lab/yatube/config"
	"github.com/d60-Lab/yatube/internal/model"
	"github.com/d60-Lab/yatube/internal/repository"
	"github.com/d60-Lab/yatube/internal/service"
	"github.com/d60-Lab/yatube/pkg/database"
	"github.com/d60-Lab/yatube/pkg/storage"
)

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func pct(vs []time.Duration, p float64) time.Duration {
	if len(vs) == 0 {
		return 0
	}
	xs := append([]time.Duration(nil), vs...)
	sort.Slice(xs, func(i, j int) bool { return xs[i] < xs[j] })
	k := int(math.Ceil(p*float64(len(xs)))) - 1
	if k < 0 {
		k = 0
	}
	if k >= len(xs) {
		k = len(xs) - 1
	}
	return xs[k]
}

func avg(vs []time.Duration) time.Duration {
	if len(vs) == 0 {
		return 0
	}
	var sum time.Duration
	for _, d := range vs {
		sum += d
	}
	return sum / time.Duration(len(vs))
}

func envInt(name string, def int) int {
	if s := os.Getenv(name); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			return v
		}
	}
	return def
}

// openDB BENCH_DB=config 时使用配置中的数据库，默认内存 sqlite
func openDB() *gorm.DB {
	if os.Getenv("BENCH_DB") == "config" {
		cfg := must(config.Load())
		return must(database.InitDB(cfg))
	}
	return must(database.OpenMemory())
}

func testImage(i int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, 1600, 1200))
	c := color.RGBA{R: uint8(i), G: uint8(i * 7), B: 128, A: 255}
	for x := 0; x < 1600; x += 8 {
		img.Set(x, x%1200, c)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

func main() {
	// 参数
	authors := envInt("AUTHORS", 200)
	posts := envInt("POSTS", 5)
	reads := envInt("READS", 200)
	images := envInt("IMAGES", 20)
	workers := envInt("WORKERS", 4)
	perPage := envInt("PER_PAGE", 10)

	db := openDB()
	defer database.Close(db)
	ctx := context.Background()

	dir := must(os.MkdirTemp("", "feedbench"))
	defer os.RemoveAll(dir)
	store := must(storage.NewDiskStorage(dir, "/media/"))

	users := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)
	follows := repository.NewFollowRepository(db)
	thumbs := service.NewThumbnailer(postRepo, store, images+1)
	postService := service.NewPostService(postRepo, repository.NewGroupRepository(db), users,
		repository.NewCommentRepository(db), follows, store, thumbs, perPage)

	// 一个读者关注全部作者
	stamp := strconv.FormatInt(time.Now().UnixNano(), 36)
	reader := &model.User{Username: "reader_" + stamp, Email: "reader_" + stamp + "@example.com", PasswordHash: "p"}
	if err := users.Create(ctx, reader); err != nil {
		panic(err)
	}
	seeded := make([]model.User, authors)
	for i := range seeded {
		name := fmt.Sprintf("a%05d_%s", i, stamp)
		seeded[i] = model.User{Username: name, Email: name + "@example.com", PasswordHash: "p"}
	}
	if err := db.CreateInBatches(&seeded, 500).Error; err != nil {
		panic(err)
	}
	now := time.Now()
	rows := make([]model.Post, 0, authors*posts)
	for i := range seeded {
		if err := follows.Create(ctx, reader.ID, seeded[i].ID); err != nil {
			panic(err)
		}
		for j := 0; j < posts; j++ {
			rows = append(rows, model.Post{
				AuthorID:  seeded[i].ID,
				Text:      fmt.Sprintf("post %d of %s", j, seeded[i].Username),
				CreatedAt: now.Add(-time.Duration(i*posts+j) * time.Second),
			})
		}
	}
	if err := db.CreateInBatches(&rows, 1000).Error; err != nil {
		panic(err)
	}

	// 关注流与首页读取
	feed := make([]time.Duration, 0, reads)
	index := make([]time.Duration, 0, reads)
	pages := int(math.Ceil(float64(authors*posts) / float64(perPage)))
	for i := 0; i < reads; i++ {
		page := strconv.Itoa(i%pages + 1)
		st := time.Now()
		_ = must(postService.Feed(ctx, reader, page))
		feed = append(feed, time.Since(st))

		st = time.Now()
		_ = must(postService.Index(ctx, page))
		index = append(index, time.Since(st))
	}

	// 带图发帖，等待缩略图落地
	stop := thumbs.Start(workers)
	create := make([]time.Duration, 0, images)
	for i := 0; i < images; i++ {
		st := time.Now()
		_ = must(postService.Create(ctx, reader, service.PostForm{
			Text:  fmt.Sprintf("image post %d", i),
			Image: &service.Upload{Filename: fmt.Sprintf("img%d.png", i), Data: testImage(i)},
		}))
		create = append(create, time.Since(st))
	}
	land := make([]time.Duration, 0, images)
	timeout := time.After(2 * time.Minute)
collect:
	for len(land) < images {
		select {
		case d := <-thumbs.Metrics():
			land = append(land, d)
		case <-timeout:
			fmt.Printf("timeout while waiting for thumbnails: got=%d want=%d\n", len(land), images)
			break collect
		}
	}
	stopCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	_ = stop(stopCtx)
	cancel()

	fmt.Printf("AUTHORS=%d POSTS=%d READS=%d IMAGES=%d WORKERS=%d PER_PAGE=%d\n", authors, posts, reads, images, workers, perPage)
	fmt.Printf("Feed read:   avg=%v p95=%v p99=%v\n", avg(feed), pct(feed, 0.95), pct(feed, 0.99))
	fmt.Printf("Index read:  avg=%v p95=%v p99=%v\n", avg(index), pct(index, 0.95), pct(index, 0.99))
	fmt.Printf("Post create: avg=%v p95=%v p99=%v\n", avg(create), pct(create, 0.95), pct(create, 0.99))
	fmt.Printf("Thumbnail landing (enqueue->saved): samples=%d avg=%v p95=%v p99=%v\n", len(land), avg(land), pct(land, 0.95), pct(land, 0.99))
}
