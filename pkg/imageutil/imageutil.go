package imageutil

import (
	"bytes"
	"errors"
	"image"
	_ "image/gif" // 注册解码器
	"image/jpeg"
	_ "image/png"
	"io"

	"github.com/nfnt/resize"
)

// ThumbSize 帖子缩略图的最大边长
const ThumbSize = 960

// MaxUploadSize 上传图片大小上限
const MaxUploadSize = 10 << 20

// MaxPixels 解码前限制像素数，防止小文件解压出超大位图
const MaxPixels = 40_000_000

var (
	ErrUnsupportedImage = errors.New("upload a valid image: the file is not an image or is corrupted")
	ErrImageTooLarge    = errors.New("image dimensions are too large")
)

var extensions = map[string]string{
	"jpeg": ".jpg",
	"png":  ".png",
	"gif":  ".gif",
}

// Info 上传图片的基本信息
type Info struct {
	Format      string
	Ext         string
	ContentType string
	Width       int
	Height      int
}

// Detect 只读取图片头部，判断格式和尺寸
func Detect(data []byte) (Info, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Info{}, ErrUnsupportedImage
	}
	ext, ok := extensions[format]
	if !ok || cfg.Width <= 0 || cfg.Height <= 0 {
		return Info{}, ErrUnsupportedImage
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return Info{}, ErrImageTooLarge
	}
	return Info{
		Format:      format,
		Ext:         ext,
		ContentType: "image/" + format,
		Width:       cfg.Width,
		Height:      cfg.Height,
	}, nil
}

type ThumbResult struct {
	OldX, OldY int
	NewX, NewY int
	ThumbSize  int64
}

// CreateThumb 按比例缩放到 size x size 以内并编码为 jpeg
func CreateThumb(size uint, reader io.Reader, writer io.Writer) (result ThumbResult, err error) {
	data, err := io.ReadAll(io.LimitReader(reader, MaxUploadSize+1))
	if err != nil {
		return result, err
	}
	if len(data) > MaxUploadSize {
		return result, ErrImageTooLarge
	}
	if _, err = Detect(data); err != nil {
		return result, err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return result, err
	}
	var buf bytes.Buffer
	thumb := resize.Thumbnail(size, size, img, resize.Lanczos3)
	if err = jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: 90}); err != nil {
		return
	}
	rect := thumb.Bounds().Size()
	result.NewX, result.NewY = rect.X, rect.Y

	rect = img.Bounds().Size()
	result.OldX, result.OldY = rect.X, rect.Y

	result.ThumbSize, err = io.Copy(writer, &buf)
	return
}
