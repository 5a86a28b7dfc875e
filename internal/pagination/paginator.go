package pagination

import "strconv"

// PostsPerPage 每页帖子数
const PostsPerPage = 10

// Page 分页结果，语义同 get_page：非法页码取第 1 页，越界页码取最后一页
type Page[T any] struct {
	Number   int
	NumPages int
	Count    int64
	PerPage  int
	Items    []T
}

// Window 页码窗口：查询所需的 offset/limit
type Window struct {
	Number   int
	NumPages int
	Count    int64
	PerPage  int
}

// Paginate 根据总数与原始页码参数计算页码窗口
func Paginate(total int64, pageParam string, perPage int) Window {
	if perPage <= 0 {
		perPage = PostsPerPage
	}
	numPages := 1
	if total > 0 {
		numPages = int((total + int64(perPage) - 1) / int64(perPage))
	}

	number, err := strconv.Atoi(pageParam)
	switch {
	case err != nil:
		number = 1
	case number < 1 || number > numPages:
		number = numPages
	}
	return Window{Number: number, NumPages: numPages, Count: total, PerPage: perPage}
}

func (w Window) Offset() int { return (w.Number - 1) * w.PerPage }
func (w Window) Limit() int { return w.PerPage }

// With 填充当前页数据
func With[T any](w Window, items []T) *Page[T] {
	return &Page[T]{Number: w.Number, NumPages: w.NumPages, Count: w.Count, PerPage: w.PerPage, Items: items}
}

func (p *Page[T]) HasPrevious() bool { return p.Number > 1 }
func (p *Page[T]) HasNext() bool { return p.Number < p.NumPages }
func (p *Page[T]) HasOtherPages() bool { return p.HasPrevious() || p.HasNext() }
func (p *Page[T]) PreviousNumber() int { return p.Number - 1 }
func (p *Page[T]) NextNumber() int { return p.Number + 1 }
func (p *Page[T]) Len() int { return len(p.Items) }

// StartIndex 当前页第一条的序号（从 1 开始），空页为 0
func (p *Page[T]) StartIndex() int {
	if p.Count == 0 {
		return 0
	}
	return (p.Number-1)*p.PerPage + 1
}

// PageRange 全部页码，用于分页控件
func (p *Page[T]) PageRange() []int {
	r := make([]int, p.NumPages)
	for i := range r {
		r[i] = i + 1
	}
	return r
}
