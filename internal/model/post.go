package model

import "time"

// postPreviewLen String() 截取的字符数
const postPreviewLen = 15

// Post 帖子，仅作者可修改，不做物理删除
type Post struct {
	ID        uint64    `json:"id" gorm:"primaryKey"`
	Text      string    `json:"text" gorm:"type:text;not null"`
	CreatedAt time.Time `json:"pub_date" gorm:"index:idx_post_created;index:idx_post_author_created,priority:2;index:idx_post_group_created,priority:2"`
	UpdatedAt time.Time `json:"-"`
	AuthorID  uint64    `json:"-" gorm:"not null;index:idx_post_author_created,priority:1"`
	Author    *User     `json:"author,omitempty" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	GroupID   *uint64   `json:"group_id,omitempty" gorm:"index:idx_post_group_created,priority:1"`
	Group     *Group    `json:"group,omitempty" gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;"`
	Image     string    `json:"image,omitempty" gorm:"type:varchar(300)"`
	Thumbnail string    `json:"thumbnail,omitempty" gorm:"type:varchar(300)"`
}

func (Post) TableName() string { return "posts" }

// String 正文前 15 个字符
func (p *Post) String() string {
	r := []rune(p.Text)
	if len(r) <= postPreviewLen {
		return p.Text
	}
	return string(r[:postPreviewLen])
}

// DisplayImage 有缩略图时优先使用缩略图
func (p *Post) DisplayImage() string {
	if p.Thumbnail != "" {
		return p.Thumbnail
	}
	return p.Image
}
