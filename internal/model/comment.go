package model

import "time"

// Comment 帖子评论
type Comment struct {
	ID        uint64    `json:"id" gorm:"primaryKey"`
	PostID    uint64    `json:"post_id" gorm:"not null;index:idx_comment_post_created,priority:1"`
	Post      *Post     `json:"-" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	AuthorID  uint64    `json:"-" gorm:"not null"`
	Author    *User     `json:"author,omitempty" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Text      string    `json:"text" gorm:"type:text;not null"`
	CreatedAt time.Time `json:"created" gorm:"index:idx_comment_post_created,priority:2"`
}

func (Comment) TableName() string { return "comments" }
