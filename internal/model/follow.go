package model

import (
	"time"
)

// Follow 关注关系（User 关注 Author）
type Follow struct {
	ID       uint64 `gorm:"primaryKey"`
	UserID   uint64 `gorm:"not null;index:idx_follow_pair,unique;check:chk_follow_not_self,user_id <> author_id"`
	User     *User  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	AuthorID uint64 `gorm:"not null;index:idx_follow_pair,unique;index:idx_follow_author"`
	Author   *User  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	// 复合唯一键，避免重复关注
	// idx_follow_pair = (user_id, author_id)
	CreatedAt time.Time
}

func (Follow) TableName() string { return "follows" }

// All 需要迁移的全部模型
func All() []interface{} {
	return []interface{}{&User{}, &Group{}, &Post{}, &Comment{}, &Follow{}}
}
