package model

// Group 帖子分组（静态参考数据）
type Group struct {
	ID          uint64 `json:"id" gorm:"primaryKey"`
	Title       string `json:"title" gorm:"type:varchar(200);not null"`
	Slug        string `json:"slug" gorm:"type:varchar(100);uniqueIndex:ux_group_slug;not null"`
	Description string `json:"description" gorm:"type:text"`
}

func (Group) TableName() string { return "groups" }

func (g *Group) String() string { return g.Title }
