package models

import "time"

// Tag 标签，首次被文件引用时懒创建，不会被显式删除
type Tag struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"uniqueIndex:idx_tags_name;not null" json:"name"`
	CreatedAt time.Time `json:"-"`
}

// TagFile 标签与文件的多对多关联，无独立主键
// 任意一侧删除时连带删除
type TagFile struct {
	TagID  uint `gorm:"not null;index:idx_tag_files_tag_and_file_id,priority:2" json:"tag_id"`
	Tag    Tag  `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	FileID uint `gorm:"not null;index:idx_tag_files_tag_and_file_id,priority:1" json:"file_id"`
	File   File `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// TableName 与既有表结构保持一致
func (TagFile) TableName() string {
	return "tag_files"
}
