package models

import "time"

// File 文件元数据
// UUID 是对外的不透明标识，与内部主键无关，生成后不可变
type File struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Path      string    `gorm:"not null" json:"path"`
	UserID    *uint     `gorm:"index:idx_files_user_id" json:"user_id"`
	User      *User     `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Position  int       `gorm:"not null;default:0;index:idx_files_position" json:"position"`
	UUID      string    `gorm:"column:uuid;not null;index:idx_files_uuid" json:"uuid"`
	ViewCount int       `gorm:"not null;default:0" json:"view_count"`
	Type      string    `gorm:"not null" json:"type"`
	CreatedAt time.Time `gorm:"index:idx_files_created_at" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
