package db

import "time"

// User 定义了后台用户模型
type User struct {
	ID           uint      `gorm:"primaryKey"`
	Username     string    `gorm:"unique;not null"`
	PasswordHash string    `gorm:"not null"`
	InsertedAt   time.Time `gorm:"autoCreateTime"`
}

// TableName 指定表名。
func (User) TableName() string {
	return "users"
}
