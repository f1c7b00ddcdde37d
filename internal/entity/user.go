package entity

import "time"

// User is the minimal identity record the pipeline authenticates against.
// Registration and session management live outside this service.
type User struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Email          string    `gorm:"unique;not null" json:"email"`
	APIToken       string    `gorm:"column:api_token;unique;not null" json:"-"`
	TelegramChatID *int64    `gorm:"column:telegram_chat_id" json:"telegram_chat_id,omitempty"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name for the User model.
func (User) TableName() string {
	return "users"
}
