package domain

import "time"

// User 客戶，一個 User 可擁有多個 Account
type User struct {
	ID        int64
	Name      string
	Email     string
	CreatedAt time.Time
}

// NewUser 建立新使用者 (ID 與 CreatedAt 由儲存層分配)
func NewUser(name, email string) *User {
	return &User{
		Name:  name,
		Email: email,
	}
}
