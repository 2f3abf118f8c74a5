package users

import "time"

type User struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	// never serialized, the hash stays server side
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}
