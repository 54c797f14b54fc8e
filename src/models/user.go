package models

import (
	"time"
)

type User struct {
	ID int `db:"id"`

	Username string `db:"username"`
	Password string `db:"password"`

	DateJoined time.Time  `db:"date_joined"`
	LastLogin  *time.Time `db:"last_login"`
}
