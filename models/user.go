package models

import "github.com/uptrace/bun"

// User is an admin account allowed to inspect the pool. Password holds a bcrypt hash.
type User struct {
	bun.BaseModel `bun:"table:admin_users,alias:au"`

	ID       int64  `bun:"id,pk,autoincrement" json:"id"`
	Username string `bun:"username,notnull,unique,type:varchar(64)" json:"username"`
	Password string `bun:"password,notnull,type:varchar(72)" json:"-"`
}
