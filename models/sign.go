package models

import "github.com/uptrace/bun"

// Sign is one pre-generated prize record in the draw pool.
// Rows are created in bulk by the pool initializer; a draw only flips IsDrawn.
type Sign struct {
	bun.BaseModel `bun:"table:signs,alias:s"`

	ID         string `bun:"id,pk,type:varchar(20)" json:"id"`
	Level      int    `bun:"level,notnull" json:"level"`
	Type       string `bun:"type,notnull,type:varchar(20)" json:"type"`
	RewardCode string `bun:"reward_code,notnull,type:varchar(20)" json:"reward_code"`
	IsDrawn    bool   `bun:"is_drawn,notnull,default:false" json:"-"`
}
