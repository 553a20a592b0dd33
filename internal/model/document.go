package model

import "time"

type Document struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	Title      string    `gorm:"size:256;not null" json:"title"`
	Source     string    `gorm:"size:256;not null" json:"source"`
	ChunkCount int       `json:"chunk_count"`
	CreatedAt  time.Time `json:"created_at"`
}
