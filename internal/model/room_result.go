package model

import (
	"time"
)

// RoomResult is the durable record of one finished round. The pipeline
// mutates it stage by stage: PENDING on round end, ANALYZING once the
// analysis JSON is persisted, COMPLETED/FAILED when the pipeline terminates.
// A failed generation never clears an already persisted analysis.
type RoomResult struct {
	RoomID       string       `gorm:"primaryKey;size:64" json:"room_id"`
	Status       ResultStatus `gorm:"size:16;not null;index" json:"status"`
	Topic        string       `gorm:"size:128" json:"topic"`
	PlayerCount  int          `json:"player_count"`
	Analysis     *string      `gorm:"type:jsonb" json:"analysis,omitempty"`
	DrawingKey   *string      `gorm:"size:256" json:"drawing_key,omitempty"`
	GeneratedKey *string      `gorm:"size:256" json:"generated_key,omitempty"`
	Error        *string      `gorm:"type:text" json:"error,omitempty"`
	CreatedAt    time.Time    `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt    time.Time    `gorm:"autoUpdateTime" json:"updated_at"`
}

func (RoomResult) TableName() string {
	return "room_results"
}
