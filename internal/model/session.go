package model

import (
	"time"

	"gorm.io/gorm"
)

// Статусы сессии подсчета
const (
	SessionRunning   = "running"
	SessionStopped   = "stopped"
	SessionCompleted = "completed"
)

// Session представляет сессию подсчета в базе данных
type Session struct {
	ID                  string  `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Name                string  `gorm:"type:varchar(255);not null" json:"name"`
	ConfidenceThreshold float64 `gorm:"not null" json:"confidence_threshold"`
	LineRatio           float64 `gorm:"not null" json:"line_ratio"`
	MaxIdleFrames       int64   `gorm:"not null;default:0" json:"max_idle_frames"`
	Status              string  `gorm:"type:varchar(20);not null;index" json:"status"`
	StreamID            string  `gorm:"type:varchar(255)" json:"stream_id"`

	// Итоги подсчета
	FramesProcessed int64 `gorm:"not null;default:0" json:"frames_processed"`
	TotalCount      int   `gorm:"not null;default:0" json:"total_count"`

	StartedAt  time.Time  `gorm:"not null" json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	// Связи со счетчиками и событиями
	ClassCounts []ClassCount    `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE" json:"class_counts"`
	Crossings   []CrossingEvent `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE" json:"crossings"`
}

// ClassCount представляет счетчик одной категории транспорта
type ClassCount struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	SessionID    string `gorm:"type:varchar(36);not null;index" json:"session_id"`
	VehicleClass string `gorm:"type:varchar(20);not null" json:"vehicle_class"`
	Count        int    `gorm:"not null" json:"count"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// CrossingEvent представляет одно пересечение линии
type CrossingEvent struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	SessionID    string `gorm:"type:varchar(36);not null;index" json:"session_id"`
	TrackID      int64  `gorm:"not null" json:"track_id"`
	VehicleClass string `gorm:"type:varchar(20);not null" json:"vehicle_class"`
	FrameIndex   int64  `gorm:"not null" json:"frame_index"`
	PreviousY    int    `gorm:"not null" json:"previous_y"`
	CurrentY     int    `gorm:"not null" json:"current_y"`
	LineY        int    `gorm:"not null" json:"line_y"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName указывает имя таблицы для Session
func (Session) TableName() string {
	return "sessions"
}

// TableName указывает имя таблицы для ClassCount
func (ClassCount) TableName() string {
	return "class_counts"
}

// TableName указывает имя таблицы для CrossingEvent
func (CrossingEvent) TableName() string {
	return "crossing_events"
}
