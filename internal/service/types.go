package service

import (
	"time"

	"traffic-counter-go/internal/counter"
)

// CrossingInfo информация о пересечении линии
type CrossingInfo struct {
	TrackID    int64  `json:"track_id"`
	Class      string `json:"class"`
	FrameIndex int64  `json:"frame_index"`
	PreviousY  int    `json:"previous_y"`
	CurrentY   int    `json:"current_y"`
	LineY      int    `json:"line_y"`
}

// SessionResponse ответ с информацией о сессии подсчета
type SessionResponse struct {
	ID                  string           `json:"id"`
	Name                string           `json:"name"`
	Status              string           `json:"status"`
	ConfidenceThreshold float64          `json:"confidence_threshold"`
	LineRatio           float64          `json:"line_ratio"`
	MaxIdleFrames       uint64           `json:"max_idle_frames"`
	StreamID            string           `json:"stream_id,omitempty"`
	FramesProcessed     int64            `json:"frames_processed"`
	Snapshot            counter.Snapshot `json:"snapshot"`
	Crossings           []CrossingInfo   `json:"crossings,omitempty"`
	StartedAt           time.Time        `json:"started_at"`
	FinishedAt          *time.Time       `json:"finished_at,omitempty"`
}

// ListSessionsResponse ответ со списком сессий
type ListSessionsResponse struct {
	Sessions []SessionResponse `json:"sessions"`
	Total    int64             `json:"total"`
	Page     int               `json:"page"`
	Size     int               `json:"size"`
}
