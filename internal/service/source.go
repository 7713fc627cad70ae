package service

import (
	"context"

	"traffic-counter-go/internal/counter"
	"traffic-counter-go/internal/geo"
	"traffic-counter-go/pkg/models"
)

// FrameSource источник кадров. Когда кадры закончились, Next возвращает io.EOF.
type FrameSource interface {
	Next(ctx context.Context) (*models.FrameBatch, error)
}

// Detector внешний сервис детекции и трекинга
type Detector interface {
	NextFrame(ctx context.Context, streamID string) (*models.DetectorFrameResponse, error)
	CheckHealth(ctx context.Context) (*models.HealthResponse, error)
}

// DetectorSource читает кадры одного потока из сервиса детекции
type DetectorSource struct {
	detector Detector
	streamID string
}

// NewDetectorSource создает источник кадров для потока
func NewDetectorSource(detector Detector, streamID string) *DetectorSource {
	return &DetectorSource{detector: detector, streamID: streamID}
}

// Next запрашивает следующий кадр
func (s *DetectorSource) Next(ctx context.Context) (*models.FrameBatch, error) {
	frame, err := s.detector.NextFrame(ctx, s.streamID)
	if err != nil {
		return nil, err
	}
	return &frame.FrameBatch, nil
}

// StreamID возвращает идентификатор потока
func (s *DetectorSource) StreamID() string {
	return s.streamID
}

// toDetections преобразует детекции из формата API в формат ядра подсчета
func toDetections(in []models.Detection) []counter.Detection {
	out := make([]counter.Detection, len(in))
	for i, d := range in {
		out[i] = counter.Detection{
			Box:        geo.Box{X1: d.Box[0], Y1: d.Box[1], X2: d.Box[2], Y2: d.Box[3]},
			TrackID:    counter.TrackID(d.TrackID),
			ClassID:    d.ClassID,
			Label:      d.Label,
			Confidence: d.Confidence,
		}
	}
	return out
}
