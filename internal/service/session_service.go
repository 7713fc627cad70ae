package service

import (
	"context"
	"fmt"

	"traffic-counter-go/internal/counter"
	"traffic-counter-go/internal/model"
	"traffic-counter-go/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// SessionService сервис для хранения сессий подсчета
type SessionService struct {
	sessionRepo repository.SessionRepository
	logger      *logrus.Logger
}

// NewSessionService создает новый сервис для работы с сессиями
func NewSessionService(sessionRepo repository.SessionRepository, logger *logrus.Logger) *SessionService {
	return &SessionService{
		sessionRepo: sessionRepo,
		logger:      logger,
	}
}

// CreateSession сохраняет новую сессию в базе данных
func (s *SessionService) CreateSession(ctx context.Context, session *model.Session) error {
	s.logger.Infof("Сохраняем сессию %s в базе данных", session.ID)

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		s.logger.Errorf("Ошибка сохранения сессии в БД: %v", err)
		return fmt.Errorf("failed to save session to database: %w", err)
	}
	return nil
}

// SaveSession сохраняет итоги сессии вместе с событиями пересечения
func (s *SessionService) SaveSession(ctx context.Context, session *model.Session) error {
	s.logger.Infof("Сохраняем итоги сессии %s. Пересечений: %d", session.ID, len(session.Crossings))

	if err := s.sessionRepo.Update(ctx, session); err != nil {
		s.logger.Errorf("Ошибка обновления сессии в БД: %v", err)
		return fmt.Errorf("failed to update session in database: %w", err)
	}
	return nil
}

// GetSessionByID получает сессию по ID
func (s *SessionService) GetSessionByID(ctx context.Context, sessionID string) (*model.Session, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return session, nil
}

// ListSessions получает список сессий с пагинацией
func (s *SessionService) ListSessions(ctx context.Context, page, pageSize int) ([]*model.Session, int64, error) {
	s.logger.Infof("Получаем список сессий: страница %d, размер %d", page, pageSize)

	sessions, total, err := s.sessionRepo.List(ctx, page, pageSize)
	if err != nil {
		s.logger.Errorf("Ошибка получения списка сессий: %v", err)
		return nil, 0, fmt.Errorf("failed to list sessions: %w", err)
	}
	return sessions, total, nil
}

// DeleteSession удаляет сессию по ID
func (s *SessionService) DeleteSession(ctx context.Context, sessionID string) error {
	s.logger.Infof("Удаляем сессию %s", sessionID)

	if err := s.sessionRepo.Delete(ctx, sessionID); err != nil {
		s.logger.Errorf("Ошибка удаления сессии из БД: %v", err)
		return fmt.Errorf("failed to delete session from database: %w", err)
	}
	return nil
}

// GenerateSessionID генерирует уникальный ID для сессии
func (s *SessionService) GenerateSessionID() string {
	return uuid.New().String()
}

// modelToResponse преобразует модель базы данных в ответ API
func modelToResponse(session *model.Session) *SessionResponse {
	response := &SessionResponse{
		ID:                  session.ID,
		Name:                session.Name,
		Status:              session.Status,
		ConfidenceThreshold: session.ConfidenceThreshold,
		LineRatio:           session.LineRatio,
		MaxIdleFrames:       uint64(session.MaxIdleFrames),
		StreamID:            session.StreamID,
		FramesProcessed:     session.FramesProcessed,
		Snapshot:            snapshotFromModel(session),
		StartedAt:           session.StartedAt,
		FinishedAt:          session.FinishedAt,
	}

	for _, c := range session.Crossings {
		response.Crossings = append(response.Crossings, CrossingInfo{
			TrackID:    c.TrackID,
			Class:      c.VehicleClass,
			FrameIndex: c.FrameIndex,
			PreviousY:  c.PreviousY,
			CurrentY:   c.CurrentY,
			LineY:      c.LineY,
		})
	}

	return response
}

// snapshotFromModel восстанавливает счетчики из сохраненной сессии
func snapshotFromModel(session *model.Session) counter.Snapshot {
	byClass := make(map[counter.VehicleClass]int, len(counter.VehicleClasses))
	for _, class := range counter.VehicleClasses {
		byClass[class] = 0
	}
	for _, c := range session.ClassCounts {
		byClass[counter.VehicleClass(c.VehicleClass)] = c.Count
	}
	return counter.Snapshot{Total: session.TotalCount, ByClass: byClass}
}

// classCountsFromSnapshot преобразует счетчики в строки базы данных
func classCountsFromSnapshot(snapshot counter.Snapshot) []model.ClassCount {
	counts := make([]model.ClassCount, 0, len(counter.VehicleClasses))
	for _, class := range counter.VehicleClasses {
		counts = append(counts, model.ClassCount{
			VehicleClass: string(class),
			Count:        snapshot.ByClass[class],
		})
	}
	return counts
}
