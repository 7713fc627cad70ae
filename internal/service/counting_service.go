package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"traffic-counter-go/internal/counter"
	"traffic-counter-go/internal/model"
	"traffic-counter-go/internal/repository"
	"traffic-counter-go/pkg/models"

	"github.com/sirupsen/logrus"
)

var (
	// ErrSessionNotFound сессия не существует
	ErrSessionNotFound = repository.ErrNotFound
	// ErrSessionStopped сессия уже остановлена и кадры не принимает
	ErrSessionStopped = errors.New("session is not running")
	// ErrSessionBusy сессия уже читает поток
	ErrSessionBusy = errors.New("session is already consuming a stream")
)

// liveSession сессия, которая сейчас принимает кадры
type liveSession struct {
	mu        sync.Mutex
	record    *model.Session
	processor *counter.Processor
	stopped   bool
	cancel    context.CancelFunc
}

// CountingService сервис подсчета транспорта
type CountingService struct {
	sessionService *SessionService
	detector       Detector
	defaults       counter.Config
	logger         *logrus.Logger

	mu   sync.RWMutex
	live map[string]*liveSession
}

// NewCountingService создает новый сервис подсчета
func NewCountingService(sessionService *SessionService, detector Detector, defaults counter.Config, logger *logrus.Logger) *CountingService {
	return &CountingService{
		sessionService: sessionService,
		detector:       detector,
		defaults:       defaults,
		logger:         logger,
		live:           make(map[string]*liveSession),
	}
}

// DefaultConfig возвращает параметры подсчета по умолчанию
func (s *CountingService) DefaultConfig() counter.Config {
	return s.defaults
}

// StartSession открывает новую сессию подсчета
func (s *CountingService) StartSession(ctx context.Context, name string, cfg counter.Config) (*SessionResponse, error) {
	processor, err := counter.NewProcessor(cfg)
	if err != nil {
		return nil, err
	}

	id := s.sessionService.GenerateSessionID()
	if name == "" {
		name = fmt.Sprintf("Session %s", id[:8])
	}

	record := &model.Session{
		ID:                  id,
		Name:                name,
		ConfidenceThreshold: cfg.ConfidenceThreshold,
		LineRatio:           cfg.LineRatio,
		MaxIdleFrames:       int64(cfg.MaxIdleFrames),
		Status:              model.SessionRunning,
		StartedAt:           time.Now().UTC(),
		ClassCounts:         classCountsFromSnapshot(processor.Snapshot()),
	}
	if err := s.sessionService.CreateSession(ctx, record); err != nil {
		return nil, err
	}

	ls := &liveSession{record: record, processor: processor}
	s.mu.Lock()
	s.live[id] = ls
	s.mu.Unlock()

	s.logger.WithFields(logrus.Fields{
		"session_id":           id,
		"confidence_threshold": cfg.ConfidenceThreshold,
		"line_ratio":           cfg.LineRatio,
	}).Info("Сессия подсчета открыта")

	return ls.response(), nil
}

// ProcessFrame обрабатывает детекции одного кадра сессии.
// Кадры одной сессии обрабатываются строго по очереди.
func (s *CountingService) ProcessFrame(ctx context.Context, sessionID string, batch models.FrameBatch) (*counter.FrameResult, error) {
	ls, err := s.getLive(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	ls.mu.Lock()
	defer ls.mu.Unlock()

	if ls.stopped {
		return nil, ErrSessionStopped
	}

	result, err := ls.processor.ProcessFrame(batch.Width, batch.Height, toDetections(batch.Detections))
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}

	ls.record.FramesProcessed++
	for _, c := range result.Crossings {
		ls.record.Crossings = append(ls.record.Crossings, model.CrossingEvent{
			SessionID:    sessionID,
			TrackID:      int64(c.TrackID),
			VehicleClass: string(c.Class),
			FrameIndex:   int64(result.FrameIndex),
			PreviousY:    c.PreviousY,
			CurrentY:     c.CurrentY,
			LineY:        c.LineY,
		})

		s.logger.WithFields(logrus.Fields{
			"session_id": sessionID,
			"track_id":   c.TrackID,
			"class":      c.Class,
			"frame":      result.FrameIndex,
		}).Debug("Объект пересек линию")
	}

	return result, nil
}

// Snapshot возвращает текущие счетчики сессии
func (s *CountingService) Snapshot(ctx context.Context, sessionID string) (counter.Snapshot, error) {
	s.mu.RLock()
	ls, ok := s.live[sessionID]
	s.mu.RUnlock()
	if ok {
		// Под замком сессии кадр виден либо целиком, либо никак
		ls.mu.Lock()
		defer ls.mu.Unlock()
		return ls.processor.Snapshot(), nil
	}

	session, err := s.sessionService.GetSessionByID(ctx, sessionID)
	if err != nil {
		return counter.Snapshot{}, err
	}
	return snapshotFromModel(session), nil
}

// GetSession возвращает сессию: живую из памяти или сохраненную из базы
func (s *CountingService) GetSession(ctx context.Context, sessionID string) (*SessionResponse, error) {
	s.mu.RLock()
	ls, ok := s.live[sessionID]
	s.mu.RUnlock()
	if ok {
		return ls.response(), nil
	}

	session, err := s.sessionService.GetSessionByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return modelToResponse(session), nil
}

// ListSessions возвращает сессии с пагинацией. Для открытых сессий счетчики берутся из памяти.
func (s *CountingService) ListSessions(ctx context.Context, page, pageSize int) ([]SessionResponse, int64, error) {
	sessions, total, err := s.sessionService.ListSessions(ctx, page, pageSize)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]SessionResponse, len(sessions))
	for i, session := range sessions {
		s.mu.RLock()
		ls, ok := s.live[session.ID]
		s.mu.RUnlock()

		var resp *SessionResponse
		if ok {
			resp = ls.response()
		} else {
			resp = modelToResponse(session)
		}
		// В списке события пересечений не нужны
		resp.Crossings = nil
		responses[i] = *resp
	}
	return responses, total, nil
}

// StopSession завершает сессию и сохраняет итоги. Кадр, который обрабатывается
// в момент остановки, всегда обрабатывается до конца. Если итоги сохранить
// не удалось, сессия остается открытой и остановку можно повторить.
func (s *CountingService) StopSession(ctx context.Context, sessionID, status string) (*SessionResponse, error) {
	ls, err := s.getLive(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	ls.mu.Lock()
	if ls.stopped {
		ls.mu.Unlock()
		return nil, ErrSessionStopped
	}

	prevStatus, prevTotal, prevCounts := ls.record.Status, ls.record.TotalCount, ls.record.ClassCounts

	finishedAt := time.Now().UTC()
	snapshot := ls.processor.Snapshot()
	ls.record.Status = status
	ls.record.FinishedAt = &finishedAt
	ls.record.TotalCount = snapshot.Total
	ls.record.ClassCounts = classCountsFromSnapshot(snapshot)

	if err := s.sessionService.SaveSession(ctx, ls.record); err != nil {
		ls.record.Status = prevStatus
		ls.record.FinishedAt = nil
		ls.record.TotalCount = prevTotal
		ls.record.ClassCounts = prevCounts
		ls.mu.Unlock()

		s.logger.WithField("session_id", sessionID).Errorf("Не удалось сохранить итоги сессии: %v", err)
		return nil, err
	}

	if ls.cancel != nil {
		ls.cancel()
	}
	ls.stopped = true
	ls.mu.Unlock()

	s.mu.Lock()
	delete(s.live, sessionID)
	s.mu.Unlock()

	s.logger.WithFields(logrus.Fields{
		"session_id": sessionID,
		"status":     status,
		"frames":     ls.record.FramesProcessed,
		"total":      snapshot.Total,
	}).Info("Сессия подсчета завершена")

	return ls.response(), nil
}

// DeleteSession удаляет сессию, предварительно остановив ее
func (s *CountingService) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	ls, ok := s.live[sessionID]
	delete(s.live, sessionID)
	s.mu.Unlock()

	if ok {
		ls.mu.Lock()
		if ls.cancel != nil {
			ls.cancel()
		}
		ls.stopped = true
		ls.mu.Unlock()
	}

	return s.sessionService.DeleteSession(ctx, sessionID)
}

// Run читает кадры из источника, пока они не закончатся или не отменят контекст.
// Отмена проверяется только между кадрами.
func (s *CountingService) Run(ctx context.Context, sessionID string, source FrameSource) error {
	logger := s.logger.WithField("session_id", sessionID)

	for {
		if ctx.Err() != nil {
			logger.Info("Анализ остановлен")
			return s.finish(sessionID, model.SessionStopped)
		}

		batch, err := source.Next(ctx)
		if errors.Is(err, io.EOF) {
			logger.Info("Конец видео")
			return s.finish(sessionID, model.SessionCompleted)
		}
		if err != nil {
			if ctx.Err() != nil {
				logger.Info("Анализ остановлен")
				return s.finish(sessionID, model.SessionStopped)
			}
			logger.Errorf("Ошибка получения кадра: %v", err)
			if ferr := s.finish(sessionID, model.SessionStopped); ferr != nil {
				logger.Errorf("Ошибка сохранения итогов: %v", ferr)
			}
			return fmt.Errorf("failed to read next frame: %w", err)
		}

		if _, err := s.ProcessFrame(ctx, sessionID, *batch); err != nil {
			if errors.Is(err, ErrSessionStopped) || errors.Is(err, ErrSessionNotFound) {
				return nil
			}
			logger.Errorf("Ошибка обработки кадра: %v", err)
			if ferr := s.finish(sessionID, model.SessionStopped); ferr != nil {
				logger.Errorf("Ошибка сохранения итогов: %v", ferr)
			}
			return err
		}
	}
}

// StartStream запускает чтение потока сервиса детекции в фоне
func (s *CountingService) StartStream(ctx context.Context, sessionID, streamID string) error {
	ls, err := s.getLive(ctx, sessionID)
	if err != nil {
		return err
	}

	ls.mu.Lock()
	if ls.stopped {
		ls.mu.Unlock()
		return ErrSessionStopped
	}
	if ls.cancel != nil {
		ls.mu.Unlock()
		return ErrSessionBusy
	}
	runCtx, cancel := context.WithCancel(context.Background())
	ls.cancel = cancel
	ls.record.StreamID = streamID
	ls.mu.Unlock()

	s.logger.WithFields(logrus.Fields{
		"session_id": sessionID,
		"stream_id":  streamID,
	}).Info("Запуск анализа потока")

	go func() {
		defer cancel()
		if err := s.Run(runCtx, sessionID, NewDetectorSource(s.detector, streamID)); err != nil {
			s.logger.Errorf("Анализ потока %s завершился с ошибкой: %v", streamID, err)
		}

		// Сессия могла остаться открытой, если итоги не сохранились
		ls.mu.Lock()
		if !ls.stopped {
			ls.cancel = nil
		}
		ls.mu.Unlock()
	}()
	return nil
}

// CheckHealth проверяет состояние сервиса детекции
func (s *CountingService) CheckHealth(ctx context.Context) error {
	s.logger.Debug("Проверяем состояние сервиса детекции")

	health, err := s.detector.CheckHealth(ctx)
	if err != nil {
		return fmt.Errorf("detector unavailable: %w", err)
	}
	if health.Status != "healthy" {
		return fmt.Errorf("detector unhealthy: status %q", health.Status)
	}
	return nil
}

// Shutdown останавливает все открытые сессии и сохраняет их итоги
func (s *CountingService) Shutdown(ctx context.Context) error {
	s.mu.RLock()
	ids := make([]string, 0, len(s.live))
	for id := range s.live {
		ids = append(ids, id)
	}
	s.mu.RUnlock()

	var errs []error
	for _, id := range ids {
		if _, err := s.StopSession(ctx, id, model.SessionStopped); err != nil &&
			!errors.Is(err, ErrSessionStopped) && !errors.Is(err, ErrSessionNotFound) {
			errs = append(errs, fmt.Errorf("session %s: %w", id, err))
		}
	}
	return errors.Join(errs...)
}

// finish завершает сессию, если ее еще не остановили снаружи
func (s *CountingService) finish(sessionID, status string) error {
	_, err := s.StopSession(context.Background(), sessionID, status)
	if errors.Is(err, ErrSessionStopped) || errors.Is(err, ErrSessionNotFound) {
		return nil
	}
	return err
}

// getLive возвращает открытую сессию или объясняет, почему ее нет
func (s *CountingService) getLive(ctx context.Context, sessionID string) (*liveSession, error) {
	s.mu.RLock()
	ls, ok := s.live[sessionID]
	s.mu.RUnlock()
	if ok {
		return ls, nil
	}

	if _, err := s.sessionService.GetSessionByID(ctx, sessionID); err != nil {
		return nil, err
	}
	return nil, ErrSessionStopped
}

// response собирает ответ по живой сессии
func (ls *liveSession) response() *SessionResponse {
	ls.mu.Lock()
	defer ls.mu.Unlock()

	resp := modelToResponse(ls.record)
	resp.Snapshot = ls.processor.Snapshot()
	return resp
}
