package repository

import (
	"context"
	"errors"
	"fmt"

	"traffic-counter-go/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNotFound сессия не найдена
var ErrNotFound = errors.New("session not found")

// SessionRepository интерфейс для работы с сессиями подсчета
type SessionRepository interface {
	Create(ctx context.Context, session *model.Session) error
	GetByID(ctx context.Context, id string) (*model.Session, error)
	List(ctx context.Context, page, pageSize int) ([]*model.Session, int64, error)
	Delete(ctx context.Context, id string) error
	Update(ctx context.Context, session *model.Session) error
}

// sessionRepository реализация SessionRepository
type sessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository создает новый instance SessionRepository
func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepository{
		db: db,
	}
}

// Create создает новую сессию вместе со счетчиками и событиями
func (r *sessionRepository) Create(ctx context.Context, session *model.Session) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(session).Error; err != nil {
			return fmt.Errorf("failed to create session: %w", err)
		}
		return createChildren(tx, session)
	})
}

// GetByID получает сессию по ID
func (r *sessionRepository) GetByID(ctx context.Context, id string) (*model.Session, error) {
	var session model.Session
	err := r.db.WithContext(ctx).
		Preload("ClassCounts", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Crossings", func(db *gorm.DB) *gorm.DB { return db.Order("frame_index, id") }).
		Where("id = ?", id).
		First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &session, nil
}

// List получает список сессий с пагинацией, новые первыми.
// События пересечений в список не подгружаются.
func (r *sessionRepository) List(ctx context.Context, page, pageSize int) ([]*model.Session, int64, error) {
	var sessions []*model.Session
	var total int64

	db := r.db.WithContext(ctx)

	// Подсчитываем общее количество
	if err := db.Model(&model.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count sessions: %w", err)
	}

	// Получаем сессии с пагинацией
	offset := (page - 1) * pageSize
	err := db.Preload("ClassCounts", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Offset(offset).
		Limit(pageSize).
		Order("started_at DESC").
		Find(&sessions).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list sessions: %w", err)
	}

	return sessions, total, nil
}

// Delete удаляет сессию по ID
func (r *sessionRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := deleteChildren(tx, id); err != nil {
			return err
		}

		result := tx.Where("id = ?", id).Delete(&model.Session{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete session: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil
	})
}

// Update обновляет сессию и полностью заменяет ее счетчики и события
func (r *sessionRepository) Update(ctx context.Context, session *model.Session) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.Session{}).Where("id = ?", session.ID).Select("*").Omit(clause.Associations, "created_at").Updates(session)
		if result.Error != nil {
			return fmt.Errorf("failed to update session: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("%w: %s", ErrNotFound, session.ID)
		}

		if err := deleteChildren(tx, session.ID); err != nil {
			return err
		}
		return createChildren(tx, session)
	})
}

func createChildren(tx *gorm.DB, session *model.Session) error {
	for i := range session.ClassCounts {
		session.ClassCounts[i].ID = 0 // Обнуляем ID для auto-increment
		session.ClassCounts[i].SessionID = session.ID
	}
	if len(session.ClassCounts) > 0 {
		if err := tx.Create(&session.ClassCounts).Error; err != nil {
			return fmt.Errorf("failed to create class counts: %w", err)
		}
	}

	for i := range session.Crossings {
		session.Crossings[i].ID = 0
		session.Crossings[i].SessionID = session.ID
	}
	if len(session.Crossings) > 0 {
		if err := tx.CreateInBatches(&session.Crossings, 500).Error; err != nil {
			return fmt.Errorf("failed to create crossing events: %w", err)
		}
	}

	return nil
}

func deleteChildren(tx *gorm.DB, sessionID string) error {
	if err := tx.Where("session_id = ?", sessionID).Delete(&model.ClassCount{}).Error; err != nil {
		return fmt.Errorf("failed to delete class counts: %w", err)
	}
	if err := tx.Where("session_id = ?", sessionID).Delete(&model.CrossingEvent{}).Error; err != nil {
		return fmt.Errorf("failed to delete crossing events: %w", err)
	}
	return nil
}
