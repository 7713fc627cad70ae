package handler

import (
	"net/http"
	"strconv"

	"traffic-counter-go/internal/model"
	"traffic-counter-go/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// StartSessionRequest запрос на открытие сессии подсчета.
// Незаданные параметры берутся из конфигурации сервера.
type StartSessionRequest struct {
	Name                string   `json:"name"`
	ConfidenceThreshold *float64 `json:"confidence_threshold" binding:"omitempty,min=0,max=1"`
	LineRatio           *float64 `json:"line_ratio" binding:"omitempty,min=0,max=1"`
	MaxIdleFrames       *uint64  `json:"max_idle_frames"`
}

// SessionHandler обрабатывает HTTP запросы для работы с сессиями подсчета
type SessionHandler struct {
	countingService *service.CountingService
	dbHealth        func() error
	logger          *logrus.Logger
}

// NewSessionHandler создает новый экземпляр SessionHandler
func NewSessionHandler(countingService *service.CountingService, dbHealth func() error, logger *logrus.Logger) *SessionHandler {
	return &SessionHandler{
		countingService: countingService,
		dbHealth:        dbHealth,
		logger:          logger,
	}
}

// RegisterRoutes регистрирует маршруты API
func (h *SessionHandler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api/v1")
	{
		api.POST("/sessions", h.StartSession)
		api.GET("/sessions", h.ListSessions)
		api.GET("/sessions/:id", h.GetSession)
		api.DELETE("/sessions/:id", h.DeleteSession)
		api.POST("/sessions/:id/stop", h.StopSession)
		api.GET("/health", h.CheckHealth)
	}
}

// StartSession открывает новую сессию подсчета
func (h *SessionHandler) StartSession(c *gin.Context) {
	h.logger.Info("Получен запрос на открытие сессии подсчета")

	var req StartSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Errorf("Ошибка парсинга запроса: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный формат запроса", "details": err.Error()})
		return
	}

	cfg := h.countingService.DefaultConfig()
	if req.ConfidenceThreshold != nil {
		cfg.ConfidenceThreshold = *req.ConfidenceThreshold
	}
	if req.LineRatio != nil {
		cfg.LineRatio = *req.LineRatio
	}
	if req.MaxIdleFrames != nil {
		cfg.MaxIdleFrames = *req.MaxIdleFrames
	}

	session, err := h.countingService.StartSession(c.Request.Context(), req.Name, cfg)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, session)
}

// ListSessions возвращает список сессий с пагинацией
func (h *SessionHandler) ListSessions(c *gin.Context) {
	h.logger.Info("Получен запрос на получение списка сессий")

	// Получаем параметры пагинации
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}

	size, err := strconv.Atoi(c.DefaultQuery("size", "10"))
	if err != nil || size < 1 || size > 100 {
		size = 10
	}

	sessions, total, err := h.countingService.ListSessions(c.Request.Context(), page, size)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, service.ListSessionsResponse{
		Sessions: sessions,
		Total:    total,
		Page:     page,
		Size:     size,
	})
}

// GetSession возвращает сессию по ID
func (h *SessionHandler) GetSession(c *gin.Context) {
	sessionID := c.Param("id")

	session, err := h.countingService.GetSession(c.Request.Context(), sessionID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

// StopSession останавливает сессию по запросу пользователя
func (h *SessionHandler) StopSession(c *gin.Context) {
	sessionID := c.Param("id")
	h.logger.Infof("Получен запрос на остановку сессии %s", sessionID)

	session, err := h.countingService.StopSession(c.Request.Context(), sessionID, model.SessionStopped)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

// DeleteSession удаляет сессию по ID
func (h *SessionHandler) DeleteSession(c *gin.Context) {
	sessionID := c.Param("id")
	h.logger.Infof("Получен запрос на удаление сессии %s", sessionID)

	if err := h.countingService.DeleteSession(c.Request.Context(), sessionID); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Сессия успешно удалена"})
}

// CheckHealth проверяет состояние сервиса и его зависимостей
func (h *SessionHandler) CheckHealth(c *gin.Context) {
	h.logger.Debug("Получен запрос проверки здоровья сервиса")

	response := gin.H{"status": "healthy", "detector": "ok", "database": "ok"}
	statusCode := http.StatusOK

	if err := h.countingService.CheckHealth(c.Request.Context()); err != nil {
		h.logger.Warnf("Сервис детекции недоступен: %v", err)
		response["detector"] = err.Error()
		response["status"] = "unhealthy"
		statusCode = http.StatusServiceUnavailable
	}

	if h.dbHealth != nil {
		if err := h.dbHealth(); err != nil {
			h.logger.Errorf("База данных недоступна: %v", err)
			response["database"] = err.Error()
			response["status"] = "unhealthy"
			statusCode = http.StatusServiceUnavailable
		}
	}

	c.JSON(statusCode, response)
}
