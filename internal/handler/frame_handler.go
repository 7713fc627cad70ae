package handler

import (
	"net/http"

	"traffic-counter-go/internal/service"
	"traffic-counter-go/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// RunRequest запрос на анализ потока сервиса детекции
type RunRequest struct {
	StreamID string `json:"stream_id" binding:"required"`
}

// FrameHandler обработчик кадров сессии подсчета
type FrameHandler struct {
	countingService *service.CountingService
	logger          *logrus.Logger
}

// NewFrameHandler создает новый обработчик
func NewFrameHandler(countingService *service.CountingService, logger *logrus.Logger) *FrameHandler {
	return &FrameHandler{
		countingService: countingService,
		logger:          logger,
	}
}

// RegisterRoutes регистрирует маршруты API
func (h *FrameHandler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api/v1/sessions/:id")
	{
		api.POST("/frames", h.ProcessFrame)
		api.GET("/snapshot", h.GetSnapshot)
		api.POST("/run", h.Run)
	}
}

// ProcessFrame обрабатывает детекции одного кадра и возвращает инструкции отрисовки и счетчики
func (h *FrameHandler) ProcessFrame(c *gin.Context) {
	sessionID := c.Param("id")

	var batch models.FrameBatch
	if err := c.ShouldBindJSON(&batch); err != nil {
		h.logger.Errorf("Ошибка парсинга кадра: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный формат кадра", "details": err.Error()})
		return
	}

	result, err := h.countingService.ProcessFrame(c.Request.Context(), sessionID, batch)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetSnapshot возвращает текущие счетчики сессии
func (h *FrameHandler) GetSnapshot(c *gin.Context) {
	snapshot, err := h.countingService.Snapshot(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, snapshot)
}

// Run запускает чтение кадров из сервиса детекции в фоне
func (h *FrameHandler) Run(c *gin.Context) {
	sessionID := c.Param("id")

	var req RunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "stream_id обязателен"})
		return
	}

	h.logger.Infof("Получен запрос на анализ потока %s в сессии %s", req.StreamID, sessionID)

	if err := h.countingService.StartStream(c.Request.Context(), sessionID, req.StreamID); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"message":    "Анализ потока запущен",
		"session_id": sessionID,
		"stream_id":  req.StreamID,
	})
}
