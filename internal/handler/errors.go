package handler

import (
	"errors"
	"net/http"

	"traffic-counter-go/internal/counter"
	"traffic-counter-go/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// respondError переводит ошибку сервиса в HTTP ответ
func respondError(c *gin.Context, logger *logrus.Logger, err error) {
	status, message := http.StatusInternalServerError, "Внутренняя ошибка сервера"

	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		status, message = http.StatusNotFound, "Сессия не найдена"
	case errors.Is(err, service.ErrSessionStopped):
		status, message = http.StatusConflict, "Сессия уже остановлена"
	case errors.Is(err, service.ErrSessionBusy):
		status, message = http.StatusConflict, "Сессия уже анализирует поток"
	case errors.Is(err, counter.ErrInvalidFrameGeometry):
		status, message = http.StatusBadRequest, "Некорректные размеры кадра"
	case errors.Is(err, counter.ErrInvalidConfig):
		status, message = http.StatusBadRequest, "Некорректные параметры подсчета"
	}

	if status == http.StatusInternalServerError {
		logger.Errorf("Ошибка обработки запроса %s %s: %v", c.Request.Method, c.FullPath(), err)
	} else {
		logger.Warnf("Запрос %s %s отклонен: %v", c.Request.Method, c.FullPath(), err)
	}

	c.JSON(status, gin.H{"error": message, "details": err.Error()})
}
