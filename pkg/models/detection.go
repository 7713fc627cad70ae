package models

// Detection представляет одну детекцию от сервиса детекции и трекинга
type Detection struct {
	Box        [4]float64 `json:"box"`             // Координаты прямоугольника x1, y1, x2, y2 в пикселях
	TrackID    int64      `json:"track_id"`        // Устойчивый идентификатор объекта от трекера
	ClassID    int        `json:"class_id"`        // Номер класса COCO
	Label      string     `json:"label,omitempty"` // Текстовая метка класса (если есть, важнее class_id)
	Confidence float64    `json:"confidence"`      // Уверенность модели от 0 до 1
}

// FrameBatch представляет детекции одного кадра
type FrameBatch struct {
	Width      int         `json:"width"`      // Ширина кадра в пикселях
	Height     int         `json:"height"`     // Высота кадра в пикселях
	Detections []Detection `json:"detections"` // Детекции на кадре
}

// DetectorFrameResponse определяет структуру ответа сервиса детекции на запрос следующего кадра
type DetectorFrameResponse struct {
	Status     string `json:"status"`      // Статус выполнения (success/end_of_stream/error)
	Message    string `json:"message"`     // Сообщение
	FrameIndex int64  `json:"frame_index"` // Номер кадра в потоке
	FrameBatch
}

// HealthResponse представляет ответ проверки здоровья сервиса детекции
type HealthResponse struct {
	Status      string `json:"status"`       // Статус сервиса (healthy/unhealthy)
	ModelLoaded bool   `json:"model_loaded"` // Загружена ли модель нейронной сети
	Version     string `json:"version"`      // Версия сервиса
}
