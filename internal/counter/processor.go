package counter

import (
	"errors"
	"fmt"
	"math"

	"traffic-counter-go/internal/geo"
)

var (
	// ErrInvalidFrameGeometry кадр с такими размерами обработать нельзя
	ErrInvalidFrameGeometry = errors.New("invalid frame geometry")
	// ErrInvalidConfig параметры подсчета вне допустимого диапазона
	ErrInvalidConfig = errors.New("invalid counting config")
)

// Config параметры подсчета, постоянные в пределах сессии
type Config struct {
	ConfidenceThreshold float64 `json:"confidence_threshold"`
	LineRatio           float64 `json:"line_ratio"`
	// MaxIdleFrames через сколько кадров без обновлений объект удаляется из реестра, 0 - никогда
	MaxIdleFrames uint64 `json:"max_idle_frames"`
}

// Validate проверяет параметры
func (c Config) Validate() error {
	if !inUnitRange(c.ConfidenceThreshold) {
		return fmt.Errorf("%w: confidence_threshold %v not in [0,1]", ErrInvalidConfig, c.ConfidenceThreshold)
	}
	if !inUnitRange(c.LineRatio) {
		return fmt.Errorf("%w: line_ratio %v not in [0,1]", ErrInvalidConfig, c.LineRatio)
	}
	return nil
}

func inUnitRange(v float64) bool {
	return !math.IsNaN(v) && v >= 0 && v <= 1
}

// Detection одна детекция трекера на кадре
type Detection struct {
	Box        geo.Box
	TrackID    TrackID
	ClassID    int
	Label      string
	Confidence float64
}

// Class определяет категорию детекции. Текстовая метка важнее номера класса.
func (d Detection) Class() (VehicleClass, bool) {
	if d.Label != "" {
		return ParseVehicleClass(d.Label)
	}
	return ClassFromCOCO(d.ClassID)
}

// Crossing событие пересечения линии
type Crossing struct {
	TrackID   TrackID      `json:"track_id"`
	Class     VehicleClass `json:"class"`
	PreviousY int          `json:"previous_y"`
	CurrentY  int          `json:"current_y"`
	LineY     int          `json:"line_y"`
}

// FrameResult результат обработки одного кадра
type FrameResult struct {
	FrameIndex uint64         `json:"frame_index"`
	LineY      int            `json:"line_y"`
	Render     RenderContract `json:"render"`
	Crossings  []Crossing     `json:"crossings"`
	Dropped    int            `json:"dropped"`
	Snapshot   Snapshot       `json:"snapshot"`
}

// Processor обрабатывает пакеты детекций кадр за кадром.
// Не потокобезопасен: кадры подаются строго по одному.
type Processor struct {
	cfg      Config
	calc     *geo.Calculator
	registry *Registry
	counts   *Aggregator
}

// NewProcessor создает обработчик для одной сессии
func NewProcessor(cfg Config) (*Processor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Processor{
		cfg:      cfg,
		calc:     geo.NewCalculator(),
		registry: NewRegistry(),
		counts:   NewAggregator(),
	}, nil
}

// Config возвращает параметры сессии
func (p *Processor) Config() Config {
	return p.cfg
}

// Snapshot возвращает текущие счетчики. Безопасен для вызова из других горутин.
func (p *Processor) Snapshot() Snapshot {
	return p.counts.Snapshot()
}

// Tracks возвращает число объектов в реестре
func (p *Processor) Tracks() int {
	return p.registry.Len()
}

// ProcessFrame обрабатывает детекции одного кадра.
// Ошибку возвращает только для некорректных размеров кадра, до изменения состояния.
func (p *Processor) ProcessFrame(width, height int, detections []Detection) (*FrameResult, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidFrameGeometry, width, height)
	}

	lineY := p.calc.LineY(height, p.cfg.LineRatio)
	result := &FrameResult{
		FrameIndex: p.registry.Advance(),
		LineY:      lineY,
		Render: RenderContract{
			Primitives: make([]Primitive, 0, len(detections)+2),
		},
	}

	for _, det := range detections {
		class, ok := p.accept(det)
		if !ok {
			result.Dropped++
			continue
		}

		point := p.calc.ReferencePoint(det.Box)
		track, prev, hasPrev := p.registry.Upsert(det.TrackID, class, point)

		if !track.Counted() && hasPrev && DidCross(prev.Y, point.Y, lineY) {
			p.counts.Record(track.Class)
			p.registry.MarkCounted(track)
			result.Render.Highlight = true
			result.Crossings = append(result.Crossings, Crossing{
				TrackID:   track.ID,
				Class:     track.Class,
				PreviousY: prev.Y,
				CurrentY:  point.Y,
				LineY:     lineY,
			})
		}

		topLeft, bottomRight := p.calc.Corners(det.Box)
		label := fmt.Sprintf("%s [%d]", track.Class.Title(), track.ID)
		result.Render.Primitives = append(result.Render.Primitives, boxPrimitive(topLeft, bottomRight, label))
	}

	// Постоянная линия рисуется поверх подсветки
	if result.Render.Highlight {
		result.Render.Primitives = append(result.Render.Primitives, highlightPrimitive(width, lineY))
	}
	result.Render.Primitives = append(result.Render.Primitives, linePrimitive(width, lineY))

	p.registry.EvictIdle(p.cfg.MaxIdleFrames)

	result.Snapshot = p.counts.Snapshot()
	return result, nil
}

// accept отбрасывает детекции ниже порога, чужих классов и с битыми координатами
func (p *Processor) accept(det Detection) (VehicleClass, bool) {
	if math.IsNaN(det.Confidence) || det.Confidence < p.cfg.ConfidenceThreshold {
		return "", false
	}
	if !p.calc.IsValidBox(det.Box) {
		return "", false
	}
	return det.Class()
}
