package counter

import "sync"

// Snapshot срез счетчиков на момент чтения
type Snapshot struct {
	Total   int                  `json:"total"`
	ByClass map[VehicleClass]int `json:"by_class"`
}

// Aggregator хранит общий счетчик и счетчики по категориям.
// Дубликаты не отсекает: вызывающая сторона гарантирует не более одного Record на объект.
type Aggregator struct {
	mu      sync.RWMutex
	total   int
	byClass map[VehicleClass]int
}

// NewAggregator создает агрегатор с нулевыми счетчиками по всем категориям
func NewAggregator() *Aggregator {
	byClass := make(map[VehicleClass]int, len(VehicleClasses))
	for _, class := range VehicleClasses {
		byClass[class] = 0
	}
	return &Aggregator{byClass: byClass}
}

// Record учитывает одно пересечение
func (a *Aggregator) Record(class VehicleClass) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.total++
	a.byClass[class]++
}

// Snapshot возвращает копию счетчиков, не связанную с внутренним состоянием
func (a *Aggregator) Snapshot() Snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()

	byClass := make(map[VehicleClass]int, len(a.byClass))
	for class, n := range a.byClass {
		byClass[class] = n
	}
	return Snapshot{Total: a.total, ByClass: byClass}
}
