package counter

import "traffic-counter-go/internal/geo"

// TrailCapacity максимальное число точек в истории объекта
const TrailCapacity = 30

// Trail кольцевой буфер опорных точек фиксированного размера.
// При переполнении новая точка затирает самую старую.
type Trail struct {
	points [TrailCapacity]geo.Point
	head   int
	size   int
}

// Add добавляет точку, вытесняя самую старую при заполненном буфере
func (t *Trail) Add(p geo.Point) {
	t.points[t.head] = p
	t.head = (t.head + 1) % TrailCapacity

	if t.size < TrailCapacity {
		t.size++
	}
}

// Last возвращает последнюю добавленную точку
func (t *Trail) Last() (geo.Point, bool) {
	if t.size == 0 {
		return geo.Point{}, false
	}
	return t.points[(t.head-1+TrailCapacity)%TrailCapacity], true
}

// Len возвращает текущее число точек
func (t *Trail) Len() int {
	return t.size
}

// Points возвращает точки от самой старой к самой новой
func (t *Trail) Points() []geo.Point {
	if t.size == 0 {
		return nil
	}

	result := make([]geo.Point, t.size)
	if t.size < TrailCapacity {
		copy(result, t.points[:t.size])
	} else {
		// Буфер заполнен, самая старая точка находится на позиции head
		n := copy(result, t.points[t.head:])
		copy(result[n:], t.points[:t.head])
	}

	return result
}
