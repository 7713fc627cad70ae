package geo

import (
	"math"
)

// Point точка на кадре в пикселях
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Box ограничивающий прямоугольник детекции (x1, y1) - (x2, y2)
type Box struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// Calculator для геометрических вычислений на кадре
type Calculator struct{}

// NewCalculator создает новый калькулятор
func NewCalculator() *Calculator {
	return &Calculator{}
}

// ReferencePoint вычисляет опорную точку объекта: центр нижней грани прямоугольника,
// то есть точку касания с дорогой. Координаты отбрасывают дробную часть.
func (c *Calculator) ReferencePoint(box Box) Point {
	return Point{
		X: int((box.X1 + box.X2) / 2),
		Y: int(box.Y2),
	}
}

// LineY вычисляет положение линии подсчета в пикселях
func (c *Calculator) LineY(frameHeight int, ratio float64) int {
	return int(math.Floor(float64(frameHeight) * ratio))
}

// IsValidBox проверяет, что координаты конечны и прямоугольник имеет ненулевую площадь
func (c *Calculator) IsValidBox(box Box) bool {
	for _, v := range [...]float64{box.X1, box.Y1, box.X2, box.Y2} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}

	// Перевернутые и вырожденные прямоугольники отбрасываем
	return box.X2 > box.X1 && box.Y2 > box.Y1
}

// Corners возвращает углы прямоугольника в целых пикселях
func (c *Calculator) Corners(box Box) (Point, Point) {
	return Point{X: int(box.X1), Y: int(box.Y1)}, Point{X: int(box.X2), Y: int(box.Y2)}
}
