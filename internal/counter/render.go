package counter

import "traffic-counter-go/internal/geo"

// PrimitiveKind тип примитива отрисовки
type PrimitiveKind string

const (
	PrimitiveRectangle PrimitiveKind = "rectangle"
	PrimitiveLine      PrimitiveKind = "line"
)

// Color цвет в RGB
type Color struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

var (
	boxColor       = Color{R: 0, G: 191, B: 255}
	labelColor     = Color{R: 255, G: 255, B: 255}
	lineColor      = Color{R: 255, G: 0, B: 0}
	highlightColor = Color{R: 0, G: 255, B: 0}
)

// Primitive один элемент отрисовки. Для прямоугольника From и To это углы,
// для линии это концы отрезка.
type Primitive struct {
	Kind       PrimitiveKind `json:"kind"`
	From       geo.Point     `json:"from"`
	To         geo.Point     `json:"to"`
	Label      string        `json:"label,omitempty"`
	Color      Color         `json:"color"`
	LabelColor *Color        `json:"label_color,omitempty"`
	Thickness  int           `json:"thickness"`
	Highlight  bool          `json:"highlight,omitempty"`
}

// RenderContract упорядоченный список примитивов для внешнего слоя отрисовки.
// Highlight действует только для текущего кадра.
type RenderContract struct {
	Primitives []Primitive `json:"primitives"`
	Highlight  bool        `json:"highlight"`
}

func boxPrimitive(topLeft, bottomRight geo.Point, label string) Primitive {
	lc := labelColor
	return Primitive{
		Kind:       PrimitiveRectangle,
		From:       topLeft,
		To:         bottomRight,
		Label:      label,
		Color:      boxColor,
		LabelColor: &lc,
		Thickness:  2,
	}
}

func linePrimitive(width, lineY int) Primitive {
	return Primitive{
		Kind:      PrimitiveLine,
		From:      geo.Point{X: 0, Y: lineY},
		To:        geo.Point{X: width, Y: lineY},
		Color:     lineColor,
		Thickness: 2,
	}
}

func highlightPrimitive(width, lineY int) Primitive {
	return Primitive{
		Kind:      PrimitiveLine,
		From:      geo.Point{X: 0, Y: lineY},
		To:        geo.Point{X: width, Y: lineY},
		Color:     highlightColor,
		Thickness: 5,
		Highlight: true,
	}
}
