package counter

import "strings"

// VehicleClass категория транспортного средства
type VehicleClass string

const (
	Car        VehicleClass = "car"
	Motorcycle VehicleClass = "motorcycle"
	Bus        VehicleClass = "bus"
	Truck      VehicleClass = "truck"
)

// VehicleClasses все поддерживаемые категории в порядке отображения
var VehicleClasses = []VehicleClass{Car, Motorcycle, Bus, Truck}

// Номера классов COCO, которые соответствуют транспортным средствам
var cocoClasses = map[int]VehicleClass{
	2: Car,
	3: Motorcycle,
	5: Bus,
	7: Truck,
}

// ClassFromCOCO сопоставляет номер класса COCO с категорией
func ClassFromCOCO(id int) (VehicleClass, bool) {
	class, ok := cocoClasses[id]
	return class, ok
}

// ParseVehicleClass разбирает текстовую метку детектора
func ParseVehicleClass(label string) (VehicleClass, bool) {
	class := VehicleClass(strings.ToLower(strings.TrimSpace(label)))
	switch class {
	case Car, Motorcycle, Bus, Truck:
		return class, true
	}
	return "", false
}

// Title возвращает название категории для подписи на кадре
func (c VehicleClass) Title() string {
	switch c {
	case Car:
		return "Car"
	case Motorcycle:
		return "Motorcycle"
	case Bus:
		return "Bus"
	case Truck:
		return "Truck"
	}
	return string(c)
}
