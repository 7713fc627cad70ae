package counter

import "traffic-counter-go/internal/geo"

// TrackID идентификатор объекта, который выдает внешний трекер.
// Сравнивается только на равенство, порядок и плотность не предполагаются.
type TrackID int64

// Track состояние одного отслеживаемого объекта
type Track struct {
	ID    TrackID
	Class VehicleClass

	trail    Trail
	counted  bool
	lastSeen uint64
}

// Counted сообщает, был ли объект уже учтен
func (t *Track) Counted() bool {
	return t.counted
}

// Trail возвращает историю опорных точек, от старых к новым
func (t *Track) Trail() []geo.Point {
	return t.trail.Points()
}

// TrailLen возвращает длину истории
func (t *Track) TrailLen() int {
	return t.trail.Len()
}

// Registry хранит состояние всех объектов сессии. О правилах подсчета ничего не знает.
// Учтенные идентификаторы хранятся отдельно и при вытеснении объектов не забываются.
type Registry struct {
	tracks  map[TrackID]*Track
	counted map[TrackID]struct{}
	frame   uint64
}

// NewRegistry создает пустой реестр
func NewRegistry() *Registry {
	return &Registry{
		tracks:  make(map[TrackID]*Track),
		counted: make(map[TrackID]struct{}),
	}
}

// Upsert находит или создает объект и добавляет точку в его историю.
// Возвращает объект и предыдущую точку, если она была.
// Категория фиксируется при первом наблюдении и дальше не меняется.
func (r *Registry) Upsert(id TrackID, class VehicleClass, point geo.Point) (*Track, geo.Point, bool) {
	track, ok := r.tracks[id]
	if !ok {
		_, counted := r.counted[id]
		track = &Track{ID: id, Class: class, counted: counted}
		r.tracks[id] = track
	}

	prev, hasPrev := track.trail.Last()
	track.trail.Add(point)
	track.lastSeen = r.frame

	return track, prev, hasPrev
}

// MarkCounted помечает объект как учтенный. Флаг больше не сбрасывается.
func (r *Registry) MarkCounted(track *Track) {
	track.counted = true
	r.counted[track.ID] = struct{}{}
}

// Get возвращает объект по идентификатору
func (r *Registry) Get(id TrackID) (*Track, bool) {
	track, ok := r.tracks[id]
	return track, ok
}

// Len возвращает число известных объектов
func (r *Registry) Len() int {
	return len(r.tracks)
}

// Advance переводит часы реестра на следующий кадр
func (r *Registry) Advance() uint64 {
	r.frame++
	return r.frame
}

// EvictIdle удаляет объекты, которые не обновлялись больше maxIdle кадров.
// Удаляется только история, отметка об учете остается.
// Возвращает число удаленных объектов.
func (r *Registry) EvictIdle(maxIdle uint64) int {
	if maxIdle == 0 {
		return 0
	}

	evicted := 0
	for id, track := range r.tracks {
		if r.frame-track.lastSeen > maxIdle {
			delete(r.tracks, id)
			evicted++
		}
	}
	return evicted
}
