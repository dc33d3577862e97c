package world

import (
	"time"
)

// DefaultRequestTimeout — время ожидания содержимого чанка до того,
// как запрос считается потерянным
const DefaultRequestTimeout = 10 * time.Second

// LoadingState отслеживает чанки, содержимое которых запрошено, но ещё
// не получено. Защищает от запросов, на которые никогда не придёт
// ответ (например, потерянное сообщение в сетевом пути загрузки):
// по таймауту запись снимается, и загрузчик сможет запросить чанк
// повторно.
//
// Инвариант: каждая координата из requested есть и в loading;
// записи добавляются и удаляются только вместе.
type LoadingState struct {
	loading   map[ChunkCoord]struct{}
	requested map[ChunkCoord]time.Time
	timeout   time.Duration
}

// NewLoadingState создаёт трекер с таймаутом по умолчанию
func NewLoadingState() *LoadingState {
	return NewLoadingStateWithTimeout(DefaultRequestTimeout)
}

// NewLoadingStateWithTimeout создаёт трекер с заданным таймаутом
func NewLoadingStateWithTimeout(timeout time.Duration) *LoadingState {
	return &LoadingState{
		loading:   make(map[ChunkCoord]struct{}),
		requested: make(map[ChunkCoord]time.Time),
		timeout:   timeout,
	}
}

// IsLoading проверяет, ожидается ли загрузка чанка
func (ls *LoadingState) IsLoading(coord ChunkCoord) bool {
	_, ok := ls.loading[coord]
	return ok
}

// StartLoading регистрирует запрос загрузки с текущей меткой времени
func (ls *LoadingState) StartLoading(coord ChunkCoord) {
	ls.loading[coord] = struct{}{}
	ls.requested[coord] = time.Now()
}

// FinishLoading снимает координату с отслеживания. Вызывается и при
// успешном завершении, и при очистке по таймауту.
func (ls *LoadingState) FinishLoading(coord ChunkCoord) {
	delete(ls.loading, coord)
	delete(ls.requested, coord)
}

// PendingCount возвращает число ожидающих запросов
func (ls *LoadingState) PendingCount() int {
	return len(ls.loading)
}

// TimedOutRequests возвращает координаты, время ожидания которых
// превысило таймаут
func (ls *LoadingState) TimedOutRequests() []ChunkCoord {
	now := time.Now()
	var timedOut []ChunkCoord
	for coord, at := range ls.requested {
		if now.Sub(at) > ls.timeout {
			timedOut = append(timedOut, coord)
		}
	}
	return timedOut
}

// CleanupTimedOutRequests снимает с отслеживания все просроченные
// запросы и возвращает их координаты
func (ls *LoadingState) CleanupTimedOutRequests() []ChunkCoord {
	timedOut := ls.TimedOutRequests()
	for _, coord := range timedOut {
		ls.FinishLoading(coord)
	}
	return timedOut
}
