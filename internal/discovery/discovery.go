// Package discovery находит брокер сообщений в локальной сети.
//
// Поиск разложен на три независимые стадии: сканирование анонсов,
// чистое ранжирование кандидатов и проверка достижимости. Двухфазный
// дизайн существует не случайно: mDNS-анонсы переживают умерший
// сервис, и подключение к первому же кандидату без пробы — известный
// способ заблокировать приложение на недоступном адресе.
package discovery

import (
	"context"
	"time"

	"github.com/annel0/blockworld/internal/logging"
)

// Browser абстрагирует стадию сканирования для тестов без сети.
type Browser interface {
	Scan(ctx context.Context, timeout time.Duration) ([]DiscoveredService, error)
}

// Discovery — оркестратор стадий поиска брокера.
type Discovery struct {
	browser Browser
	prober  Prober
}

// New создаёт Discovery с реальными mDNS-сканером и TCP-пробой.
func New() *Discovery {
	return &Discovery{browser: NewScanner(), prober: TCPProber{}}
}

// NewWithStages создаёт Discovery с внедрёнными стадиями.
func NewWithStages(browser Browser, prober Prober) *Discovery {
	return &Discovery{browser: browser, prober: prober}
}

// DiscoverBest возвращает лучшего кандидата без проверки
// достижимости — быстро, но адрес может оказаться неподключаемым
// (устаревшая запись multicast-кэша). nil — брокер не найден;
// это ожидаемое состояние, не ошибка.
func (d *Discovery) DiscoverBest(ctx context.Context, timeout time.Duration) (*DiscoveredService, error) {
	services, err := d.browser.Scan(ctx, timeout)
	if err != nil {
		return nil, err
	}
	ranked := Rank(services)
	if len(ranked) == 0 {
		return nil, nil
	}

	best := ranked[0]
	logging.Info("🎯 Discovery: выбран сервис %s (%s)", best.Name, best.BrokerAddr())
	return &best, nil
}

// DiscoverBestVerified выполняет тот же поиск, но возвращает первого
// по рангу кандидата, прошедшего проверку соединением в пределах
// probeTimeout. nil — ни один кандидат не достижим.
func (d *Discovery) DiscoverBestVerified(ctx context.Context, timeout, probeTimeout time.Duration) (*DiscoveredService, error) {
	services, err := d.browser.Scan(ctx, timeout)
	if err != nil {
		return nil, err
	}

	best := FirstReachable(ctx, d.prober, Rank(services), probeTimeout)
	if best == nil {
		logging.Info("Discovery: достижимых брокеров не найдено")
		return nil, nil
	}

	logging.Info("🎯 Discovery: выбран проверенный сервис %s (%s)", best.Name, best.BrokerAddr())
	return best, nil
}
