package discovery

import (
	"context"
	"net"
	"time"

	"github.com/annel0/blockworld/internal/logging"
)

// Prober проверяет фактическую достижимость анонсированного адреса.
// Интерфейс выделен, чтобы стадия проверки тестировалась без сети.
type Prober interface {
	Probe(ctx context.Context, addr string, timeout time.Duration) bool
}

// TCPProber — короткая TCP-попытка соединения.
type TCPProber struct{}

// Probe возвращает true, если соединение с addr установилось в пределах
// timeout. Соединение сразу закрывается: нужен только факт доступности.
func (TCPProber) Probe(ctx context.Context, addr string, timeout time.Duration) bool {
	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		logging.Debug("Discovery: %s недоступен: %v", addr, err)
		return false
	}
	conn.Close()
	return true
}

// FirstReachable возвращает первого кандидата из ранжированного списка,
// прошедшего проверку достижимости, либо nil, если ни один не ответил
// в пределах probeTimeout или ctx отменён. Чистая композиция поверх
// внедряемого Prober.
func FirstReachable(ctx context.Context, prober Prober, ranked []DiscoveredService, probeTimeout time.Duration) *DiscoveredService {
	for i := range ranked {
		if ctx.Err() != nil {
			return nil
		}
		svc := &ranked[i]
		if prober.Probe(ctx, svc.BrokerAddr(), probeTimeout) {
			return svc
		}
		logging.Warn("Discovery: пропуск недоступного сервиса %s (%s)", svc.Name, svc.BrokerAddr())
	}
	return nil
}
