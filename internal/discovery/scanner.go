package discovery

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"

	"github.com/annel0/blockworld/internal/logging"
)

// Scanner ищет анонсы брокеров в локальной сети через mDNS.
type Scanner struct {
	domain string
}

// NewScanner создаёт сканер для домена local.
func NewScanner() *Scanner {
	return &Scanner{domain: "local."}
}

// Scan просматривает сеть не дольше timeout и возвращает найденные
// анонсы. Опрашиваются оба mDNS-типа; дубликаты по имени схлопываются,
// анонс приложения вытесняет общий. Отмена ctx прерывает просмотр:
// сканирование обязано быть отзывчивым к сигналу завершения.
// Пустой результат — не ошибка.
func (s *Scanner) Scan(ctx context.Context, timeout time.Duration) ([]DiscoveredService, error) {
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var (
		mu       sync.Mutex
		services []DiscoveredService
		wg       sync.WaitGroup
	)

	browse := func(serviceType string, defaultPriority int) error {
		resolver, err := zeroconf.NewResolver(nil)
		if err != nil {
			return fmt.Errorf("создание mDNS resolver: %w", err)
		}

		entries := make(chan *zeroconf.ServiceEntry, 16)
		if err := resolver.Browse(cctx, serviceType, s.domain, entries); err != nil {
			return fmt.Errorf("mDNS browse %s: %w", serviceType, err)
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			for entry := range entries {
				svc := convertEntry(entry, defaultPriority)
				if svc == nil {
					continue
				}
				mu.Lock()
				services = mergeService(services, *svc)
				mu.Unlock()
			}
		}()
		return nil
	}

	if err := browse(ServiceTypeApp, 0); err != nil {
		return nil, err
	}
	if err := browse(ServiceTypeGeneric, 1); err != nil {
		logging.Warn("Discovery: просмотр %s не запустился: %v", ServiceTypeGeneric, err)
	}

	<-cctx.Done()
	wg.Wait()

	logging.Info("🔍 Discovery: найдено %d анонс(ов) брокера", len(services))
	return services, nil
}

// convertEntry превращает mDNS-запись в DiscoveredService.
func convertEntry(entry *zeroconf.ServiceEntry, defaultPriority int) *DiscoveredService {
	if entry == nil {
		return nil
	}

	svc := DiscoveredService{
		Name:     entry.Instance,
		Host:     strings.TrimSuffix(entry.HostName, "."),
		Port:     entry.Port,
		Priority: defaultPriority,
	}

	if len(entry.AddrIPv4) > 0 {
		svc.Addr = entry.AddrIPv4[0]
	} else if len(entry.AddrIPv6) > 0 {
		svc.Addr = entry.AddrIPv6[0]
	}

	// TXT-записи вида key=value с метаданными анонса
	for _, txt := range entry.Text {
		key, value, ok := strings.Cut(txt, "=")
		if !ok {
			continue
		}
		switch key {
		case "service":
			svc.ServiceType = value
		case "version":
			svc.Version = value
		case "features":
			svc.Features = value
		case "priority":
			if p, err := strconv.Atoi(value); err == nil {
				svc.Priority = p
			}
		}
	}

	if svc.Addr == nil && svc.Host == "" {
		logging.Warn("Discovery: анонс %s без адреса пропущен", entry.Instance)
		return nil
	}
	return &svc
}

// mergeService добавляет кандидата, схлопывая дубликаты по имени.
// Распознанный анонс вытесняет общий с тем же именем.
func mergeService(services []DiscoveredService, svc DiscoveredService) []DiscoveredService {
	for i, existing := range services {
		if existing.Name != svc.Name {
			continue
		}
		if svc.IsRecognized() && !existing.IsRecognized() {
			services[i] = svc
		}
		return services
	}
	return append(services, svc)
}
