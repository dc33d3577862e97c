package discovery

import (
	"fmt"
	"net"
	"sort"
)

// mDNS-типы, по которым ведётся поиск брокера: собственный анонс
// приложения и общий тип брокера сообщений.
const (
	ServiceTypeApp     = "_blockworld._tcp"
	ServiceTypeGeneric = "_mqtt._tcp"
)

// Распознанное значение TXT-записи "service": анонс нашего сервера
// сообщений. Такие кандидаты ранжируются выше любых общих брокеров.
const recognizedService = "blockworld-broker"

// DiscoveredService описывает найденный анонс брокера. Анонс — не
// гарантия доступности: записи могут переживать умерший сервис,
// поэтому перед подключением кандидата стоит проверить пробой.
type DiscoveredService struct {
	Name        string
	Host        string
	Addr        net.IP
	Port        int
	ServiceType string // TXT "service"
	Version     string // TXT "version"
	Features    string // TXT "features"
	Priority    int    // Меньше — приоритетнее
}

// BrokerAddr возвращает адрес брокера в виде host:port
func (s *DiscoveredService) BrokerAddr() string {
	if s.Addr != nil {
		return net.JoinHostPort(s.Addr.String(), fmt.Sprintf("%d", s.Port))
	}
	return net.JoinHostPort(s.Host, fmt.Sprintf("%d", s.Port))
}

// IsRecognized сообщает, является ли анонс специфичным для приложения
func (s *DiscoveredService) IsRecognized() bool {
	return s.ServiceType == recognizedService
}

// Rank упорядочивает кандидатов: сначала распознанные анонсы
// приложения, затем по числовому приоритету (меньше — лучше);
// при равенстве сохраняется порядок обнаружения. Чистая функция —
// тестируется на подставном списке без сети.
func Rank(services []DiscoveredService) []DiscoveredService {
	ranked := make([]DiscoveredService, len(services))
	copy(ranked, services)

	sort.SliceStable(ranked, func(i, j int) bool {
		ri, rj := ranked[i].IsRecognized(), ranked[j].IsRecognized()
		if ri != rj {
			return ri
		}
		return ranked[i].Priority < ranked[j].Priority
	})

	return ranked
}
