package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	nats "github.com/nats-io/nats.go"

	"github.com/annel0/blockworld/internal/logging"
)

// NatsBus реализует EventBus поверх core NATS pub/sub.
//
// Используется именно core NATS, без JetStream: протокол распространения
// изменений принимает at-most-once и last-write-wins, поэтому durable
// стримы ничего не добавляют. Subject строится как <prefix>.<EventType>.
type NatsBus struct {
	nc        *nats.Conn
	prefix    string
	published uint64
	consumed  uint64
	dropped   uint64
}

// NewNatsBus подключается к брокеру NATS.
// url: nats://127.0.0.1:4222, prefix: "blockworld".
func NewNatsBus(url, prefix string) (*NatsBus, error) {
	if prefix == "" {
		prefix = "blockworld"
	}

	nc, err := nats.Connect(url,
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logging.Warn("NATS: соединение потеряно: %v", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logging.Info("NATS: переподключение к %s", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	return &NatsBus{nc: nc, prefix: prefix}, nil
}

// Publish сериализует Envelope в JSON и публикует в subject
// <prefix>.<type>. Доставка не гарантируется (at-most-once).
func (nb *NatsBus) Publish(ctx context.Context, ev *Envelope) error {
	subj := fmt.Sprintf("%s.%s", nb.prefix, ev.EventType)
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if err := nb.nc.Publish(subj, data); err != nil {
		atomic.AddUint64(&nb.dropped, 1)
		return err
	}
	atomic.AddUint64(&nb.published, 1)
	return nil
}

// Subscribe подписывается на subject, выведенный из фильтра, и вызывает
// handler для каждого сообщения.
//
// Полезная нагрузка, не являющаяся Envelope (например, датчик публикует
// число простым текстом), заворачивается в Envelope с типом события,
// выведенным из subject — внешние устройства ничего не знают о нашем
// контейнере.
func (nb *NatsBus) Subscribe(ctx context.Context, f Filter, h Handler) (Subscription, error) {
	subj := fmt.Sprintf("%s.>", nb.prefix)
	if len(f.Types) == 1 {
		subj = fmt.Sprintf("%s.%s", nb.prefix, f.Types[0])
	}

	natSub, err := nb.nc.Subscribe(subj, func(msg *nats.Msg) {
		ev := nb.decode(msg)
		if !matchFilter(ev, f) {
			return
		}
		h(ctx, ev)
		atomic.AddUint64(&nb.consumed, 1)
	})
	if err != nil {
		return nil, fmt.Errorf("nats subscribe %s: %w", subj, err)
	}

	return &natsSubWrapper{natSub}, nil
}

// decode восстанавливает Envelope из сообщения NATS.
func (nb *NatsBus) decode(msg *nats.Msg) *Envelope {
	var ev Envelope
	if err := json.Unmarshal(msg.Data, &ev); err == nil && ev.EventType != "" {
		return &ev
	}

	// Сырой payload от внешнего устройства
	eventType := strings.TrimPrefix(msg.Subject, nb.prefix+".")
	return &Envelope{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		Payload:   msg.Data,
	}
}

// natsSubWrapper обёртка вокруг *nats.Subscription под наш интерфейс.
type natsSubWrapper struct {
	s *nats.Subscription
}

func (w *natsSubWrapper) Unsubscribe() {
	_ = w.s.Unsubscribe()
}

// Metrics возвращает текущие метрики.
func (nb *NatsBus) Metrics() Stats {
	return Stats{
		Published: atomic.LoadUint64(&nb.published),
		Consumed:  atomic.LoadUint64(&nb.consumed),
		Dropped:   atomic.LoadUint64(&nb.dropped),
	}
}

// Close дренирует соединение: уже полученные сообщения дообрабатываются.
func (nb *NatsBus) Close() error {
	return nb.nc.Drain()
}
