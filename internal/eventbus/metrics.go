package eventbus

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/annel0/blockworld/internal/logging"
)

// MetricsExporter публикует метрики шины в Prometheus и периодически
// обновляет их из Stats. Экспортер не делает предположений о конкретной
// реализации шины — опирается только на интерфейс EventBus.
type MetricsExporter struct {
	bus  EventBus
	quit chan struct{}
	done chan struct{}

	published prometheus.Counter
	consumed  prometheus.Counter
	dropped   prometheus.Counter
	inflight  prometheus.Gauge

	lastPublished uint64
	lastConsumed  uint64
	lastDropped   uint64
}

// NewMetricsExporter создаёт экспортер, но не запускает HTTP-сервер.
func NewMetricsExporter(bus EventBus) *MetricsExporter {
	me := &MetricsExporter{
		bus:  bus,
		quit: make(chan struct{}),
		done: make(chan struct{}),
		published: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "eventbus",
			Name:      "messages_published_total",
			Help:      "Общее число опубликованных сообщений.",
		}),
		consumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "eventbus",
			Name:      "messages_consumed_total",
			Help:      "Общее число доставленных сообщений подписчикам.",
		}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "eventbus",
			Name:      "messages_dropped_total",
			Help:      "Сообщений, отброшенных из-за ошибок или переполнения буфера.",
		}),
		inflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "eventbus",
			Name:      "messages_inflight",
			Help:      "Количество сообщений в очереди (не доставленных).",
		}),
	}

	prometheus.MustRegister(me.published, me.consumed, me.dropped, me.inflight)
	return me
}

// Run запускает цикл обновления метрик и HTTP-эндпоинт /metrics.
func (me *MetricsExporter) Run(port int) {
	go func() {
		addr := fmt.Sprintf(":%d", port)
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		if err := http.ListenAndServe(addr, mux); err != nil {
			logging.Warn("MetricsExporter: HTTP-сервер остановлен: %v", err)
		}
	}()

	go func() {
		defer close(me.done)
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				me.update()
			case <-me.quit:
				return
			}
		}
	}()
}

// Stop останавливает цикл обновления.
func (me *MetricsExporter) Stop() {
	close(me.quit)
	<-me.done
}

// update переносит дельты Stats в счётчики Prometheus.
func (me *MetricsExporter) update() {
	s := me.bus.Metrics()

	me.published.Add(float64(s.Published - me.lastPublished))
	me.consumed.Add(float64(s.Consumed - me.lastConsumed))
	me.dropped.Add(float64(s.Dropped - me.lastDropped))
	me.inflight.Set(float64(s.InFlight))

	me.lastPublished = s.Published
	me.lastConsumed = s.Consumed
	me.lastDropped = s.Dropped
}
