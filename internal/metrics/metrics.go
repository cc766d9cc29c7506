package metrics

import (
	"log"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Collector struct {
	reg *prometheus.Registry

	ActiveRooms   prometheus.Gauge
	ActiveMembers prometheus.Gauge
	RoomsOpened   prometheus.Counter
	RoomsEvicted  prometheus.Counter
	JoinsTotal    prometheus.Counter
	LeavesTotal   prometheus.Counter
	MessagesTotal prometheus.Counter
}

func NewCollector() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		ActiveRooms: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "trainchat_active_rooms",
			Help: "Number of rooms currently holding members.",
		}),
		ActiveMembers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "trainchat_active_members",
			Help: "Number of riders currently in a room.",
		}),
		RoomsOpened: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trainchat_rooms_opened_total",
			Help: "Total rooms created.",
		}),
		RoomsEvicted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trainchat_rooms_evicted_total",
			Help: "Total rooms deleted after their last member left.",
		}),
		JoinsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trainchat_joins_total",
			Help: "Total room joins.",
		}),
		LeavesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trainchat_leaves_total",
			Help: "Total room leaves, including disconnects and evictions.",
		}),
		MessagesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trainchat_messages_total",
			Help: "Total chat messages broadcast.",
		}),
	}

	reg.MustRegister(
		c.ActiveRooms, c.ActiveMembers,
		c.RoomsOpened, c.RoomsEvicted,
		c.JoinsTotal, c.LeavesTotal, c.MessagesTotal,
	)
	return c
}

// The coordinator reports through the room.Metrics interface.

func (c *Collector) RoomOpened() {
	c.RoomsOpened.Inc()
	c.ActiveRooms.Inc()
}

func (c *Collector) RoomClosed() {
	c.RoomsEvicted.Inc()
	c.ActiveRooms.Dec()
}

func (c *Collector) MemberJoined() {
	c.JoinsTotal.Inc()
	c.ActiveMembers.Inc()
}

func (c *Collector) MemberLeft() {
	c.LeavesTotal.Inc()
	c.ActiveMembers.Dec()
}

func (c *Collector) MessageBroadcast() {
	c.MessagesTotal.Inc()
}

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{})
}

// Serve starts an HTTP server exposing /metrics on the given address.
func (c *Collector) Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("metrics server error: %v", err)
		}
	}()
	log.Printf("metrics listening on %s", addr)
	return srv
}
