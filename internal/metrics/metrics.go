package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dimitrije/coachlink-api/internal/models"
	"github.com/dimitrije/coachlink-api/internal/services"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const namespace = "coachlink"

// Metrics holds the service's collectors on a private registry. It implements
// services.Observer.
type Metrics struct {
	registry *prometheus.Registry

	invitationsIssued   *prometheus.CounterVec
	redemptionFailures  *prometheus.CounterVec
	relationshipsLinked *prometheus.CounterVec
	invitationsExpired  prometheus.Counter
	rateLimited         prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		invitationsIssued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invitations_issued_total",
			Help:      "Invitations issued, by relationship kind.",
		}, []string{"kind"}),
		redemptionFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "redemption_failures_total",
			Help:      "Failed invitation redemptions, by error kind.",
		}, []string{"reason"}),
		relationshipsLinked: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "relationships_linked_total",
			Help:      "Successful links, by kind and whether a relationship was created.",
		}, []string{"kind", "created"}),
		invitationsExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invitations_swept_total",
			Help:      "Pending invitations transitioned to expired by the sweep.",
		}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "redeem_rate_limited_total",
			Help:      "Code lookups rejected by the attempt limiter.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.invitationsIssued,
		m.redemptionFailures,
		m.relationshipsLinked,
		m.invitationsExpired,
		m.rateLimited,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) InvitationIssued(kind models.RelationshipKind) {
	m.invitationsIssued.WithLabelValues(string(kind)).Inc()
}

func (m *Metrics) RedemptionFailed(kind services.Kind) {
	m.redemptionFailures.WithLabelValues(string(kind)).Inc()
}

func (m *Metrics) RelationshipLinked(kind models.RelationshipKind, created bool) {
	label := "false"
	if created {
		label = "true"
	}
	m.relationshipsLinked.WithLabelValues(string(kind), label).Inc()
}

func (m *Metrics) InvitationsSwept(count int64) {
	m.invitationsExpired.Add(float64(count))
}

func (m *Metrics) RateLimited() {
	m.rateLimited.Inc()
}

// Server exposes /metrics on its own listener, away from the public API.
type Server struct {
	server *http.Server
	log    *zap.SugaredLogger
}

func NewServer(addr string, m *Metrics, log *zap.SugaredLogger) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	}))
	return &Server{
		server: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		log: log,
	}
}

func (s *Server) Start() {
	go func() {
		s.log.Infow("metrics server started", "address", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Errorw("metrics server failed", "error", err)
		}
	}()
}

func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) Handler() http.Handler {
	return s.server.Handler
}
