// Package metrics agrupa los colectores Prometheus del motor de consumibles.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics colectores del servicio. Un *Metrics nil es válido y no registra nada.
type Metrics struct {
	LoadsReconciled   *prometheus.CounterVec
	ReconcileDuration prometheus.Histogram
	MovementsWritten  *prometheus.CounterVec
	OverridesTotal    *prometheus.CounterVec
	ClosingsTotal     *prometheus.CounterVec
}

// New construye los colectores y los registra en reg (prometheus.DefaultRegisterer si es nil).
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		LoadsReconciled: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "consumibles_loads_reconciled_total",
				Help: "Cargas reconciliadas por resultado",
			},
			[]string{"status"},
		),
		ReconcileDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "consumibles_reconcile_batch_duration_seconds",
			Help:    "Duración de cada lote de sincronización",
			Buckets: prometheus.DefBuckets,
		}),
		MovementsWritten: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "consumibles_movements_written_total",
				Help: "Movimientos escritos en el libro por origen",
			},
			[]string{"source"},
		),
		OverridesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "consumibles_billing_overrides_total",
				Help: "Ajustes de cantidad facturada por operación",
			},
			[]string{"op"},
		),
		ClosingsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "consumibles_period_transitions_total",
				Help: "Transiciones de cierre de período por estado destino y resultado",
			},
			[]string{"to", "result"},
		),
	}
	reg.MustRegister(
		m.LoadsReconciled,
		m.ReconcileDuration,
		m.MovementsWritten,
		m.OverridesTotal,
		m.ClosingsTotal,
	)
	return m
}

// Load cuenta una carga reconciliada con su estado (CREATED, UPDATED, UNCHANGED, FAILED).
func (m *Metrics) Load(status string) {
	if m == nil {
		return
	}
	m.LoadsReconciled.WithLabelValues(status).Inc()
}

// Batch observa la duración de un lote en segundos.
func (m *Metrics) Batch(seconds float64) {
	if m == nil {
		return
	}
	m.ReconcileDuration.Observe(seconds)
}

// Movements suma n movimientos escritos desde source ("load" o "manual").
func (m *Metrics) Movements(source string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.MovementsWritten.WithLabelValues(source).Add(float64(n))
}

// Override cuenta un ajuste ("set" o "clear").
func (m *Metrics) Override(op string) {
	if m == nil {
		return
	}
	m.OverridesTotal.WithLabelValues(op).Inc()
}

// Transition cuenta un intento de cambio de estado de período.
func (m *Metrics) Transition(to string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "rejected"
	}
	m.ClosingsTotal.WithLabelValues(to, result).Inc()
}
