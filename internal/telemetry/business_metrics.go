package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metric label values shared by the services.
const (
	ResultOK       = "ok"
	ResultFailed   = "failed"
	ResultRejected = "rejected"
	ResultSkipped  = "skipped"
	ResultDegraded = "degraded"
)

// BusinessMetrics holds Prometheus metrics for catalog and intake activity.
// All recording methods are safe on a nil receiver so services can run
// without metrics in tests.
type BusinessMetrics struct {
	// Catalog
	ProductMutations *prometheus.CounterVec
	ImageUploads     *prometheus.CounterVec
	ImageUploadBytes prometheus.Histogram

	// Storefront
	StorefrontRenders *prometheus.CounterVec

	// Contact intake
	ContactSubmissions *prometheus.CounterVec
	ContactPersisted   *prometheus.CounterVec
	Notifications      *prometheus.CounterVec
	NotifyDuration     prometheus.Histogram

	// Auth
	AdminLogins *prometheus.CounterVec
}

// NewBusinessMetrics creates the metrics and registers them with reg. A nil
// reg uses the default registry.
func NewBusinessMetrics(namespace string, reg prometheus.Registerer) *BusinessMetrics {
	if namespace == "" {
		namespace = "bakehouse"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	subsystem := "business"

	return &BusinessMetrics{
		// =======================================================================
		// Catalog
		// =======================================================================
		ProductMutations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "product_mutations_total",
				Help:      "Admin product writes by operation and result",
			},
			[]string{"op", "result"}, // op: create, update, toggle, delete, set_image
		),
		ImageUploads: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "image_uploads_total",
				Help:      "Product image uploads by result",
			},
			[]string{"result"}, // result: ok, rejected, failed
		),
		ImageUploadBytes: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "image_upload_bytes",
				Help:      "Size of accepted product image uploads",
				Buckets:   prometheus.ExponentialBuckets(32*1024, 2, 8),
			},
		),

		// =======================================================================
		// Storefront
		// =======================================================================
		StorefrontRenders: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "storefront_renders_total",
				Help:      "Storefront page assemblies by result",
			},
			[]string{"result"}, // result: ok, degraded
		),

		// =======================================================================
		// Contact Intake
		// =======================================================================
		ContactSubmissions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "contact_submissions_total",
				Help:      "Contact form submissions by validation outcome",
			},
			[]string{"result"}, // result: ok, rejected
		),
		ContactPersisted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "contact_persisted_total",
				Help:      "Contact submission record writes by result",
			},
			[]string{"result"},
		),
		Notifications: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "contact_notifications_total",
				Help:      "Operator notification emails by result",
			},
			[]string{"result"}, // result: ok, failed, skipped
		),
		NotifyDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "contact_notification_duration_seconds",
				Help:      "Notification send duration",
				Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30},
			},
		),

		// =======================================================================
		// Auth
		// =======================================================================
		AdminLogins: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "admin_logins_total",
				Help:      "Admin login attempts by result",
			},
			[]string{"result"},
		),
	}
}

func (m *BusinessMetrics) ProductMutation(op, result string) {
	if m == nil {
		return
	}
	m.ProductMutations.WithLabelValues(op, result).Inc()
}

func (m *BusinessMetrics) ImageUpload(result string, size int64) {
	if m == nil {
		return
	}
	m.ImageUploads.WithLabelValues(result).Inc()
	if result == ResultOK {
		m.ImageUploadBytes.Observe(float64(size))
	}
}

func (m *BusinessMetrics) StorefrontRender(result string) {
	if m == nil {
		return
	}
	m.StorefrontRenders.WithLabelValues(result).Inc()
}

func (m *BusinessMetrics) ContactSubmission(result string) {
	if m == nil {
		return
	}
	m.ContactSubmissions.WithLabelValues(result).Inc()
}

func (m *BusinessMetrics) ContactPersist(result string) {
	if m == nil {
		return
	}
	m.ContactPersisted.WithLabelValues(result).Inc()
}

func (m *BusinessMetrics) Notification(result string, seconds float64) {
	if m == nil {
		return
	}
	m.Notifications.WithLabelValues(result).Inc()
	if result != ResultSkipped {
		m.NotifyDuration.Observe(seconds)
	}
}

func (m *BusinessMetrics) AdminLogin(result string) {
	if m == nil {
		return
	}
	m.AdminLogins.WithLabelValues(result).Inc()
}
