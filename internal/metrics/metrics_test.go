package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dimitrije/coachlink-api/internal/models"
	"github.com/dimitrije/coachlink-api/internal/services"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

var _ services.Observer = (*Metrics)(nil)

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.InvitationIssued(models.KindCoach)
	m.InvitationIssued(models.KindCoach)
	m.RedemptionFailed(services.KindEmailMismatch)
	m.RelationshipLinked(models.KindParent, true)
	m.RelationshipLinked(models.KindParent, false)
	m.InvitationsSwept(3)
	m.RateLimited()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.invitationsIssued.WithLabelValues("coach")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.redemptionFailures.WithLabelValues("email_mismatch")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.relationshipsLinked.WithLabelValues("parent", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.relationshipsLinked.WithLabelValues("parent", "false")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.invitationsExpired))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rateLimited))
}

func TestServer_ServesMetrics(t *testing.T) {
	m := New()
	m.InvitationIssued(models.KindCoach)
	srv := NewServer(":0", m, zap.NewNop().Sugar())

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `coachlink_invitations_issued_total{kind="coach"} 1`)
}
