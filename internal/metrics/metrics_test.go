package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roadnet/internal/meshblock"
	"roadnet/internal/pipeline"
	"roadnet/internal/validate"
)

func TestObserveOutcome(t *testing.T) {
	out := &pipeline.Outcome{
		Validation: &validate.Result{
			Errors: map[validate.Code]validate.IDSet{
				validate.CodeZeroLength: {},
				validate.CodeSimple:     {"a": {}, "b": {}},
			},
			Names: map[validate.Code]string{
				validate.CodeZeroLength: "construction_zero_length",
				validate.CodeSimple:     "construction_simple",
			},
		},
		Reconciliation: &meshblock.Reconciliation{Changeset: meshblock.Changeset{
			Added:   []meshblock.Face{{ID: "x"}},
			Removed: []string{"y", "z"},
		}},
	}
	Observe("t.observe", out, 1500*time.Millisecond, nil)

	assert.Equal(t, 2.0, testutil.ToFloat64(RuleInvalidArcs.WithLabelValues("t.observe", "102", "construction_simple")))
	assert.Equal(t, 0.0, testutil.ToFloat64(RuleInvalidArcs.WithLabelValues("t.observe", "101", "construction_zero_length")))
	assert.Equal(t, 1.0, testutil.ToFloat64(FaceChanges.WithLabelValues("t.observe", "added")))
	assert.Equal(t, 2.0, testutil.ToFloat64(FaceChanges.WithLabelValues("t.observe", "removed")))
	assert.Equal(t, 1.5, testutil.ToFloat64(RunDurationSeconds.WithLabelValues("t.observe")))
	// 有违规时运行不算成功
	assert.Equal(t, 0.0, testutil.ToFloat64(RunSuccess.WithLabelValues("t.observe")))
}

func TestObserveFailure(t *testing.T) {
	Observe("t.failure", nil, time.Second, errors.New("boom"))
	assert.Equal(t, 0.0, testutil.ToFloat64(RunSuccess.WithLabelValues("t.failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(RunDurationSeconds.WithLabelValues("t.failure")))
}

func TestPush(t *testing.T) {
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	require.NoError(t, Push(srv.URL, "public.segment"))
	assert.Equal(t, "/metrics/job/roadnet_validate/instance/public.segment", path)
}
