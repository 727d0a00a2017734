// 包 metrics：批处理运行指标；进程结束前按需推送到 Pushgateway
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"roadnet/internal/pipeline"
)

var (
	RuleInvalidArcs = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "roadnet_rule_invalid_arcs",
		Help: "Arcs flagged by each topology rule in the last run",
	}, []string{"dataset", "code", "name"})
	IndexedArcs = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "roadnet_indexed_arcs",
		Help: "Arcs taking part in topology (excluded classes removed)",
	}, []string{"dataset"})
	Faces = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "roadnet_faces",
		Help: "Faces of the planar subdivision built in the last run",
	}, []string{"dataset"})
	FaceChanges = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "roadnet_face_changes",
		Help: "Changeset size by kind (added, removed, relinked, parent_reset)",
	}, []string{"dataset", "kind"})
	RunDurationSeconds = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "roadnet_run_duration_seconds",
		Help: "Wall time of the last validation run",
	}, []string{"dataset"})
	RunSuccess = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "roadnet_run_success",
		Help: "1 when the last run finished without error and validation was clean",
	}, []string{"dataset"})
	LastRunTimestamp = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "roadnet_last_run_timestamp_seconds",
		Help: "Unix time the last run finished",
	}, []string{"dataset"})
)

func init() {
	prometheus.MustRegister(RuleInvalidArcs)
	prometheus.MustRegister(IndexedArcs)
	prometheus.MustRegister(Faces)
	prometheus.MustRegister(FaceChanges)
	prometheus.MustRegister(RunDurationSeconds)
	prometheus.MustRegister(RunSuccess)
	prometheus.MustRegister(LastRunTimestamp)
}

// Observe：记录一次运行；out 为 nil 表示运行出错中止
func Observe(dataset string, out *pipeline.Outcome, elapsed time.Duration, runErr error) {
	RunDurationSeconds.WithLabelValues(dataset).Set(elapsed.Seconds())
	LastRunTimestamp.WithLabelValues(dataset).SetToCurrentTime()
	ok := runErr == nil && out != nil && out.Clean()
	if ok {
		RunSuccess.WithLabelValues(dataset).Set(1)
	} else {
		RunSuccess.WithLabelValues(dataset).Set(0)
	}
	if out == nil {
		return
	}
	if out.Index != nil {
		IndexedArcs.WithLabelValues(dataset).Set(float64(out.Index.Len()))
	}
	if out.Subdivision != nil {
		Faces.WithLabelValues(dataset).Set(float64(out.Subdivision.Len()))
	}
	if out.Validation != nil {
		for _, row := range out.Validation.Summary() {
			RuleInvalidArcs.WithLabelValues(dataset, strconv.Itoa(int(row.Code)), row.Name).Set(float64(row.Invalid))
		}
	}
	if out.Reconciliation != nil {
		cs := out.Reconciliation.Changeset
		FaceChanges.WithLabelValues(dataset, "added").Set(float64(len(cs.Added)))
		FaceChanges.WithLabelValues(dataset, "removed").Set(float64(len(cs.Removed)))
		FaceChanges.WithLabelValues(dataset, "relinked").Set(float64(len(cs.Relinked)))
		FaceChanges.WithLabelValues(dataset, "parent_reset").Set(float64(len(cs.ParentReset)))
	}
}

// Push：把本包指标推送到 Pushgateway
// 约束：指标已带 dataset 标签，分组键改用 instance
// 背景：批处理进程存活时间短，无法被抓取
func Push(url, dataset string) error {
	return push.New(url, "roadnet_validate").
		Grouping("instance", dataset).
		Collector(RuleInvalidArcs).
		Collector(IndexedArcs).
		Collector(Faces).
		Collector(FaceChanges).
		Collector(RunDurationSeconds).
		Collector(RunSuccess).
		Collector(LastRunTimestamp).
		Push()
}
