package dashboard

import (
	"math"
	"sort"
	"time"

	"github.com/altinukshini/bk-tui/internal/model"
	"github.com/altinukshini/bk-tui/internal/status"
)

type Metrics struct {
	TotalBuilds  int
	PassedCount  int
	FailedCount  int
	CancelCount  int
	RunningCount int
	PassRate     float64
	FailureRate  float64
	RetryRate    float64 // builds with at least one retried job

	MeanDuration   float64 // seconds
	MedianDuration float64
	P95Duration    float64
	P99Duration    float64

	MeanQueueTime   float64
	MedianQueueTime float64
	P95QueueTime    float64

	BuildsBySource  map[string]int
	BuildsByCreator map[string]int
	BuildsByBranch  map[string]int

	SlowestSteps   []StepDurationStat
	TopFailingJobs []JobStat

	TotalJobs         int
	JobPassedCount    int
	JobFailedCount    int
	MeanJobDuration   float64
	MedianJobDuration float64
	P95JobDuration    float64
}

type JobStat struct {
	Name         string
	FailureCount int
	TotalRuns    int
	FailureRate  float64
}

type StepDurationStat struct {
	Name           string
	MedianDuration float64
	P95Duration    float64
	RunCount       int
}

type mapEntry struct {
	Key   string
	Value int
}

func sortMapByValue(m map[string]int) []mapEntry {
	entries := make([]mapEntry, 0, len(m))
	for k, v := range m {
		entries = append(entries, mapEntry{k, v})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Value != entries[j].Value {
			return entries[i].Value > entries[j].Value
		}
		return entries[i].Key < entries[j].Key
	})
	return entries
}

// ComputeMetrics summarizes finished and running builds with their jobs.
// Durations only count builds and jobs that both started and finished.
func ComputeMetrics(builds []model.Build) Metrics {
	m := Metrics{
		TotalBuilds:     len(builds),
		BuildsBySource:  make(map[string]int),
		BuildsByCreator: make(map[string]int),
		BuildsByBranch:  make(map[string]int),
	}
	if m.TotalBuilds == 0 {
		return m
	}

	var durations, queueTimes, jobDurations []float64
	retried := 0
	stepDurations := make(map[string][]float64)
	jobStats := make(map[string]*JobStat)

	for _, b := range builds {
		s := b.Status()
		switch {
		case status.IsSuccess(s):
			m.PassedCount++
		case s == status.Canceled || s == status.Canceling:
			m.CancelCount++
		case status.IsFailure(s):
			m.FailedCount++
		case s == status.Running:
			m.RunningCount++
		}

		if d, ok := elapsed(b.StartedAt, b.FinishedAt); ok {
			durations = append(durations, d)
		}
		if b.CreatedAt != nil && b.StartedAt != nil {
			if qt := b.StartedAt.Sub(*b.CreatedAt).Seconds(); qt >= 0 {
				queueTimes = append(queueTimes, qt)
			}
		}

		if b.Source != "" {
			m.BuildsBySource[b.Source]++
		}
		if by := b.CreatedBy(); by != "" {
			m.BuildsByCreator[by]++
		}
		if b.Branch != "" {
			m.BuildsByBranch[b.Branch]++
		}

		anyRetried := false
		for _, j := range b.Jobs {
			if j.Type != model.JobTypeScript {
				continue
			}
			if j.Retried {
				anyRetried = true
				continue
			}
			m.TotalJobs++
			name := j.DisplayName()
			js, ok := jobStats[name]
			if !ok {
				js = &JobStat{Name: name}
				jobStats[name] = js
			}
			js.TotalRuns++
			switch {
			case j.Failed() && !j.SoftFailed:
				m.JobFailedCount++
				js.FailureCount++
			case status.IsSuccess(j.Status()):
				m.JobPassedCount++
			}
			if d, ok := elapsed(j.StartedAt, j.FinishedAt); ok {
				jobDurations = append(jobDurations, d)
				stepDurations[name] = append(stepDurations[name], d)
			}
		}
		if anyRetried {
			retried++
		}
	}

	total := float64(m.TotalBuilds)
	m.PassRate = float64(m.PassedCount) / total * 100
	m.FailureRate = float64(m.FailedCount) / total * 100
	m.RetryRate = float64(retried) / total * 100

	m.MeanDuration, m.MedianDuration, m.P95Duration, m.P99Duration = summarize(durations)
	m.MeanQueueTime, m.MedianQueueTime, m.P95QueueTime, _ = summarize(queueTimes)
	m.MeanJobDuration, m.MedianJobDuration, m.P95JobDuration, _ = summarize(jobDurations)

	for name, durs := range stepDurations {
		sort.Float64s(durs)
		m.SlowestSteps = append(m.SlowestSteps, StepDurationStat{
			Name:           name,
			MedianDuration: percentile(durs, 50),
			P95Duration:    percentile(durs, 95),
			RunCount:       len(durs),
		})
	}
	sort.Slice(m.SlowestSteps, func(i, j int) bool {
		if m.SlowestSteps[i].P95Duration != m.SlowestSteps[j].P95Duration {
			return m.SlowestSteps[i].P95Duration > m.SlowestSteps[j].P95Duration
		}
		return m.SlowestSteps[i].Name < m.SlowestSteps[j].Name
	})
	if len(m.SlowestSteps) > 5 {
		m.SlowestSteps = m.SlowestSteps[:5]
	}

	for _, js := range jobStats {
		if js.FailureCount > 0 {
			js.FailureRate = float64(js.FailureCount) / float64(js.TotalRuns) * 100
			m.TopFailingJobs = append(m.TopFailingJobs, *js)
		}
	}
	sort.Slice(m.TopFailingJobs, func(i, j int) bool {
		if m.TopFailingJobs[i].FailureCount != m.TopFailingJobs[j].FailureCount {
			return m.TopFailingJobs[i].FailureCount > m.TopFailingJobs[j].FailureCount
		}
		return m.TopFailingJobs[i].Name < m.TopFailingJobs[j].Name
	})
	if len(m.TopFailingJobs) > 5 {
		m.TopFailingJobs = m.TopFailingJobs[:5]
	}

	return m
}

func elapsed(start, end *time.Time) (float64, bool) {
	if start == nil || end == nil {
		return 0, false
	}
	d := end.Sub(*start).Seconds()
	return d, d > 0
}

// summarize returns mean, median, p95 and p99 of values, sorting in place.
func summarize(values []float64) (mean, p50, p95, p99 float64) {
	if len(values) == 0 {
		return 0, 0, 0, 0
	}
	sort.Float64s(values)
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values)), percentile(values, 50), percentile(values, 95), percentile(values, 99)
}

func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := p / 100 * float64(len(sorted)-1)
	lower := int(math.Floor(idx))
	upper := int(math.Ceil(idx))
	if lower == upper {
		return sorted[lower]
	}
	frac := idx - float64(lower)
	return sorted[lower]*(1-frac) + sorted[upper]*frac
}
