// cmd/site-analytics/workers.go
package main

import (
	"site-analytics/internal/common/camunda"
	"site-analytics/internal/common/config"
	"site-analytics/internal/common/logger"
	"site-analytics/internal/store"

	rar "site-analytics/internal/workers/analysis/record-analysis-result"

	ad "site-analytics/internal/workers/analysis/analyze-demographics"
	ec "site-analytics/internal/workers/analysis/estimate-competitors"
	ed "site-analytics/internal/workers/analysis/estimate-demand"
	er "site-analytics/internal/workers/communication/email-report"
	pae "site-analytics/internal/workers/communication/publish-analysis-event"
	lpc "site-analytics/internal/workers/geo/lookup-postal-code"
	snp "site-analytics/internal/workers/geo/search-nearby-places"
	brp "site-analytics/internal/workers/report/build-report"
	sf "site-analytics/internal/workers/simulation/simulate-funnel"
)

// startWorkers opens a Zeebe job worker per enabled task type.
func startWorkers(zeebe *camunda.Client, cfg *config.Config, h *handlers, db *store.Store, log logger.Logger) []interface{ Close() } {
	rarCfg := rar.LoadConfig()
	rarCfg.Timeout = workerTimeout(cfg, rar.TaskType, rarCfg.Timeout)
	recorder := rar.NewHandler(rarCfg, db.Analyses, log)

	tasks := []struct {
		taskType string
		handler  camunda.HandlerFunc
	}{
		{sf.TaskType, h.simulate.Handle},
		{ad.TaskType, h.demographics.Handle},
		{ec.TaskType, h.competitors.Handle},
		{ed.TaskType, h.demand.Handle},
		{rar.TaskType, recorder.Handle},
		{lpc.TaskType, h.postal.Handle},
		{snp.TaskType, h.places.Handle},
		{brp.TaskType, h.report.Handle},
		{er.TaskType, h.email.Handle},
		{pae.TaskType, h.events.Handle},
	}

	var started []interface{ Close() }
	for _, t := range tasks {
		if !config.IsWorkerEnabled(cfg, t.taskType) {
			log.Info("worker disabled", map[string]interface{}{"taskType": t.taskType})
			continue
		}
		if w := camunda.StartWorker(zeebe.GetClient(), t.taskType, config.GetWorkerConfig(cfg, t.taskType), t.handler, log); w != nil {
			started = append(started, w)
		}
	}

	log.Info("workers registered", map[string]interface{}{
		"registered": len(tasks),
		"started":    len(started),
	})
	return started
}
