package api

import (
	httpSwagger "github.com/swaggo/http-swagger"

	"go-jobmarket-pipeline/internal/api/handler"
	"go-jobmarket-pipeline/pkg/router"
)

func RegisterRoutes(r *router.Router, h *handler.PipelineHandler) {
	r.POST("/api/v1/pipelines", h.CreatePipeline)
	r.GET("/api/v1/pipelines", h.ListPipelines)
	// More specific routes first
	r.GET("/api/v1/pipelines/*/errors", h.GetPipelineErrors)
	r.GET("/api/v1/pipelines/*/labels", h.GetPipelineLabels)
	r.GET("/api/v1/pipelines/*/summary", h.GetPipelineSummary)
	r.GET("/api/v1/pipelines/*/progress", h.GetPipelineProgress)
	r.GET("/api/v1/pipelines/*/logs", h.GetPipelineLogs)
	r.GET("/api/v1/pipelines/*/files", h.GetPipelineFiles)
	r.POST("/api/v1/pipelines/*/retry", h.RetryPipeline)
	r.GET("/api/v1/download/*/*", h.DownloadFile)
	// Generic pipeline route last
	r.GET("/api/v1/pipelines/*", h.GetPipeline)

	r.Handle("/swagger/", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
}
