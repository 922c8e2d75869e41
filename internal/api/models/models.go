// Package models holds request and response bodies for the HTTP API.
package models

import (
	"github.com/The-Bear-Den/power-indicator/internal/controller"
	"github.com/The-Bear-Den/power-indicator/internal/indicator"
	"github.com/The-Bear-Den/power-indicator/internal/logging"
)

// Health check models
type HealthData struct {
	Status  string `json:"status" example:"ok" doc:"Service status"`
	Message string `json:"message" example:"API is healthy" doc:"Status message"`
}

type HealthResponse struct {
	Body HealthData
}

// Version models
type VersionData struct {
	Version   string `json:"version" example:"1.2.0" doc:"Application version"`
	GitCommit string `json:"git_commit" example:"a1b2c3d" doc:"Git commit hash"`
	BuildDate string `json:"build_date" example:"2026-01-27T10:30:00Z" doc:"Build timestamp"`
	Modified  bool   `json:"modified,omitempty" doc:"Built from a tree with uncommitted changes"`
	GoVersion string `json:"go_version" example:"go1.24.11" doc:"Go toolchain version"`
	Platform  string `json:"platform" example:"linux/arm" doc:"Target platform"`
}

type VersionResponse struct {
	Body VersionData
}

// Matrix models
type MatrixData struct {
	Layout indicator.Layout  `json:"layout" doc:"Matrix geometry"`
	Grid   [][]indicator.RGB `json:"grid" doc:"Logical grid, grid[row][col], row 0 is the status row"`
	Pixels []indicator.Pixel `json:"pixels" doc:"Frame in physical strip order"`
}

type MatrixResponse struct {
	Body MatrixData
}

// Segment models
type SegmentListData struct {
	Segments []controller.SegmentStatus `json:"segments" doc:"Status segments"`
}

type SegmentListResponse struct {
	Body SegmentListData
}

type SegmentUpdateRequest struct {
	Segment int `path:"segment" minimum:"0" example:"0" doc:"Status segment index"`
	Body    struct {
		State string `json:"state" enum:"initializing,healthy,failed" example:"healthy" doc:"Requested segment state"`
	}
}

type SegmentResponse struct {
	Body controller.SegmentStatus
}

// Row models
type RowListData struct {
	Rows []controller.RowStatus `json:"rows" doc:"Data rows rendered so far"`
}

type RowListResponse struct {
	Body RowListData
}

type RowUpdateRequest struct {
	Row  int `path:"row" minimum:"1" example:"1" doc:"Data row, 1-based"`
	Body struct {
		Descriptor string `json:"descriptor" example:"low" doc:"Price tier descriptor"`
		Percent    int    `json:"percent" example:"42" doc:"Fill percentage, clamped to 0..100"`
	}
}

type RowResponse struct {
	Body controller.RowStatus
}

// Log models
type LogsRequest struct {
	Limit int `query:"limit" minimum:"0" maximum:"500" default:"100" doc:"Number of most recent entries"`
}

type LogsData struct {
	Entries []logging.LogEntry `json:"entries" doc:"Log entries, oldest first"`
	Count   int                `json:"count" example:"100" doc:"Number of entries returned"`
}

type LogsResponse struct {
	Body LogsData
}
