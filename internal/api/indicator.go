package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/The-Bear-Den/power-indicator/internal/api/models"
	"github.com/The-Bear-Den/power-indicator/internal/controller"
	"github.com/The-Bear-Den/power-indicator/internal/indicator"
	"github.com/The-Bear-Den/power-indicator/internal/price"
)

// registerIndicatorRoutes registers the matrix, segment and row endpoints.
func (s *Server) registerIndicatorRoutes() {
	if s.options.Matrix == nil || s.options.Indicator == nil {
		s.logger.Debug("Indicator not available, skipping indicator routes")
		return
	}

	huma.Register(s.api, huma.Operation{
		OperationID: "get-matrix",
		Method:      http.MethodGet,
		Path:        "/api/matrix",
		Summary:     "Matrix Frame",
		Description: "Current frame buffer as a logical grid and in physical strip order",
		Tags:        []string{"indicator"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(_ context.Context, _ *struct{}) (*models.MatrixResponse, error) {
		m := s.options.Matrix
		return &models.MatrixResponse{
			Body: models.MatrixData{
				Layout: m.Layout(),
				Grid:   m.Grid(),
				Pixels: m.Snapshot(),
			},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "list-segments",
		Method:      http.MethodGet,
		Path:        "/api/segments",
		Summary:     "List Status Segments",
		Description: "State of every status segment in row 0",
		Tags:        []string{"indicator"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(_ context.Context, _ *struct{}) (*models.SegmentListResponse, error) {
		return &models.SegmentListResponse{
			Body: models.SegmentListData{Segments: s.options.Indicator.Segments()},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "set-segment",
		Method:      http.MethodPost,
		Path:        "/api/segments/{segment}",
		Summary:     "Set Status Segment",
		Description: "Override a status segment until its owner reports again",
		Tags:        []string{"indicator"},
		Security:    withAuth(),
		Errors:      []int{400, 401, 404, 502},
	}, func(_ context.Context, input *models.SegmentUpdateRequest) (*models.SegmentResponse, error) {
		ind := s.options.Indicator
		var err error
		switch input.Body.State {
		case controller.Initializing.String():
			err = ind.OnConnecting(input.Segment)
		case controller.Healthy.String():
			err = ind.OnConnectivityEvent(input.Segment, true)
		case controller.Failed.String():
			err = ind.OnConnectivityEvent(input.Segment, false)
		default:
			return nil, huma.Error400BadRequest("Unsupported segment state " + input.Body.State)
		}
		if err := renderError(err); err != nil {
			return nil, err
		}

		for _, seg := range ind.Segments() {
			if seg.Segment == input.Segment {
				return &models.SegmentResponse{Body: seg}, nil
			}
		}
		return nil, huma.Error404NotFound("Segment not found")
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "list-rows",
		Method:      http.MethodGet,
		Path:        "/api/rows",
		Summary:     "List Data Rows",
		Description: "Last accepted reading on each rendered data row",
		Tags:        []string{"indicator"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(_ context.Context, _ *struct{}) (*models.RowListResponse, error) {
		return &models.RowListResponse{
			Body: models.RowListData{Rows: s.options.Indicator.Rows()},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "set-row",
		Method:      http.MethodPost,
		Path:        "/api/rows/{row}",
		Summary:     "Set Data Row",
		Description: "Render a price tier and fill level on a data row until the next source update",
		Tags:        []string{"indicator"},
		Security:    withAuth(),
		Errors:      []int{401, 404, 422, 502},
	}, func(_ context.Context, input *models.RowUpdateRequest) (*models.RowResponse, error) {
		ind := s.options.Indicator
		category, err := price.ParseDescriptor(input.Body.Descriptor)
		if err != nil {
			return nil, huma.Error422UnprocessableEntity(err.Error())
		}
		if err := renderError(ind.OnDataUpdate(input.Row, category, input.Body.Percent)); err != nil {
			return nil, err
		}

		for _, row := range ind.Rows() {
			if row.Row == input.Row {
				return &models.RowResponse{Body: row}, nil
			}
		}
		return nil, huma.Error404NotFound("Row not found")
	})
}

// renderError maps indicator errors to HTTP errors. A failed transmission
// still changed the frame buffer, so the response reports 502.
func renderError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, indicator.ErrInvalidRow), errors.Is(err, indicator.ErrInvalidSegment):
		return huma.Error404NotFound(err.Error())
	case errors.Is(err, indicator.ErrUnknownCategory):
		return huma.Error422UnprocessableEntity(err.Error())
	case errors.Is(err, indicator.ErrTransmission):
		return huma.NewError(http.StatusBadGateway, err.Error())
	default:
		return huma.Error500InternalServerError("Render failed", err)
	}
}
