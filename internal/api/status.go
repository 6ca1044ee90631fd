package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/poselink/poselink/internal/api/models"
)

// registerStatusRoutes registers the bridge status and subject endpoints.
func (s *Server) registerStatusRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "get-status",
		Method:      http.MethodGet,
		Path:        "/api/status",
		Summary:     "Bridge Status",
		Description: "Current listener state, source identity, and subject count",
		Tags:        []string{"status"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(_ context.Context, _ *struct{}) (*models.StatusResponse, error) {
		data := models.StatusData{}

		if s.options.ListenerState != nil {
			state := s.options.ListenerState()
			data.ListenerStatus = state.Status
			data.Endpoint = state.Endpoint
		}
		if s.options.Bridge != nil {
			data.Source = s.options.Bridge.Source().String()
			data.SubjectCount = len(s.options.Bridge.Subjects())
		}
		if s.options.NATSConnected != nil {
			data.NATSConnected = s.options.NATSConnected()
		}
		if s.options.Uptime != nil {
			data.Uptime = s.options.Uptime()
		}

		return &models.StatusResponse{Body: data}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "list-subjects",
		Method:      http.MethodGet,
		Path:        "/api/subjects",
		Summary:     "List Subjects",
		Description: "All subjects seen on the stream since startup, in discovery order",
		Tags:        []string{"subjects"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(_ context.Context, _ *struct{}) (*models.SubjectListResponse, error) {
		data := models.SubjectListData{Subjects: []models.SubjectData{}}

		if s.options.Bridge != nil {
			for _, info := range s.options.Bridge.Subjects() {
				data.Subjects = append(data.Subjects, models.SubjectData{
					Name:          info.Name,
					BoneCount:     info.BoneCount,
					PropertyCount: info.PropertyCount,
					Frames:        info.Frames,
					FirstSeen:     info.FirstSeen,
					LastSeen:      info.LastSeen,
				})
			}
		}
		data.Count = len(data.Subjects)

		return &models.SubjectListResponse{Body: data}, nil
	})
}
