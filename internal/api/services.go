package api

import (
	"github.com/sectionsmith/sectionsmith-server/internal/service"
)

// Services groups all business logic services used by the API server.
// This reduces the parameter count for NewServer and improves testability.
type Services struct {
	Capture *service.CaptureService
	Library *service.LibraryService
}
