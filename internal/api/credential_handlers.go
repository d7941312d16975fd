package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (s *Server) registerCredentialRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getCredentialStatus",
		Method:      http.MethodGet,
		Path:        "/api/v1/credentials",
		Summary:     "Credential status",
		Description: "Reports whether an LLM API key is stored; the key itself is never returned",
		Tags:        []string{"Credentials"},
	}, s.handleCredentialStatus)

	huma.Register(s.api, huma.Operation{
		OperationID: "setCredential",
		Method:      http.MethodPut,
		Path:        "/api/v1/credentials",
		Summary:     "Store API key",
		Description: "Stores the LLM API key used by the direct API strategy",
		Tags:        []string{"Credentials"},
	}, s.handleSetCredential)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteCredential",
		Method:      http.MethodDelete,
		Path:        "/api/v1/credentials",
		Summary:     "Delete API key",
		Description: "Removes the stored LLM API key",
		Tags:        []string{"Credentials"},
	}, s.handleDeleteCredential)
}

// CredentialStatusResponse reports whether a key is configured.
type CredentialStatusResponse struct {
	Configured bool `json:"configured" doc:"Whether an API key is stored"`
}

// CredentialStatusOutput wraps the status response for Huma.
type CredentialStatusOutput struct {
	Body CredentialStatusResponse
}

// SetCredentialRequest is the request body for storing an API key.
type SetCredentialRequest struct {
	APIKey string `json:"api_key" validate:"required,min=8" doc:"LLM API key"`
}

// SetCredentialInput wraps the set request for Huma.
type SetCredentialInput struct {
	Body SetCredentialRequest
}

func (s *Server) handleCredentialStatus(ctx context.Context, _ *struct{}) (*CredentialStatusOutput, error) {
	key, err := s.store.Credentials().APIKey(ctx)
	if err != nil {
		return nil, err
	}
	return &CredentialStatusOutput{Body: CredentialStatusResponse{Configured: key != ""}}, nil
}

func (s *Server) handleSetCredential(ctx context.Context, input *SetCredentialInput) (*struct{}, error) {
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}
	if err := s.store.Credentials().SetAPIKey(ctx, input.Body.APIKey); err != nil {
		return nil, err
	}
	return &struct{}{}, nil
}

func (s *Server) handleDeleteCredential(ctx context.Context, _ *struct{}) (*struct{}, error) {
	if err := s.store.Credentials().DeleteAPIKey(ctx); err != nil {
		return nil, err
	}
	return &struct{}{}, nil
}
