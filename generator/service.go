package generator

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Status classifies a service failure independently of the transport.
type Status int

const (
	StatusInvalidRequest Status = iota + 1
	StatusInternal
)

func (s Status) String() string {
	switch s {
	case StatusInvalidRequest:
		return "invalid_request"
	case StatusInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// ServiceError is the single failure type surfaced to transports.
type ServiceError struct {
	Status Status
	Detail string
	Err    error
}

func (e *ServiceError) Error() string { return e.Detail }
func (e *ServiceError) Unwrap() error { return e.Err }

// Generator is what the service needs from an Agent.
type Generator interface {
	Generate(ctx context.Context, req Request) (*GenerationResult, error)
}

// Service is the entry point used by the HTTP server and the CLI.
type Service struct {
	gen    Generator
	logger *zap.Logger
}

func NewService(gen Generator, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{gen: gen, logger: logger}
}

// GenerateEditPlan validates the request and runs one generation.
func (s *Service) GenerateEditPlan(ctx context.Context, req Request) (*GenerationResult, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, &ServiceError{Status: StatusInvalidRequest, Detail: "prompt is required"}
	}
	res, err := s.gen.Generate(ctx, req)
	if err != nil {
		s.logger.Error("generate edit plan", zap.Error(err))
		return nil, &ServiceError{
			Status: StatusInternal,
			Detail: fmt.Sprintf("Error generating edit plan: %v", err),
			Err:    err,
		}
	}
	return res, nil
}
