package server

import (
	"github.com/wordflowlab/vectorhub/server/observability"
)

// Option is a function that configures a Server
type Option func(*Server)

// WithHealthCheck registers an additional health check
func WithHealthCheck(check observability.HealthCheck) Option {
	return func(s *Server) {
		s.extraChecks = append(s.extraChecks, check)
	}
}
