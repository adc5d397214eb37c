package health

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"

	"letter-backend/internal/shared/server/respond"
)

const defaultTimeout = 2 * time.Second

// Check probes one dependency.
type Check func(ctx context.Context) error

// Report is the health payload.
type Report struct {
	OK     bool              `json:"ok"`
	Checks map[string]string `json:"checks"`
}

// Service encapsulates health-related checks.
type Service struct {
	checks  map[string]Check
	timeout time.Duration
}

// NewService constructs a health service. Nil checks are skipped.
func NewService(checks map[string]Check) *Service {
	clean := make(map[string]Check, len(checks))
	for name, check := range checks {
		if check != nil {
			clean[name] = check
		}
	}
	return &Service{checks: clean, timeout: defaultTimeout}
}

// Status runs every check with a shared deadline.
func (s *Service) Status(ctx context.Context) Report {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	report := Report{OK: true, Checks: make(map[string]string, len(names))}
	for _, name := range names {
		if err := s.checks[name](ctx); err != nil {
			report.OK = false
			report.Checks[name] = "error: " + err.Error()
			continue
		}
		report.Checks[name] = "ok"
	}
	return report
}

// RegisterRoutes attaches GET /health.
func (s *Service) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/health", func(c *gin.Context) {
		report := s.Status(c.Request.Context())
		status := http.StatusOK
		if !report.OK {
			status = http.StatusServiceUnavailable
		}
		respond.JSON(c, status, report)
	})
}
