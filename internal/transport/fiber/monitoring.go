package fiber

import (
	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	dommetrics "github.com/kailas-cloud/toxmod/internal/domain/metrics"
)

func (s *Server) report(c fiber.Ctx) (dommetrics.Report, error) {
	records, err := s.logs.List(c.Context())
	if err != nil {
		s.logger.Error("Failed to read prediction log", zap.Error(err))
		return dommetrics.Report{}, fiber.NewError(fiber.StatusServiceUnavailable, "Could not read the prediction log.")
	}
	return dommetrics.Monitor(records, s.labels, s.threshold), nil
}

// Monitoring renders the monitoring report over every logged prediction.
func (s *Server) Monitoring(c fiber.Ctx) error {
	rep, err := s.report(c)
	if err != nil {
		return err
	}
	return c.Render("monitoring", fiber.Map{
		"Title":  "Toxic Comment Moderation Monitoring",
		"Report": rep,
	})
}

// MonitoringJSON returns the monitoring report as JSON.
func (s *Server) MonitoringJSON(c fiber.Ctx) error {
	rep, err := s.report(c)
	if err != nil {
		return err
	}
	return c.JSON(rep)
}
