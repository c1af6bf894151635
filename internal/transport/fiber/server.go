// Package fiber serves the operator and monitoring dashboards.
package fiber

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"math"
	"net/http"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/gofiber/template/html/v3"
	"go.uber.org/zap"

	"github.com/kailas-cloud/toxmod/internal/domain"
	"github.com/kailas-cloud/toxmod/internal/metrics"
)

// PredictionAPI is the prediction service as seen by the operator view.
type PredictionAPI interface {
	Predict(ctx context.Context, text string, trueLabels domain.LabelMap) (domain.PredictionRecord, error)
}

// LogReader reads the full prediction log.
type LogReader interface {
	List(ctx context.Context) ([]domain.PredictionRecord, error)
}

// Config holds dashboard settings.
type Config struct {
	Labels         []string
	AlertThreshold float64
	// Views is the template tree holding layouts/main, operator, monitoring and error.
	Views fs.FS
	// Metrics serves GET /metrics. Nil disables the route.
	Metrics http.Handler
	// AccessLog enables fiber's request logger.
	AccessLog bool
}

// Server wraps the Fiber app.
type Server struct {
	App *fiber.App

	api       PredictionAPI
	logs      LogReader
	labels    []string
	threshold float64
	logger    *zap.Logger
}

// New creates the dashboard app with middleware and routes configured.
func New(cfg Config, api PredictionAPI, logs LogReader, log *zap.Logger) *Server {
	engine := html.NewFileSystem(http.FS(cfg.Views), ".html")
	engine.AddFunc("pct", formatPercent)
	engine.AddFunc("ratio", formatRatio)
	engine.AddFunc("width", barWidth)

	app := fiber.New(fiber.Config{
		Views:       engine,
		ViewsLayout: "layouts/main",
		ErrorHandler: func(c fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			message := "Internal Server Error"

			var e *fiber.Error
			if errors.As(err, &e) {
				code = e.Code
				message = e.Message
			}

			return c.Status(code).Render("error", fiber.Map{
				"Title":   "Error",
				"Message": message,
			})
		},
	})

	app.Use(recover.New())
	if cfg.AccessLog {
		app.Use(logger.New())
	}
	app.Use(metrics.FiberMiddleware("dashboard"))

	threshold := cfg.AlertThreshold
	if threshold <= 0 {
		threshold = 0.5
	}
	s := &Server{
		App:       app,
		api:       api,
		logs:      logs,
		labels:    cfg.Labels,
		threshold: threshold,
		logger:    log,
	}

	app.Get("/", s.OperatorForm)
	app.Post("/", s.OperatorSubmit)
	app.Get("/monitoring", s.Monitoring)
	app.Get("/monitoring.json", s.MonitoringJSON)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics))
	}
	return s
}

// Listen serves on addr until Shutdown.
func (s *Server) Listen(addr string) error {
	return s.App.Listen(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown() error {
	return s.App.Shutdown()
}

func formatPercent(v float64) string {
	return fmt.Sprintf("%.2f%%", v*100)
}

func formatRatio(v float64) string {
	return fmt.Sprintf("%.4f", v)
}

func barWidth(v float64) template.CSS {
	v = math.Max(0, math.Min(1, v))
	return template.CSS(fmt.Sprintf("width: %.1f%%", v*100))
}
