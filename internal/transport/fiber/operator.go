package fiber

import (
	"strings"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"github.com/kailas-cloud/toxmod/internal/domain"
)

// Operator view messages.
const (
	MsgEmptyComment = "Please enter a non-empty comment."
	MsgAPIFailure   = "Error processing predictions. Please try again later."
)

const operatorTitle = "Toxic Comment Moderation"

type labelOption struct {
	Name    string
	Pretty  string
	Checked bool
}

type labelResult struct {
	Pretty    string
	Predicted int
	True      int
}

func (s *Server) options(selected domain.LabelMap) []labelOption {
	out := make([]labelOption, len(s.labels))
	for i, l := range s.labels {
		out[i] = labelOption{Name: l, Pretty: domain.PrettyLabel(l), Checked: selected[l] == 1}
	}
	return out
}

// OperatorForm renders the empty moderation form.
func (s *Server) OperatorForm(c fiber.Ctx) error {
	return c.Render("operator", fiber.Map{
		"Title":  operatorTitle,
		"Labels": s.options(nil),
	})
}

// OperatorSubmit sends the comment and the ticked labels to the prediction
// API and renders the per-label comparison.
func (s *Server) OperatorSubmit(c fiber.Ctx) error {
	comment := strings.TrimSpace(c.FormValue("comment"))

	trueLabels := make(domain.LabelMap, len(s.labels))
	for _, l := range s.labels {
		if c.FormValue(l) != "" {
			trueLabels[l] = 1
		} else {
			trueLabels[l] = 0
		}
	}

	if comment == "" {
		return c.Status(fiber.StatusUnprocessableEntity).Render("operator", fiber.Map{
			"Title":  operatorTitle,
			"Labels": s.options(trueLabels),
			"Error":  MsgEmptyComment,
		})
	}

	rec, err := s.api.Predict(c.Context(), comment, trueLabels)
	if err != nil {
		s.logger.Error("Prediction request failed", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).Render("operator", fiber.Map{
			"Title":    operatorTitle,
			"Labels":   s.options(trueLabels),
			"Comment":  comment,
			"APIError": MsgAPIFailure,
		})
	}

	results := make([]labelResult, 0, len(s.labels))
	for _, l := range s.labels {
		results = append(results, labelResult{
			Pretty:    domain.PrettyLabel(l),
			Predicted: rec.Response[l],
			True:      trueLabels[l],
		})
	}
	return c.Render("operator", fiber.Map{
		"Title":   operatorTitle,
		"Labels":  s.options(nil),
		"Comment": comment,
		"Results": results,
	})
}
