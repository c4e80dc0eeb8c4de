package http

import (
	"bytes"
	"embed"
	"errors"
	"html/template"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/gasolina/backend/internal/domain"
	"github.com/gasolina/backend/pkg/utils"
)

//go:embed templates/index.html
var templatesFS embed.FS

var indexTemplate = template.Must(template.ParseFS(templatesFS, "templates/index.html"))

type pageView struct {
	States  []string
	State   string
	Year    int
	Month   int
	MinYear int
	MaxYear int
	Unit    string
	Result  string
	Error   string
}

// Index renders the selection form and, once a state is chosen, the estimate
func (h *Handler) Index(c *fiber.Ctx) error {
	view := pageView{
		States:  h.estimator.States(),
		State:   c.Query("state"),
		MinYear: domain.MinYear,
		MaxYear: domain.MaxYear,
		Unit:    domain.Unit,
	}

	var badFields []string
	view.Year, badFields = queryInt(c, "year", domain.DefaultYear, badFields)
	view.Month, badFields = queryInt(c, "month", domain.DefaultMonth, badFields)

	status := fiber.StatusOK
	if len(badFields) > 0 {
		status, view.Error = pageError(&domain.ValidationError{Fields: badFields})
	} else if view.State != "" {
		est, err := h.estimator.Estimate(c.Context(), domain.PriceQuery{
			State: view.State,
			Year:  view.Year,
			Month: view.Month,
		})
		if err != nil {
			status, view.Error = pageError(err)
			h.logger.Info().Err(err).Str("state", view.State).Msg("estimate rejected")
		} else {
			view.Result = utils.FormatPrice(est.Price, est.Currency)
		}
	}

	var buf bytes.Buffer
	if err := indexTemplate.Execute(&buf, view); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to render page: "+err.Error())
	}

	c.Type("html", "utf-8")
	return c.Status(status).Send(buf.Bytes())
}

// queryInt parses an optional integer parameter. Unlike c.QueryInt it does not
// fall back to the default on malformed input.
func queryInt(c *fiber.Ctx, key string, def int, bad []string) (int, []string) {
	raw := c.Query(key)
	if raw == "" {
		return def, bad
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def, append(bad, key+": integer")
	}
	return v, bad
}

func pageError(err error) (int, string) {
	var verr *domain.ValidationError
	switch {
	case errors.Is(err, domain.ErrUnknownCategory):
		return fiber.StatusUnprocessableEntity, "Error al codificar el estado. Revisa el encoder."
	case errors.As(err, &verr):
		return fiber.StatusBadRequest, "Parámetros inválidos: " + verr.Error()
	default:
		return fiber.StatusInternalServerError, "Error al calcular la predicción: " + err.Error()
	}
}
