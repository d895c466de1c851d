package echoapi

import (
	"fmt"
	"net/http"
	"net/mail"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/mwalimu/core"
	"github.com/trezcool/mwalimu/core/planner"
)

type plannerApi struct {
	svc  *planner.Service
	auth *authenticator
}

func registerPlannerAPI(g *echo.Group, jwt, active echo.MiddlewareFunc, auth *authenticator, svc *planner.Service) {
	api := plannerApi{svc: svc, auth: auth}

	pg := g.Group("/plans", jwt, active)
	pg.POST("", api.generate)
	pg.GET("/:date", api.retrieve)
	pg.DELETE("/:date", api.destroy)
	pg.GET("/:date/substitute", api.substitute)
	pg.POST("/:date/substitute/send", api.sendSubstitute)
}

func (api *plannerApi) generate(ctx echo.Context) error {
	var data GenerateRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to GenerateRequest")
	}
	weekStart, err := core.ParseDate(data.WeekStart)
	if err != nil {
		return core.NewFieldError("week_start", "week_start must be a date formatted as YYYY-MM-DD")
	}

	req := planner.GenerateRequest{
		WeekStart:      weekStart,
		Pacing:         planner.Pacing(core.CleanString(data.Pacing, true /* lower */)),
		PreserveBuffer: data.PreserveBuffer,
	}
	usr, err := api.auth.contextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if usr.Email != "" {
		req.Notify = &mail.Address{Name: usr.Name, Address: usr.Email}
	}

	plan, err := api.svc.Generate(ctx.Request().Context(), req)
	if err != nil {
		return errors.Wrap(err, "generating lesson plan")
	}
	return ctx.JSON(http.StatusCreated, plan)
}

func (api *plannerApi) retrieve(ctx echo.Context) error {
	date, err := dateParam(ctx, "date")
	if err != nil {
		return err
	}
	plan, err := api.svc.GetPlan(ctx.Request().Context(), date)
	if err != nil {
		return errors.Wrap(err, "finding lesson plan")
	}
	return ctx.JSON(http.StatusOK, plan)
}

func (api *plannerApi) destroy(ctx echo.Context) error {
	date, err := dateParam(ctx, "date")
	if err != nil {
		return err
	}
	if err = api.svc.DeletePlan(ctx.Request().Context(), date); err != nil {
		return errors.Wrap(err, "deleting lesson plan")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// substitute renders the plan of one day as JSON, or as a CSV file with `?format=csv`.
func (api *plannerApi) substitute(ctx echo.Context) error {
	date, err := dateParam(ctx, "date")
	if err != nil {
		return err
	}
	day, err := api.svc.SubstitutePlan(ctx.Request().Context(), date)
	if err != nil {
		return errors.Wrap(err, "finding substitute plan")
	}

	if ctx.QueryParam("format") != "csv" {
		return ctx.JSON(http.StatusOK, day)
	}
	content, err := day.CSV()
	if err != nil {
		return errors.Wrap(err, "writing csv")
	}
	filename := fmt.Sprintf("substitute-plan-%s.csv", day.Date.Format(core.DateLayout))
	ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return ctx.Stream(http.StatusOK, "text/csv", content)
}

func (api *plannerApi) sendSubstitute(ctx echo.Context) error {
	date, err := dateParam(ctx, "date")
	if err != nil {
		return err
	}
	var data SendPlanRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SendPlanRequest")
	}

	to := make([]mail.Address, 0, len(data.To))
	for _, rcpt := range data.To {
		addr, err := mail.ParseAddress(rcpt)
		if err != nil {
			return core.NewFieldError("to", fmt.Sprintf("invalid email address: %s", rcpt))
		}
		to = append(to, *addr)
	}

	if err = api.svc.SendSubstitutePlan(ctx.Request().Context(), date, to...); err != nil {
		return errors.Wrap(err, "sending substitute plan")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "The substitute plan has been sent."})
}

type (
	GenerateRequest struct {
		WeekStart      string `json:"week_start"`
		Pacing         string `json:"pacing_strategy"`
		PreserveBuffer *bool  `json:"preserve_buffer"`
	}

	SendPlanRequest struct {
		To []string `json:"to"`
	}
)
