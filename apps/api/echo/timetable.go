package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/mwalimu/core/timetable"
)

type timetableApi struct {
	svc      *timetable.Service
	validate *validator.Validate
}

func registerTimetableAPI(g *echo.Group, jwt, active echo.MiddlewareFunc, svc *timetable.Service, validate *validator.Validate) {
	api := timetableApi{svc: svc, validate: validate}

	sg := g.Group("/slots", jwt, active)
	sg.GET("", api.querySlots)
	sg.POST("", api.createSlot)
	sg.GET("/:id", api.retrieveSlot)
	sg.PUT("/:id", api.updateSlot)
	sg.DELETE("/:id", api.destroySlot)

	cg := g.Group("/calendar", jwt, active)
	cg.GET("/events", api.queryEvents)
	cg.POST("/events", api.createEvent)
	cg.DELETE("/events/:id", api.destroyEvent)
	cg.GET("/unavailable", api.queryUnavailableBlocks)
	cg.POST("/unavailable", api.createUnavailableBlock)
	cg.DELETE("/unavailable/:id", api.destroyUnavailableBlock)
	cg.GET("/holidays", api.queryHolidays)
	cg.POST("/holidays", api.createHoliday)
	cg.DELETE("/holidays/:id", api.destroyHoliday)
}

func bindRangeFilter(ctx echo.Context) (filter timetable.QueryFilter, err error) {
	if filter.From, err = queryTime(ctx, "from"); err != nil {
		return filter, err
	}
	filter.To, err = queryTime(ctx, "to")
	return filter, err
}

// Slots

func (api *timetableApi) querySlots(ctx echo.Context) error {
	slots, err := api.svc.QuerySlots(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying slots")
	}
	if slots == nil {
		slots = []timetable.Slot{}
	}
	return ctx.JSON(http.StatusOK, slots)
}

func (api *timetableApi) createSlot(ctx echo.Context) error {
	var data timetable.NewSlot
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSlot")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	slot, err := api.svc.CreateSlot(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating slot")
	}
	return ctx.JSON(http.StatusCreated, slot)
}

func (api *timetableApi) retrieveSlot(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	slot, err := api.svc.GetSlot(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "finding slot")
	}
	return ctx.JSON(http.StatusOK, slot)
}

func (api *timetableApi) updateSlot(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	var data timetable.NewSlot
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSlot")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	slot, err := api.svc.UpdateSlot(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating slot")
	}
	return ctx.JSON(http.StatusOK, slot)
}

func (api *timetableApi) destroySlot(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	if err = api.svc.DeleteSlot(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting slot")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Events

func (api *timetableApi) queryEvents(ctx echo.Context) error {
	filter, err := bindRangeFilter(ctx)
	if err != nil {
		return err
	}
	events, err := api.svc.QueryEvents(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying events")
	}
	if events == nil {
		events = []timetable.Event{}
	}
	return ctx.JSON(http.StatusOK, events)
}

func (api *timetableApi) createEvent(ctx echo.Context) error {
	var data timetable.NewEvent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEvent")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ev, err := api.svc.CreateEvent(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating event")
	}
	return ctx.JSON(http.StatusCreated, ev)
}

func (api *timetableApi) destroyEvent(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	if err = api.svc.DeleteEvent(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting event")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Unavailable blocks

func (api *timetableApi) queryUnavailableBlocks(ctx echo.Context) error {
	filter, err := bindRangeFilter(ctx)
	if err != nil {
		return err
	}
	blocks, err := api.svc.QueryUnavailableBlocks(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying unavailable blocks")
	}
	if blocks == nil {
		blocks = []timetable.UnavailableBlock{}
	}
	return ctx.JSON(http.StatusOK, blocks)
}

func (api *timetableApi) createUnavailableBlock(ctx echo.Context) error {
	var data timetable.NewUnavailableBlock
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUnavailableBlock")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	block, err := api.svc.CreateUnavailableBlock(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating unavailable block")
	}
	return ctx.JSON(http.StatusCreated, block)
}

func (api *timetableApi) destroyUnavailableBlock(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	if err = api.svc.DeleteUnavailableBlock(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting unavailable block")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Holidays

func (api *timetableApi) queryHolidays(ctx echo.Context) error {
	filter, err := bindRangeFilter(ctx)
	if err != nil {
		return err
	}
	holidays, err := api.svc.QueryHolidays(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying holidays")
	}
	if holidays == nil {
		holidays = []timetable.Holiday{}
	}
	return ctx.JSON(http.StatusOK, holidays)
}

func (api *timetableApi) createHoliday(ctx echo.Context) error {
	var data timetable.NewHoliday
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewHoliday")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	h, err := api.svc.CreateHoliday(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating holiday")
	}
	return ctx.JSON(http.StatusCreated, h)
}

func (api *timetableApi) destroyHoliday(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	if err = api.svc.DeleteHoliday(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting holiday")
	}
	return ctx.NoContent(http.StatusNoContent)
}
