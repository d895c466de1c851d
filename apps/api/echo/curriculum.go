package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/mwalimu/core/curriculum"
)

type curriculumApi struct {
	svc      *curriculum.Service
	validate *validator.Validate
}

func registerCurriculumAPI(g *echo.Group, jwt, active echo.MiddlewareFunc, svc *curriculum.Service, validate *validator.Validate) {
	api := curriculumApi{svc: svc, validate: validate}

	sg := g.Group("/subjects", jwt, active)
	sg.GET("", api.querySubjects)
	sg.POST("", api.createSubject)
	sg.GET("/:id", api.retrieveSubject)
	sg.PUT("/:id", api.updateSubject)
	sg.DELETE("/:id", api.destroySubject)

	mg := g.Group("/milestones", jwt, active)
	mg.GET("", api.queryMilestones)
	mg.POST("", api.createMilestone)
	mg.GET("/progress", api.milestoneProgress)
	mg.GET("/:id", api.retrieveMilestone)
	mg.PUT("/:id", api.updateMilestone)
	mg.DELETE("/:id", api.destroyMilestone)

	ag := g.Group("/activities", jwt, active)
	ag.GET("", api.queryActivities)
	ag.POST("", api.createActivity)
	ag.GET("/:id", api.retrieveActivity)
	ag.PUT("/:id", api.updateActivity)
	ag.DELETE("/:id", api.destroyActivity)
	ag.POST("/:id/complete", api.completeActivity)
	ag.POST("/:id/reopen", api.reopenActivity)
}

// Subjects

func (api *curriculumApi) querySubjects(ctx echo.Context) error {
	subjects, err := api.svc.QuerySubjects(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying subjects")
	}
	if subjects == nil {
		subjects = []curriculum.Subject{}
	}
	return ctx.JSON(http.StatusOK, subjects)
}

func (api *curriculumApi) createSubject(ctx echo.Context) error {
	var data curriculum.NewSubject
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSubject")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	subj, err := api.svc.CreateSubject(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating subject")
	}
	return ctx.JSON(http.StatusCreated, subj)
}

func (api *curriculumApi) retrieveSubject(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	subj, err := api.svc.GetSubject(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "finding subject")
	}
	return ctx.JSON(http.StatusOK, subj)
}

func (api *curriculumApi) updateSubject(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	var data curriculum.NewSubject
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSubject")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	subj, err := api.svc.UpdateSubject(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating subject")
	}
	return ctx.JSON(http.StatusOK, subj)
}

func (api *curriculumApi) destroySubject(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	if err = api.svc.DeleteSubject(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting subject")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Milestones

func (api *curriculumApi) queryMilestones(ctx echo.Context) error {
	subjectID, err := queryInt(ctx, "subject_id")
	if err != nil {
		return err
	}
	milestones, err := api.svc.QueryMilestones(ctx.Request().Context(), subjectID)
	if err != nil {
		return errors.Wrap(err, "querying milestones")
	}
	if milestones == nil {
		milestones = []curriculum.Milestone{}
	}
	return ctx.JSON(http.StatusOK, milestones)
}

func (api *curriculumApi) createMilestone(ctx echo.Context) error {
	var data curriculum.NewMilestone
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewMilestone")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ms, err := api.svc.CreateMilestone(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating milestone")
	}
	return ctx.JSON(http.StatusCreated, ms)
}

func (api *curriculumApi) retrieveMilestone(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	ms, err := api.svc.GetMilestone(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "finding milestone")
	}
	return ctx.JSON(http.StatusOK, ms)
}

func (api *curriculumApi) updateMilestone(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	var data curriculum.UpdateMilestone
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateMilestone")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	ms, err := api.svc.UpdateMilestone(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating milestone")
	}
	return ctx.JSON(http.StatusOK, ms)
}

func (api *curriculumApi) destroyMilestone(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	if err = api.svc.DeleteMilestone(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting milestone")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *curriculumApi) milestoneProgress(ctx echo.Context) error {
	progress, err := api.svc.MilestoneProgress(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "computing milestone progress")
	}
	if progress == nil {
		progress = []curriculum.MilestoneProgress{}
	}
	return ctx.JSON(http.StatusOK, progress)
}

// Activities

func (api *curriculumApi) queryActivities(ctx echo.Context) error {
	var (
		filter curriculum.ActivityFilter
		err    error
	)
	if filter.SubjectID, err = queryInt(ctx, "subject_id"); err != nil {
		return err
	}
	if filter.MilestoneID, err = queryInt(ctx, "milestone_id"); err != nil {
		return err
	}
	if filter.Pending, err = queryBool(ctx, "pending"); err != nil {
		return err
	}

	acts, err := api.svc.QueryActivities(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying activities")
	}
	if acts == nil {
		acts = []curriculum.Activity{}
	}
	return ctx.JSON(http.StatusOK, acts)
}

func (api *curriculumApi) createActivity(ctx echo.Context) error {
	var data curriculum.NewActivity
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewActivity")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	act, err := api.svc.CreateActivity(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating activity")
	}
	return ctx.JSON(http.StatusCreated, act)
}

func (api *curriculumApi) retrieveActivity(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	act, err := api.svc.GetActivity(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "finding activity")
	}
	return ctx.JSON(http.StatusOK, act)
}

func (api *curriculumApi) updateActivity(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	var data curriculum.UpdateActivity
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateActivity")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	act, err := api.svc.UpdateActivity(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating activity")
	}
	return ctx.JSON(http.StatusOK, act)
}

func (api *curriculumApi) destroyActivity(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	if err = api.svc.DeleteActivity(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting activity")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *curriculumApi) completeActivity(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	act, err := api.svc.CompleteActivity(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "completing activity")
	}
	return ctx.JSON(http.StatusOK, act)
}

func (api *curriculumApi) reopenActivity(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	act, err := api.svc.ReopenActivity(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "reopening activity")
	}
	return ctx.JSON(http.StatusOK, act)
}
