package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/evalia/backend/core/evaluation"
)

type evaluationApi struct {
	svc      *evaluation.Service
	validate *validator.Validate
}

func registerEvaluationAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *evaluation.Service, validate *validator.Validate) {
	api := evaluationApi{svc: svc, validate: validate}

	eg := g.Group("/evaluations", jwt)
	eg.POST("", api.create, professorOrAdminMiddleware())
	eg.GET("", api.query)
	eg.GET("/pending", api.queryPending)

	dg := eg.Group("/:id")
	dg.GET("", api.retrieve)
	dg.PUT("", api.update, professorOrAdminMiddleware())
}

// Handlers

func (api *evaluationApi) create(ctx echo.Context) error {
	var data evaluation.NewEvaluation
	if err := bindStrict(ctx, &data); err != nil {
		return errors.Wrap(err, "binding to NewEvaluation")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ev, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating evaluation")
	}
	return ctx.JSON(http.StatusCreated, ev)
}

func (api *evaluationApi) query(ctx echo.Context) error {
	filter := new(evaluation.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []evaluation.Evaluation{})
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	evs, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying evaluations")
	}
	if evs == nil {
		evs = []evaluation.Evaluation{}
	}
	return ctx.JSON(http.StatusOK, evs)
}

func (api *evaluationApi) queryPending(ctx echo.Context) error {
	evs, err := api.svc.QueryPending(ctx.Request().Context(), ctx.QueryParam("professor"))
	if err != nil {
		return errors.Wrap(err, "querying pending evaluations")
	}
	if evs == nil {
		evs = []evaluation.Evaluation{}
	}
	return ctx.JSON(http.StatusOK, evs)
}

func (api *evaluationApi) retrieve(ctx echo.Context) error {
	info, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, info)
}

func (api *evaluationApi) update(ctx echo.Context) error {
	var data evaluation.UpdateEvaluation
	if err := bindStrict(ctx, &data); err != nil {
		return errors.Wrap(err, "binding to UpdateEvaluation")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	info, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, info)
}
