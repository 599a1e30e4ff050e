package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/evalia/backend/core/guideline"
)

type guidelineApi struct {
	svc      *guideline.Service
	validate *validator.Validate
}

func registerGuidelineAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *guideline.Service, validate *validator.Validate) {
	api := guidelineApi{svc: svc, validate: validate}

	gg := g.Group("/guidelines", jwt)
	gg.POST("", api.create, adminMiddleware())
	gg.GET("", api.query)

	dg := gg.Group("/:id")
	dg.GET("", api.retrieve)
	dg.PUT("", api.update, adminMiddleware())
	dg.DELETE("", api.destroy, adminMiddleware())
	dg.GET("/has-scores", api.hasScores)
}

// Handlers

func (api *guidelineApi) create(ctx echo.Context) error {
	var data guideline.NewGuideline
	if err := bindStrict(ctx, &data); err != nil {
		return errors.Wrap(err, "binding to NewGuideline")
	}
	if err := data.Validate(ctx.Request().Context(), api.validate, api.svc); err != nil {
		return err
	}

	gl, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating guideline")
	}
	return ctx.JSON(http.StatusCreated, gl)
}

func (api *guidelineApi) query(ctx echo.Context) error {
	filter := new(guideline.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []guideline.Guideline{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	gls, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying guidelines")
	}
	if gls == nil {
		gls = []guideline.Guideline{}
	}
	return ctx.JSON(http.StatusOK, gls)
}

func (api *guidelineApi) retrieve(ctx echo.Context) error {
	gl, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, gl)
}

func (api *guidelineApi) update(ctx echo.Context) error {
	orig, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}

	var data guideline.UpdateGuideline
	if err := bindStrict(ctx, &data); err != nil {
		return errors.Wrap(err, "binding to UpdateGuideline")
	}
	if err := data.Validate(ctx.Request().Context(), api.validate, api.svc, orig); err != nil {
		return err
	}

	gl, err := api.svc.Update(ctx.Request().Context(), orig.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating guideline")
	}
	return ctx.JSON(http.StatusOK, gl)
}

func (api *guidelineApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *guidelineApi) hasScores(ctx echo.Context) error {
	has, err := api.svc.HasScores(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"has_scores": has})
}
