package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/evalia/backend/core/term"
)

type termApi struct {
	svc      *term.Service
	validate *validator.Validate
}

func registerTermAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *term.Service, validate *validator.Validate) {
	api := termApi{svc: svc, validate: validate}

	tg := g.Group("/terms", jwt)
	tg.POST("", api.create, adminMiddleware())
	tg.GET("", api.query)
	tg.GET("/current", api.retrieveCurrent)
	tg.GET("/:id", api.retrieve)
	tg.POST("/:id/set-current", api.setCurrent, adminMiddleware())
}

// Handlers

func (api *termApi) create(ctx echo.Context) error {
	var data term.NewTerm
	if err := bindStrict(ctx, &data); err != nil {
		return errors.Wrap(err, "binding to NewTerm")
	}
	if err := data.Validate(ctx.Request().Context(), api.validate, api.svc); err != nil {
		return err
	}

	t, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating term")
	}
	return ctx.JSON(http.StatusCreated, t)
}

func (api *termApi) query(ctx echo.Context) error {
	ordering := new(Ordering)
	ordering.Bind(ctx)

	terms, err := api.svc.Query(ctx.Request().Context(), ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying terms")
	}
	if terms == nil {
		terms = []term.Term{}
	}
	return ctx.JSON(http.StatusOK, terms)
}

func (api *termApi) retrieve(ctx echo.Context) error {
	t, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, t)
}

func (api *termApi) retrieveCurrent(ctx echo.Context) error {
	t, err := api.svc.GetCurrent(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, t)
}

func (api *termApi) setCurrent(ctx echo.Context) error {
	t, err := api.svc.SetCurrent(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, t)
}
