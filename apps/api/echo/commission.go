package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/evalia/backend/core/commission"
)

type commissionApi struct {
	svc      *commission.Service
	validate *validator.Validate
}

func registerCommissionAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *commission.Service, validate *validator.Validate) {
	api := commissionApi{svc: svc, validate: validate}

	cg := g.Group("/commissions", jwt)
	cg.POST("", api.create, adminMiddleware())
	cg.GET("", api.query)

	dg := cg.Group("/:id")
	dg.GET("", api.retrieve)
	dg.PUT("", api.update, adminMiddleware())
	dg.DELETE("", api.destroy, adminMiddleware())

	g.GET("/themes/:id/commissions", api.queryByTheme, jwt)
}

// Handlers

func (api *commissionApi) create(ctx echo.Context) error {
	var data commission.NewCommission
	if err := bindStrict(ctx, &data); err != nil {
		return errors.Wrap(err, "binding to NewCommission")
	}
	if err := data.Validate(ctx.Request().Context(), api.validate, api.svc); err != nil {
		return err
	}

	info, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating commission")
	}
	return ctx.JSON(http.StatusCreated, info)
}

func (api *commissionApi) query(ctx echo.Context) error {
	filter := new(commission.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []commission.Info{})
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	infos, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying commissions")
	}
	if infos == nil {
		infos = []commission.Info{}
	}
	return ctx.JSON(http.StatusOK, infos)
}

func (api *commissionApi) queryByTheme(ctx echo.Context) error {
	infos, err := api.svc.QueryByTheme(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying commissions by theme")
	}
	if infos == nil {
		infos = []commission.Info{}
	}
	return ctx.JSON(http.StatusOK, infos)
}

func (api *commissionApi) retrieve(ctx echo.Context) error {
	info, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, info)
}

func (api *commissionApi) update(ctx echo.Context) error {
	orig, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}

	var data commission.UpdateCommission
	if err := bindStrict(ctx, &data); err != nil {
		return errors.Wrap(err, "binding to UpdateCommission")
	}
	if err := data.Validate(ctx.Request().Context(), api.validate, api.svc, orig.Commission); err != nil {
		return err
	}

	info, err := api.svc.Update(ctx.Request().Context(), orig.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating commission")
	}
	return ctx.JSON(http.StatusOK, info)
}

func (api *commissionApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}
