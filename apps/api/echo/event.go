package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/mlezi/darasa/core/access"
	"github.com/mlezi/darasa/core/school"
	"github.com/mlezi/darasa/core/user"
)

type eventApi struct {
	svc      *school.EventService
	userSvc  user.Service
	validate *validator.Validate
}

func registerEventAPI(g *echo.Group, jwt, optAuth echo.MiddlewareFunc, opts *Options) {
	api := eventApi{
		svc:      opts.EventSvc,
		userSvc:  opts.UserSvc,
		validate: opts.Validate,
	}

	eg := g.Group("/events")

	// the events calendar is world-readable
	eg.GET("", api.query, optAuth, allow(access.ActionRead, access.ResourceEvent))
	eg.GET("/:id", api.retrieve, optAuth, allow(access.ActionRead, access.ResourceEvent))

	eg.POST("", api.create, jwt, allow(access.ActionCreate, access.ResourceEvent))
	eg.PUT("/:id", api.update, jwt, allow(access.ActionUpdate, access.ResourceEvent))
	eg.DELETE("/:id", api.destroy, jwt, allow(access.ActionDelete, access.ResourceEvent))
}

func (api *eventApi) query(ctx echo.Context) error {
	events, err := api.svc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying events")
	}
	if events == nil {
		events = []school.Event{}
	}
	return ctx.JSON(http.StatusOK, events)
}

func (api *eventApi) retrieve(ctx echo.Context) error {
	evt, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding event by ID")
	}
	return ctx.JSON(http.StatusOK, evt)
}

func (api *eventApi) create(ctx echo.Context) error {
	var data school.NewEvent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEvent")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	author, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	evt, err := api.svc.Create(ctx.Request().Context(), data, author)
	if err != nil {
		return errors.Wrap(err, "creating event")
	}
	return ctx.JSON(http.StatusCreated, evt)
}

func (api *eventApi) update(ctx echo.Context) error {
	evt, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding event by ID")
	}

	var data school.UpdateEvent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateEvent")
	}
	if err := data.Validate(evt, api.validate); err != nil {
		return err
	}

	evt, err = api.svc.Update(ctx.Request().Context(), evt.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating event")
	}
	return ctx.JSON(http.StatusOK, evt)
}

func (api *eventApi) destroy(ctx echo.Context) error {
	if _, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "finding event by ID")
	}
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting event")
	}
	return ctx.NoContent(http.StatusNoContent)
}
