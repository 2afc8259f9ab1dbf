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

type classApi struct {
	svc      *school.ClassService
	userSvc  user.Service
	validate *validator.Validate
}

func registerClassAPI(g *echo.Group, jwt echo.MiddlewareFunc, opts *Options) {
	api := classApi{
		svc:      opts.ClassSvc,
		userSvc:  opts.UserSvc,
		validate: opts.Validate,
	}

	cg := g.Group("/classes", jwt)
	cg.GET("", api.query, allow(access.ActionRead, access.ResourceClass))
	cg.POST("", api.create, allow(access.ActionCreate, access.ResourceClass))
	cg.GET("/:id", api.retrieve, allow(access.ActionRead, access.ResourceClass))
	cg.PUT("/:id", api.update, allow(access.ActionUpdate, access.ResourceClass))
	cg.DELETE("/:id", api.destroy, allow(access.ActionDelete, access.ResourceClass))
}

func (api *classApi) query(ctx echo.Context) error {
	viewer, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	classes, err := api.svc.QueryVisible(ctx.Request().Context(), viewer)
	if err != nil {
		return errors.Wrap(err, "querying classes")
	}
	if classes == nil {
		classes = []school.Class{}
	}
	return ctx.JSON(http.StatusOK, classes)
}

func (api *classApi) create(ctx echo.Context) error {
	var data school.NewClass
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewClass")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	cls, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating class")
	}
	return ctx.JSON(http.StatusCreated, cls)
}

func (api *classApi) retrieve(ctx echo.Context) error {
	cls, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding class by ID")
	}

	// members see their own classes, admin sees all
	viewer, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if !viewer.IsAdmin() && !cls.HasMember(viewer.ID) {
		return errHttpNotFound
	}
	return ctx.JSON(http.StatusOK, cls)
}

func (api *classApi) update(ctx echo.Context) error {
	cls, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding class by ID")
	}

	var data school.UpdateClass
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateClass")
	}
	if err := data.Validate(cls, api.validate); err != nil {
		return err
	}

	cls, err = api.svc.Update(ctx.Request().Context(), cls.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating class")
	}
	return ctx.JSON(http.StatusOK, cls)
}

func (api *classApi) destroy(ctx echo.Context) error {
	if _, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "finding class by ID")
	}
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting class")
	}
	return ctx.NoContent(http.StatusNoContent)
}
