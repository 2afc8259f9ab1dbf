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

type announcementApi struct {
	svc      *school.AnnouncementService
	userSvc  user.Service
	validate *validator.Validate
}

func registerAnnouncementAPI(g *echo.Group, jwt, optAuth echo.MiddlewareFunc, opts *Options) {
	api := announcementApi{
		svc:      opts.AnnouncementSvc,
		userSvc:  opts.UserSvc,
		validate: opts.Validate,
	}

	ag := g.Group("/announcements")

	// global announcements are world-readable
	ag.GET("", api.query, optAuth, allow(access.ActionRead, access.ResourceAnnouncement))
	ag.GET("/:id", api.retrieve, optAuth, allow(access.ActionRead, access.ResourceAnnouncement))

	ag.POST("", api.create, jwt, allow(access.ActionCreate, access.ResourceAnnouncement))
	ag.PUT("/:id", api.update, jwt, allow(access.ActionUpdate, access.ResourceAnnouncement))
	ag.DELETE("/:id", api.destroy, jwt, allow(access.ActionDelete, access.ResourceAnnouncement))
}

// viewer resolves the calling user; nil for anonymous callers.
func (api *announcementApi) viewer(ctx echo.Context) (*user.User, error) {
	if _, err := getContextClaims(ctx); err != nil {
		return nil, nil // anonymous
	}
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return nil, errors.Wrap(err, "getting context user")
	}
	return &usr, nil
}

func (api *announcementApi) query(ctx echo.Context) error {
	viewer, err := api.viewer(ctx)
	if err != nil {
		return err
	}

	anns, err := api.svc.QueryVisible(ctx.Request().Context(), viewer)
	if err != nil {
		return errors.Wrap(err, "querying announcements")
	}
	if anns == nil {
		anns = []school.Announcement{}
	}
	return ctx.JSON(http.StatusOK, anns)
}

func (api *announcementApi) retrieve(ctx echo.Context) error {
	ann, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding announcement by ID")
	}

	if !ann.IsGlobal() {
		// class-bound announcements are visible to class members and admins
		viewer, err := api.viewer(ctx)
		if err != nil {
			return err
		}
		if viewer == nil {
			return errUnauthorized
		}
		if !viewer.IsAdmin() && !viewer.InClass(ann.ClassID) {
			return errHttpNotFound
		}
	}
	return ctx.JSON(http.StatusOK, ann)
}

func (api *announcementApi) create(ctx echo.Context) error {
	var data school.NewAnnouncement
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAnnouncement")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	author, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	ann, err := api.svc.Create(ctx.Request().Context(), data, author)
	if err != nil {
		return errors.Wrap(err, "creating announcement")
	}
	return ctx.JSON(http.StatusCreated, ann)
}

func (api *announcementApi) update(ctx echo.Context) error {
	ann, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding announcement by ID")
	}

	var data school.UpdateAnnouncement
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateAnnouncement")
	}
	if err := data.Validate(ann, api.validate); err != nil {
		return err
	}

	ann, err = api.svc.Update(ctx.Request().Context(), ann.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating announcement")
	}
	return ctx.JSON(http.StatusOK, ann)
}

func (api *announcementApi) destroy(ctx echo.Context) error {
	if _, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "finding announcement by ID")
	}
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting announcement")
	}
	return ctx.NoContent(http.StatusNoContent)
}
