package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/mlezi/darasa/core/access"
	"github.com/mlezi/darasa/core/school"
	"github.com/mlezi/darasa/core/user"
	"github.com/mlezi/darasa/storage/uploads"
)

type mediaApi struct {
	svc      *school.MediaService
	userSvc  user.Service
	uploads  uploads.Store
	validate *validator.Validate
}

func registerMediaAPI(g *echo.Group, jwt, optAuth echo.MiddlewareFunc, opts *Options) {
	api := mediaApi{
		svc:      opts.MediaSvc,
		userSvc:  opts.UserSvc,
		uploads:  opts.Uploads,
		validate: opts.Validate,
	}

	mg := g.Group("/media")

	// the gallery is world-readable
	mg.GET("", api.query, optAuth, allow(access.ActionRead, access.ResourceMedia))
	mg.GET("/:id", api.retrieve, optAuth, allow(access.ActionRead, access.ResourceMedia))

	mg.POST("", api.create, jwt, allow(access.ActionCreate, access.ResourceMedia))
	mg.DELETE("/:id", api.destroy, jwt, allow(access.ActionDelete, access.ResourceMedia))
}

func (api *mediaApi) query(ctx echo.Context) error {
	items, err := api.svc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying media items")
	}
	if items == nil {
		items = []school.MediaItem{}
	}
	return ctx.JSON(http.StatusOK, items)
}

func (api *mediaApi) retrieve(ctx echo.Context) error {
	item, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding media item by ID")
	}
	return ctx.JSON(http.StatusOK, item)
}

// create accepts either a JSON body referencing an external URL or a
// multipart form with a "file" part that is stored locally.
func (api *mediaApi) create(ctx echo.Context) error {
	var data school.NewMediaItem

	if fileHdr, err := ctx.FormFile("file"); err == nil {
		src, err := fileHdr.Open()
		if err != nil {
			return errors.Wrap(err, "opening uploaded file")
		}
		defer src.Close()

		url, err := api.uploads.Save(fileHdr.Filename, src)
		if err != nil {
			return errors.Wrap(err, "storing uploaded file")
		}
		data.Title = ctx.FormValue("title")
		data.Kind = ctx.FormValue("kind")
		data.URL = url
	} else if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewMediaItem")
	}

	if err := data.Validate(api.validate); err != nil {
		return err
	}

	author, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	item, err := api.svc.Create(ctx.Request().Context(), data, author)
	if err != nil {
		return errors.Wrap(err, "creating media item")
	}
	return ctx.JSON(http.StatusCreated, item)
}

func (api *mediaApi) destroy(ctx echo.Context) error {
	if _, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "finding media item by ID")
	}
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting media item")
	}
	return ctx.NoContent(http.StatusNoContent)
}
