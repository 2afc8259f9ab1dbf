package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/mlezi/darasa/core"
	"github.com/mlezi/darasa/core/access"
	"github.com/mlezi/darasa/core/school"
	"github.com/mlezi/darasa/core/user"
	"github.com/mlezi/darasa/storage/uploads"
)

type assignmentApi struct {
	svc      *school.AssignmentService
	userSvc  user.Service
	uploads  uploads.Store
	validate *validator.Validate
}

func registerAssignmentAPI(g *echo.Group, jwt echo.MiddlewareFunc, opts *Options) {
	api := assignmentApi{
		svc:      opts.AssignmentSvc,
		userSvc:  opts.UserSvc,
		uploads:  opts.Uploads,
		validate: opts.Validate,
	}

	ag := g.Group("/assignments", jwt)
	ag.GET("", api.query, allow(access.ActionRead, access.ResourceAssignment))
	ag.POST("", api.create, allow(access.ActionCreate, access.ResourceAssignment))
	ag.GET("/:id", api.retrieve, allow(access.ActionRead, access.ResourceAssignment))
	ag.PUT("/:id", api.update, allow(access.ActionUpdate, access.ResourceAssignment))
	ag.DELETE("/:id", api.destroy, allow(access.ActionDelete, access.ResourceAssignment))

	ag.POST("/:id/submit", api.submit, allow(access.ActionSubmit, access.ResourceAssignment))
	ag.GET("/:id/submissions", api.submissions, allow(access.ActionReadSubmissions, access.ResourceAssignment))
}

func (api *assignmentApi) query(ctx echo.Context) error {
	viewer, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	asgs, err := api.svc.QueryVisible(ctx.Request().Context(), viewer)
	if err != nil {
		return errors.Wrap(err, "querying assignments")
	}
	if asgs == nil {
		asgs = []school.Assignment{}
	}
	return ctx.JSON(http.StatusOK, asgs)
}

func (api *assignmentApi) create(ctx echo.Context) error {
	var data school.NewAssignment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAssignment")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	author, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	asg, err := api.svc.Create(ctx.Request().Context(), data, author)
	if err != nil {
		return errors.Wrap(err, "creating assignment")
	}
	return ctx.JSON(http.StatusCreated, asg)
}

func (api *assignmentApi) retrieve(ctx echo.Context) error {
	asg, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding assignment by ID")
	}

	viewer, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if !viewer.IsAdmin() && !viewer.InClass(asg.ClassID) {
		return errHttpNotFound
	}
	return ctx.JSON(http.StatusOK, asg)
}

func (api *assignmentApi) update(ctx echo.Context) error {
	asg, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding assignment by ID")
	}

	var data school.UpdateAssignment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateAssignment")
	}
	if err := data.Validate(asg, api.validate); err != nil {
		return err
	}

	asg, err = api.svc.Update(ctx.Request().Context(), asg.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating assignment")
	}
	return ctx.JSON(http.StatusOK, asg)
}

func (api *assignmentApi) destroy(ctx echo.Context) error {
	if _, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "finding assignment by ID")
	}
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting assignment")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// submit accepts a multipart form with a "text" field and an optional "file"
// part. A student's re-submission replaces the previous one.
func (api *assignmentApi) submit(ctx echo.Context) error {
	student, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	data := school.NewSubmission{Text: ctx.FormValue("text")}

	if fileHdr, err := ctx.FormFile("file"); err == nil {
		src, err := fileHdr.Open()
		if err != nil {
			return errors.Wrap(err, "opening uploaded file")
		}
		defer src.Close()

		url, err := api.uploads.Save(fileHdr.Filename, src)
		if err != nil {
			if errors.Cause(err) == uploads.ErrTooLarge {
				return core.NewValidationError(nil, core.FieldError{Field: "file", Error: "file too large"})
			}
			return errors.Wrap(err, "storing uploaded file")
		}
		data.FileURL = url
	}

	if err := data.Validate(); err != nil {
		return err
	}

	sub, err := api.svc.Submit(ctx.Request().Context(), ctx.Param("id"), data, student)
	if err != nil {
		return errors.Wrap(err, "submitting assignment")
	}
	return ctx.JSON(http.StatusCreated, sub)
}

func (api *assignmentApi) submissions(ctx echo.Context) error {
	viewer, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	subs, err := api.svc.Submissions(ctx.Request().Context(), ctx.Param("id"), viewer)
	if err != nil {
		return errors.Wrap(err, "listing submissions")
	}
	if subs == nil {
		subs = []school.Submission{}
	}
	return ctx.JSON(http.StatusOK, subs)
}
