package echoapi

import (
	"context"
	"net/http"
	"os"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/mlezi/darasa/core"
	"github.com/mlezi/darasa/core/school"
	"github.com/mlezi/darasa/core/user"
	"github.com/mlezi/darasa/storage/uploads"
)

type (
	Options struct {
		Conf           *core.Config
		Logger         core.Logger
		DisableReqLogs bool

		Validate   *validator.Validate
		Translator ut.Translator

		UserSvc         user.Service
		ClassSvc        *school.ClassService
		AnnouncementSvc *school.AnnouncementService
		AssignmentSvc   *school.AssignmentService
		EventSvc        *school.EventService
		MediaSvc        *school.MediaService
		Uploads         uploads.Store

		// Shutdown receives a signal when a fatal server error asks for a
		// graceful stop.
		Shutdown chan<- os.Signal
	}

	Server interface {
		http.Handler
		Start() error
		Stop(context.Context) error
	}

	server struct {
		opts *Options
		app  *echo.Echo
	}
)

var _ Server = (*server)(nil)

func NewServer(opts *Options) Server {
	s := &server{
		opts: opts,
		app:  echo.New(),
	}
	s.setup()
	return s
}

func (s *server) setup() {
	conf := s.opts.Conf

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Logger, s.opts.Translator, s.signalShutdown)
	s.app.Debug = conf.Debug
	s.app.HideBanner = true

	s.app.GET("/", home)
	s.app.Static(conf.Uploads.URLPrefix, conf.Uploads.Dir)

	api := s.app.Group("/api")
	jwt := middleware.JWTWithConfig(newJWTConfig(conf))
	optAuth := optionalAuth(conf)

	registerAuthAPI(api, jwt, s.opts)
	registerUserAPI(api, jwt, s.opts)
	registerClassAPI(api, jwt, s.opts)
	registerAnnouncementAPI(api, jwt, optAuth, s.opts)
	registerAssignmentAPI(api, jwt, s.opts)
	registerEventAPI(api, jwt, optAuth, s.opts)
	registerMediaAPI(api, jwt, optAuth, s.opts)
}

func (s *server) signalShutdown() {
	if s.opts.Shutdown != nil {
		s.opts.Shutdown <- syscall.SIGTERM
	}
}

func (s *server) Start() error {
	return s.app.Start(s.opts.Conf.Server.Address())
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to Darasa API!")
}
