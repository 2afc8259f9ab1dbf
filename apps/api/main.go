package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"

	echoapi "github.com/mlezi/darasa/apps/api/echo"
	"github.com/mlezi/darasa/core"
	"github.com/mlezi/darasa/core/school"
	"github.com/mlezi/darasa/core/user"
	appfs "github.com/mlezi/darasa/fs"
	emailsvc "github.com/mlezi/darasa/services/email"
	logsvc "github.com/mlezi/darasa/services/logger"
	"github.com/mlezi/darasa/storage/database"
	sqlxrepos "github.com/mlezi/darasa/storage/database/sqlx"
	"github.com/mlezi/darasa/storage/uploads"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf, err := core.LoadConfig(".")
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	std := core.NewStdLogger("API")
	var logger core.Logger
	if conf.Debug {
		logger = logsvc.NewConsoleLogger(std)
	} else {
		logger = logsvc.NewRollbarLogger(std, conf)
	}

	db, err := setUpDB(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = db.Close(); err != nil {
			logger.Error("closing database", err)
		}
	}()

	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}

	uploadStore, err := uploads.NewLocalStore(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up upload store: %v", err), err)
	}

	usrSvc := user.NewService(conf, sqlxrepos.NewUserRepository(db), mailSvc)
	classSvc := school.NewClassService(sqlxrepos.NewClassRepository(db))
	annSvc := school.NewAnnouncementService(sqlxrepos.NewAnnouncementRepository(db))
	asgSvc := school.NewAssignmentService(sqlxrepos.NewAssignmentRepository(db))
	evtSvc := school.NewEventService(sqlxrepos.NewEventRepository(db))
	mediaSvc := school.NewMediaService(sqlxrepos.NewMediaRepository(db))

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)
	user.RegisterValidators(validate, translator)
	user.InitTokenGenerator(conf)
	core.SetMailTemplateFS(appfs.FS, "templates/email")

	// =========================================================================
	// Start API Service

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	server := echoapi.NewServer(&echoapi.Options{
		Conf:            conf,
		Logger:          logger,
		Validate:        validate,
		Translator:      translator,
		UserSvc:         usrSvc,
		ClassSvc:        classSvc,
		AnnouncementSvc: annSvc,
		AssignmentSvc:   asgSvc,
		EventSvc:        evtSvc,
		MediaSvc:        mediaSvc,
		Uploads:         uploadStore,
		Shutdown:        shutdown,
	})

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("API listening on " + conf.Server.Address())
		serverErrors <- server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-serverErrors:
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-shutdown:
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		if err = server.Stop(ctx); err != nil {
			logger.Fatal(fmt.Sprintf("could not stop server gracefully: %v", err), err)
		}
	}
}

func setUpDB(conf *core.Config) (*sqlx.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db.DB); err != nil {
		return nil, err
	}
	return db, nil
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}
