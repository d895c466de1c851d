package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/kat-co/vala"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/pkg/errors"

	"github.com/trezcool/mwalimu/core"
	"github.com/trezcool/mwalimu/core/curriculum"
	"github.com/trezcool/mwalimu/core/planner"
	"github.com/trezcool/mwalimu/core/timetable"
	"github.com/trezcool/mwalimu/core/user"
)

// Deps holds what the API handlers need.
type Deps struct {
	Conf          *core.Config
	Logger        core.Logger
	Validate      *validator.Validate
	Translator    ut.Translator
	UserSvc       *user.Service
	CurriculumSvc *curriculum.Service
	TimetableSvc  *timetable.Service
	PlannerSvc    *planner.Service
}

type Server struct {
	app      *echo.Echo
	conf     *core.Config
	logger   core.Logger
	errors   chan error
	shutdown chan os.Signal
}

func NewServer(deps Deps) *Server {
	vala.BeginValidation().Validate(
		vala.IsNotNil(deps.Conf, "conf"),
		vala.IsNotNil(deps.Logger, "logger"),
		vala.IsNotNil(deps.Validate, "validate"),
		vala.IsNotNil(deps.Translator, "translator"),
		vala.IsNotNil(deps.UserSvc, "userSvc"),
		vala.IsNotNil(deps.CurriculumSvc, "curriculumSvc"),
		vala.IsNotNil(deps.TimetableSvc, "timetableSvc"),
		vala.IsNotNil(deps.PlannerSvc, "plannerSvc"),
	).CheckAndPanic()

	s := &Server{
		app:      echo.New(),
		conf:     deps.Conf,
		logger:   deps.Logger,
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup(deps)
	return s
}

func (s *Server) setup(deps Deps) {
	conf := deps.Conf

	s.app.HideBanner = conf.TestMode
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !(conf.Server.DisableReqLogs || conf.TestMode) {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(deps.Logger, deps.Translator, s.signalShutdown)
	s.app.Debug = conf.Debug && !conf.TestMode

	s.app.GET("/", s.home)

	auth := newAuthenticator(conf, deps.UserSvc)
	api := s.app.Group("/api")
	jwt := middleware.JWTWithConfig(auth.jwtConfig)
	active := activeUserMiddleware(auth)

	registerUserAPI(api, jwt, auth, deps.UserSvc, deps.Validate)
	registerCurriculumAPI(api, jwt, active, deps.CurriculumSvc, deps.Validate)
	registerTimetableAPI(api, jwt, active, deps.TimetableSvc, deps.Validate)
	registerPlannerAPI(api, jwt, active, auth, deps.PlannerSvc)
}

// Start listens until the server is shut down; failures are reported on Errors.
func (s *Server) Start() {
	if err := s.app.Start(s.conf.Server.Address); err != nil && err != http.ErrServerClosed {
		s.errors <- errors.Wrap(err, "starting server")
	}
}

func (s *Server) Errors() <-chan error { return s.errors }

func (s *Server) ShutdownSignal() <-chan os.Signal { return s.shutdown }

func (s *Server) Shutdown(ctx context.Context) error { return s.app.Shutdown(ctx) }

func (s *Server) Close() error { return s.app.Close() }

// signalShutdown asks the app to shut down gracefully.
func (s *Server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default:
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *Server) home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to "+s.conf.AppName+" API!")
}
