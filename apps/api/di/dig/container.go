package dig_container

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/trezcool/mwalimu/apps/api/echo"
	"github.com/trezcool/mwalimu/core"
	"github.com/trezcool/mwalimu/core/curriculum"
	"github.com/trezcool/mwalimu/core/planner"
	"github.com/trezcool/mwalimu/core/priority"
	"github.com/trezcool/mwalimu/core/timetable"
	"github.com/trezcool/mwalimu/core/user"
	emailsvc "github.com/trezcool/mwalimu/services/email"
	logsvc "github.com/trezcool/mwalimu/services/logger"
	"github.com/trezcool/mwalimu/storage/database"
	inmemdb "github.com/trezcool/mwalimu/storage/database/inmem"
	boiledrepos "github.com/trezcool/mwalimu/storage/database/sqlboiler"
)

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

// Repositories are backed by postgres, or kept in memory with the "memory" database engine.
type Repositories struct {
	dig.Out
	User       user.Repository
	Curriculum curriculum.Repository
	Timetable  timetable.Repository
	Plan       planner.Repository
}

type plannerParams struct {
	dig.In
	Conf       *core.Config
	Repo       planner.Repository
	Curriculum *curriculum.Service
	Calendar   *timetable.Service
	Ranker     priority.Ranker
	MailSvc    core.EmailService
	Logger     core.Logger
}

type serverParams struct {
	dig.In
	Conf          *core.Config
	Logger        core.Logger
	Validate      *validator.Validate
	Translator    ut.Translator
	UserSvc       *user.Service
	CurriculumSvc *curriculum.Service
	TimetableSvc  *timetable.Service
	PlannerSvc    *planner.Service
}

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "API : ", log.LstdFlags)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newDBLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

// newDB creates, opens and migrates the postgres database; it is nil with the "memory" engine.
func newDB(conf *core.Config, loggerParam DBLoggerParam) *sql.DB {
	if conf.Database.Engine == database.EngineMemory {
		loggerParam.Logger.Warn("using the in-memory database: data will not survive a restart")
		return nil
	}

	setUp := func() (*sql.DB, error) {
		if err := database.CreateIfNotExist(conf); err != nil {
			return nil, err
		}

		db, err := database.Open(conf)
		if err != nil {
			return nil, err
		}

		if err = database.Migrate(db, "up"); err != nil {
			return nil, err
		}
		return db, nil
	}

	db, err := setUp()
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	return db
}

func newRepositories(db *sql.DB) Repositories {
	if db == nil {
		mem := inmemdb.Open()
		return Repositories{
			User:       inmemdb.NewUserRepository(mem),
			Curriculum: inmemdb.NewCurriculumRepository(mem),
			Timetable:  inmemdb.NewTimetableRepository(mem),
			Plan:       inmemdb.NewPlanRepository(mem),
		}
	}
	return Repositories{
		User:       boiledrepos.NewUserRepository(db),
		Curriculum: boiledrepos.NewCurriculumRepository(db),
		Timetable:  boiledrepos.NewTimetableRepository(db),
		Plan:       boiledrepos.NewPlanRepository(db),
	}
}

func newEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.Debug {
		return emailsvc.NewConsoleService(conf, logger)
	}
	return emailsvc.NewSendgridService(conf, logger)
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

func newRanker() priority.Ranker {
	return priority.NewDeadlineRanker()
}

func newTimetableService(repo timetable.Repository, subjects *curriculum.Service, logger core.Logger) *timetable.Service {
	return timetable.NewService(repo, subjects, logger)
}

func newPlannerService(p plannerParams) *planner.Service {
	return planner.NewService(p.Conf, p.Repo, p.Curriculum, p.Calendar, p.Ranker, p.MailSvc, p.Logger)
}

func newServer(p serverParams) *echoapi.Server {
	return echoapi.NewServer(echoapi.Deps{
		Conf:          p.Conf,
		Logger:        p.Logger,
		Validate:      p.Validate,
		Translator:    p.Translator,
		UserSvc:       p.UserSvc,
		CurriculumSvc: p.CurriculumSvc,
		TimetableSvc:  p.TimetableSvc,
		PlannerSvc:    p.PlannerSvc,
	})
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newDB))
	must(c.Provide(newRepositories))
	must(c.Provide(newEmailService))
	must(c.Provide(validator.New))
	must(c.Provide(newTranslator))
	must(c.Provide(newRanker))
	must(c.Provide(user.NewService))
	must(c.Provide(curriculum.NewService))
	must(c.Provide(newTimetableService))
	must(c.Provide(newPlannerService))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
