package logsvc

import (
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/trezcool/mwalimu/core"
	"github.com/trezcool/mwalimu/core/user"
)

type level int

const (
	levelDebug level = iota
	levelInfo
	levelWarn
	levelError
	levelFatal
)

var levelNames = map[level]string{
	levelDebug: "DEBUG",
	levelInfo:  "INFO",
	levelWarn:  "WARN",
	levelError: "ERROR",
	levelFatal: "FATAL",
}

// RollbarLogger prints to a std logger and reports to rollbar when enabled.
// Debug messages are only printed in debug mode.
type RollbarLogger struct {
	std      *log.Logger
	minLevel level
	exit     func(string) // mockable
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(std *log.Logger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)

	minLevel := levelInfo
	if conf.Debug {
		minLevel = levelDebug
	}
	return &RollbarLogger{std: std, minLevel: minLevel, exit: func(msg string) { std.Fatal(msg) }}
}

func (l *RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
}

// entry is one log call split into what rollbar and the std logger need.
type entry struct {
	msg    string
	err    error
	fields map[string]interface{}
	extras []interface{}
}

// parse sorts args out: errors, field maps, the request user (rollbar person) and anything else.
func parse(msg string, args []interface{}) entry {
	e := entry{msg: msg, fields: make(map[string]interface{})}
	var usr *user.User
	for _, arg := range args {
		switch a := arg.(type) {
		case nil:
		case error:
			if e.err == nil {
				e.err = a
			}
		case map[string]interface{}:
			for k, v := range a {
				e.fields[k] = v
			}
		case user.User:
			if usr == nil {
				usr = &a
			}
		case *user.User:
			if usr == nil && a != nil {
				usr = a
			}
		default:
			e.extras = append(e.extras, a)
		}
	}

	if usr != nil {
		rollbar.SetPerson(usr.ID, usr.Username, usr.Email)
		e.fields["user_id"] = usr.ID
	} else {
		rollbar.ClearPerson()
	}
	return e
}

func (e entry) rollbarArgs() []interface{} {
	args := []interface{}{e.msg}
	if e.err != nil {
		args = append(args, e.err)
	}
	if len(e.fields) > 0 {
		args = append(args, e.fields)
	}
	return args
}

// line formats the entry as `LEVEL msg key=value ... error="..."`, keys sorted.
func (e entry) line(lvl level) string {
	var sb strings.Builder
	sb.WriteString(levelNames[lvl])
	sb.WriteByte(' ')
	sb.WriteString(e.msg)

	keys := make([]string, 0, len(e.fields))
	for k := range e.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&sb, " %s=%v", k, e.fields[k])
	}
	for _, x := range e.extras {
		fmt.Fprintf(&sb, " %+v", x)
	}
	if e.err != nil && !strings.Contains(e.msg, e.err.Error()) {
		fmt.Fprintf(&sb, " error=%q", e.err.Error())
	}
	return sb.String()
}

func (l *RollbarLogger) log(lvl level, msg string, args []interface{}) {
	if lvl < l.minLevel {
		return
	}
	e := parse(msg, args)
	switch lvl {
	case levelDebug:
		rollbar.Debug(e.rollbarArgs()...)
	case levelInfo:
		rollbar.Info(e.rollbarArgs()...)
	case levelWarn:
		rollbar.Warning(e.rollbarArgs()...)
	case levelError:
		rollbar.Error(e.rollbarArgs()...)
	case levelFatal:
		rollbar.Critical(e.rollbarArgs()...)
		rollbar.Wait()
	}
	l.std.Println(e.line(lvl))
}

func (l *RollbarLogger) Debug(msg string, args ...interface{}) { l.log(levelDebug, msg, args) }
func (l *RollbarLogger) Info(msg string, args ...interface{})  { l.log(levelInfo, msg, args) }
func (l *RollbarLogger) Warn(msg string, args ...interface{})  { l.log(levelWarn, msg, args) }
func (l *RollbarLogger) Error(msg string, args ...interface{}) { l.log(levelError, msg, args) }

func (l *RollbarLogger) Fatal(msg string, args ...interface{}) {
	l.log(levelFatal, msg, args)
	l.exit(msg)
}
