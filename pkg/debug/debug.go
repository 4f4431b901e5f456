// Package debug carries the zerolog hooks shared by the tagdex binaries:
// millisecond timestamps and short caller references.
package debug

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
)

type CustomTimeHook struct {
	Format string
}

func (t CustomTimeHook) Run(e *zerolog.Event, _ zerolog.Level, _ string) {
	format := t.Format
	if format == "" {
		format = "2006-01-02T15:04:05.0000Z"
	}
	e.Str("time", time.Now().Format(format))
}

type CustomCallerHook struct {
	WithColor bool

	// Skip is added to the fixed frame count between the hook and the log
	// call site.
	Skip int
}

func (c CustomCallerHook) Run(e *zerolog.Event, _ zerolog.Level, _ string) {
	pc, file, line, ok := runtime.Caller(c.Skip + 4)
	if !ok {
		return
	}
	pkg, _ := splitFuncName(runtime.FuncForPC(pc).Name())
	e.Str("caller", FormatCaller(pkg, file, line, c.WithColor))
}

func splitFuncName(funcName string) (pkg, function string) {
	lastSlash := strings.LastIndexByte(funcName, '/')
	if lastSlash < 0 {
		lastSlash = 0
	}
	firstDot := strings.IndexByte(funcName[lastSlash:], '.') + lastSlash
	return funcName[:firstDot], funcName[firstDot+1:]
}

func FormatCaller(pkg, path string, number int, colorize bool) string {
	file := path
	if idx := strings.LastIndexByte(path, '/'); idx >= 0 {
		file = path[idx+1:]
	}
	if colorize {
		file = color.New(color.Bold).Sprint(file)
		num := color.New(color.FgHiRed, color.Bold).Sprintf("%d", number)
		sep := color.New(color.Faint).Sprint(":")
		return fmt.Sprintf("%s%s%s%s%s", pkg, sep, file, sep, num)
	}
	return fmt.Sprintf("%s:%s:%d", pkg, file, number)
}
