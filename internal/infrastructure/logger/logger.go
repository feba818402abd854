package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
)

var (
	Info  *log.Logger
	Error *log.Logger
	Debug *log.Logger
	Warn  *log.Logger
)

const logFlags = log.Ldate | log.Ltime | log.LUTC | log.Lshortfile

var (
	output = io.Writer(os.Stdout)
	level  = "info"
)

func init() {
	Info = log.New(output, "INFO: ", logFlags)
	Error = log.New(output, "ERROR: ", logFlags)
	Debug = log.New(io.Discard, "DEBUG: ", logFlags)
	Warn = log.New(output, "WARN: ", logFlags)
}

// SetLevel enables loggers at or above lvl: debug, info, warn or error.
func SetLevel(lvl string) error {
	lvl = strings.ToLower(strings.TrimSpace(lvl))
	rank := map[string]int{"debug": 0, "info": 1, "warn": 2, "error": 3}
	threshold, ok := rank[lvl]
	if !ok {
		return fmt.Errorf("unknown log level %q", lvl)
	}
	level = lvl

	enable := func(l *log.Logger, r int) {
		if r >= threshold {
			l.SetOutput(output)
		} else {
			l.SetOutput(io.Discard)
		}
	}
	enable(Debug, 0)
	enable(Info, 1)
	enable(Warn, 2)
	enable(Error, 3)
	return nil
}

// SetOutput redirects all enabled loggers to w.
func SetOutput(w io.Writer) {
	output = w
	_ = SetLevel(level)
}
