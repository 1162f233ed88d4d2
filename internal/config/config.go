// Package config defines the command-line flags and startup configuration
// shared by the crossfs daemon.
package config

import (
	"flag"

	"bedrock.io/crossfs/internal/elog"
)

// Defaults mirror the fixed paths baked into the original crossfs binary.
const (
	DefaultStrataRoot   = "/bedrock/strata/"
	DefaultRedirector   = "/bedrock/libexec/bouncer"
	DefaultStratTool    = "/bedrock/bin/strat"
	DefaultControlPath  = "/.config-filesystem"
	DefaultControlName  = ".config-filesystem"
)

var (
	// StrataRoot is the directory under which stratum labels are resolved
	// into root directory handles.
	StrataRoot = DefaultStrataRoot

	// Redirector is the fixed path, relative to the initial root, whose
	// bytes are served verbatim for bin-filtered regular files.
	Redirector = DefaultRedirector

	// StratTool is the fixed path inserted into rewritten ini execution
	// lines.
	StratTool = DefaultStratTool

	// Mountpoint is the directory at which the unified namespace is
	// exposed.
	Mountpoint string

	// logLevel is the logging verbosity: debug, info, error, or disabled.
	logLevel = logFlag("info")
)

type logFlag string

func (l *logFlag) String() string { return elog.CurrentLevel() }
func (l *logFlag) Set(v string) error {
	return elog.SetLevel(v)
}
func (l *logFlag) Get() interface{} { return elog.CurrentLevel() }

func init() {
	flag.StringVar(&StrataRoot, "strata-root", StrataRoot, "directory under which stratum labels are resolved")
	flag.StringVar(&Redirector, "redirector", Redirector, "path to the redirector binary served for bin-filtered files")
	flag.StringVar(&StratTool, "strat-tool", StratTool, "path to the strat-tool inserted into rewritten ini execution lines")
	flag.Var(&logLevel, "log", "level of logging: debug, info, error, disabled")
}

// Parse parses the command-line flags registered by this package and any
// others registered by the caller. It does not itself enforce the
// mountpoint argument; the caller checks flag.NArg() and Mountpoint
// after calling Parse so it can print its own usage message.
func Parse() {
	flag.Parse()
	if flag.NArg() == 1 {
		Mountpoint = flag.Arg(0)
	}
}
