package fileset

import (
	"errors"
	"runtime"

	"github.com/gookit/color"
)

// Global variables
var (
	Debug      bool
	Verbose    bool
	ConfigFile = "/etc/fileset.conf"
	version    = "dev"     // overridden at build time
	buildDate  = "unknown" // overridden at build time
	arch       = runtime.GOARCH

	errStageNotFound     = errors.New("stage not found")
	errInvalidDescriptor = errors.New("invalid stage descriptor")
	errUnknownFormat     = errors.New("unknown archive format")
	errManifestMismatch  = errors.New("manifest mismatch")
)

// color helpers
var (
	colInfo    = color.Info
	colWarn    = color.Warn
	colError   = color.Error
	colSuccess = color.HEX("#1976D2")
	colArrow   = color.HEX("#FFEB3B")
	colNote    = color.Tag("notice")
)
