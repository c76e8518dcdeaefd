package logx

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config is read from LOG_* variables by the autoload package.
type Config struct {
	Level        string `split_words:"true" default:"info"`
	PrettyFormat bool   `split_words:"true" default:"false"`
	Service      string `split_words:"true" default:"merchant-sales-agent"`
	Caller       bool   `split_words:"true" default:"true"`
}

var DefaultConfig = &Config{
	Level:   "info",
	Service: "merchant-sales-agent",
	Caller:  true,
}

func safe(opts ...Config) *Config {
	if len(opts) == 0 {
		return DefaultConfig
	}
	return &opts[0]
}

// Init replaces the global zerolog logger. Output is JSON on stdout unless
// PrettyFormat is set.
func Init(opts ...Config) {
	conf := safe(opts...)

	var out io.Writer = os.Stdout
	if conf.PrettyFormat {
		out = zerolog.NewConsoleWriter()
	}
	log.Logger = New(out, *conf)
}

// New builds a logger over w. Unknown levels fall back to info.
func New(w io.Writer, conf Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(conf.Level)))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	ctx := zerolog.New(w).Level(level).With().Timestamp()
	if conf.Service != "" {
		ctx = ctx.Str("service", conf.Service)
	}
	if conf.Caller {
		ctx = ctx.Caller()
	}
	return ctx.Stack().Logger()
}
