package applog

import (
	"io"
	"os"
	"sync/atomic"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

const permission = 0664

var current atomic.Pointer[zerolog.Logger]

func init() {
	l := zerolog.New(os.Stdout).With().Timestamp().Logger()
	current.Store(&l)
}

// Builder assembles a zerolog logger writing to stdout, a file or a caller supplied writer.
type Builder struct {
	writer io.Writer
	path   string
	level  string
}

func New() *Builder {
	return &Builder{}
}

func (b *Builder) FromPath(path string) *Builder {
	b.path = path
	return b
}

func (b *Builder) FromWriter(w io.Writer) *Builder {
	b.writer = w
	return b
}

func (b *Builder) Level(level string) *Builder {
	b.level = level
	return b
}

// Make builds the logger. The returned file is nil unless FromPath was used.
func (b *Builder) Make() (zerolog.Logger, *os.File, error) {
	var (
		w    io.Writer = os.Stdout
		file *os.File
	)
	if b.writer != nil {
		w = b.writer
	}
	if b.path != "" {
		f, err := os.OpenFile(b.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, permission)
		if err != nil {
			return zerolog.Nop(), nil, err
		}
		file = f
		w = zerolog.SyncWriter(f)
	}

	lvl, err := zerolog.ParseLevel(b.level)
	if err != nil || b.level == "" {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger(), file, nil
}

// SetLogger replaces the process wide logger.
func SetLogger(l zerolog.Logger) {
	current.Store(&l)
}

// L returns the process wide logger for code that has no request at hand.
func L() *zerolog.Logger {
	return current.Load()
}

func event(e *zerolog.Event, c *fiber.Ctx, action string, fields map[string]any) {
	if c != nil {
		e = e.Str("ip", c.IP()).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", c.Response().StatusCode())
		if rid, ok := c.Locals("requestid").(string); ok && rid != "" {
			e = e.Str("req_id", rid)
		}
		if uid, ok := c.Locals("user_id").(string); ok && uid != "" {
			e = e.Str("user_id", uid)
		}
	}
	if len(fields) > 0 {
		e = e.Fields(fields)
	}
	e.Str("action", action).Send()
}

func Info(c *fiber.Ctx, action string, fields map[string]any) {
	event(L().Info(), c, action, fields)
}

// Audit records a state change made by a caller.
func Audit(c *fiber.Ctx, action string, fields map[string]any) {
	event(L().Info().Str("kind", "audit"), c, action, fields)
}

func Security(c *fiber.Ctx, action string, fields map[string]any) {
	event(L().Warn().Str("kind", "security"), c, action, fields)
}

func Error(c *fiber.Ctx, action string, err error, fields map[string]any) {
	event(L().Error().Err(err), c, action, fields)
}
