package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// TimestampField names the per-line timestamp.
const TimestampField = "ts"

// New builds the application logger: one JSON object per line with a "ts" field
// rendered in loc. Package-level zerolog settings are left untouched.
func New(w io.Writer, level string, loc *time.Location) zerolog.Logger {
	if w == nil {
		w = os.Stdout
	}
	if loc == nil {
		loc = time.UTC
	}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	return zerolog.New(w).Level(lvl).Hook(zoneStamp{loc: loc, now: time.Now})
}

// zoneStamp writes the timestamp of every event in a fixed location.
type zoneStamp struct {
	loc *time.Location
	now func() time.Time
}

func (h zoneStamp) Run(e *zerolog.Event, _ zerolog.Level, _ string) {
	e.Str(TimestampField, h.now().In(h.loc).Format(time.RFC3339Nano))
}

// Component returns a child logger tagged with the given component name.
func Component(l zerolog.Logger, name string) zerolog.Logger {
	return l.With().Str("component", name).Logger()
}
