package zerolog

import (
	"github.com/rs/zerolog"
	"github.com/unkn0wn-root/swcache"
)

var _ swcache.Logger = Logger{}

// Logger adapts a zerolog.Logger. Fields are attached through Fields(map).
type Logger struct{ L zerolog.Logger }

func (z Logger) Debug(msg string, f swcache.Fields) { emit(z.L.Debug(), msg, f) }
func (z Logger) Info(msg string, f swcache.Fields)  { emit(z.L.Info(), msg, f) }
func (z Logger) Warn(msg string, f swcache.Fields)  { emit(z.L.Warn(), msg, f) }
func (z Logger) Error(msg string, f swcache.Fields) { emit(z.L.Error(), msg, f) }

func emit(e *zerolog.Event, msg string, f swcache.Fields) {
	if e == nil {
		return // level disabled
	}
	if len(f) > 0 {
		e = e.Fields(map[string]any(f))
	}
	e.Msg(msg)
}
