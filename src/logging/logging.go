package logging

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"git.hoosierptk.dev/forums/forums/src/config"
	"git.hoosierptk.dev/forums/forums/src/oops"
	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func init() {
	zerolog.ErrorStackMarshaler = oops.ZerologStackMarshaler
	if config.Config.IsLive() {
		log.Logger = zerolog.New(os.Stderr)
	} else {
		log.Logger = log.Output(NewPrettyZerologWriter(os.Stderr))
	}
	zerolog.SetGlobalLevel(config.Config.LogLevel)
}

func GlobalLogger() *zerolog.Logger {
	return &log.Logger
}

func Debug() *zerolog.Event {
	return log.Debug().Timestamp().Stack()
}

func Info() *zerolog.Event {
	return log.Info().Timestamp().Stack()
}

func Warn() *zerolog.Event {
	return log.Warn().Timestamp().Stack()
}

func Error() *zerolog.Event {
	return log.Error().Timestamp().Stack()
}

func Fatal() *zerolog.Event {
	return log.Fatal().Timestamp().Stack()
}

func With() zerolog.Context {
	return log.With().Timestamp().Stack()
}

type loggerContextKey struct{}

func AttachLoggerToContext(logger *zerolog.Logger, ctx context.Context) context.Context {
	return context.WithValue(ctx, loggerContextKey{}, logger)
}

// ExtractLogger returns the logger attached to ctx, or the global logger.
func ExtractLogger(ctx context.Context) *zerolog.Logger {
	if ctx != nil {
		if logger, ok := ctx.Value(loggerContextKey{}).(*zerolog.Logger); ok && logger != nil {
			return logger
		}
	}
	return GlobalLogger()
}

type PrettyZerologWriter struct {
	out                 io.Writer
	wd                  string
	wasLastLogMultiline bool
}

type prettyLogEntry struct {
	Timestamp  string
	Level      string
	Message    string
	Error      string
	StackTrace []interface{}

	OtherFields []prettyField
}

type prettyField struct {
	Name  string
	Value interface{}
}

var levelColors = map[string]*color.Color{
	"trace": color.New(color.FgHiBlack),
	"debug": color.New(color.FgHiBlack),
	"info":  color.New(color.BgBlue, color.Bold),
	"warn":  color.New(color.BgYellow, color.Bold),
	"error": color.New(color.BgRed, color.Bold),
	"fatal": color.New(color.BgRed, color.Bold),
	"panic": color.New(color.BgRed, color.Bold),
}

var (
	errorLabel = color.New(color.FgRed, color.Bold)
	fieldLabel = color.New(color.FgBlue, color.Bold)
)

const separator = "---------------------------------------\n"

func NewPrettyZerologWriter(out io.Writer) *PrettyZerologWriter {
	wd, _ := os.Getwd()
	return &PrettyZerologWriter{
		out: out,
		wd:  wd,
	}
}

func (w *PrettyZerologWriter) Write(p []byte) (int, error) {
	var fields map[string]interface{}
	if err := json.Unmarshal(p, &fields); err != nil {
		return w.out.Write(p)
	}

	var entry prettyLogEntry
	for name, val := range fields {
		switch name {
		case zerolog.TimestampFieldName:
			entry.Timestamp, _ = val.(string)
		case zerolog.LevelFieldName:
			entry.Level, _ = val.(string)
		case zerolog.MessageFieldName:
			entry.Message, _ = val.(string)
		case zerolog.ErrorFieldName:
			entry.Error, _ = val.(string)
		case zerolog.ErrorStackFieldName:
			entry.StackTrace, _ = val.([]interface{})
		default:
			entry.OtherFields = append(entry.OtherFields, prettyField{
				Name:  name,
				Value: val,
			})
		}
	}

	sort.Slice(entry.OtherFields, func(i, j int) bool {
		return entry.OtherFields[i].Name < entry.OtherFields[j].Name
	})

	isMultiline := entry.Error != "" || entry.StackTrace != nil || entry.OtherFields != nil

	var b strings.Builder
	if isMultiline || w.wasLastLogMultiline {
		b.WriteString(separator)
	}
	b.WriteString(entry.Timestamp)
	b.WriteString(" ")
	if entry.Level != "" {
		if c, ok := levelColors[entry.Level]; ok {
			b.WriteString(c.Sprint(strings.ToUpper(entry.Level)))
		} else {
			b.WriteString(strings.ToUpper(entry.Level))
		}
		b.WriteString(": ")
	}
	b.WriteString(entry.Message)
	b.WriteString("\n")
	if entry.Error != "" {
		b.WriteString("  " + errorLabel.Sprint("ERROR:") + " ")
		b.WriteString(entry.Error)
		b.WriteString("\n")
	}
	if len(entry.OtherFields) > 0 {
		b.WriteString("  " + fieldLabel.Sprint("Fields:") + "\n")
		for _, field := range entry.OtherFields {
			valuePretty, _ := json.MarshalIndent(field.Value, "    ", "  ")
			b.WriteString("    ")
			b.WriteString(field.Name)
			b.WriteString(": ")
			b.Write(valuePretty)
			b.WriteString("\n")
		}
	}
	if entry.StackTrace != nil {
		b.WriteString("  " + fieldLabel.Sprint("Stack trace:") + "\n")
		for _, frame := range entry.StackTrace {
			frameMap, ok := frame.(map[string]interface{})
			if !ok {
				continue
			}
			file, _ := frameMap["file"].(string)
			function, _ := frameMap["function"].(string)
			line, _ := frameMap["line"].(float64)

			b.WriteString("    ")
			b.WriteString(function)
			b.WriteString(" (")
			b.WriteString(strings.Replace(file, w.wd, ".", 1))
			b.WriteString(":")
			b.WriteString(strconv.Itoa(int(line)))
			b.WriteString(")\n")
		}
	}

	w.wasLastLogMultiline = isMultiline

	if _, err := io.WriteString(w.out, b.String()); err != nil {
		return 0, err
	}
	return len(p), nil
}

func LogPanics(logger *zerolog.Logger) {
	if r := recover(); r != nil {
		LogPanicValue(logger, r, "recovered from panic")
	}
}

func LogPanicValue(logger *zerolog.Logger, val interface{}, msg string) {
	if logger == nil {
		logger = GlobalLogger()
	}

	if err, ok := val.(error); ok {
		l := logger.Error().Err(err)
		if oops.StackOf(err) == nil {
			l = l.Interface(zerolog.ErrorStackFieldName, oops.Trace())
		}
		l.Msg(msg)
	} else {
		logger.Error().
			Interface("recovered", val).
			Interface(zerolog.ErrorStackFieldName, oops.Trace()).
			Msg(msg)
	}
}
