package log

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
)

var (
	diagLog  zerolog.Logger
	diagFile *os.File
	logMu    sync.Mutex
	logReady bool
	pid      int
	dir      string
)

func ResolveDir(flagPath string) (string, error) {
	// Priority 1: -logpath flag
	if flagPath != "" {
		if !filepath.IsAbs(flagPath) {
			wd, err := os.Getwd()
			if err != nil {
				return "", err
			}
			return filepath.Join(wd, flagPath), nil
		}
		return flagPath, nil
	}

	// Priority 2: VMCTL_LOG_PATH environment variable
	envPath := os.Getenv("VMCTL_LOG_PATH")
	if envPath != "" {
		if !filepath.IsAbs(envPath) {
			wd, err := os.Getwd()
			if err != nil {
				return "", err
			}
			return filepath.Join(wd, envPath), nil
		}
		return envPath, nil
	}

	// Priority 3: Default OS-specific location
	return getDefaultDir()
}

func SetDir(d string) {
	dir = d
}

func Dir() string {
	return dir
}

func EnsureDir() error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	return nil
}

func Init() error {
	logMu.Lock()
	defer logMu.Unlock()

	if err := EnsureDir(); err != nil {
		return err
	}

	pid = os.Getpid()

	var err error

	diagPath := filepath.Join(dir, "controller_log.txt")
	diagFile, err = os.OpenFile(diagPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}

	consoleWriter := zerolog.ConsoleWriter{
		Out:        diagFile,
		TimeFormat: "2006-01-02 15:04:05",
		NoColor:    true,
	}
	diagLog = zerolog.New(consoleWriter).With().Timestamp().Int("pid", pid).Logger()

	logReady = true
	return nil
}

func Close() {
	logMu.Lock()
	defer logMu.Unlock()
	if diagFile != nil {
		diagFile.Close()
		diagFile = nil
	}
	logReady = false
}

func Info(msg string) {
	if logReady {
		diagLog.Info().Msg(msg)
	}
}

func Error(msg string) {
	if logReady {
		diagLog.Error().Msg(msg)
	}
}

func Errorf(format string, args ...any) {
	if logReady {
		diagLog.Error().Msg(fmt.Sprintf(format, args...))
	}
}

func Warn(msg string) {
	if logReady {
		diagLog.Warn().Msg(msg)
	}
}

func Warnf(format string, args ...any) {
	if logReady {
		diagLog.Warn().Msg(fmt.Sprintf(format, args...))
	}
}

// Action records one completed channel mutation.
func Action(channel, kind string, value float64, muted bool) {
	if !logReady {
		return
	}
	ev := diagLog.Info().
		Str("channel", channel).
		Str("kind", kind)
	if kind == "mute" {
		ev = ev.Bool("muted", muted)
	} else {
		ev = ev.Float64("gain_db", value)
	}
	ev.Msg("action")
}

// ActionFailed records an action that could not reach the mixer.
func ActionFailed(channel, kind string, err error) {
	if !logReady {
		return
	}
	diagLog.Warn().
		Str("channel", channel).
		Str("kind", kind).
		Err(err).
		Msg("action_failed")
}

// DroppedTicks records repeat ticks shed because the mixer was slow.
func DroppedTicks(n uint64) {
	if !logReady {
		return
	}
	diagLog.Warn().
		Uint64("dropped", n).
		Msg("ticks_dropped")
}

func SessionStart(channels, chords int) {
	if !logReady {
		return
	}
	diagLog.Info().
		Int("channels", channels).
		Int("chords", chords).
		Msg("session_start")
}

func SessionEnd(actions uint64) {
	if !logReady {
		return
	}
	diagLog.Info().
		Uint64("actions", actions).
		Msg("session_end")
}
