package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/atotto/clipboard"
	"golang.org/x/term"

	"voicemeeterctl/binding"
	"voicemeeterctl/config"
	"voicemeeterctl/dispatch"
	"voicemeeterctl/display"
	"voicemeeterctl/doctor"
	"voicemeeterctl/hotkey"
	"voicemeeterctl/log"
	"voicemeeterctl/mixer"
	"voicemeeterctl/shutdown"
	"voicemeeterctl/tray"
)

var version = "dev"

var shutdownOnce sync.Once

type app struct {
	cfgPath string
	cfg     *config.Config
	table   *binding.Table
	facade  *mixer.Facade
	engine  *dispatch.Engine
	source  hotkey.Source

	mu sync.Mutex // guards cfg/table during reload
}

func gracefulShutdown(a *app) {
	shutdownOnce.Do(func() {
		if a.source != nil {
			a.source.Stop()
		}
		if a.engine != nil {
			log.SessionEnd(a.engine.Applied())
			a.engine.Shutdown()
		}
		if a.facade != nil {
			a.facade.Close()
		}
		log.Close()
		tray.Quit()
		tuiMu.Lock()
		p := tuiProgram
		tuiMu.Unlock()
		if p != nil {
			p.Quit()
		}
		os.Exit(0)
	})
}

func run() {
	configFlag := flag.String("config", "", "config file path (default: OS config dir, or VMCTL_CONFIG)")
	logPathFlag := flag.String("logpath", "", "log directory path (default: OS-specific location, use ./ for current dir)")
	tuiFlag := flag.Bool("tui", term.IsTerminal(int(os.Stdout.Fd())), "Run with terminal status UI")
	versionFlag := flag.Bool("version", false, "Print version and exit")
	doctorFlag := flag.Bool("doctor", false, "Run system diagnostics and exit")
	crashFlag := flag.Bool("crash", false, "Trigger synthetic panic for testing crash logging")
	flag.Parse()

	if *versionFlag {
		fmt.Printf("voicemeeterctl %s\n", version)
		os.Exit(0)
	}

	if *doctorFlag {
		os.Exit(doctor.Run(*configFlag))
	}

	// Resolve log directory early
	logPath, err := log.ResolveDir(*logPathFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to resolve log directory: %v\n", err)
		os.Exit(1)
	}
	log.SetDir(logPath)

	if err := log.EnsureDir(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not create log directory: %v\n", err)
	}

	crashPath := filepath.Join(log.Dir(), "crash_log.txt")
	crashFile, err := os.OpenFile(crashPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err == nil {
		fmt.Fprintf(crashFile, "\n=== Session %s [pid=%d] ===\n", time.Now().Format("2006-01-02 15:04:05"), os.Getpid())
		debug.SetCrashOutput(crashFile, debug.CrashOptions{})
	}

	if *crashFlag {
		panic("TEST CRASH: synthetic panic to verify crash logging")
	}

	a := &app{}

	// A broken config at startup is fatal: there is no previous table to
	// keep running. Reload failures later are not.
	a.cfgPath, err = config.ResolvePath(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to resolve config path: %v\n", err)
		os.Exit(1)
	}
	a.cfg, err = config.Load(a.cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	a.table, err = binding.Build(a.cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if a.cfg.Settings.Logging || *logPathFlag != "" {
		if err := log.Init(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
		} else {
			log.SessionStart(len(a.cfg.Channels), a.table.Len())
		}
	}

	remote, err := mixer.NewRemote()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	a.facade = mixer.NewFacade(remote)
	if err := a.facade.Connect(); err != nil {
		log.Warnf("mixer connect failed: %v", err)
		fmt.Fprintf(os.Stderr, "Warning: voicemeeter not reachable yet: %v\n", err)
	}

	// Start TUI
	if *tuiFlag {
		tuiMu.Lock()
		tuiProgram = NewTUIProgram(channelNames(a.cfg))
		tuiMu.Unlock()

		go func() {
			if _, err := tuiProgram.Run(); err != nil {
				log.Errorf("TUI error: %v", err)
				os.Exit(1)
			}
			gracefulShutdown(a)
		}()
	}

	notifier := display.NewNotifier(
		display.Toast{},
		display.SinkFunc(func(n display.Notification) {
			tuiSend(ActionMsg{Note: n})
		}),
		display.SinkFunc(func(n display.Notification) {
			tray.SetStatus(n.Text())
		}),
	)

	a.source = hotkey.NewSource()
	if err := a.source.Start(a.table.Chords()); err != nil {
		log.Errorf("hotkey register error: %v", err)
		fmt.Fprintf(os.Stderr, "Error registering hotkeys: %v\n", err)
		os.Exit(1)
	}

	a.engine = dispatch.New(a.table, a.facade, notifier, a.source.Events(), a.cfg.Settings.VolumeStep)
	a.engine.Start()

	tray.OnPause(func(paused bool) {
		if paused {
			a.engine.Pause()
			log.Info("paused")
		} else {
			a.engine.Resume()
			log.Info("resumed")
		}
		tuiSend(PausedMsg{Paused: paused})
	})
	tray.OnReload(func() { a.reload() })
	tray.OnCopyStatus(func() {
		if text := a.statusText(); text != "" {
			if err := clipboard.WriteAll(text); err != nil {
				log.Warnf("clipboard write failed: %v", err)
			}
		}
	})
	trayQuit := tray.Init()

	tuiSend(ConnMsg{Connected: a.facade.Connected()})
	a.pushChannelState()

	sigChan := make(chan os.Signal, 1)
	shutdown.Notify(sigChan)
	select {
	case <-sigChan:
	case <-trayQuit:
	}
	gracefulShutdown(a)
}

// reload re-reads the config file. On any error the previous table stays
// active; on success the engine swaps tables, repeat state resets, and the
// key source re-registers the new chord set.
func (a *app) reload() {
	a.mu.Lock()
	defer a.mu.Unlock()

	cfg, err := config.Load(a.cfgPath)
	if err != nil {
		log.Errorf("reload failed: %v", err)
		tray.SetError(fmt.Sprintf("reload failed: %v", err))
		tuiSend(LogMsg{Text: fmt.Sprintf("reload failed: %v", err)})
		return
	}
	table, err := binding.Build(cfg)
	if err != nil {
		log.Errorf("reload failed: %v", err)
		tray.SetError(fmt.Sprintf("reload failed: %v", err))
		tuiSend(LogMsg{Text: fmt.Sprintf("reload failed: %v", err)})
		return
	}

	a.engine.Reload(table)
	a.engine.SetStep(cfg.Settings.VolumeStep)
	if err := a.source.Rebind(table.Chords()); err != nil {
		log.Errorf("hotkey rebind failed: %v", err)
		tray.SetError(fmt.Sprintf("hotkey rebind failed: %v", err))
	}
	a.cfg = cfg
	a.table = table

	log.Info("config reloaded")
	tuiSend(ChannelsMsg{Names: channelNames(cfg)})
	a.pushChannelState()
}

// statusText renders the current channel levels, one line per channel.
func (a *app) statusText() string {
	a.mu.Lock()
	cfg := a.cfg
	a.mu.Unlock()

	var b strings.Builder
	for _, name := range channelNames(cfg) {
		strip := cfg.Channels[name]
		gain, err := a.facade.GetVolume(strip)
		if err != nil {
			fmt.Fprintf(&b, "%s: disconnected\n", name)
			continue
		}
		muted, _ := a.facade.GetMute(strip)
		state := ""
		if muted {
			state = " (muted)"
		}
		fmt.Fprintf(&b, "%s: %.1f dB%s\n", name, gain, state)
	}
	return b.String()
}

func (a *app) pushChannelState() {
	a.mu.Lock()
	cfg := a.cfg
	a.mu.Unlock()

	for _, name := range channelNames(cfg) {
		strip := cfg.Channels[name]
		gain, err := a.facade.GetVolume(strip)
		if err != nil {
			tuiSend(ConnMsg{Connected: false})
			return
		}
		muted, _ := a.facade.GetMute(strip)
		tuiSend(ChannelStateMsg{Name: name, Gain: gain, Muted: muted})
	}
	tuiSend(ConnMsg{Connected: true})
}

func channelNames(cfg *config.Config) []string {
	names := make([]string, 0, len(cfg.Channels))
	for name := range cfg.Channels {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
