package doctor

import (
	"fmt"
	"time"

	"voicemeeterctl/binding"
	"voicemeeterctl/config"
	"voicemeeterctl/hotkey"
	"voicemeeterctl/mixer"
)

// Run executes interactive diagnostic checks and returns an exit code
// (0=all pass, 1=any fail).
func Run(configPath string) int {
	resetTerminal()
	setupInterruptHandler()

	fmt.Println("voicemeeterctl doctor - system diagnostics")
	fmt.Println("==========================================")

	allPass := true

	table := checkConfig(configPath)
	if table == nil {
		allPass = false
	}
	if !checkKeyboard(table) {
		allPass = false
	}
	if !checkMixer() {
		allPass = false
	}

	fmt.Println()
	if allPass {
		fmt.Println("All checks passed!")
		return 0
	}
	fmt.Println("Some checks failed. See details above.")
	return 1
}

func checkConfig(path string) *binding.Table {
	fmt.Println()
	fmt.Println("[1/3] Configuration")

	resolved, err := config.ResolvePath(path)
	if err != nil {
		fmt.Printf("  FAIL: cannot resolve config path: %v\n", err)
		return nil
	}
	fmt.Printf("  config file: %s\n", resolved)

	cfg, err := config.Load(resolved)
	if err != nil {
		fmt.Printf("  FAIL: %v\n", err)
		return nil
	}
	table, err := binding.Build(cfg)
	if err != nil {
		fmt.Printf("  FAIL: %v\n", err)
		return nil
	}
	fmt.Printf("  PASS: %d channel(s), %d chord(s) bound\n", len(cfg.Channels), table.Len())
	return table
}

func checkKeyboard(table *binding.Table) bool {
	fmt.Println()
	fmt.Println("[2/3] Keyboard capture")

	msg, err := hotkey.Diagnose()
	if err != nil {
		fmt.Printf("  FAIL: %v\n", err)
		return false
	}
	fmt.Printf("  %s\n", msg)

	if table == nil || table.Len() == 0 {
		fmt.Println("  SKIP: no chords to test")
		return true
	}

	src := hotkey.NewSource()
	if err := src.Start(table.Chords()); err != nil {
		fmt.Printf("  FAIL: cannot start key capture: %v\n", err)
		return false
	}
	defer src.Stop()

	first := table.Chords()[0]
	fmt.Printf("  Press %s within 10 seconds...\n", first)
	deadline := time.After(10 * time.Second)
	for {
		select {
		case ev := <-src.Events():
			if ev.Down && len(table.Resolve(ev.Chord)) > 0 {
				fmt.Printf("  PASS: detected %s\n", ev.Chord)
				resetTerminal()
				return true
			}
		case <-deadline:
			fmt.Println("  FAIL: timeout waiting for a bound chord")
			return false
		}
	}
}

func checkMixer() bool {
	fmt.Println()
	fmt.Println("[3/3] Voicemeeter remote")

	remote, err := mixer.NewRemote()
	if err != nil {
		fmt.Printf("  FAIL: %v\n", err)
		return false
	}
	facade := mixer.NewFacade(remote)
	if err := facade.Connect(); err != nil {
		fmt.Printf("  FAIL: cannot connect: %v\n", err)
		return false
	}
	defer facade.Close()

	gain, err := facade.GetVolume(0)
	if err != nil {
		fmt.Printf("  FAIL: cannot read strip 0: %v\n", err)
		return false
	}
	fmt.Printf("  PASS: connected, strip 0 at %.1f dB\n", gain)
	return true
}
