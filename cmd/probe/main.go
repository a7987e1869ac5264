//go:build windows

package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/adrg/xdg"
	"github.com/hior/keyborder/internal/border"
	"github.com/hior/keyborder/internal/config"
	"github.com/hior/keyborder/internal/geometry"
	"github.com/hior/keyborder/internal/winapi"
	"go.uber.org/zap"
)

// probe dumps everything keyborder would see on this machine: the
// effective configuration, the monitor set, the foreground window and
// how its layout resolves. Handy for filling in consoleClasses and
// terminalClasses, which need the real window class names.
func main() {
	cfgPath := flag.String("config", "", "path to YAML config (defaults to the user config dir)")
	flash := flag.Duration("flash", 0, "show the border frames for this long before exiting")
	flag.Parse()

	cfg, origin, err := loadConfig(*cfgPath)
	if err != nil {
		exitErr(err)
	}

	fmt.Printf("Loaded config from %s\n", origin)
	fmt.Println("\n=== Configuration ===")
	if err := marshalYAML(cfg); err != nil {
		exitErr(fmt.Errorf("print config: %w", err))
	}

	monitors, err := winapi.EnumMonitors()
	if err != nil {
		exitErr(fmt.Errorf("enumerate monitors: %w", err))
	}
	fmt.Println("\n=== Monitors ===")
	if err := marshalJSON(monitors); err != nil {
		exitErr(fmt.Errorf("print monitors: %w", err))
	}

	fmt.Println("\n=== Foreground ===")
	snap, err := winapi.NewSource().Snapshot()
	if err != nil {
		fmt.Printf("no foreground snapshot: %v\n", err)
	} else {
		table := cfg.Colors.Table()
		entry, known := table.Resolve(snap.Layout)
		fmt.Printf("window:     0x%X\n", snap.Window)
		if class, err := winapi.NewAutomation().WindowClass(snap.Window); err == nil {
			fmt.Printf("class:      %s\n", class)
		}
		fmt.Printf("layout:     %s\n", snap.Layout)
		fmt.Printf("resolved:   %s (%s, known=%v)\n", entry.Label, entry.Color.Hex(), known)
		fmt.Printf("rect:       %+v\n", snap.Rect)
		fmt.Printf("monitor:    %+v\n", snap.Monitor)
		fmt.Printf("fullscreen: %v\n", geometry.Covers(snap.Rect, snap.Monitor))
	}

	if seq, err := winapi.NewClipboard().Sequence(); err == nil {
		fmt.Printf("\nclipboard sequence: %d\n", seq)
	}

	if *flash > 0 {
		if err := flashBorders(cfg, monitors, *flash); err != nil {
			exitErr(err)
		}
	}
}

func flashBorders(cfg *config.Config, monitors []geometry.Monitor, d time.Duration) error {
	logger, err := zap.NewDevelopment()
	if err != nil {
		return err
	}
	defer logger.Sync()
	log := logger.Sugar()

	overlay, err := winapi.NewOverlayHost(log)
	if err != nil {
		return fmt.Errorf("create overlay windows: %w", err)
	}
	renderer := border.NewRenderer(overlay, log)
	defer renderer.Close()
	if err := renderer.Rebuild(monitors, cfg.Border.Thickness, cfg.Border.OuterOpacity, cfg.Border.InnerOpacity); err != nil {
		return err
	}

	table := cfg.Colors.Table()
	color := table.Fallback().Color
	if snap, err := winapi.NewSource().Snapshot(); err == nil {
		if entry, known := table.Resolve(snap.Layout); known {
			color = entry.Color
		}
	}
	renderer.ApplyColor(color)
	renderer.SetVisible(true)
	fmt.Printf("\nflashing borders in %s for %s\n", color.Hex(), d)
	time.Sleep(d)
	return nil
}

func loadConfig(flagValue string) (*config.Config, string, error) {
	path := flagValue
	if path == "" {
		p, err := xdg.ConfigFile("keyborder/config.yaml")
		if err != nil {
			return nil, "", fmt.Errorf("resolve config path: %w", err)
		}
		path = p
	}
	cfg, err := config.Load(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return config.Default(), "built-in defaults", nil
		}
		return nil, "", fmt.Errorf("load config: %w", err)
	}
	return cfg, path, nil
}

func exitErr(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}

func marshalYAML(v any) error {
	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(v)
}

func marshalJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
