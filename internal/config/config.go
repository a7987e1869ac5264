package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hior/keyborder/internal/hotkey"
	"github.com/hior/keyborder/internal/layouts"
)

// Config is the top-level configuration document.
type Config struct {
	PollIntervalMs int        `yaml:"pollIntervalMs"`
	Border         Border     `yaml:"border"`
	Colors         Colors     `yaml:"colors"`
	Conversion     Conversion `yaml:"conversion"`
}

// UnmarshalYAML keeps section defaults intact when a whole section is
// omitted from the document.
func (c *Config) UnmarshalYAML(value *yaml.Node) error {
	type rawConfig struct {
		PollIntervalMs int         `yaml:"pollIntervalMs"`
		Border         *Border     `yaml:"border"`
		Colors         *Colors     `yaml:"colors"`
		Conversion     *Conversion `yaml:"conversion"`
	}
	var raw rawConfig
	if err := value.Decode(&raw); err != nil {
		return err
	}
	c.PollIntervalMs = raw.PollIntervalMs
	if raw.Border != nil {
		c.Border = *raw.Border
	} else {
		c.Border = Border{HideUnknown: true}
	}
	if raw.Colors != nil {
		c.Colors = *raw.Colors
	} else {
		c.Colors = Colors{}
	}
	if raw.Conversion != nil {
		c.Conversion = *raw.Conversion
	} else {
		c.Conversion = Conversion{Enabled: true}
	}
	return nil
}

// PollInterval returns the foreground poll cadence.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}

// Border controls the gradient frame drawn along each work area edge.
type Border struct {
	Thickness    int     `yaml:"thickness"`
	OuterOpacity float64 `yaml:"outerOpacity"`
	InnerOpacity float64 `yaml:"innerOpacity"`
	HideUnknown  bool    `yaml:"hideUnknown"`
}

// UnmarshalYAML keeps hideUnknown defaulting to true when the key is omitted.
func (b *Border) UnmarshalYAML(value *yaml.Node) error {
	type rawBorder struct {
		Thickness    int     `yaml:"thickness"`
		OuterOpacity float64 `yaml:"outerOpacity"`
		InnerOpacity float64 `yaml:"innerOpacity"`
		HideUnknown  *bool   `yaml:"hideUnknown"`
	}
	var raw rawBorder
	if err := value.Decode(&raw); err != nil {
		return err
	}
	b.Thickness = raw.Thickness
	b.OuterOpacity = raw.OuterOpacity
	b.InnerOpacity = raw.InnerOpacity
	if raw.HideUnknown != nil {
		b.HideUnknown = *raw.HideUnknown
	} else {
		b.HideUnknown = true
	}
	return nil
}

// HexColor decodes a #RRGGBB scalar.
type HexColor layouts.Color

func (c *HexColor) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("color must be a scalar")
	}
	parsed, err := layouts.ParseColor(value.Value)
	if err != nil {
		return err
	}
	*c = HexColor(parsed)
	return nil
}

func (c HexColor) MarshalYAML() (any, error) {
	return layouts.Color(c).Hex(), nil
}

// LayoutID decodes a hex layout id scalar such as 0x04090409.
type LayoutID layouts.ID

func (id *LayoutID) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("layout id must be a scalar")
	}
	parsed, err := layouts.ParseID(value.Value)
	if err != nil {
		return err
	}
	*id = LayoutID(parsed)
	return nil
}

func (id LayoutID) MarshalYAML() (any, error) {
	return layouts.ID(id).String(), nil
}

// ColorEntry pairs a border color with a tray label.
type ColorEntry struct {
	Color HexColor `yaml:"color"`
	Label string   `yaml:"label"`
}

func (e ColorEntry) entry() layouts.Entry {
	return layouts.Entry{Color: layouts.Color(e.Color), Label: e.Label}
}

// Colors maps layout identities to their visual entries. Layouts matches a
// full layout id; Languages matches the language word when no exact entry
// exists; Fallback covers everything else.
type Colors struct {
	Layouts   map[layouts.ID]ColorEntry
	Languages map[uint16]ColorEntry
	Fallback  ColorEntry
}

// UnmarshalYAML parses the hex-keyed maps by hand so keys keep their
// source spelling and duplicates are rejected.
func (c *Colors) UnmarshalYAML(value *yaml.Node) error {
	type rawColors struct {
		Layouts   yaml.Node  `yaml:"layouts"`
		Languages yaml.Node  `yaml:"languages"`
		Fallback  ColorEntry `yaml:"fallback"`
	}
	var raw rawColors
	if err := value.Decode(&raw); err != nil {
		return err
	}
	c.Fallback = raw.Fallback
	c.Layouts = map[layouts.ID]ColorEntry{}
	c.Languages = map[uint16]ColorEntry{}
	if err := eachMapping(&raw.Layouts, func(key string, node *yaml.Node) error {
		id, err := layouts.ParseID(key)
		if err != nil {
			return err
		}
		if _, exists := c.Layouts[id]; exists {
			return fmt.Errorf("duplicate layout %v", id)
		}
		var entry ColorEntry
		if err := node.Decode(&entry); err != nil {
			return fmt.Errorf("layout %v: %w", id, err)
		}
		c.Layouts[id] = entry
		return nil
	}); err != nil {
		return fmt.Errorf("colors.layouts: %w", err)
	}
	if err := eachMapping(&raw.Languages, func(key string, node *yaml.Node) error {
		id, err := layouts.ParseID(key)
		if err != nil {
			return err
		}
		if id > 0xFFFF {
			return fmt.Errorf("language id %s exceeds a language word", key)
		}
		lang := uint16(id)
		if _, exists := c.Languages[lang]; exists {
			return fmt.Errorf("duplicate language 0x%04X", lang)
		}
		var entry ColorEntry
		if err := node.Decode(&entry); err != nil {
			return fmt.Errorf("language 0x%04X: %w", lang, err)
		}
		c.Languages[lang] = entry
		return nil
	}); err != nil {
		return fmt.Errorf("colors.languages: %w", err)
	}
	return nil
}

// MarshalYAML writes the maps back with hex keys, so a dumped
// configuration reads like the file it came from.
func (c Colors) MarshalYAML() (any, error) {
	out := struct {
		Layouts   map[string]ColorEntry `yaml:"layouts,omitempty"`
		Languages map[string]ColorEntry `yaml:"languages,omitempty"`
		Fallback  ColorEntry            `yaml:"fallback"`
	}{Fallback: c.Fallback}
	if len(c.Layouts) > 0 {
		out.Layouts = make(map[string]ColorEntry, len(c.Layouts))
		for id, e := range c.Layouts {
			out.Layouts[id.String()] = e
		}
	}
	if len(c.Languages) > 0 {
		out.Languages = make(map[string]ColorEntry, len(c.Languages))
		for lang, e := range c.Languages {
			out.Languages[fmt.Sprintf("0x%04X", lang)] = e
		}
	}
	return out, nil
}

func eachMapping(node *yaml.Node, fn func(key string, value *yaml.Node) error) error {
	if node.Kind == 0 || node.Tag == "!!null" {
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("must be a mapping")
	}
	for i := 0; i < len(node.Content); i += 2 {
		keyNode := node.Content[i]
		if keyNode.Kind != yaml.ScalarNode {
			return fmt.Errorf("key must be a scalar")
		}
		if err := fn(keyNode.Value, node.Content[i+1]); err != nil {
			return err
		}
	}
	return nil
}

// Table builds the runtime resolution table.
func (c Colors) Table() *layouts.Table {
	exact := make(map[layouts.ID]layouts.Entry, len(c.Layouts))
	for id, e := range c.Layouts {
		exact[id] = e.entry()
	}
	language := make(map[uint16]layouts.Entry, len(c.Languages))
	for lang, e := range c.Languages {
		language[lang] = e.entry()
	}
	return layouts.NewTable(exact, language, c.Fallback.entry())
}

// Script is one side of the conversion pair: the character sequence and
// the layout activated when conversion targets this script.
type Script struct {
	Chars  string   `yaml:"chars"`
	Layout LayoutID `yaml:"layout"`
}

// Scripts holds both conversion directions.
type Scripts struct {
	Primary   Script `yaml:"primary"`
	Secondary Script `yaml:"secondary"`
}

// Timings bounds the waits inside a conversion session.
type Timings struct {
	SettleMs         int `yaml:"settleMs"`
	CopyWaitMs       int `yaml:"copyWaitMs"`
	PasteWaitMs      int `yaml:"pasteWaitMs"`
	SessionTimeoutMs int `yaml:"sessionTimeoutMs"`
}

// Settle is the pause between simulated input steps.
func (t Timings) Settle() time.Duration { return time.Duration(t.SettleMs) * time.Millisecond }

// CopyWait caps how long a copy is given to land on the clipboard.
func (t Timings) CopyWait() time.Duration { return time.Duration(t.CopyWaitMs) * time.Millisecond }

// PasteWait is the pause after a paste before the clipboard is restored.
func (t Timings) PasteWait() time.Duration { return time.Duration(t.PasteWaitMs) * time.Millisecond }

// SessionTimeout bounds a whole conversion session.
func (t Timings) SessionTimeout() time.Duration {
	return time.Duration(t.SessionTimeoutMs) * time.Millisecond
}

// Conversion configures the hotkey-triggered text conversion.
type Conversion struct {
	Enabled         bool     `yaml:"enabled"`
	Hotkey          string   `yaml:"hotkey"`
	Scripts         Scripts  `yaml:"scripts"`
	ConsoleClasses  []string `yaml:"consoleClasses"`
	TerminalClasses []string `yaml:"terminalClasses"`
	Timings         Timings  `yaml:"timings"`
}

// UnmarshalYAML keeps enabled defaulting to true when the key is omitted.
func (c *Conversion) UnmarshalYAML(value *yaml.Node) error {
	type rawConversion struct {
		Enabled         *bool    `yaml:"enabled"`
		Hotkey          string   `yaml:"hotkey"`
		Scripts         Scripts  `yaml:"scripts"`
		ConsoleClasses  []string `yaml:"consoleClasses"`
		TerminalClasses []string `yaml:"terminalClasses"`
		Timings         Timings  `yaml:"timings"`
	}
	var raw rawConversion
	if err := value.Decode(&raw); err != nil {
		return err
	}
	c.Hotkey = raw.Hotkey
	c.Scripts = raw.Scripts
	c.ConsoleClasses = raw.ConsoleClasses
	c.TerminalClasses = raw.TerminalClasses
	c.Timings = raw.Timings
	if raw.Enabled != nil {
		c.Enabled = *raw.Enabled
	} else {
		c.Enabled = true
	}
	return nil
}

// Load reads and validates a configuration file. An empty file yields the
// built-in defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return Default(), nil
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the built-in configuration used when no file exists.
func Default() *Config {
	cfg := &Config{Border: Border{HideUnknown: true}, Conversion: Conversion{Enabled: true}}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.PollIntervalMs <= 0 {
		c.PollIntervalMs = 150
	}
	if c.Border.Thickness == 0 {
		c.Border.Thickness = 6
	}
	if c.Border.OuterOpacity == 0 {
		c.Border.OuterOpacity = 0.8
	}
	if c.Border.InnerOpacity == 0 {
		c.Border.InnerOpacity = 0.05
	}
	if len(c.Colors.Layouts) == 0 && len(c.Colors.Languages) == 0 {
		c.Colors.Layouts = map[layouts.ID]ColorEntry{
			0xF0010409: {Color: HexColor{R: 0x8B, G: 0x00, B: 0x8B}, Label: "US-Intl"},
			0x04090409: {Color: HexColor{R: 0x00, G: 0xCE, B: 0xD1}, Label: "US"},
			0x04190419: {Color: HexColor{R: 0xDC, G: 0x14, B: 0x3C}, Label: "RU"},
		}
		c.Colors.Languages = map[uint16]ColorEntry{
			0x0409: {Color: HexColor{R: 0x34, G: 0x98, B: 0xdb}, Label: "EN"},
			0x0419: {Color: HexColor{R: 0xDC, G: 0x14, B: 0x3C}, Label: "RU"},
		}
	}
	if c.Colors.Fallback.Label == "" {
		c.Colors.Fallback = ColorEntry{Color: HexColor{R: 0x7f, G: 0x8c, B: 0x8d}, Label: "??"}
	}
	conv := &c.Conversion
	if conv.Hotkey == "" {
		conv.Hotkey = "pause"
	}
	if conv.Scripts.Primary.Chars == "" && conv.Scripts.Secondary.Chars == "" {
		conv.Scripts.Primary = Script{
			Chars:  "`qwertyuiop[]asdfghjkl;'zxcvbnm,./~QWERTYUIOP{}ASDFGHJKL:\"ZXCVBNM<>?@#$^&",
			Layout: 0x04090409,
		}
		conv.Scripts.Secondary = Script{
			Chars:  "ёйцукенгшщзхъфывапролджэячсмитьбю.ЁЙЦУКЕНГШЩЗХЪФЫВАПРОЛДЖЭЯЧСМИТЬБЮ,\"№;:?",
			Layout: 0x04190419,
		}
	}
	if len(conv.ConsoleClasses) == 0 {
		conv.ConsoleClasses = []string{"ConsoleWindowClass"}
	}
	if len(conv.TerminalClasses) == 0 {
		conv.TerminalClasses = []string{"CASCADIA_HOSTING_WINDOW_CLASS", "PseudoConsoleWindow"}
	}
	t := &conv.Timings
	if t.SettleMs <= 0 {
		t.SettleMs = 50
	}
	if t.CopyWaitMs <= 0 {
		t.CopyWaitMs = 300
	}
	if t.PasteWaitMs <= 0 {
		t.PasteWaitMs = 150
	}
	if t.SessionTimeoutMs <= 0 {
		t.SessionTimeoutMs = 2000
	}
}

// Validate performs basic sanity checks.
func (c *Config) Validate() error {
	if c.PollIntervalMs < 10 {
		return fmt.Errorf("pollIntervalMs must be at least 10")
	}
	if c.Border.Thickness < 1 || c.Border.Thickness > 64 {
		return fmt.Errorf("border.thickness must be between 1 and 64")
	}
	if c.Border.OuterOpacity < 0 || c.Border.OuterOpacity > 1 {
		return fmt.Errorf("border.outerOpacity must be between 0 and 1")
	}
	if c.Border.InnerOpacity < 0 || c.Border.InnerOpacity > 1 {
		return fmt.Errorf("border.innerOpacity must be between 0 and 1")
	}
	if c.Border.InnerOpacity > c.Border.OuterOpacity {
		return fmt.Errorf("border.innerOpacity cannot exceed border.outerOpacity")
	}
	if c.Colors.Fallback.Label == "" {
		return fmt.Errorf("colors.fallback.label cannot be empty")
	}
	if !c.Conversion.Enabled {
		return nil
	}
	if _, err := hotkey.ParseKeyName(c.Conversion.Hotkey); err != nil {
		return fmt.Errorf("conversion.hotkey: %w", err)
	}
	if err := validateScripts(c.Conversion.Scripts); err != nil {
		return err
	}
	return nil
}

func validateScripts(s Scripts) error {
	primary := []rune(s.Primary.Chars)
	secondary := []rune(s.Secondary.Chars)
	if len(primary) == 0 {
		return fmt.Errorf("conversion.scripts.primary.chars cannot be empty")
	}
	if len(primary) != len(secondary) {
		return fmt.Errorf("conversion scripts must pair the same number of characters, got %d and %d",
			len(primary), len(secondary))
	}
	if err := uniqueRunes("primary", primary); err != nil {
		return err
	}
	if err := uniqueRunes("secondary", secondary); err != nil {
		return err
	}
	if s.Primary.Layout == 0 {
		return fmt.Errorf("conversion.scripts.primary.layout cannot be zero")
	}
	if s.Secondary.Layout == 0 {
		return fmt.Errorf("conversion.scripts.secondary.layout cannot be zero")
	}
	return nil
}

func uniqueRunes(name string, rs []rune) error {
	seen := make(map[rune]struct{}, len(rs))
	for _, r := range rs {
		if _, exists := seen[r]; exists {
			return fmt.Errorf("conversion.scripts.%s.chars repeats %q", name, r)
		}
		seen[r] = struct{}{}
	}
	return nil
}
