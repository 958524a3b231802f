package commands

import (
	"fmt"

	"github.com/pterm/pterm"

	"github.com/teranos/kgbridge/am"
	"github.com/teranos/kgbridge/logger"
	"github.com/teranos/kgbridge/sym"
	"github.com/teranos/kgbridge/version"
)

// printStartupBanner prints the server's startup summary
func printStartupBanner(cfg *am.Config) {
	info := version.Get()
	pterm.DefaultHeader.WithFullWidth().Printf("%s kgbridge %s %s", sym.IX, sym.SE, info.Version)

	rate := "unlimited"
	if cfg.Server.ReasoningRatePerMinute > 0 {
		rate = fmt.Sprintf("%d/min (burst %d)", cfg.Server.ReasoningRatePerMinute, cfg.Server.ReasoningBurst)
	}
	_ = pterm.DefaultTable.WithData(pterm.TableData{
		{"Version", fmt.Sprintf("%s (commit %s)", info.Version, info.Short())},
		{"Listening", fmt.Sprintf("http://localhost:%d", cfg.ServerPort())},
		{sym.Label(sym.DB), storeLabel(cfg)},
		{"Reasoning rate", rate},
		{"Config", configSource()},
		{"Log level", logger.LevelName(logger.Verbosity())},
	}).Render()
	pterm.Println()
	for _, glyph := range sym.PaletteOrder {
		pterm.Printf("  %s  %s\n", glyph, sym.Descriptions[glyph])
	}
	pterm.Println()
	pterm.Info.Println("Press Ctrl+C to stop")
}

func configSource() string {
	if path := am.ActiveConfigFile(); path != "" {
		return path
	}
	return "defaults"
}
