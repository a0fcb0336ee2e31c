package banner

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/ToaiAnh1991/BotTeleUe3dFree/pkg/config"
)

const banner = `
██████╗  ██████╗ ████████╗████████╗███████╗██╗     ███████╗    ██╗   ██╗███████╗
██╔══██╗██╔═══██╗╚══██╔══╝╚══██╔══╝██╔════╝██║     ██╔════╝    ██║   ██║██╔════╝
██████╔╝██║   ██║   ██║      ██║   █████╗  ██║     █████╗      ██║   ██║█████╗
██╔══██╗██║   ██║   ██║      ██║   ██╔══╝  ██║     ██╔══╝      ██║   ██║██╔══╝
██████╔╝╚██████╔╝   ██║      ██║   ███████╗███████╗███████╗    ╚██████╔╝███████╗
╚═════╝  ╚═════╝    ╚═╝      ╚═╝   ╚══════╝╚══════╝╚══════╝     ╚═════╝ ╚══════╝
`

// Print writes the startup banner with the effective runtime settings.
// keys/loadedAt describe the table state after the initial load; a zero
// loadedAt means the bot started without any table.
func Print(eff config.EffectiveConfigResult, version string, keys int, loadedAt time.Time) {
	cfg := eff.Config
	fmt.Print(banner)
	fmt.Println("== Config =====================================================")
	fmt.Printf("Listen:       %s\n", eff.Addr)
	fmt.Printf("Snapshot DB:  %s\n", eff.DBPath)
	fmt.Printf("Channel:      %d\n", cfg.Bot.ChannelID)
	fmt.Printf("Admins:       %d configured\n", len(cfg.Bot.AdminIDs))
	fmt.Printf("Rate limit:   %s between deliveries\n", cfg.Bot.RateLimit.Duration())
	fmt.Printf("Sheet:        %s (%d tabs)\n", cfg.Sheet.ID, len(cfg.Sheet.Tabs))
	if version != "" {
		fmt.Printf("Version:      %s\n", version)
	}
	fmt.Printf("Config from:  %s\n", eff.Source)
	fmt.Println("== Key table ==================================================")
	if loadedAt.IsZero() {
		fmt.Println("No key table loaded yet; use /reload once the sheet is reachable")
	} else {
		fmt.Printf("%s keys, loaded %s\n", humanize.Comma(int64(keys)), humanize.Time(loadedAt))
	}
}
