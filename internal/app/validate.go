package app

import (
	"fmt"

	"github.com/ToaiAnh1991/BotTeleUe3dFree/pkg/config"
	"github.com/ToaiAnh1991/BotTeleUe3dFree/pkg/logger"
)

// validateConfig fails fast on settings the bot cannot run without and
// warns about ones it can limp along with.
func validateConfig(cfg *config.Config) error {
	if cfg.Bot.Token == "" {
		return fmt.Errorf("bot token not configured (BOT_TOKEN or bot.token)")
	}
	if cfg.Bot.ChannelID == 0 {
		return fmt.Errorf("archive channel id not configured (CHANNEL_ID or bot.channel_id)")
	}
	if cfg.Bot.RateLimit.Duration() < 0 {
		return fmt.Errorf("bot.rate_limit must not be negative")
	}
	if cfg.Sheet.ID == "" {
		logger.Warn("sheet_id_missing", "hint", "only the local snapshot can populate the key table")
	}
	if len(cfg.Bot.AdminIDs) == 0 {
		logger.Warn("no_admins_configured", "hint", "/reload will be rejected for everyone")
	}
	return nil
}
