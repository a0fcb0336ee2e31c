package telegram

import (
	"context"

	"github.com/ToaiAnh1991/BotTeleUe3dFree/pkg/logger"
	"github.com/ToaiAnh1991/BotTeleUe3dFree/pkg/metrics"
	"github.com/ToaiAnh1991/BotTeleUe3dFree/pkg/models"
)

// Deliver copies every file of a key into the destination chat, in
// order, each attempted exactly once. One file failing does not abort
// the rest; an aggregate notice always follows the attempts. The ctx is
// checked between files so a shutting-down worker stops copying (the
// undelivered remainder counts as failed and the failure aggregate is
// still sent), though an in-flight API call is never interrupted.
func (c *Client) Deliver(ctx context.Context, chatID int64, replyTo int, key string, files []models.FileRef) models.DeliveryReport {
	rep := models.DeliveryReport{Attempted: len(files)}
	for _, f := range files {
		if ctx.Err() != nil {
			rep.Failed = rep.Attempted - rep.Delivered
			logger.Warn("delivery_interrupted", "chat", chatID, "key", key)
			break
		}
		if f.MessageID <= 0 {
			logger.Error("delivery_bad_locator", "key", key, "file", f.Name, "locator", f.MessageID)
			rep.Failed++
			metrics.FilesFailed.Inc()
			continue
		}
		if err := c.copyFromArchive(chatID, f.MessageID); err != nil {
			logger.Error("delivery_copy_failed", "key", key, "file", f.Name, "locator", f.MessageID, "error", err)
			rep.Failed++
			metrics.FilesFailed.Inc()
			continue
		}
		rep.Delivered++
		metrics.FilesDelivered.Inc()
		c.Reply(chatID, replyTo, FileDeliveredText(f.Name))
	}

	if rep.Failed > 0 {
		c.Reply(chatID, replyTo, DeliveryFailedText(c.adminContact))
	} else {
		c.Reply(chatID, replyTo, AllDeliveredText)
	}
	logger.Info("delivery_done", "chat", chatID, "key", key,
		"attempted", rep.Attempted, "delivered", rep.Delivered, "failed", rep.Failed)
	return rep
}
