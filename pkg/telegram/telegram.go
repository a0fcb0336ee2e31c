// Package telegram wraps the Bot API client and implements file
// delivery out of the archive channel.
package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/ToaiAnh1991/BotTeleUe3dFree/pkg/logger"
)

// API is the slice of *tgbotapi.BotAPI the bot uses; tests substitute a
// fake.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	MakeRequest(endpoint string, params tgbotapi.Params) (*tgbotapi.APIResponse, error)
}

// Client sends replies and archive copies for one bot account.
type Client struct {
	api          API
	channelID    int64
	adminContact string
}

// NewClient wraps an API for the given archive channel.
func NewClient(api API, channelID int64, adminContact string) *Client {
	return &Client{api: api, channelID: channelID, adminContact: adminContact}
}

// Connect dials the Bot API with the given token and returns a Client.
func Connect(token string, channelID int64, adminContact string) (*Client, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	logger.Info("bot_authorized", "username", api.Self.UserName)
	return NewClient(api, channelID, adminContact), nil
}

// AdminContact returns the configured support contact line target.
func (c *Client) AdminContact() string { return c.adminContact }

// Reply sends a plain text reply into chatID referencing replyTo when
// non-zero. Send failures are logged, not returned: a lost reply should
// never fail the item it belongs to.
func (c *Client) Reply(chatID int64, replyTo int, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if replyTo != 0 {
		msg.ReplyToMessageID = replyTo
	}
	if _, err := c.api.Send(msg); err != nil {
		logger.Warn("reply_send_failed", "chat", chatID, "error", err)
	}
}

// copyFromArchive copies one archived message into chatID with content
// protection on, so the recipient cannot forward or re-export it. The
// tagged tgbotapi release predates the protect_content parameter, so the
// request is built by hand.
func (c *Client) copyFromArchive(chatID int64, messageID int64) error {
	params := tgbotapi.Params{}
	params.AddNonZero64("chat_id", chatID)
	params.AddNonZero64("from_chat_id", c.channelID)
	params.AddNonZero64("message_id", messageID)
	params.AddBool("protect_content", true)
	_, err := c.api.MakeRequest("copyMessage", params)
	return err
}
