package telegram

import "fmt"

// Reply texts the bot sends. The admin contact line is configurable;
// everything else is fixed wording users and support staff key off.

func GreetingText(contact string) string {
	return "♥️ Please send your KEY to receive the file.\n♥️ Admin: " + contact
}

func FileDeliveredText(name string) string {
	return fmt.Sprintf("♥️ Your File %q", name)
}

func DeliveryFailedText(contact string) string {
	return "⚠️ File not found. Please contact admin for support.\n♥️ Admin: " + contact
}

const (
	UnknownKeyText      = "❌ KEY is incorrect. Please check again."
	QueuedText          = "✅ KEY accepted. Your files are on the way, please wait."
	DuplicateText       = "⏳ Your previous request is still processing. Please wait for it to finish."
	StoreNotReadyText   = "⚠️ The file list is not ready yet. Please try again later."
	BusyText            = "⚠️ The bot is busy right now. Please try again in a few minutes."
	ProcessingErrorText = "⚠️ Could not process your request. Please send your KEY again."
	AllDeliveredText    = "♥️ All files delivered. Enjoy!"
	NotAuthorizedText   = "⛔ You are not authorized to use this command."
	ReloadFailedText    = "⚠️ Reload failed. Check the sheet and try again."
)

func ReloadOKText(keys int) string {
	return fmt.Sprintf("✅ Key list reloaded: %d keys.", keys)
}
