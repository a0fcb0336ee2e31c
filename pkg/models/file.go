package models

// FileRef identifies one deliverable file: a display name plus the
// message id of the archived copy in the bot's archive channel.
// Immutable once loaded.
type FileRef struct {
	Name      string `json:"name"`
	MessageID int64  `json:"message_id"`
}

// KeyRow is one raw spreadsheet row before grouping. The sheet schema is
// key / name_file / message_id; rows from all tabs are concatenated in
// tab order before being grouped into the key table.
type KeyRow struct {
	Key       string `json:"key"`
	Name      string `json:"name_file"`
	MessageID int64  `json:"message_id"`
}

// DeliveryReport summarizes one delivery attempt for a key. Every file
// in the key's list is attempted exactly once; Failed counts files whose
// archive copy did not go through.
type DeliveryReport struct {
	Attempted int `json:"attempted"`
	Delivered int `json:"delivered"`
	Failed    int `json:"failed"`
}
