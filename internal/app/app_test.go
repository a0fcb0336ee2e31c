package app

import (
	"context"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/ToaiAnh1991/BotTeleUe3dFree/pkg/keystore"
	"github.com/ToaiAnh1991/BotTeleUe3dFree/pkg/logger"
	"github.com/ToaiAnh1991/BotTeleUe3dFree/pkg/models"
	"github.com/ToaiAnh1991/BotTeleUe3dFree/pkg/queue"
	"github.com/ToaiAnh1991/BotTeleUe3dFree/pkg/telegram"
)

func init() { logger.Init() }

// shiftingSource serves a different row set on every call, standing in
// for a spreadsheet edited between loads.
type shiftingSource struct {
	calls int
	sets  [][]models.KeyRow
}

func (s *shiftingSource) Rows(ctx context.Context) ([]models.KeyRow, error) {
	set := s.sets[s.calls]
	if s.calls < len(s.sets)-1 {
		s.calls++
	}
	return set, nil
}

type countingAPI struct {
	sent   []string
	copies int
}

func (f *countingAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if m, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, m.Text)
	}
	return tgbotapi.Message{}, nil
}

func (f *countingAPI) MakeRequest(endpoint string, params tgbotapi.Params) (*tgbotapi.APIResponse, error) {
	f.copies++
	return &tgbotapi.APIResponse{Ok: true}, nil
}

// A key admitted while present can be removed by a reload before the
// worker reaches it. The worker must notice, send the generic
// processing-error reply and skip the copy.
func TestProcessItemKeyRemovedByReload(t *testing.T) {
	src := &shiftingSource{sets: [][]models.KeyRow{
		{{Key: "ue100", Name: "Pack1.zip", MessageID: 42}},
		{{Key: "ue200", Name: "Other.zip", MessageID: 43}},
	}}
	ks := keystore.New(src, nil)
	if err := ks.Load(context.Background()); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if ks.Lookup("ue100") == nil {
		t.Fatalf("key must be present before the reload")
	}

	api := &countingAPI{}
	a := &App{ks: ks, bot: telegram.NewClient(api, -100500, "t.me/support")}

	if err := ks.Reload(context.Background(), true); err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	a.processItem(context.Background(), queue.Item{UserID: 1, Key: "ue100", ChatID: 5, ReplyTo: 9})

	if api.copies != 0 {
		t.Fatalf("no copy expected for a removed key, got %d", api.copies)
	}
	if len(api.sent) != 1 || api.sent[0] != telegram.ProcessingErrorText {
		t.Fatalf("expected processing-error reply, got %v", api.sent)
	}
}

// The happy path still delivers after a reload that keeps the key.
func TestProcessItemDelivers(t *testing.T) {
	src := &shiftingSource{sets: [][]models.KeyRow{
		{{Key: "ue100", Name: "Pack1.zip", MessageID: 42}},
	}}
	ks := keystore.New(src, nil)
	if err := ks.Load(context.Background()); err != nil {
		t.Fatalf("load failed: %v", err)
	}

	api := &countingAPI{}
	a := &App{ks: ks, bot: telegram.NewClient(api, -100500, "t.me/support")}

	a.processItem(context.Background(), queue.Item{UserID: 1, Key: "UE100", ChatID: 5, ReplyTo: 9})
	if api.copies != 1 {
		t.Fatalf("expected one copy, got %d", api.copies)
	}
}
