package cli

import (
	"context"
	"testing"
	"time"

	"github.com/courierchat/courier/internal/engine"
	"github.com/courierchat/courier/internal/models"
)

type stubService struct{}

func (stubService) GetConversation(context.Context, string, models.Page) ([]models.Message, error) {
	return nil, nil
}

func (stubService) SendMessage(context.Context, string, string) (*models.Message, error) {
	return nil, nil
}

func (stubService) GetConversations(context.Context) ([]models.Conversation, error) {
	return nil, nil
}

func (stubService) MarkAsRead(context.Context, string) (int, error) { return 0, nil }

func (stubService) DeleteMessage(context.Context, string) (string, error) { return "", nil }

func TestChatTeardownReleasesSubscription(t *testing.T) {
	e := engine.New(stubService{}, engine.Options{UserID: "me"})

	model := newChatModel(e, "them", time.Minute)

	// Teardown may run twice: once on the quit key path and once as the
	// safety call after the program returns. Both must be safe, and no
	// subscription may survive them.
	model.unsubscribe()
	model.unsubscribe()

	e.SetLoading(true)
	select {
	case <-model.changes:
		t.Fatal("subscription still delivering after teardown")
	default:
	}
}
