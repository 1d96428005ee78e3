package conversation_test

import (
	"context"
	"testing"
	"time"

	"bitchat/internal/conversation"
	domain "bitchat/internal/domain"
	domaintypes "bitchat/internal/domain/types"
)

func TestSendPipeline_Enqueue_InsertsSendingMessageImmediately(t *testing.T) {
	e := conversation.New(newFakeContacts(), newFakeMessages(), &fakeSender{}, newFakeHandshake(), domain.PeerAddress("me"))
	p := conversation.NewSendPipeline(e)
	defer p.Shutdown()

	addr := domain.PeerAddress("peer-1")
	id, err := p.Enqueue(conversation.SendRequest{Content: "hi", PeerAddr: addr})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	got := e.Snapshot(addr)
	if len(got) != 1 || got[0].ID != id || got[0].Status.State != domaintypes.StateSending {
		t.Fatalf("expected an immediately-visible sending message, got %+v", got)
	}
}

func TestSendPipeline_Enqueue_DeliversViaEmitCallback(t *testing.T) {
	e := conversation.New(newFakeContacts(), newFakeMessages(), &fakeSender{}, newFakeHandshake(), domain.PeerAddress("me"))
	p := conversation.NewSendPipeline(e)
	defer p.Shutdown()

	done := make(chan struct{}, 1)
	addr := domain.PeerAddress("peer-2")
	_, err := p.Enqueue(conversation.SendRequest{
		Content:  "hello",
		PeerAddr: addr,
		EmitCallback: func(content string, peerAddr domain.PeerAddress, recipientNickname, id string) error {
			done <- struct{}{}
			return nil
		},
	})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("expected the worker to deliver the job via EmitCallback")
	}
}

func TestSendPipeline_Enqueue_PersistsOutboundMessage(t *testing.T) {
	messages := newFakeMessages()
	e := conversation.New(newFakeContacts(), messages, &fakeSender{}, newFakeHandshake(), domain.PeerAddress("me"))
	p := conversation.NewSendPipeline(e)
	defer p.Shutdown()

	addr := domain.PeerAddress("peer-6")
	id, err := p.Enqueue(conversation.SendRequest{Content: "persist me", PeerAddr: addr})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	got, err := messages.Load(context.Background(), addr)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 1 || got[0].ID != id || got[0].Content != "persist me" {
		t.Fatalf("expected the outbound message to be persisted, got %+v", got)
	}
}

func TestSendPipeline_SendPrivate_RoutesThroughEngineSender(t *testing.T) {
	sender := &fakeSender{}
	e := conversation.New(newFakeContacts(), newFakeMessages(), sender, newFakeHandshake(), domain.PeerAddress("me"))
	p := conversation.NewSendPipeline(e)
	defer p.Shutdown()

	id, err := p.SendPrivate(domain.PeerAddress("peer-3"), "hi there", "bob", "alice")
	if err != nil {
		t.Fatalf("send private: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		for _, sent := range sender.sentPrivate {
			if sent == id {
				return
			}
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("expected message %s to reach the fake sender, got %v", id, sender.sentPrivate)
}

func TestSendPipeline_Enqueue_AfterShutdown_Fails(t *testing.T) {
	e := conversation.New(newFakeContacts(), newFakeMessages(), &fakeSender{}, newFakeHandshake(), domain.PeerAddress("me"))
	p := conversation.NewSendPipeline(e)
	p.Shutdown()

	_, err := p.Enqueue(conversation.SendRequest{Content: "too late", PeerAddr: domain.PeerAddress("peer-4")})
	if err != conversation.ErrShuttingDown {
		t.Fatalf("expected ErrShuttingDown, got %v", err)
	}
}

func TestSendPipeline_UpdateStatus_AdvancesMonotonically(t *testing.T) {
	e := conversation.New(newFakeContacts(), newFakeMessages(), &fakeSender{}, newFakeHandshake(), domain.PeerAddress("me"))
	p := conversation.NewSendPipeline(e)
	defer p.Shutdown()

	addr := domain.PeerAddress("peer-5")
	id, err := p.Enqueue(conversation.SendRequest{Content: "hi", PeerAddr: addr})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	ctx := context.Background()
	p.UpdateStatus(ctx, addr, id, domain.Delivered(addr, time.Now()))
	p.UpdateStatus(ctx, addr, id, domain.Sending())

	got := e.Snapshot(addr)
	if len(got) != 1 || got[0].Status.State != domaintypes.StateDelivered {
		t.Fatalf("expected status to stay at delivered, not regress to sending, got %+v", got[0].Status)
	}
}
