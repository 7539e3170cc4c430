package chat

import (
	"context"
	"fmt"
	"sort"

	"caintamart/docstore"
	"caintamart/models"
	"caintamart/state"
)

// Project attaches each thread's messages and orders threads by most
// recent activity. Message order is left as the store returned it.
func Project(threads []models.ChatThread, messages map[string][]models.Message) []models.ChatThread {
	out := make([]models.ChatThread, len(threads))
	for i, t := range threads {
		t.Messages = messages[t.ID]
		out[i] = t
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.LastMessageAt.Equal(b.LastMessageAt) {
			return a.LastMessageAt.After(b.LastMessageAt)
		}
		return a.ID < b.ID
	})
	return out
}

// Load reads every thread and its messages from the gateway and projects
// them.
func (s *Synchronizer) Load(ctx context.Context) ([]models.ChatThread, error) {
	threads, ids, err := docstore.ListDecoded[models.ChatThread](ctx, s.store, "chats")
	if err != nil {
		return nil, fmt.Errorf("chat: list threads: %w", err)
	}
	messages := make(map[string][]models.Message, len(threads))
	for i := range threads {
		threads[i].ID = ids[i]
		msgs, err := s.messages(ctx, ids[i])
		if err != nil {
			return nil, err
		}
		messages[ids[i]] = msgs
	}
	return Project(threads, messages), nil
}

// Source is the state loader for the chats collection.
func (s *Synchronizer) Source(app *state.App) state.Loader {
	return func(ctx context.Context) error {
		threads, err := s.Load(ctx)
		if err != nil {
			return err
		}
		app.SetThreads(threads)
		return nil
	}
}
