package app

import (
	"context"
	"fmt"

	"github.com/heartline-ai/heartline/internal/chat"
	"github.com/heartline-ai/heartline/internal/domain"
	"github.com/heartline-ai/heartline/internal/storage"
)

// Chat answers input within a session: load history, respond, store the
// updated history and record the turn. Requests for the same session run
// one at a time.
func (a *App) Chat(ctx context.Context, sessionID, input string) (chat.Reply, error) {
	unlock := a.locker.Lock(sessionID)
	defer unlock()

	history, err := a.Sessions.Get(ctx, sessionID)
	if err != nil {
		return chat.Reply{}, domain.UnexpectedError("load session", err)
	}

	reply, err := a.Orchestrator.Respond(ctx, input, history)
	if err != nil {
		return chat.Reply{}, err
	}

	if err := a.Sessions.Put(ctx, sessionID, reply.History); err != nil {
		return chat.Reply{}, domain.UnexpectedError("save session", err)
	}

	a.record(ctx, sessionID, input, reply)
	return reply, nil
}

// History returns the stored turns of a session.
func (a *App) History(ctx context.Context, sessionID string) (chat.History, error) {
	h, err := a.Sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, domain.UnexpectedError("load session", err)
	}
	if h == nil {
		h = chat.History{}
	}
	return h, nil
}

// ClearHistory forgets a session's turns. Recorded transcripts are kept.
func (a *App) ClearHistory(ctx context.Context, sessionID string) error {
	unlock := a.locker.Lock(sessionID)
	defer unlock()

	if err := a.Sessions.Delete(ctx, sessionID); err != nil {
		return domain.UnexpectedError("clear session", err)
	}
	return nil
}

// TranscriptsEnabled reports whether turns are recorded.
func (a *App) TranscriptsEnabled() bool {
	return a.Transcripts != nil
}

// ListTranscripts returns a session's recorded turns, oldest first.
func (a *App) ListTranscripts(ctx context.Context, sessionID string, limit int) ([]storage.Transcript, error) {
	if a.Transcripts == nil {
		return nil, domain.InputError("transcripts are disabled")
	}
	out, err := a.Transcripts.ListBySession(ctx, sessionID, limit)
	if err != nil {
		return nil, domain.UnexpectedError(fmt.Sprintf("list transcripts for %s", sessionID), err)
	}
	return out, nil
}

// record saves the turn; failures are logged and never fail the turn.
func (a *App) record(ctx context.Context, sessionID, input string, reply chat.Reply) {
	if a.Transcripts == nil {
		return
	}
	err := a.Transcripts.Save(ctx, &storage.Transcript{
		SessionID: sessionID,
		UserInput: input,
		Response:  reply.Response,
		Source:    string(reply.Source),
	})
	if err != nil {
		a.Logger.WithContext(ctx).Warn().
			Err(err).
			Str("session_id", sessionID).
			Msg("Failed to record transcript")
	}
}
