package interview

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hireloop-ai/hireloop/internal/agent"
	"github.com/hireloop-ai/hireloop/internal/cache"
	"github.com/hireloop-ai/hireloop/internal/models"
	"github.com/hireloop-ai/hireloop/internal/store"
)

const (
	// DefaultTurnLimit is the number of question/answer turns per interview.
	DefaultTurnLimit = 9

	// streamChannelBuffer bounds the chunk channel between producer and the
	// HTTP writer; a stalled client backs up here without stalling buffering.
	streamChannelBuffer = 32

	// streamTimeout bounds one provider response. A hung provider stream
	// surfaces as an error, never as a silent empty stream.
	streamTimeout = 2 * time.Minute

	// bookkeepTimeout bounds the post-stream cache and store writes.
	bookkeepTimeout = 30 * time.Second
)

// firstQuestionInstruction replaces the client's "start" sentinel; the
// sentinel itself is never sent to the provider or recorded as an answer.
const firstQuestionInstruction = "Begin the interview now: greet the candidate briefly and ask the first question."

// Opts holds configuration for the interview controller.
type Opts struct {
	TurnLimit    int
	AgentID      string
	AgentVersion string
}

// Option configures the interview controller.
type Option func(*Opts)

// WithTurnLimit overrides the per-interview turn limit.
func WithTurnLimit(n int) Option {
	return func(o *Opts) { o.TurnLimit = n }
}

// WithAgent sets the provider agent profile and version.
func WithAgent(id, version string) Option {
	return func(o *Opts) {
		o.AgentID = id
		o.AgentVersion = version
	}
}

// Controller owns the interview progress state machine. It bridges the chat
// provider, the key-value session store and the durable record store; all
// three are injected.
type Controller struct {
	store    store.Store
	cache    *cache.Client
	provider agent.Provider

	limit        int
	agentID      string
	agentVersion string

	locks identityLocks
}

// NewController creates an interview controller.
func NewController(st store.Store, kv *cache.Client, provider agent.Provider, opts ...Option) *Controller {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.TurnLimit <= 0 {
		cfg.TurnLimit = DefaultTurnLimit
	}
	return &Controller{
		store:        st,
		cache:        kv,
		provider:     provider,
		limit:        cfg.TurnLimit,
		agentID:      cfg.AgentID,
		agentVersion: cfg.AgentVersion,
	}
}

// TurnLimit returns the configured number of turns per interview.
func (c *Controller) TurnLimit() int { return c.limit }

// CreateSession opens (or resumes) an interview for the user. Re-entry with
// an interview already in flight resets the turn pointer, clears the
// transcript buffers, refreshes the TTL and returns the existing provider
// handle, so a user re-opening the UI resumes rather than duplicates.
func (c *Controller) CreateSession(ctx context.Context, uid int64, details models.JobDetails) (string, error) {
	mu := c.locks.forUser(uid)
	defer mu.Unlock()

	prog, exists, err := c.loadProgress(ctx, uid)
	if err != nil {
		return "", err
	}
	if exists && prog.SessionRecordID != 0 {
		slog.Debug("Interview.CreateSession: resuming active interview", "uid", uid)
		err := c.cache.RunBatch(ctx, func(b cache.Batch) {
			b.HSet(cache.ProgressKey(uid), map[string]interface{}{fieldTurnPointer: 0})
			b.HDel(cache.ProgressKey(uid), fieldTurnBaseID, fieldTurnsWritten)
			b.Del(cache.QuestionsKey(uid), cache.AnswersKey(uid))
			b.Expire(cache.ProgressKey(uid), cache.ProgressTTL)
		})
		if err != nil {
			return "", err
		}
		return prog.AgentSessionID, nil
	}

	user, err := c.store.GetUser(uid)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", fmt.Errorf("user %d: %w", uid, models.ErrNotFound)
	}

	var handle string
	if exists {
		// A previous attempt opened a provider session but failed before the
		// durable records were written. Adopt its handle instead of leaking it.
		handle = prog.AgentSessionID
		slog.Info("Interview.CreateSession: adopting orphaned provider session", "uid", uid)
	} else {
		handle, err = c.provider.CreateSession(ctx, c.agentID, c.agentVersion)
		if err != nil {
			return "", &models.UpstreamError{Service: "chat provider", Err: err}
		}
		// Persist the handle before any durable write so a retry after a
		// failure below can adopt it.
		err = c.cache.RunBatch(ctx, func(b cache.Batch) {
			b.HSet(cache.ProgressKey(uid), map[string]interface{}{
				fieldAgentSessionID: handle,
				fieldTurnPointer:    0,
			})
			b.Expire(cache.ProgressKey(uid), cache.ProgressTTL)
		})
		if err != nil {
			return "", err
		}
	}

	jid, err := c.store.NextID(store.SeqJob)
	if err != nil {
		return "", err
	}
	iid, err := c.store.NextID(store.SeqSession)
	if err != nil {
		return "", err
	}

	now := time.Now()
	if err := c.store.CreateJobDescription(models.JobDescription{
		JID: jid, UID: uid,
		Title: details.Title, Company: details.Company, Description: details.Description,
		CreatedAt: now, UpdatedAt: now,
	}); err != nil {
		slog.Error("Interview.CreateSession: job description rejected", "error", err, "uid", uid)
		return "", err
	}
	if err := c.store.CreateInterviewSession(models.InterviewSession{
		IID: iid, UID: uid, JID: jid,
		Status: models.SessionStatusStarted, StartedAt: now,
		CreatedAt: now, UpdatedAt: now,
	}); err != nil {
		slog.Error("Interview.CreateSession: session record rejected", "error", err, "uid", uid)
		return "", err
	}

	err = c.cache.RunBatch(ctx, func(b cache.Batch) {
		b.HSet(cache.ProgressKey(uid), map[string]interface{}{
			fieldSessionRecordID: iid,
			fieldJobRecordID:     jid,
		})
		b.Expire(cache.ProgressKey(uid), cache.ProgressTTL)
	})
	if err != nil {
		return "", err
	}
	slog.Info("Interview.CreateSession: interview started", "uid", uid, "iid", iid, "jid", jid)
	return handle, nil
}

// SendMessage feeds one conversational turn into the interview and returns
// the live response stream. Once the turn limit is reached the stream carries
// only the end-of-interview sentinel and the finalize protocol runs instead
// of another provider call. Post-stream bookkeeping runs after the provider
// stream is exhausted, decoupled from the request context, so a client
// disconnect cannot short-circuit it.
func (c *Controller) SendMessage(ctx context.Context, uid int64, text string) (*MessageStream, error) {
	mu := c.locks.forUser(uid)

	prog, exists, err := c.loadProgress(ctx, uid)
	if err != nil {
		mu.Unlock()
		return nil, err
	}
	if !exists || prog.SessionRecordID == 0 {
		mu.Unlock()
		return nil, models.ErrNoActiveSession
	}

	if prog.TurnPointer >= c.limit {
		ms := newMessageStream(1)
		go c.runSentinel(ctx, mu, ms, uid, text)
		return ms, nil
	}

	prompt := text
	if text == models.StartSentinel {
		prompt = firstQuestionInstruction
	}

	// The provider stream lives on a detached context so a client disconnect
	// stops forwarding but not buffering.
	provCtx, provCancel := context.WithTimeout(context.WithoutCancel(ctx), streamTimeout)
	provStream, err := c.provider.StreamMessage(provCtx, prog.AgentSessionID, prompt)
	if err != nil {
		provCancel()
		mu.Unlock()
		return nil, &models.UpstreamError{Service: "chat provider", Err: err}
	}

	ms := newMessageStream(streamChannelBuffer)
	go c.runTurn(ctx, provCancel, mu, ms, provStream, prog, uid, text)
	return ms, nil
}

// runTurn forwards and buffers the provider stream, then performs the
// post-stream bookkeeping. It owns the identity lock until bookkeeping ends.
func (c *Controller) runTurn(reqCtx context.Context, provCancel context.CancelFunc, mu interface{ Unlock() }, ms *MessageStream, provStream agent.Stream, prog *models.InterviewProgress, uid int64, text string) {
	defer mu.Unlock()
	defer close(ms.done)
	defer provCancel()

	var question strings.Builder
	forwarding := true
	for provStream.Next() {
		chunk := provStream.Current()
		question.WriteString(chunk)
		if !forwarding {
			continue
		}
		select {
		case ms.chunks <- chunk:
		case <-reqCtx.Done():
			slog.Warn("Interview.SendMessage: client gone, buffering only", "uid", uid)
			forwarding = false
		}
	}
	streamErr := provStream.Err()
	provStream.Close()
	close(ms.chunks)

	if streamErr != nil {
		// A lost chunk would poison the transcript: skip bookkeeping so the
		// turn is not advanced and the caller can retry the same answer.
		slog.Error("Interview.SendMessage: provider stream failed", "error", streamErr, "uid", uid)
		ms.setErr(streamErr)
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(reqCtx), bookkeepTimeout)
	defer cancel()
	if err := c.recordTurn(ctx, uid, text, question.String(), prog); err != nil {
		slog.Error("Interview.SendMessage: bookkeeping failed", "error", err, "uid", uid)
		ms.setErr(err)
	}
}

// recordTurn appends the turn to the cache-resident transcript and advances
// the pointer, as one atomic batch.
func (c *Controller) recordTurn(ctx context.Context, uid int64, text, question string, prog *models.InterviewProgress) error {
	return c.cache.RunBatch(ctx, func(b cache.Batch) {
		if text != models.StartSentinel {
			b.RPush(cache.AnswersKey(uid), text)
		}
		b.RPush(cache.QuestionsKey(uid), question)
		b.HSet(cache.ProgressKey(uid), map[string]interface{}{fieldTurnPointer: prog.TurnPointer + 1})
		for _, key := range progressKeys(uid) {
			b.Expire(key, cache.ProgressTTL)
		}
	})
}

// runSentinel handles a send-message call arriving at the turn limit: emit
// the end marker, absorb the final answer, run the finalize protocol.
func (c *Controller) runSentinel(reqCtx context.Context, mu interface{ Unlock() }, ms *MessageStream, uid int64, text string) {
	defer mu.Unlock()
	defer close(ms.done)

	ms.chunks <- models.EndInterviewSentinel
	close(ms.chunks)

	ctx, cancel := context.WithTimeout(context.WithoutCancel(reqCtx), bookkeepTimeout)
	defer cancel()

	if text != models.StartSentinel {
		// Append the final answer only if it is not already recorded; a
		// retried finalize must not grow the buffer.
		qLen, err := c.cache.LLen(ctx, cache.QuestionsKey(uid))
		if err != nil {
			ms.setErr(err)
			return
		}
		aLen, err := c.cache.LLen(ctx, cache.AnswersKey(uid))
		if err != nil {
			ms.setErr(err)
			return
		}
		if aLen < qLen {
			err := c.cache.RunBatch(ctx, func(b cache.Batch) {
				b.RPush(cache.AnswersKey(uid), text)
				for _, key := range progressKeys(uid) {
					b.Expire(key, cache.ProgressTTL)
				}
			})
			if err != nil {
				ms.setErr(err)
				return
			}
		}
	}

	if err := c.finalize(ctx, uid); err != nil {
		slog.Error("Interview.SendMessage: finalize failed", "error", err, "uid", uid)
		ms.setErr(err)
	}
}
