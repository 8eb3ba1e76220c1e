package interview

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hireloop-ai/hireloop/internal/cache"
	"github.com/hireloop-ai/hireloop/internal/models"
	"github.com/hireloop-ai/hireloop/internal/store"
)

// finalize commits the buffered transcript to the durable record store
// exactly once, marks the session completed, and destroys the cache-resident
// progress. The protocol is at-least-once on retry and at-most-once on
// success: the allocated turn-id base and the batch-write outcome are
// persisted in the progress hash, so a retried finalize reuses the same id
// range and never re-submits written turns. Callers hold the identity lock.
func (c *Controller) finalize(ctx context.Context, uid int64) error {
	questions, err := c.cache.LRange(ctx, cache.QuestionsKey(uid))
	if err != nil {
		return fmt.Errorf("read question buffer for %d: %w", uid, err)
	}
	answers, err := c.cache.LRange(ctx, cache.AnswersKey(uid))
	if err != nil {
		return fmt.Errorf("read answer buffer for %d: %w", uid, err)
	}
	if len(questions) == 0 || len(questions) != len(answers) {
		// A mismatch means a lost chunk or a race; guessing here would
		// corrupt the transcript.
		return fmt.Errorf("%w: %d questions, %d answers for user %d",
			models.ErrDataIntegrity, len(questions), len(answers), uid)
	}

	prog, exists, err := c.loadProgress(ctx, uid)
	if err != nil {
		return err
	}
	if !exists || prog.SessionRecordID == 0 {
		return fmt.Errorf("finalize without progress record for user %d: %w", uid, models.ErrNoActiveSession)
	}

	base := prog.TurnBaseID
	if base == 0 {
		base, err = c.store.NextIDBlock(store.SeqTurn, len(questions))
		if err != nil {
			return err
		}
		// Persist the base before the batch write so a retry reuses the same
		// identifier range instead of double-allocating.
		err = c.cache.RunBatch(ctx, func(b cache.Batch) {
			b.HSet(cache.ProgressKey(uid), map[string]interface{}{fieldTurnBaseID: base})
			b.Expire(cache.ProgressKey(uid), cache.ProgressTTL)
		})
		if err != nil {
			return err
		}
	}

	if !prog.TurnsWritten {
		now := time.Now()
		turns := make([]models.Turn, len(questions))
		for i := range questions {
			turns[i] = models.Turn{
				QAID:           base + int64(i),
				IID:            prog.SessionRecordID,
				UID:            uid,
				TurnIndex:      i,
				Question:       questions[i],
				Answer:         answers[i],
				TranscriptText: fmt.Sprintf("Q: %s\nA: %s", questions[i], answers[i]),
				CreatedAt:      now,
				UpdatedAt:      now,
			}
		}
		if err := c.store.CreateTurns(turns); err != nil {
			slog.Error("Interview.finalize: turn batch rejected", "error", err, "uid", uid)
			return err
		}
		err = c.cache.RunBatch(ctx, func(b cache.Batch) {
			b.HSet(cache.ProgressKey(uid), map[string]interface{}{fieldTurnsWritten: "1"})
			b.Expire(cache.ProgressKey(uid), cache.ProgressTTL)
		})
		if err != nil {
			return err
		}
		slog.Info("Interview.finalize: transcript committed", "uid", uid, "iid", prog.SessionRecordID, "turns", len(turns))
	} else {
		slog.Info("Interview.finalize: turns already written, resuming after retry", "uid", uid, "iid", prog.SessionRecordID)
	}

	sess, err := c.store.GetInterviewSession(prog.SessionRecordID)
	if err != nil {
		return err
	}
	if sess == nil {
		return fmt.Errorf("finalize session %d for user %d: %w", prog.SessionRecordID, uid, models.ErrNotFound)
	}
	now := time.Now()
	sess.Status = models.SessionStatusCompleted
	sess.EndedAt = &now
	sess.UpdatedAt = now
	if err := c.store.UpdateInterviewSession(*sess); err != nil {
		slog.Error("Interview.finalize: session status update rejected", "error", err, "uid", uid, "iid", prog.SessionRecordID)
		return err
	}

	if err := c.cache.Del(ctx, progressKeys(uid)...); err != nil {
		return fmt.Errorf("clear interview progress for %d: %w", uid, err)
	}
	slog.Info("Interview.finalize: interview completed", "uid", uid, "iid", prog.SessionRecordID)
	return nil
}
