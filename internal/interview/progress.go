// Package interview implements the session-scoped interview progress state
// machine: create-session, per-turn streaming with transcript buffering, and
// the finalize-on-completion protocol.
package interview

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/hireloop-ai/hireloop/internal/cache"
	"github.com/hireloop-ai/hireloop/internal/models"
)

// Hash fields of the cache-resident progress record.
const (
	fieldAgentSessionID  = "agent_session_id"
	fieldTurnPointer     = "turn_pointer"
	fieldSessionRecordID = "session_record_id"
	fieldJobRecordID     = "job_record_id"
	fieldTurnBaseID      = "turn_base_id"
	fieldTurnsWritten    = "turns_written"
)

// loadProgress reads the InterviewProgress hash for a user. The second return
// is false when no record exists.
func (c *Controller) loadProgress(ctx context.Context, uid int64) (*models.InterviewProgress, bool, error) {
	fields, err := c.cache.HGetAll(ctx, cache.ProgressKey(uid))
	if err != nil {
		return nil, false, fmt.Errorf("load interview progress for %d: %w", uid, err)
	}
	if len(fields) == 0 {
		return nil, false, nil
	}
	prog := &models.InterviewProgress{AgentSessionID: fields[fieldAgentSessionID]}
	if prog.TurnPointer, err = parseIntField(fields, fieldTurnPointer); err != nil {
		return nil, false, err
	}
	var n int
	if n, err = parseIntField(fields, fieldSessionRecordID); err != nil {
		return nil, false, err
	}
	prog.SessionRecordID = int64(n)
	if n, err = parseIntField(fields, fieldJobRecordID); err != nil {
		return nil, false, err
	}
	prog.JobRecordID = int64(n)
	if n, err = parseIntField(fields, fieldTurnBaseID); err != nil {
		return nil, false, err
	}
	prog.TurnBaseID = int64(n)
	prog.TurnsWritten = fields[fieldTurnsWritten] == "1"
	return prog, true, nil
}

// parseIntField parses an optional integer hash field; absent fields are zero.
func parseIntField(fields map[string]string, name string) (int, error) {
	raw, ok := fields[name]
	if !ok || raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: progress field %s = %q", models.ErrCorruptPayload, name, raw)
	}
	return n, nil
}

// progressKeys returns every cache key owned by one user's active interview.
func progressKeys(uid int64) []string {
	return []string{cache.ProgressKey(uid), cache.QuestionsKey(uid), cache.AnswersKey(uid)}
}

// identityLocks serializes controller operations per identity. Two concurrent
// send-message calls for the same user would otherwise race past the turn
// limit check. Entries are reference counted and pruned once the last holder
// releases, so the table stays bounded by the number of in-flight operations
// rather than the number of users ever seen.
type identityLocks struct {
	mu    sync.Mutex
	locks map[int64]*identityLock
}

type identityLock struct {
	parent *identityLocks
	uid    int64
	refs   int
	mu     sync.Mutex
}

// forUser blocks until the caller holds the identity's lock.
func (l *identityLocks) forUser(uid int64) *identityLock {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[int64]*identityLock)
	}
	il, ok := l.locks[uid]
	if !ok {
		il = &identityLock{parent: l, uid: uid}
		l.locks[uid] = il
	}
	il.refs++
	l.mu.Unlock()

	il.mu.Lock()
	return il
}

// Unlock releases the identity's lock and drops the table entry once no other
// holder is waiting on it.
func (il *identityLock) Unlock() {
	il.mu.Unlock()

	p := il.parent
	p.mu.Lock()
	il.refs--
	if il.refs == 0 {
		delete(p.locks, il.uid)
	}
	p.mu.Unlock()
}
