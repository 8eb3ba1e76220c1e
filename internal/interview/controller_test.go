package interview

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/hireloop-ai/hireloop/internal/agent"
	"github.com/hireloop-ai/hireloop/internal/cache"
	"github.com/hireloop-ai/hireloop/internal/models"
	"github.com/hireloop-ai/hireloop/internal/store"
)

type fakeStream struct {
	chunks []string
	pos    int
	err    error
}

func (s *fakeStream) Next() bool {
	if s.pos >= len(s.chunks) {
		return false
	}
	s.pos++
	return true
}

func (s *fakeStream) Current() string { return s.chunks[s.pos-1] }
func (s *fakeStream) Err() error      { return s.err }
func (s *fakeStream) Close() error    { return nil }

// fakeProvider replays a fixed script of responses and records the prompts
// it received.
type fakeProvider struct {
	mu        sync.Mutex
	created   int
	responses []string
	prompts   []string
	streamErr error
}

func (p *fakeProvider) CreateSession(ctx context.Context, agentID, version string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.created++
	return fmt.Sprintf("agent-session-%d", p.created), nil
}

func (p *fakeProvider) StreamMessage(ctx context.Context, sessionID, text string) (agent.Stream, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prompts = append(p.prompts, text)
	if p.streamErr != nil {
		return &fakeStream{chunks: []string{"partial "}, err: p.streamErr}, nil
	}
	if len(p.responses) == 0 {
		return &fakeStream{chunks: []string{"question"}}, nil
	}
	resp := p.responses[0]
	p.responses = p.responses[1:]
	// Split into word chunks so tests exercise chunk accumulation.
	words := strings.SplitAfter(resp, " ")
	return &fakeStream{chunks: words}, nil
}

func (p *fakeProvider) promptCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.prompts)
}

func newTestController(t *testing.T, provider agent.Provider, opts ...Option) (*Controller, *cache.Client, *store.InMemoryStore) {
	t.Helper()
	mr := miniredis.RunT(t)
	kv := cache.NewClientFromRedis(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { kv.Close() })
	st := store.NewInMemoryStore()
	return NewController(st, kv, provider, opts...), kv, st
}

func seedUser(t *testing.T, st *store.InMemoryStore) int64 {
	t.Helper()
	uid, err := st.NextID(store.SeqUser)
	if err != nil {
		t.Fatalf("NextID: %v", err)
	}
	err = st.CreateUser(models.User{
		UID: uid, Name: "Test Candidate",
		Email:        fmt.Sprintf("user%d@example.com", uid),
		PasswordHash: "x", Role: models.RoleCandidate,
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return uid
}

func drain(t *testing.T, ms *MessageStream) string {
	t.Helper()
	var b strings.Builder
	for chunk := range ms.Chunks() {
		b.WriteString(chunk)
	}
	<-ms.Done()
	return b.String()
}

var testJob = models.JobDetails{Title: "Backend Engineer", Company: "Acme", Description: "Go services"}

func TestCreateSessionWritesRecordsAndProgress(t *testing.T) {
	provider := &fakeProvider{}
	c, _, st := newTestController(t, provider)
	uid := seedUser(t, st)
	ctx := context.Background()

	handle, err := c.CreateSession(ctx, uid, testJob)
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if handle == "" {
		t.Fatal("CreateSession returned empty handle")
	}

	prog, exists, err := c.loadProgress(ctx, uid)
	if err != nil || !exists {
		t.Fatalf("loadProgress = %v, exists %v", err, exists)
	}
	if prog.AgentSessionID != handle {
		t.Errorf("progress handle = %q, want %q", prog.AgentSessionID, handle)
	}
	if prog.TurnPointer != 0 {
		t.Errorf("turn pointer = %d, want 0", prog.TurnPointer)
	}
	if prog.SessionRecordID == 0 || prog.JobRecordID == 0 {
		t.Errorf("record ids not persisted: %+v", prog)
	}

	sess, err := st.GetInterviewSession(prog.SessionRecordID)
	if err != nil || sess == nil {
		t.Fatalf("GetInterviewSession = %v, %v", sess, err)
	}
	if sess.Status != models.SessionStatusStarted {
		t.Errorf("session status = %q, want %q", sess.Status, models.SessionStatusStarted)
	}
	if sess.JID != prog.JobRecordID {
		t.Errorf("session jid = %d, want %d", sess.JID, prog.JobRecordID)
	}
}

func TestCreateSessionUnknownUser(t *testing.T) {
	c, _, _ := newTestController(t, &fakeProvider{})
	if _, err := c.CreateSession(context.Background(), 404, testJob); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("CreateSession err = %v, want ErrNotFound", err)
	}
}

func TestCreateSessionResumesActiveInterview(t *testing.T) {
	provider := &fakeProvider{}
	c, kv, st := newTestController(t, provider)
	uid := seedUser(t, st)
	ctx := context.Background()

	first, err := c.CreateSession(ctx, uid, testJob)
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	ms, err := c.SendMessage(ctx, uid, models.StartSentinel)
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	drain(t, ms)

	second, err := c.CreateSession(ctx, uid, testJob)
	if err != nil {
		t.Fatalf("resume CreateSession: %v", err)
	}
	if second != first {
		t.Errorf("resume returned new handle %q, want %q", second, first)
	}
	if provider.created != 1 {
		t.Errorf("provider sessions created = %d, want 1", provider.created)
	}

	prog, _, err := c.loadProgress(ctx, uid)
	if err != nil {
		t.Fatalf("loadProgress: %v", err)
	}
	if prog.TurnPointer != 0 {
		t.Errorf("turn pointer after resume = %d, want 0", prog.TurnPointer)
	}
	qs, err := kv.LRange(ctx, cache.QuestionsKey(uid))
	if err != nil || len(qs) != 0 {
		t.Errorf("question buffer after resume = %v, %v; want empty", qs, err)
	}
}

func TestCreateSessionAdoptsOrphanedHandle(t *testing.T) {
	provider := &fakeProvider{}
	c, kv, st := newTestController(t, provider)
	uid := seedUser(t, st)
	ctx := context.Background()

	// A handle left behind by an attempt that died before the durable
	// records were written.
	err := kv.RunBatch(ctx, func(b cache.Batch) {
		b.HSet(cache.ProgressKey(uid), map[string]interface{}{
			fieldAgentSessionID: "orphan-handle",
			fieldTurnPointer:    0,
		})
	})
	if err != nil {
		t.Fatalf("seed progress: %v", err)
	}

	handle, err := c.CreateSession(ctx, uid, testJob)
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if handle != "orphan-handle" {
		t.Errorf("handle = %q, want adopted orphan-handle", handle)
	}
	if provider.created != 0 {
		t.Errorf("provider sessions created = %d, want 0", provider.created)
	}
	prog, _, err := c.loadProgress(ctx, uid)
	if err != nil {
		t.Fatalf("loadProgress: %v", err)
	}
	if prog.SessionRecordID == 0 {
		t.Error("record ids not attached to adopted progress")
	}
}

func TestSendMessageWithoutSession(t *testing.T) {
	c, _, _ := newTestController(t, &fakeProvider{})
	if _, err := c.SendMessage(context.Background(), 7, "hello"); !errors.Is(err, models.ErrNoActiveSession) {
		t.Fatalf("SendMessage err = %v, want ErrNoActiveSession", err)
	}
}

func TestSendMessageAdvancesTurnPointer(t *testing.T) {
	provider := &fakeProvider{responses: []string{"Tell me about yourself.", "Why Go?", "Describe a hard bug."}}
	c, kv, st := newTestController(t, provider)
	uid := seedUser(t, st)
	ctx := context.Background()

	if _, err := c.CreateSession(ctx, uid, testJob); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	inputs := []string{models.StartSentinel, "I build Go services.", "Static binaries."}
	for i, text := range inputs {
		ms, err := c.SendMessage(ctx, uid, text)
		if err != nil {
			t.Fatalf("SendMessage %d: %v", i, err)
		}
		got := drain(t, ms)
		if err := ms.Err(); err != nil {
			t.Fatalf("stream %d err: %v", i, err)
		}
		if got == "" {
			t.Fatalf("stream %d was empty", i)
		}
		prog, _, err := c.loadProgress(ctx, uid)
		if err != nil {
			t.Fatalf("loadProgress: %v", err)
		}
		if prog.TurnPointer != i+1 {
			t.Errorf("turn pointer after call %d = %d, want %d", i+1, prog.TurnPointer, i+1)
		}
	}

	qs, err := kv.LRange(ctx, cache.QuestionsKey(uid))
	if err != nil {
		t.Fatalf("LRange questions: %v", err)
	}
	as, err := kv.LRange(ctx, cache.AnswersKey(uid))
	if err != nil {
		t.Fatalf("LRange answers: %v", err)
	}
	if len(qs) != 3 {
		t.Errorf("question buffer length = %d, want 3", len(qs))
	}
	// The start sentinel is never recorded as an answer, so answers trail
	// questions by one until the final turn.
	if len(as) != 2 {
		t.Errorf("answer buffer length = %d, want 2", len(as))
	}
	if as[0] != "I build Go services." {
		t.Errorf("first recorded answer = %q", as[0])
	}
}

func TestClientDisconnectStillRecordsTurn(t *testing.T) {
	// Long enough that the chunk channel fills after the client is gone.
	question := strings.Repeat("Walk me through the incident and what you changed afterwards. ", 10) + "Go on."
	provider := &fakeProvider{responses: []string{"Hello, first question?", question}}
	c, kv, st := newTestController(t, provider)
	uid := seedUser(t, st)
	ctx := context.Background()

	if _, err := c.CreateSession(ctx, uid, testJob); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	ms, err := c.SendMessage(ctx, uid, models.StartSentinel)
	if err != nil {
		t.Fatalf("SendMessage start: %v", err)
	}
	drain(t, ms)

	reqCtx, cancel := context.WithCancel(context.Background())
	ms, err = c.SendMessage(reqCtx, uid, "We shipped a fix within the hour.")
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	// The client vanishes without ever reading the stream.
	cancel()
	<-ms.Done()
	if err := ms.Err(); err != nil {
		t.Fatalf("stream err after disconnect: %v", err)
	}

	prog, _, err := c.loadProgress(ctx, uid)
	if err != nil {
		t.Fatalf("loadProgress: %v", err)
	}
	if prog.TurnPointer != 2 {
		t.Errorf("turn pointer after disconnect = %d, want 2", prog.TurnPointer)
	}
	qs, err := kv.LRange(ctx, cache.QuestionsKey(uid))
	if err != nil {
		t.Fatalf("LRange questions: %v", err)
	}
	if len(qs) != 2 {
		t.Fatalf("question buffer length = %d, want 2", len(qs))
	}
	if qs[1] != question {
		t.Errorf("buffered question truncated: got %d bytes, want %d", len(qs[1]), len(question))
	}
	as, err := kv.LRange(ctx, cache.AnswersKey(uid))
	if err != nil {
		t.Fatalf("LRange answers: %v", err)
	}
	if len(as) != 1 || as[0] != "We shipped a fix within the hour." {
		t.Errorf("answer buffer = %v", as)
	}
}

func TestStartSentinelTranslatedForProvider(t *testing.T) {
	provider := &fakeProvider{}
	c, _, st := newTestController(t, provider)
	uid := seedUser(t, st)
	ctx := context.Background()

	if _, err := c.CreateSession(ctx, uid, testJob); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	ms, err := c.SendMessage(ctx, uid, models.StartSentinel)
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	drain(t, ms)

	if len(provider.prompts) != 1 {
		t.Fatalf("provider prompts = %v", provider.prompts)
	}
	if provider.prompts[0] == models.StartSentinel {
		t.Error("start sentinel was forwarded to the provider verbatim")
	}
}

func TestStreamErrorSkipsBookkeeping(t *testing.T) {
	provider := &fakeProvider{streamErr: errors.New("upstream reset")}
	c, kv, st := newTestController(t, provider)
	uid := seedUser(t, st)
	ctx := context.Background()

	if _, err := c.CreateSession(ctx, uid, testJob); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	ms, err := c.SendMessage(ctx, uid, models.StartSentinel)
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	drain(t, ms)
	if ms.Err() == nil {
		t.Fatal("stream error was not surfaced")
	}

	prog, _, err := c.loadProgress(ctx, uid)
	if err != nil {
		t.Fatalf("loadProgress: %v", err)
	}
	if prog.TurnPointer != 0 {
		t.Errorf("turn pointer advanced to %d on a failed stream", prog.TurnPointer)
	}
	qs, err := kv.LRange(ctx, cache.QuestionsKey(uid))
	if err != nil || len(qs) != 0 {
		t.Errorf("question buffer after failed stream = %v, %v; want empty", qs, err)
	}
}

// runInterview drives a full interview of limit turns and returns the final
// sentinel stream, already drained.
func runInterview(t *testing.T, c *Controller, uid int64, limit int) *MessageStream {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < limit; i++ {
		text := fmt.Sprintf("answer %d", i)
		if i == 0 {
			text = models.StartSentinel
		}
		ms, err := c.SendMessage(ctx, uid, text)
		if err != nil {
			t.Fatalf("SendMessage %d: %v", i, err)
		}
		drain(t, ms)
		if err := ms.Err(); err != nil {
			t.Fatalf("turn %d: %v", i, err)
		}
	}
	ms, err := c.SendMessage(ctx, uid, fmt.Sprintf("answer %d", limit))
	if err != nil {
		t.Fatalf("final SendMessage: %v", err)
	}
	got := drain(t, ms)
	if got != models.EndInterviewSentinel {
		t.Fatalf("final stream = %q, want end sentinel", got)
	}
	return ms
}

func TestInterviewCompletesAtTurnLimit(t *testing.T) {
	const limit = 3
	provider := &fakeProvider{}
	c, kv, st := newTestController(t, provider, WithTurnLimit(limit))
	uid := seedUser(t, st)
	ctx := context.Background()

	if _, err := c.CreateSession(ctx, uid, testJob); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	prog, _, err := c.loadProgress(ctx, uid)
	if err != nil {
		t.Fatalf("loadProgress: %v", err)
	}
	iid := prog.SessionRecordID

	ms := runInterview(t, c, uid, limit)
	if err := ms.Err(); err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if provider.promptCount() != limit {
		t.Errorf("provider calls = %d, want %d", provider.promptCount(), limit)
	}

	turns, err := st.ListTurnsBySession(uid, iid)
	if err != nil {
		t.Fatalf("ListTurnsBySession: %v", err)
	}
	if len(turns) != limit {
		t.Fatalf("turns written = %d, want %d", len(turns), limit)
	}
	for i, turn := range turns {
		if turn.TurnIndex != i {
			t.Errorf("turn %d index = %d", i, turn.TurnIndex)
		}
		if turn.Question == "" || turn.Answer == "" {
			t.Errorf("turn %d incomplete: %+v", i, turn)
		}
	}
	if turns[1].QAID != turns[0].QAID+1 {
		t.Errorf("turn ids not consecutive: %d, %d", turns[0].QAID, turns[1].QAID)
	}

	sess, err := st.GetInterviewSession(iid)
	if err != nil || sess == nil {
		t.Fatalf("GetInterviewSession = %v, %v", sess, err)
	}
	if sess.Status != models.SessionStatusCompleted {
		t.Errorf("session status = %q, want completed", sess.Status)
	}
	if sess.EndedAt == nil {
		t.Error("completed session has no ended_at")
	}

	for _, key := range progressKeys(uid) {
		fields, err := kv.HGetAll(context.Background(), key)
		if err != nil {
			t.Fatalf("HGetAll %s: %v", key, err)
		}
		if len(fields) != 0 {
			t.Errorf("progress key %s survived finalize", key)
		}
	}
}

func TestNewSessionAfterCompletion(t *testing.T) {
	const limit = 2
	provider := &fakeProvider{}
	c, _, st := newTestController(t, provider, WithTurnLimit(limit))
	uid := seedUser(t, st)
	ctx := context.Background()

	if _, err := c.CreateSession(ctx, uid, testJob); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	ms := runInterview(t, c, uid, limit)
	if err := ms.Err(); err != nil {
		t.Fatalf("finalize: %v", err)
	}

	// The progress record is gone, so the next create opens a fresh
	// provider session and new durable records.
	handle, err := c.CreateSession(ctx, uid, testJob)
	if err != nil {
		t.Fatalf("second CreateSession: %v", err)
	}
	if handle == "" {
		t.Fatal("second CreateSession returned empty handle")
	}
	if provider.created != 2 {
		t.Errorf("provider sessions created = %d, want 2", provider.created)
	}
	sessions, err := st.ListInterviewSessionsByUser(uid)
	if err != nil {
		t.Fatalf("ListInterviewSessionsByUser: %v", err)
	}
	if len(sessions) != 2 {
		t.Errorf("sessions = %d, want 2", len(sessions))
	}
}
