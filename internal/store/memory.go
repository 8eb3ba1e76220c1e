// Package store provides storage backends for Hireloop.
//
// This file implements an in-memory store used by tests and as a fallback
// when no database is configured.
package store

import (
	"sort"
	"strings"
	"sync"

	"github.com/hireloop-ai/hireloop/internal/models"
)

// InMemoryStore is a mutex-guarded map-backed Store implementation.
type InMemoryStore struct {
	mu        sync.Mutex
	sequences map[string]int64
	users     map[int64]models.User
	sessions  map[int64]models.InterviewSession
	jobs      map[int64]models.JobDescription
	turns     []models.Turn
	results   map[int64]models.CombinedResult // keyed by iid
	plans     []models.PracticePlan
	tasks     []models.PracticeTask
	resumes   map[int64]models.Resume
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		sequences: make(map[string]int64),
		users:     make(map[int64]models.User),
		sessions:  make(map[int64]models.InterviewSession),
		jobs:      make(map[int64]models.JobDescription),
		results:   make(map[int64]models.CombinedResult),
		resumes:   make(map[int64]models.Resume),
	}
}

func (s *InMemoryStore) NextID(sequence string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sequences[sequence]++
	return s.sequences[sequence], nil
}

func (s *InMemoryStore) NextIDBlock(sequence string, n int) (int64, error) {
	if n < 1 {
		n = 1
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	first := s.sequences[sequence] + 1
	s.sequences[sequence] += int64(n)
	return first, nil
}

func (s *InMemoryStore) GetUser(uid int64) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[uid]; ok {
		return &u, nil
	}
	return nil, nil
}

func (s *InMemoryStore) GetUserByEmail(email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, nil
}

func (s *InMemoryStore) CreateUser(u models.User) error {
	if err := validateUser(u); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.UID] = u
	return nil
}

func (s *InMemoryStore) UpdateUser(u models.User) error {
	if err := validateUser(u); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.UID]; !ok {
		return &models.ValidationError{Record: "User", Criteria: []string{"user does not exist"}}
	}
	s.users[u.UID] = u
	return nil
}

func (s *InMemoryStore) CreateJobDescription(j models.JobDescription) error {
	if err := validateJobDescription(j); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[j.JID] = j
	return nil
}

func (s *InMemoryStore) CreateInterviewSession(sess models.InterviewSession) error {
	if err := validateInterviewSession(sess); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.IID] = sess
	return nil
}

func (s *InMemoryStore) UpdateInterviewSession(sess models.InterviewSession) error {
	if err := validateInterviewSession(sess); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sess.IID]; !ok {
		return &models.ValidationError{Record: "InterviewSession", Criteria: []string{"session does not exist"}}
	}
	s.sessions[sess.IID] = sess
	return nil
}

func (s *InMemoryStore) GetInterviewSession(iid int64) (*models.InterviewSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[iid]; ok {
		return &sess, nil
	}
	return nil, nil
}

func (s *InMemoryStore) ListInterviewSessionsByUser(uid int64) ([]models.InterviewSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.InterviewSession
	for _, sess := range s.sessions {
		if sess.UID == uid {
			out = append(out, sess)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemoryStore) CreateTurns(turns []models.Turn) error {
	for _, t := range turns {
		if err := validateTurn(t); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = append(s.turns, turns...)
	return nil
}

func (s *InMemoryStore) ListTurnsBySession(uid, iid int64) ([]models.Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Turn
	for _, t := range s.turns {
		if t.UID == uid && t.IID == iid {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TurnIndex < out[j].TurnIndex })
	return out, nil
}

func (s *InMemoryStore) ListTurnsByUser(uid int64) ([]models.Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Turn
	for _, t := range s.turns {
		if t.UID == uid {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].IID != out[j].IID {
			return out[i].IID < out[j].IID
		}
		return out[i].TurnIndex < out[j].TurnIndex
	})
	return out, nil
}

func (s *InMemoryStore) GetCombinedResultBySession(iid int64) (*models.CombinedResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.results[iid]; ok {
		return &r, nil
	}
	return nil, nil
}

// PutCombinedResult seeds an aggregate result. The evaluation pipeline that
// produces these lives outside this service; tests use this to stage data.
func (s *InMemoryStore) PutCombinedResult(r models.CombinedResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[r.IID] = r
}

func (s *InMemoryStore) ListPracticePlansBySession(iid int64) ([]models.PracticePlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.PracticePlan
	for _, p := range s.plans {
		if p.IID == iid {
			out = append(out, p)
		}
	}
	return out, nil
}

// PutPracticePlan seeds a practice plan. See PutCombinedResult.
func (s *InMemoryStore) PutPracticePlan(p models.PracticePlan) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plans = append(s.plans, p)
}

func (s *InMemoryStore) ListPracticeTasksByPlan(ppid int64) ([]models.PracticeTask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.PracticeTask
	for _, t := range s.tasks {
		if t.PPID == ppid {
			out = append(out, t)
		}
	}
	return out, nil
}

// PutPracticeTask seeds a practice task. See PutCombinedResult.
func (s *InMemoryStore) PutPracticeTask(t models.PracticeTask) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = append(s.tasks, t)
}

func (s *InMemoryStore) CreateResume(r models.Resume) error {
	if err := validateResume(r); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resumes[r.CVID] = r
	return nil
}

func (s *InMemoryStore) GetActiveResume(uid int64) (*models.Resume, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var latest *models.Resume
	for cvid, r := range s.resumes {
		if r.UID != uid || !r.Active {
			continue
		}
		if latest == nil || cvid > latest.CVID {
			r := r
			latest = &r
		}
	}
	return latest, nil
}

func (s *InMemoryStore) Close() error { return nil }
