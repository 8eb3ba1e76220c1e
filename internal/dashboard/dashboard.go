// Package dashboard serves the read-heavy aggregate views over the record
// store, fronted by the key-value cache.
//
// Every read follows the same contract: serve from cache when a valid
// payload exists; treat a corrupt payload as a miss (delete the key, log,
// recompute); on a miss, compute from the record store and write back with a
// bounded TTL. A user with no sessions yields a valid empty aggregate, and a
// session whose combined result has not been computed yet is served without
// it rather than erroring.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/hireloop-ai/hireloop/internal/cache"
	"github.com/hireloop-ai/hireloop/internal/models"
	"github.com/hireloop-ai/hireloop/internal/store"
)

// Service computes and caches the aggregate views.
type Service struct {
	store store.Store
	cache *cache.Client
}

// NewService creates a dashboard service over the given collaborators.
func NewService(st store.Store, kv *cache.Client) *Service {
	return &Service{store: st, cache: kv}
}

// lookup reads and decodes a cached aggregate. A missing key is a miss; a
// corrupt payload is deleted and reported as a miss so the caller recomputes.
func (s *Service) lookup(ctx context.Context, key string, v interface{}) (bool, error) {
	payload, err := s.cache.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("read cache key %s: %w", key, err)
	}
	if payload == "" {
		return false, nil
	}
	if err := cache.Decode(payload, v); err != nil {
		if errors.Is(err, models.ErrCorruptPayload) {
			slog.Warn("Dashboard.lookup: corrupt cache payload, recomputing", "key", key, "error", err)
			if derr := s.cache.Del(ctx, key); derr != nil {
				return false, fmt.Errorf("drop corrupt cache key %s: %w", key, derr)
			}
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// writeBack stores a computed aggregate. A write-back failure is logged, not
// surfaced: the caller already has the data.
func (s *Service) writeBack(ctx context.Context, key string, v interface{}, ttl time.Duration) {
	payload, err := cache.Encode(v)
	if err != nil {
		slog.Error("Dashboard.writeBack: encode failed", "key", key, "error", err)
		return
	}
	if err := s.cache.Set(ctx, key, payload, ttl); err != nil {
		slog.Error("Dashboard.writeBack: cache write failed", "key", key, "error", err)
	}
}

// GetDashboard returns the dashboard aggregate: the user's most recent
// session with its combined result and linked practice artifacts.
func (s *Service) GetDashboard(ctx context.Context, uid int64) (*models.DashboardView, error) {
	key := cache.DashboardKey(uid)
	var view models.DashboardView
	if hit, err := s.lookup(ctx, key, &view); err != nil {
		return nil, err
	} else if hit {
		return &view, nil
	}

	sessions, err := s.store.ListInterviewSessionsByUser(uid)
	if err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		s.writeBack(ctx, key, &view, cache.DashboardTTL)
		return &view, nil
	}

	latest := sessions[len(sessions)-1]
	view.InterviewSession = &latest
	view.CombinedResult, err = s.store.GetCombinedResultBySession(latest.IID)
	if err != nil {
		return nil, err
	}
	view.PracticePlans, view.PracticeTasks, err = s.practiceArtifacts(latest.IID)
	if err != nil {
		return nil, err
	}

	s.writeBack(ctx, key, &view, cache.DashboardTTL)
	slog.Debug("Dashboard.GetDashboard: recomputed", "uid", uid, "iid", latest.IID)
	return &view, nil
}

// GetAllInterviewRuns returns every session of the user with its results and
// practice artifacts.
func (s *Service) GetAllInterviewRuns(ctx context.Context, uid int64) (*models.InterviewRunsView, error) {
	key := cache.InterviewRunsKey(uid)
	var view models.InterviewRunsView
	if hit, err := s.lookup(ctx, key, &view); err != nil {
		return nil, err
	} else if hit {
		return &view, nil
	}

	sessions, err := s.store.ListInterviewSessionsByUser(uid)
	if err != nil {
		return nil, err
	}
	view.InterviewSessions = sessions
	for _, sess := range sessions {
		result, err := s.store.GetCombinedResultBySession(sess.IID)
		if err != nil {
			return nil, err
		}
		if result != nil {
			view.CombinedResults = append(view.CombinedResults, *result)
		}
		plans, tasks, err := s.practiceArtifacts(sess.IID)
		if err != nil {
			return nil, err
		}
		view.PracticePlans = append(view.PracticePlans, plans...)
		view.PracticeTasks = append(view.PracticeTasks, tasks...)
	}

	s.writeBack(ctx, key, &view, cache.InterviewRunsTTL)
	slog.Debug("Dashboard.GetAllInterviewRuns: recomputed", "uid", uid, "sessions", len(sessions))
	return &view, nil
}

// GetTurnsBySession returns the stored turns of one session, oldest first.
func (s *Service) GetTurnsBySession(ctx context.Context, uid, iid int64) ([]models.Turn, error) {
	key := cache.TurnsKey(uid, iid)
	var turns []models.Turn
	if hit, err := s.lookup(ctx, key, &turns); err != nil {
		return nil, err
	} else if hit {
		return turns, nil
	}

	turns, err := s.store.ListTurnsBySession(uid, iid)
	if err != nil {
		return nil, err
	}
	s.writeBack(ctx, key, turns, cache.TurnsTTL)
	return turns, nil
}

// GetAllTurns returns every stored turn of the user across sessions.
func (s *Service) GetAllTurns(ctx context.Context, uid int64) ([]models.Turn, error) {
	key := cache.AllTurnsKey(uid)
	var turns []models.Turn
	if hit, err := s.lookup(ctx, key, &turns); err != nil {
		return nil, err
	} else if hit {
		return turns, nil
	}

	turns, err := s.store.ListTurnsByUser(uid)
	if err != nil {
		return nil, err
	}
	s.writeBack(ctx, key, turns, cache.TurnsTTL)
	return turns, nil
}

// GetQnABySession returns the question/answer pairs of one session. The
// cached unit is the whole per-user map, so one recompute serves every
// session the user asks about within the TTL.
func (s *Service) GetQnABySession(ctx context.Context, uid, iid int64) ([]models.QnAPair, error) {
	key := cache.QnAKey(uid)
	bySession := make(map[string][]models.QnAPair)
	hit, err := s.lookup(ctx, key, &bySession)
	if err != nil {
		return nil, err
	}
	if !hit {
		turns, err := s.store.ListTurnsByUser(uid)
		if err != nil {
			return nil, err
		}
		for _, t := range turns {
			k := strconv.FormatInt(t.IID, 10)
			bySession[k] = append(bySession[k], models.QnAPair{
				TurnIndex: t.TurnIndex,
				Question:  t.Question,
				Answer:    t.Answer,
			})
		}
		s.writeBack(ctx, key, bySession, cache.QnATTL)
	}
	return bySession[strconv.FormatInt(iid, 10)], nil
}

// GetPracticeDetails returns the practice plans and tasks linked to the
// user's most recent session.
func (s *Service) GetPracticeDetails(ctx context.Context, uid int64) ([]models.PracticePlan, []models.PracticeTask, error) {
	view, err := s.GetDashboard(ctx, uid)
	if err != nil {
		return nil, nil, err
	}
	return view.PracticePlans, view.PracticeTasks, nil
}

// practiceArtifacts loads the plans of a session and the tasks of each plan.
func (s *Service) practiceArtifacts(iid int64) ([]models.PracticePlan, []models.PracticeTask, error) {
	plans, err := s.store.ListPracticePlansBySession(iid)
	if err != nil {
		return nil, nil, err
	}
	var tasks []models.PracticeTask
	for _, plan := range plans {
		pt, err := s.store.ListPracticeTasksByPlan(plan.PPID)
		if err != nil {
			return nil, nil, err
		}
		tasks = append(tasks, pt...)
	}
	return plans, tasks, nil
}
