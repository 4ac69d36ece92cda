package members

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"memberhub/internal/models"
	"memberhub/internal/webhook"

	"golang.org/x/sync/errgroup"
)

// Refresh replaces the local collection with the webhook's member list. On
// failure the local collection is left untouched.
func (s *Service) Refresh(ctx context.Context) ([]models.Member, Outcome, error) {
	const op = "members.Refresh"

	resp, outcome := s.call(ctx, webhook.ActionFetchAllMembers, struct{}{})
	if !outcome.Confirmed() {
		s.warn(&outcome, "Could not load members from the webhook, showing local data")
		members, err := s.store.List(ctx)
		if err != nil {
			return nil, outcome, fmt.Errorf("%s: %w", op, err)
		}
		return members, outcome, nil
	}

	incoming := s.withIDs(resp.Members)
	if err := s.store.ReplaceAll(ctx, incoming); err != nil {
		return nil, outcome, fmt.Errorf("%s: %w", op, err)
	}
	members, err := s.store.List(ctx)
	if err != nil {
		return nil, outcome, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("members refreshed", slog.Int("count", len(members)))
	return members, outcome, nil
}

// Details fetches one member's full record, falling back to the local copy.
func (s *Service) Details(ctx context.Context, id models.ID) (*models.Member, Outcome, error) {
	const op = "members.Details"

	resp, outcome := s.call(ctx, webhook.ActionFetchMemberDetails, map[string]models.ID{"id": id})
	if outcome.Confirmed() && resp.Member != nil {
		m := resp.Member.Flatten()
		if m.ID == "" {
			m.ID = id
		}
		return &m, outcome, nil
	}
	if outcome.Confirmed() {
		outcome = Outcome{Path: PathLocalFallback, RemoteErr: errors.New("webhook returned no member")}
	}
	s.warn(&outcome, "Showing locally stored details")

	m, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, outcome, fmt.Errorf("%s: %w", op, err)
	}
	return m, outcome, nil
}

// FetchAllDetailed loads the member list and then every member's details
// with bounded concurrency. A failed detail keeps the basic record; a failed
// list falls back to the local collection. Order follows the list.
func (s *Service) FetchAllDetailed(ctx context.Context) ([]models.Member, Outcome, error) {
	const op = "members.FetchAllDetailed"

	resp, outcome := s.call(ctx, webhook.ActionFetchAllMembers, struct{}{})
	if !outcome.Confirmed() {
		s.warn(&outcome, "Could not load members from the webhook, using local data")
		members, err := s.store.List(ctx)
		if err != nil {
			return nil, outcome, fmt.Errorf("%s: %w", op, err)
		}
		return members, outcome, nil
	}

	basic := s.withIDs(resp.Members)
	detailed := make([]models.Member, len(basic))
	var failed atomic.Int32

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i := range basic {
		i := i
		g.Go(func() error {
			detailed[i] = basic[i]
			detailed[i].Normalize()

			r, o := s.call(gctx, webhook.ActionFetchMemberDetails, map[string]models.ID{"id": basic[i].ID})
			if !o.Confirmed() || r.Member == nil {
				failed.Add(1)
				return nil
			}
			m := r.Member.Flatten()
			if m.ID == "" {
				m.ID = basic[i].ID
			}
			detailed[i] = m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, outcome, fmt.Errorf("%s: %w", op, err)
	}

	if n := failed.Load(); n > 0 {
		s.log.Warn("some member details unavailable, using basic records", slog.Int("failed", int(n)))
		outcome.Warning = fmt.Sprintf("Details unavailable for %d members, basic records used", n)
	}
	return detailed, outcome, nil
}

// withIDs gives members the webhook sent without an id a local one.
func (s *Service) withIDs(members []models.Member) []models.Member {
	out := make([]models.Member, len(members))
	for i, m := range members {
		if m.ID == "" {
			m.ID = s.newID()
			s.log.Warn("webhook sent a member without id", slog.String("assigned", m.ID.String()))
		}
		out[i] = m
	}
	return out
}
