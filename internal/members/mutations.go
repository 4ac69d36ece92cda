package members

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"memberhub/internal/models"
	"memberhub/internal/store"
	"memberhub/internal/webhook"
)

// Create sends the form to the webhook and stores the member under the id
// it returns, or under a fresh local id when the webhook is unavailable.
func (s *Service) Create(ctx context.Context, form models.Form) (*models.Member, Outcome, error) {
	const op = "members.Create"

	resp, outcome := s.call(ctx, webhook.ActionCreateMember, form.Payload())

	id := s.newID()
	if outcome.Confirmed() && resp.MemberID != "" {
		id = resp.MemberID
	}
	if !outcome.Confirmed() {
		s.warn(&outcome, "Member saved locally only: webhook unavailable")
	}

	m := form.Member(id)
	err := s.store.Add(ctx, &m)
	if errors.Is(err, store.ErrExists) {
		err = s.store.Replace(ctx, &m)
	}
	if err != nil {
		return nil, outcome, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("member created", slog.String("id", id.String()), slog.String("path", string(outcome.Path)))
	return &m, outcome, nil
}

// Update replaces a member. The local copy is overwritten either way; a
// member missing locally is inserted only when the webhook confirmed it.
// Family relationships are kept from the stored record.
func (s *Service) Update(ctx context.Context, id models.ID, form models.Form) (*models.Member, Outcome, error) {
	const op = "members.Update"

	_, outcome := s.call(ctx, webhook.ActionUpdateMember, form.UpdatePayload(id))

	m := form.Member(id)
	m.Relationships = nil
	existing, err := s.store.Get(ctx, id)
	switch {
	case err == nil:
		m.Relationships = existing.Relationships
		err = s.store.Replace(ctx, &m)
	case errors.Is(err, store.ErrNotFound) && outcome.Confirmed():
		err = s.store.Add(ctx, &m)
	}
	if err != nil {
		return nil, outcome, fmt.Errorf("%s: %w", op, err)
	}

	if !outcome.Confirmed() {
		s.warn(&outcome, "Member updated locally only: webhook unavailable")
	}
	return &m, outcome, nil
}

// Delete removes a member remotely and locally.
func (s *Service) Delete(ctx context.Context, id models.ID) (Outcome, error) {
	const op = "members.Delete"

	_, outcome := s.call(ctx, webhook.ActionDeleteMember, map[string]models.ID{"id": id})

	err := s.store.Delete(ctx, id)
	if errors.Is(err, store.ErrNotFound) && outcome.Confirmed() {
		err = nil
	}
	if err != nil {
		return outcome, fmt.Errorf("%s: %w", op, err)
	}

	if !outcome.Confirmed() {
		s.warn(&outcome, "Member deleted locally only: webhook unavailable")
	}
	return outcome, nil
}

// BulkCreate sends every form in one BULK_CREATE_MEMBERS call. Ids returned
// by the webhook are matched by position; members without one get a local id.
func (s *Service) BulkCreate(ctx context.Context, forms []models.Form) ([]models.Member, Outcome, error) {
	const op = "members.BulkCreate"

	payloads := make([]models.Payload, len(forms))
	for i, f := range forms {
		payloads[i] = f.Payload()
	}
	resp, outcome := s.call(ctx, webhook.ActionBulkCreateMembers, map[string]interface{}{"members": payloads})
	if !outcome.Confirmed() {
		s.warn(&outcome, fmt.Sprintf("%d members saved locally only: webhook unavailable", len(forms)))
	}

	created := make([]models.Member, 0, len(forms))
	for i, f := range forms {
		id := s.newID()
		if outcome.Confirmed() && i < len(resp.Created) && resp.Created[i] != "" {
			id = resp.Created[i]
		}
		m := f.Member(id)
		if err := s.store.Add(ctx, &m); err != nil {
			return created, outcome, fmt.Errorf("%s: row %d: %w", op, i+1, err)
		}
		created = append(created, m)
	}
	return created, outcome, nil
}
