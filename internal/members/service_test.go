package members

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"memberhub/internal/database"
	"memberhub/internal/models"
	"memberhub/internal/store"
	"memberhub/internal/webhook"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type handlerFunc func(data interface{}) (*webhook.Response, error)

type fakeRemote struct {
	mu       sync.Mutex
	handlers map[webhook.Action]handlerFunc
	calls    []webhook.Action
	pingErr  error
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{handlers: map[webhook.Action]handlerFunc{}}
}

func (f *fakeRemote) on(action webhook.Action, h handlerFunc) {
	f.handlers[action] = h
}

func (f *fakeRemote) Call(_ context.Context, action webhook.Action, data interface{}) (*webhook.Response, error) {
	f.mu.Lock()
	f.calls = append(f.calls, action)
	h := f.handlers[action]
	f.mu.Unlock()
	if h == nil {
		return nil, webhook.ErrNotConfigured
	}
	return h(data)
}

func (f *fakeRemote) Ping(context.Context) error { return f.pingErr }

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *recordingNotifier) Notify(level, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, level+": "+message)
}

func newTestService(t *testing.T, remote Remote) (*Service, *recordingNotifier) {
	t.Helper()
	notifier := &recordingNotifier{}
	s := NewService(remote, store.New(database.NewTestDB(t)), WithNotifier(notifier), WithConcurrency(2))
	n := 0
	s.newID = func() models.ID {
		n++
		return models.ID(fmt.Sprintf("local-%d", n))
	}
	return s, notifier
}

func johnForm() models.Form {
	return models.Form{
		FirstName:         "John",
		LastName:          "Doe",
		DOB:               "1990-05-15",
		FamilyStatus:      models.FamilyHere,
		ChurchJoiningDate: "2024-01-15",
		PrimaryPhone:      "+1234567890",
		IsEmployed:        true,
		Profession:        "Software Engineer",
	}
}

func TestCreate_RemoteConfirmed(t *testing.T) {
	remote := newFakeRemote()
	remote.on(webhook.ActionCreateMember, func(data interface{}) (*webhook.Response, error) {
		payload, ok := data.(models.Payload)
		require.True(t, ok)
		assert.Equal(t, "John", payload.Member.FirstName)
		return &webhook.Response{Success: true, MemberID: "42"}, nil
	})
	s, notifier := newTestService(t, remote)
	ctx := context.Background()

	m, outcome, err := s.Create(ctx, johnForm())
	require.NoError(t, err)
	assert.Equal(t, PathRemoteConfirmed, outcome.Path)
	assert.Empty(t, outcome.Warning)
	assert.Equal(t, models.ID("42"), m.ID)
	assert.Empty(t, notifier.messages)

	stored, err := s.Store().Get(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, "Software Engineer", stored.Profession())

	logs, err := s.Store().SyncLogs(ctx, 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "CREATE_MEMBER", logs[0].Action)
	assert.True(t, logs[0].Success)
}

func TestCreate_FallbackOnFailure(t *testing.T) {
	tests := []struct {
		name    string
		handler handlerFunc
	}{
		{"not configured", nil},
		{"http error", func(interface{}) (*webhook.Response, error) {
			return nil, &webhook.StatusError{StatusCode: 500, Status: "500 Internal Server Error"}
		}},
		{"rejected", func(interface{}) (*webhook.Response, error) {
			return &webhook.Response{Success: false, Message: "duplicate"}, nil
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			remote := newFakeRemote()
			if tt.handler != nil {
				remote.on(webhook.ActionCreateMember, tt.handler)
			}
			s, notifier := newTestService(t, remote)
			ctx := context.Background()

			m, outcome, err := s.Create(ctx, johnForm())
			require.NoError(t, err)
			assert.Equal(t, PathLocalFallback, outcome.Path)
			assert.Error(t, outcome.RemoteErr)
			assert.NotEmpty(t, outcome.Warning)
			assert.Equal(t, models.ID("local-1"), m.ID)
			require.Len(t, notifier.messages, 1)
			assert.Contains(t, notifier.messages[0], "warning: Member saved locally only")

			n, err := s.Store().Count(ctx)
			require.NoError(t, err)
			assert.Equal(t, int64(1), n)

			logs, err := s.Store().SyncLogs(ctx, 10)
			require.NoError(t, err)
			require.Len(t, logs, 1)
			assert.Equal(t, string(PathLocalFallback), logs[0].Path)
			assert.False(t, logs[0].Success)
		})
	}
}

func TestCreate_RejectedMessage(t *testing.T) {
	remote := newFakeRemote()
	remote.on(webhook.ActionCreateMember, func(interface{}) (*webhook.Response, error) {
		return &webhook.Response{Success: false, Message: "duplicate"}, nil
	})
	s, _ := newTestService(t, remote)

	_, outcome, err := s.Create(context.Background(), johnForm())
	require.NoError(t, err)
	assert.ErrorIs(t, outcome.RemoteErr, ErrRejected)
	assert.Contains(t, outcome.Warning, "duplicate")
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("fallback replaces local copy", func(t *testing.T) {
		s, _ := newTestService(t, newFakeRemote())
		m, _, err := s.Create(ctx, johnForm())
		require.NoError(t, err)

		form := johnForm()
		form.FirstName = "Johnny"
		updated, outcome, err := s.Update(ctx, m.ID, form)
		require.NoError(t, err)
		assert.Equal(t, PathLocalFallback, outcome.Path)
		assert.Equal(t, "Johnny", updated.FirstName)

		stored, err := s.Store().Get(ctx, m.ID)
		require.NoError(t, err)
		assert.Equal(t, "Johnny", stored.FirstName)
	})

	t.Run("keeps family relationships", func(t *testing.T) {
		remote := newFakeRemote()
		remote.on(webhook.ActionUpdateMember, func(data interface{}) (*webhook.Response, error) {
			assert.Empty(t, data.(models.Payload).Relationships)
			return &webhook.Response{Success: true}, nil
		})
		s, _ := newTestService(t, remote)

		form := johnForm()
		form.IsMarried = true
		form.Spouse = &models.PartialMember{FirstName: "Jane", LastName: "Doe"}
		m, _, err := s.Create(ctx, form)
		require.NoError(t, err)
		require.Len(t, m.Relationships, 1)

		_, outcome, err := s.Update(ctx, m.ID, johnForm())
		require.NoError(t, err)
		assert.True(t, outcome.Confirmed())

		stored, err := s.Store().Get(ctx, m.ID)
		require.NoError(t, err)
		require.Len(t, stored.Relationships, 1)
		assert.Equal(t, "Spouse", stored.Relationships[0].RelationshipType)
		assert.Equal(t, "Jane", stored.Relationships[0].RelatedMember.FirstName)
	})

	t.Run("fallback on unknown member", func(t *testing.T) {
		s, _ := newTestService(t, newFakeRemote())
		_, _, err := s.Update(ctx, "missing", johnForm())
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("confirmed inserts unknown member", func(t *testing.T) {
		remote := newFakeRemote()
		remote.on(webhook.ActionUpdateMember, func(data interface{}) (*webhook.Response, error) {
			assert.Equal(t, models.ID("7"), data.(models.Payload).ID)
			return &webhook.Response{Success: true}, nil
		})
		s, _ := newTestService(t, remote)

		_, outcome, err := s.Update(ctx, "7", johnForm())
		require.NoError(t, err)
		assert.True(t, outcome.Confirmed())
		_, err = s.Store().Get(ctx, "7")
		assert.NoError(t, err)
	})
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	remote := newFakeRemote()
	remote.on(webhook.ActionCreateMember, func(interface{}) (*webhook.Response, error) {
		return &webhook.Response{Success: true, MemberID: "1"}, nil
	})
	remote.on(webhook.ActionDeleteMember, func(data interface{}) (*webhook.Response, error) {
		assert.Equal(t, map[string]models.ID{"id": "1"}, data)
		return &webhook.Response{Success: true}, nil
	})
	s, _ := newTestService(t, remote)

	_, _, err := s.Create(ctx, johnForm())
	require.NoError(t, err)

	outcome, err := s.Delete(ctx, "1")
	require.NoError(t, err)
	assert.True(t, outcome.Confirmed())
	_, err = s.Store().Get(ctx, "1")
	assert.ErrorIs(t, err, store.ErrNotFound)

	outcome, err = s.Delete(ctx, "1")
	require.NoError(t, err, "remote confirmed a member already gone locally")
	assert.True(t, outcome.Confirmed())

	offline, _ := newTestService(t, newFakeRemote())
	_, err = offline.Delete(ctx, "nope")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRefresh(t *testing.T) {
	ctx := context.Background()

	t.Run("replaces collection", func(t *testing.T) {
		remote := newFakeRemote()
		remote.on(webhook.ActionFetchAllMembers, func(interface{}) (*webhook.Response, error) {
			return &webhook.Response{Success: true, Members: []models.Member{
				{ID: "1", Profile: models.Profile{FirstName: "John", LastName: "Doe"}},
				{Profile: models.Profile{FirstName: "No", LastName: "Id"}},
			}}, nil
		})
		s, _ := newTestService(t, remote)

		members, outcome, err := s.Refresh(ctx)
		require.NoError(t, err)
		assert.True(t, outcome.Confirmed())
		require.Len(t, members, 2)
		assert.Equal(t, models.ID("1"), members[0].ID)
		assert.Equal(t, models.ID("local-1"), members[1].ID)
	})

	t.Run("failure keeps collection and notifies", func(t *testing.T) {
		s, notifier := newTestService(t, newFakeRemote())
		_, _, err := s.Create(ctx, johnForm())
		require.NoError(t, err)
		before, err := s.Store().List(ctx)
		require.NoError(t, err)

		members, outcome, err := s.Refresh(ctx)
		require.NoError(t, err)
		assert.Equal(t, PathLocalFallback, outcome.Path)
		assert.Equal(t, before, members)
		require.Len(t, notifier.messages, 2)
		assert.Contains(t, notifier.messages[1], "showing local data")
	})
}

func TestDetails(t *testing.T) {
	ctx := context.Background()

	remote := newFakeRemote()
	remote.on(webhook.ActionFetchMemberDetails, func(data interface{}) (*webhook.Response, error) {
		id := data.(map[string]models.ID)["id"]
		if id != "1" {
			return nil, errors.New("timeout")
		}
		return &webhook.Response{Success: true, Member: &models.DetailedMember{
			Member:       models.Member{Profile: models.Profile{FirstName: "John"}},
			PhoneNumbers: map[string]string{models.PhoneWhatsApp: "+2", models.PhonePrimary: "+1"},
			Family: []models.FamilyRelationship{
				{RelationshipType: "Spouse", RelatedMember: &models.PartialMember{FirstName: "Jane"}},
			},
		}}, nil
	})
	s, _ := newTestService(t, remote)

	m, outcome, err := s.Details(ctx, "1")
	require.NoError(t, err)
	assert.True(t, outcome.Confirmed())
	assert.Equal(t, models.ID("1"), m.ID)
	require.Len(t, m.Phones, 2)
	assert.Equal(t, models.PhonePrimary, m.Phones[0].PhoneType)
	require.Len(t, m.Relationships, 1)

	local := johnForm().Member("2")
	require.NoError(t, s.Store().Add(ctx, &local))
	m, outcome, err = s.Details(ctx, "2")
	require.NoError(t, err)
	assert.Equal(t, PathLocalFallback, outcome.Path)
	assert.Equal(t, "John", m.FirstName)

	_, _, err = s.Details(ctx, "3")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestFetchAllDetailed(t *testing.T) {
	ctx := context.Background()

	remote := newFakeRemote()
	remote.on(webhook.ActionFetchAllMembers, func(interface{}) (*webhook.Response, error) {
		members := make([]models.Member, 6)
		for i := range members {
			members[i] = models.Member{ID: models.ID(fmt.Sprint(i + 1)), Profile: models.Profile{FirstName: "Basic"}}
		}
		return &webhook.Response{Success: true, Members: members}, nil
	})
	remote.on(webhook.ActionFetchMemberDetails, func(data interface{}) (*webhook.Response, error) {
		id := data.(map[string]models.ID)["id"]
		if id == "3" {
			return nil, errors.New("boom")
		}
		return &webhook.Response{Success: true, Member: &models.DetailedMember{
			Member: models.Member{ID: id, Profile: models.Profile{FirstName: "Detailed"}},
		}}, nil
	})
	s, _ := newTestService(t, remote)

	members, outcome, err := s.FetchAllDetailed(ctx)
	require.NoError(t, err)
	assert.True(t, outcome.Confirmed())
	assert.Contains(t, outcome.Warning, "1 members")
	require.Len(t, members, 6)
	for i, m := range members {
		assert.Equal(t, models.ID(fmt.Sprint(i+1)), m.ID)
		if m.ID == "3" {
			assert.Equal(t, "Basic", m.FirstName)
		} else {
			assert.Equal(t, "Detailed", m.FirstName)
		}
	}

	offline, _ := newTestService(t, newFakeRemote())
	members, outcome, err = offline.FetchAllDetailed(ctx)
	require.NoError(t, err)
	assert.Equal(t, PathLocalFallback, outcome.Path)
	assert.Empty(t, members)
}

func TestBulkCreate(t *testing.T) {
	ctx := context.Background()

	remote := newFakeRemote()
	remote.on(webhook.ActionBulkCreateMembers, func(data interface{}) (*webhook.Response, error) {
		payloads := data.(map[string]interface{})["members"].([]models.Payload)
		assert.Len(t, payloads, 3)
		return &webhook.Response{Success: true, Created: []models.ID{"10", "11"}}, nil
	})
	s, _ := newTestService(t, remote)

	forms := []models.Form{johnForm(), johnForm(), johnForm()}
	created, outcome, err := s.BulkCreate(ctx, forms)
	require.NoError(t, err)
	assert.True(t, outcome.Confirmed())
	require.Len(t, created, 3)
	assert.Equal(t, models.ID("10"), created[0].ID)
	assert.Equal(t, models.ID("11"), created[1].ID)
	assert.Equal(t, models.ID("local-1"), created[2].ID)
}

func TestPing(t *testing.T) {
	ctx := context.Background()
	remote := newFakeRemote()
	s, _ := newTestService(t, remote)

	require.NoError(t, s.Ping(ctx))
	remote.pingErr = webhook.ErrNotConfigured
	assert.ErrorIs(t, s.Ping(ctx), webhook.ErrNotConfigured)

	logs, err := s.Store().SyncLogs(ctx, 10)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "failed", logs[0].Path)
}
