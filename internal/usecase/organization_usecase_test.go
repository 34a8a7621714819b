package usecase

import (
	"context"
	"testing"

	"Aidmap-App/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOrganizationUseCase(f *userFixture) OrganizationUseCase {
	return NewOrganizationUseCase(&fakeTx{}, f.orgs, f.users, f.changelogs, f.activity, f.uc, testLogger)
}

func TestOrganizationCreateAndSearch(t *testing.T) {
	ctx := context.Background()
	f := newUserFixture(t)
	uc := newOrganizationUseCase(f)

	site := "https://help.example.org"
	org, err := uc.Create(ctx, &model.OrganizationBase{Name: "Helping Hands", Website: &site})
	require.NoError(t, err)
	assert.Equal(t, site, org.Website)
	assert.True(t, org.IsActive)

	_, err = uc.Create(ctx, &model.OrganizationBase{Name: "Helping Hands"})
	assert.Equal(t, "Organization exists", model.MessageOf(err, ""))

	found, err := uc.Search(ctx, "HELP")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Helping Hands", found[0].Name)

	list, err := uc.List(ctx, 1, 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Helping Hands", list[0].Name)

	list, err = uc.List(ctx, 2, 2)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestOrganizationAddWithLeaders(t *testing.T) {
	ctx := context.Background()
	f := newUserFixture(t)
	uc := newOrganizationUseCase(f)

	tokens, err := uc.AddWithLeaders(ctx, &model.OrganizationLeaderInvite{
		OrganizationBase: model.OrganizationBase{Name: "Relief"},
		Emails:           []string{"one@example.com", "two@example.com"},
	})
	require.NoError(t, err)
	assert.Len(t, tokens, 2)
	assert.NotEmpty(t, tokens["one@example.com"])

	leader, err := f.users.GetByEmail(ctx, "two@example.com")
	require.NoError(t, err)
	assert.Equal(t, model.RoleOrganizationalLeader, leader.Role)
	require.NotNil(t, leader.OrganizationID)
	assert.Len(t, f.mailer.sent, 2)

	_, err = uc.AddWithLeaders(ctx, &model.OrganizationLeaderInvite{OrganizationBase: model.OrganizationBase{Name: "Relief"}})
	assert.Equal(t, "Such organization already exists.", model.MessageOf(err, ""))
}

func TestOrganizationMembers(t *testing.T) {
	ctx := context.Background()
	lead := newUser(t, "lead@example.com", "p", model.RoleOrganizationalLeader)
	lead.OrganizationID = orgID(2)
	unconfirmed := newUser(t, "new@example.com", "p", model.RoleAidWorker)
	unconfirmed.EmailConfirmed = false
	f := newUserFixture(t, lead, newUser(t, "worker@example.com", "p", model.RoleAidWorker), unconfirmed)
	uc := newOrganizationUseCase(f)

	org, err := uc.AddMembers(ctx, 2, []string{"worker@example.com", "new@example.com", "ghost@example.com"})
	require.NoError(t, err)
	assert.Len(t, org.Participants, 2)

	_, err = uc.RemoveMember(ctx, 1, 2)
	assert.Equal(t, "This user does not belong to such organization", model.MessageOf(err, ""))

	org, err = uc.RemoveMember(ctx, 2, 2)
	require.NoError(t, err)
	assert.Len(t, org.Participants, 1)

	_, err = uc.AddMembers(ctx, 77, []string{"worker@example.com"})
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestOrganizationEdit(t *testing.T) {
	ctx := context.Background()
	lead := newUser(t, "lead@example.com", "p", model.RoleOrganizationalLeader)
	lead.OrganizationID = orgID(2)
	f := newUserFixture(t, lead)
	uc := newOrganizationUseCase(f)

	desc := "first aid"
	_, err := uc.Edit(ctx, lead, 1, &model.OrganizationBase{Description: &desc})
	assert.Equal(t, "Not permitted.", model.MessageOf(err, ""))

	org, err := uc.Edit(ctx, lead, 2, &model.OrganizationBase{Description: &desc})
	require.NoError(t, err)
	assert.Equal(t, "first aid", org.Description)
	assert.Equal(t, "Red Cross", org.Name)
}

func TestOrganizationToggleActivity(t *testing.T) {
	ctx := context.Background()
	admin := newUser(t, "admin@example.com", "p", model.RolePlatformAdministrator)
	member := newUser(t, "member@example.com", "p", model.RoleAidWorker)
	member.OrganizationID = orgID(2)
	f := newUserFixture(t, admin, member)
	uc := newOrganizationUseCase(f)
	require.NoError(t, f.changelogs.Create(ctx, &model.ChangeLog{SubmittedBy: &member.ID, IsVisible: true}))

	org, err := uc.ToggleActivity(ctx, admin, 2)
	require.NoError(t, err)
	assert.False(t, org.IsActive)
	require.Len(t, org.Participants, 1)
	assert.False(t, org.Participants[0].IsActive)
	assert.False(t, f.changelogs.items[0].IsVisible)
	require.Len(t, f.activity.items, 1)
	assert.Equal(t, model.ActivityOrganizationActivityToggled, f.activity.items[0].ActionType)

	org, err = uc.ToggleActivity(ctx, admin, 2)
	require.NoError(t, err)
	assert.True(t, org.IsActive)
	assert.True(t, org.Participants[0].IsActive)

	require.NoError(t, uc.Delete(ctx, 2))
	_, err = uc.Get(ctx, 2)
	assert.ErrorIs(t, err, model.ErrNotFound)
}
