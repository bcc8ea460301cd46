package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidecat/tidecat/internal/domain/models"
	"github.com/tidecat/tidecat/pkg/constants"
	"github.com/tidecat/tidecat/pkg/logger"
)

type grantKey struct {
	principalID uuid.UUID
	resourceID  uuid.UUID
	privilege   constants.Privilege
}

// fakeAuthorizer records grants in memory.
type fakeAuthorizer struct {
	grants     map[grantKey]int
	failGrants bool
}

func newFakeAuthorizer() *fakeAuthorizer {
	return &fakeAuthorizer{grants: make(map[grantKey]int)}
}

func (a *fakeAuthorizer) Authorize(_ context.Context, principalID, resourceID uuid.UUID, privilege constants.Privilege) (bool, error) {
	return a.grants[grantKey{principalID, resourceID, privilege}] > 0, nil
}

func (a *fakeAuthorizer) Grant(_ context.Context, principalID, resourceID uuid.UUID, privilege constants.Privilege) error {
	if a.failGrants {
		return fmt.Errorf("grant store unavailable")
	}
	a.grants[grantKey{principalID, resourceID, privilege}]++
	return nil
}

type fakeMetastore struct {
	id   uuid.UUID
	fail bool
}

func (m *fakeMetastore) MetastoreID(context.Context) (uuid.UUID, error) {
	if m.fail {
		return uuid.Nil, fmt.Errorf("metastore unavailable")
	}
	return m.id, nil
}

func newBootstrapFixture(emails, domains []string) (*BootstrapService, *fakeAuthorizer, *fakeMetastore) {
	authorizer := newFakeAuthorizer()
	metastore := &fakeMetastore{id: uuid.New()}
	svc := NewBootstrapService(authorizer, metastore, emails, domains, logger.NewNoopLogger())
	return svc, authorizer, metastore
}

func TestAllowlistExactEmailMatchIsCaseInsensitive(t *testing.T) {
	svc, _, _ := newBootstrapFixture([]string{"  Admin@Example.COM "}, nil)

	assert.True(t, svc.IsAllowlisted("admin@example.com"))
	assert.True(t, svc.IsAllowlisted("ADMIN@EXAMPLE.COM"))
	assert.True(t, svc.IsAllowlisted("  admin@example.com  "))
	assert.False(t, svc.IsAllowlisted("other@example.com"))
	assert.False(t, svc.IsAllowlisted(""))
}

func TestAllowlistDomainMatchesWholeDomainOnly(t *testing.T) {
	svc, _, _ := newBootstrapFixture(nil, []string{" @Example.com "})

	assert.True(t, svc.IsAllowlisted("anyone@example.com"))
	assert.True(t, svc.IsAllowlisted("ANYONE@EXAMPLE.COM"))

	// Subdomains and lookalike suffixes do not match.
	assert.False(t, svc.IsAllowlisted("anyone@sub.example.com"))
	assert.False(t, svc.IsAllowlisted("anyone@notexample.com"))
	assert.False(t, svc.IsAllowlisted("example.com"))
}

func TestAllowlistDomainEntriesRequireLeadingAt(t *testing.T) {
	// A bare domain is not a valid entry and must be ignored, never treated
	// as a match-nothing or match-everything pattern.
	svc, _, _ := newBootstrapFixture(nil, []string{"example.com"})
	assert.False(t, svc.IsAllowlisted("anyone@example.com"))

	// Valid entries alongside an invalid one still work.
	svc, _, _ = newBootstrapFixture(nil, []string{"example.com", "@corp.example"})
	assert.False(t, svc.IsAllowlisted("anyone@example.com"))
	assert.True(t, svc.IsAllowlisted("anyone@corp.example"))
}

func TestAllowlistEmptyListsGrantNothing(t *testing.T) {
	svc, authorizer, _ := newBootstrapFixture(nil, nil)

	user := &models.User{ID: uuid.New(), Email: "anyone@example.com", State: models.UserStateEnabled}
	svc.GrantIfAllowlisted(context.Background(), user)

	assert.Empty(t, authorizer.grants)
}

func TestGrantIfAllowlisted(t *testing.T) {
	svc, authorizer, metastore := newBootstrapFixture([]string{"admin@example.com"}, nil)

	admin := &models.User{ID: uuid.New(), Email: "admin@example.com", State: models.UserStateEnabled}
	other := &models.User{ID: uuid.New(), Email: "other@example.com", State: models.UserStateEnabled}

	svc.GrantIfAllowlisted(context.Background(), admin)
	svc.GrantIfAllowlisted(context.Background(), other)

	granted, err := authorizer.Authorize(context.Background(), admin.ID, metastore.id, constants.PrivilegeOwner)
	require.NoError(t, err)
	assert.True(t, granted)

	granted, err = authorizer.Authorize(context.Background(), other.ID, metastore.id, constants.PrivilegeOwner)
	require.NoError(t, err)
	assert.False(t, granted)
}

func TestGrantFailuresAreSwallowed(t *testing.T) {
	user := &models.User{ID: uuid.New(), Email: "admin@example.com", State: models.UserStateEnabled}

	svc, authorizer, _ := newBootstrapFixture([]string{"admin@example.com"}, nil)
	authorizer.failGrants = true
	assert.NotPanics(t, func() { svc.GrantIfAllowlisted(context.Background(), user) })

	svc, authorizer, metastore := newBootstrapFixture([]string{"admin@example.com"}, nil)
	metastore.fail = true
	assert.NotPanics(t, func() { svc.GrantIfAllowlisted(context.Background(), user) })
	assert.Empty(t, authorizer.grants)
}
