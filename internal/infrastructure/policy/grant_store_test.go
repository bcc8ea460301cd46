package policy

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/tidecat/tidecat/internal/domain/models"
	"github.com/tidecat/tidecat/pkg/constants"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &Grant{}, &Metastore{}))
	return db
}

func TestGrantIsIdempotent(t *testing.T) {
	store := NewGrantStore(testDB(t))
	principalID, resourceID := uuid.New(), uuid.New()

	for i := 0; i < 3; i++ {
		require.NoError(t, store.Grant(context.Background(), principalID, resourceID, constants.PrivilegeOwner))
	}

	var count int64
	require.NoError(t, store.db.Model(&Grant{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	granted, err := store.Authorize(context.Background(), principalID, resourceID, constants.PrivilegeOwner)
	require.NoError(t, err)
	assert.True(t, granted)
}

func TestAuthorizeMatchesExactTuple(t *testing.T) {
	store := NewGrantStore(testDB(t))
	principalID, resourceID := uuid.New(), uuid.New()
	require.NoError(t, store.Grant(context.Background(), principalID, resourceID, constants.PrivilegeOwner))

	granted, err := store.Authorize(context.Background(), uuid.New(), resourceID, constants.PrivilegeOwner)
	require.NoError(t, err)
	assert.False(t, granted)

	granted, err = store.Authorize(context.Background(), principalID, uuid.New(), constants.PrivilegeOwner)
	require.NoError(t, err)
	assert.False(t, granted)

	granted, err = store.Authorize(context.Background(), principalID, resourceID, constants.Privilege("SELECT"))
	require.NoError(t, err)
	assert.False(t, granted)
}

func TestMetastoreSingleton(t *testing.T) {
	db := testDB(t)
	store := NewMetastoreStore(db)

	first, err := store.MetastoreID(context.Background())
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, first)

	second, err := store.MetastoreID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// A separate store over the same database resolves the same row.
	other := NewMetastoreStore(db)
	third, err := other.MetastoreID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, third)
}
