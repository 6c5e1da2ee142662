package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"
)

// MemoryCacheTestSuite defines the test suite for the in-process cache
type MemoryCacheTestSuite struct {
	suite.Suite
	cache *Memory
	ctx   context.Context
}

// SetupTest runs before each test
func (suite *MemoryCacheTestSuite) SetupTest() {
	suite.cache = NewMemory()
	suite.ctx = context.Background()
}

func (suite *MemoryCacheTestSuite) TestGetMissAndHit() {
	key := Key(1, EntityContacts, "page=1")

	var dest []string
	hit, err := suite.cache.GetJSON(suite.ctx, key, &dest)
	suite.NoError(err)
	suite.False(hit)

	suite.NoError(suite.cache.SetJSON(suite.ctx, 1, key, []string{"a", "b"}, EntityContacts))

	hit, err = suite.cache.GetJSON(suite.ctx, key, &dest)
	suite.NoError(err)
	suite.True(hit)
	suite.Equal([]string{"a", "b"}, dest)
}

func (suite *MemoryCacheTestSuite) TestInvalidateDropsOnlyRegisteredKeys() {
	contactKey := Key(1, EntityContacts, "all")
	taskKey := Key(1, EntityTasks, "all")
	suite.Require().NoError(suite.cache.SetJSON(suite.ctx, 1, contactKey, 1, EntityContacts))
	suite.Require().NoError(suite.cache.SetJSON(suite.ctx, 1, taskKey, 2, EntityTasks))

	suite.NoError(suite.cache.Invalidate(suite.ctx, 1, EntityContacts))

	var dest int
	hit, err := suite.cache.GetJSON(suite.ctx, contactKey, &dest)
	suite.NoError(err)
	suite.False(hit)

	hit, err = suite.cache.GetJSON(suite.ctx, taskKey, &dest)
	suite.NoError(err)
	suite.True(hit)
	suite.Equal(1, suite.cache.Len())
}

func (suite *MemoryCacheTestSuite) TestQueryReadingTwoEntitiesDropsOnEither() {
	key := Key(1, EntityDeals, "board")
	suite.Require().NoError(suite.cache.SetJSON(suite.ctx, 1, key, "columns",
		EntityDeals, EntityPipelineStages))

	suite.NoError(suite.cache.Invalidate(suite.ctx, 1, EntityPipelineStages))

	var dest string
	hit, err := suite.cache.GetJSON(suite.ctx, key, &dest)
	suite.NoError(err)
	suite.False(hit)
}

func (suite *MemoryCacheTestSuite) TestInvalidationIsTenantScoped() {
	a := Key(1, EntityContacts, "all")
	b := Key(2, EntityContacts, "all")
	suite.Require().NoError(suite.cache.SetJSON(suite.ctx, 1, a, "one", EntityContacts))
	suite.Require().NoError(suite.cache.SetJSON(suite.ctx, 2, b, "two", EntityContacts))

	suite.NoError(suite.cache.Invalidate(suite.ctx, 1, EntityContacts))

	var dest string
	hit, err := suite.cache.GetJSON(suite.ctx, b, &dest)
	suite.NoError(err)
	suite.True(hit)
	suite.Equal("two", dest)
}

func (suite *MemoryCacheTestSuite) TestKeyIsStableAndFilterSensitive() {
	type filter struct {
		Page   int
		Search string
	}

	suite.Equal(
		Key(1, EntityItems, filter{1, "barn"}),
		Key(1, EntityItems, filter{1, "barn"}),
	)
	suite.NotEqual(
		Key(1, EntityItems, filter{1, "barn"}),
		Key(1, EntityItems, filter{2, "barn"}),
	)
	suite.NotEqual(
		Key(1, EntityItems, filter{1, "barn"}),
		Key(2, EntityItems, filter{1, "barn"}),
	)
}

func (suite *MemoryCacheTestSuite) TestKeyHashesPointerFieldsByValue() {
	type filter struct {
		BusinessID uint64
		Type       *string
		Page       int
	}
	newType := func(v string) *string { return &v }

	// Separately allocated pointers to equal values share a key.
	suite.Equal(
		Key(1, EntityContacts, filter{BusinessID: 1, Type: newType("client"), Page: 1}),
		Key(1, EntityContacts, filter{BusinessID: 1, Type: newType("client"), Page: 1}),
	)

	suite.NotEqual(
		Key(1, EntityContacts, filter{BusinessID: 1, Type: newType("client"), Page: 1}),
		Key(1, EntityContacts, filter{BusinessID: 1, Type: newType("vendor"), Page: 1}),
	)
	suite.NotEqual(
		Key(1, EntityContacts, filter{BusinessID: 1, Type: newType("client"), Page: 1}),
		Key(1, EntityContacts, filter{BusinessID: 1, Page: 1}),
	)
}

func TestMemoryCacheTestSuite(t *testing.T) {
	suite.Run(t, new(MemoryCacheTestSuite))
}
