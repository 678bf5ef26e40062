package user

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ArthurDelaporte/CommunityFeed-Back/internal/apperr"
	"github.com/ArthurDelaporte/CommunityFeed-Back/internal/auth"
	"github.com/ArthurDelaporte/CommunityFeed-Back/internal/database/dbtest"
)

var fixedNow = time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)

func newProfileService(t *testing.T) (*ProfileService, *gorm.DB) {
	t.Helper()
	db := dbtest.Open(t, &User{}, &Profile{})
	svc := NewProfileService(db)
	svc.now = func() time.Time { return fixedNow }
	return svc, db
}

func TestSaveProfileCreatesUser(t *testing.T) {
	svc, _ := newProfileService(t)
	ctx := context.Background()

	t.Run("Business name makes a business account", func(t *testing.T) {
		u, err := svc.Save(ctx, auth.Principal{ID: "ext-biz", Email: "shop@example.com"}, ProfileInput{
			FirstName:    "  Ada ",
			LastName:     "Shop",
			BusinessName: "Ada's Bakery",
		})
		require.NoError(t, err)

		assert.Equal(t, KindBusiness, u.Kind)
		assert.Equal(t, "shop@example.com", u.Email)
		require.NotNil(t, u.Profile)
		assert.Equal(t, "Ada", u.Profile.FirstName)
		assert.Equal(t, "Ada's Bakery", *u.Profile.BusinessName)
	})

	t.Run("No business name makes a customer", func(t *testing.T) {
		u, err := svc.Save(ctx, auth.Principal{ID: "ext-cust"}, ProfileInput{FirstName: "Cy", LastName: "Buyer"})
		require.NoError(t, err)

		assert.Equal(t, KindCustomer, u.Kind)
		require.NotNil(t, u.Profile)
		assert.Nil(t, u.Profile.BusinessName)
	})
}

func TestSaveProfileKeepsAccountKind(t *testing.T) {
	svc, _ := newProfileService(t)
	ctx := context.Background()
	biz := auth.Principal{ID: "ext-biz"}
	cust := auth.Principal{ID: "ext-cust"}

	_, err := svc.Save(ctx, biz, ProfileInput{FirstName: "Ada", LastName: "Shop", BusinessName: "Bakery"})
	require.NoError(t, err)
	_, err = svc.Save(ctx, cust, ProfileInput{FirstName: "Cy", LastName: "Buyer"})
	require.NoError(t, err)

	t.Run("Business cannot clear its business name", func(t *testing.T) {
		_, err := svc.Save(ctx, biz, ProfileInput{FirstName: "Ada", LastName: "Shop"})
		assert.ErrorIs(t, err, apperr.ErrInvalidInput)
	})

	t.Run("Customer cannot become a business", func(t *testing.T) {
		_, err := svc.Save(ctx, cust, ProfileInput{FirstName: "Cy", LastName: "Buyer", BusinessName: "Side shop"})
		assert.ErrorIs(t, err, apperr.ErrInvalidInput)
		assert.Equal(t, "account type cannot be changed", apperr.PublicMessage(err))
	})

	t.Run("Business updates its profile", func(t *testing.T) {
		u, err := svc.Save(ctx, biz, ProfileInput{FirstName: "Ada", LastName: "Shop", BusinessName: "Bakery & Co", Bio: "Bread"})
		require.NoError(t, err)
		assert.Equal(t, KindBusiness, u.Kind)
		assert.Equal(t, "Bakery & Co", *u.Profile.BusinessName)
		assert.Equal(t, "Bread", u.Profile.Bio)
	})
}

func TestSaveProfileValidation(t *testing.T) {
	svc, db := newProfileService(t)

	tests := []struct {
		name    string
		input   ProfileInput
		message string
	}{
		{"Missing first name", ProfileInput{FirstName: "   ", LastName: "B"}, "firstName is required"},
		{"Missing last name", ProfileInput{FirstName: "A"}, "lastName is required"},
		{"Bio too long", ProfileInput{FirstName: "A", LastName: "B", Bio: strings.Repeat("é", 501)}, "bio must be at most 500 characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Save(context.Background(), auth.Principal{ID: "ext-1"}, tt.input)
			assert.ErrorIs(t, err, apperr.ErrInvalidInput)
			assert.Equal(t, tt.message, apperr.PublicMessage(err))
		})
	}

	var count int64
	require.NoError(t, db.Model(&User{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestSaveProfileConcurrentFirstSaves(t *testing.T) {
	svc, db := newProfileService(t)
	principal := auth.Principal{ID: "ext-race", Email: "race@example.com"}

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Save(context.Background(), principal, ProfileInput{FirstName: "R", LastName: "Ace"})
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}

	var users, profiles int64
	require.NoError(t, db.Model(&User{}).Where("external_id = ?", principal.ID).Count(&users).Error)
	require.NoError(t, db.Model(&Profile{}).Count(&profiles).Error)
	assert.Equal(t, int64(1), users)
	assert.Equal(t, int64(1), profiles)
}

func TestSaveProfileFillsMissingEmail(t *testing.T) {
	svc, _ := newProfileService(t)
	ctx := context.Background()

	_, err := svc.Save(ctx, auth.Principal{ID: "ext-1"}, ProfileInput{FirstName: "A", LastName: "B"})
	require.NoError(t, err)

	u, err := svc.Save(ctx, auth.Principal{ID: "ext-1", Email: "late@example.com"}, ProfileInput{FirstName: "A", LastName: "B"})
	require.NoError(t, err)
	assert.Equal(t, "late@example.com", u.Email)
}

func TestSetAvatar(t *testing.T) {
	svc, _ := newProfileService(t)
	ctx := context.Background()

	_, err := svc.SetAvatar(ctx, "missing", "https://b.s3.r.amazonaws.com/avatars/a.png")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	u, err := svc.Save(ctx, auth.Principal{ID: "ext-1"}, ProfileInput{FirstName: "A", LastName: "B"})
	require.NoError(t, err)

	previous, err := svc.SetAvatar(ctx, u.ID, "https://b.s3.r.amazonaws.com/avatars/one.png")
	require.NoError(t, err)
	assert.Empty(t, previous)

	previous, err = svc.SetAvatar(ctx, u.ID, "https://b.s3.r.amazonaws.com/avatars/two.png")
	require.NoError(t, err)
	assert.Equal(t, "https://b.s3.r.amazonaws.com/avatars/one.png", previous)
}
