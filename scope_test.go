package auth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	auth "github.com/fractallabs/authkit"
)

func TestParseScope(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		want   auth.Scope
		wantOK bool
	}{
		{name: "user", raw: "user", want: auth.ScopeUser, wantOK: true},
		{name: "admin", raw: "admin", want: auth.ScopeAdmin, wantOK: true},
		{name: "one-time", raw: "one-time", want: auth.ScopeOneTime, wantOK: true},
		{name: "unknown", raw: "superuser", wantOK: false},
		{name: "empty", raw: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := auth.ParseScope(tt.raw)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestNewScopeSetDeduplicates(t *testing.T) {
	set := auth.NewScopeSet(auth.ScopeUser, auth.ScopeAdmin, auth.ScopeUser)
	assert.Len(t, set, 2)
	assert.True(t, set.Contains(auth.ScopeUser))
	assert.True(t, set.Contains(auth.ScopeAdmin))
}

func TestScopeSetEqual(t *testing.T) {
	tests := []struct {
		name string
		a    auth.ScopeSet
		b    auth.ScopeSet
		want bool
	}{
		{
			name: "same order",
			a:    auth.NewScopeSet(auth.ScopeAdmin, auth.ScopeUser),
			b:    auth.NewScopeSet(auth.ScopeAdmin, auth.ScopeUser),
			want: true,
		},
		{
			name: "different order",
			a:    auth.NewScopeSet(auth.ScopeAdmin, auth.ScopeUser),
			b:    auth.NewScopeSet(auth.ScopeUser, auth.ScopeAdmin),
			want: true,
		},
		{
			name: "subset is not equal",
			a:    auth.NewScopeSet(auth.ScopeAdmin, auth.ScopeUser),
			b:    auth.NewScopeSet(auth.ScopeUser),
			want: false,
		},
		{
			name: "disjoint",
			a:    auth.NewScopeSet(auth.ScopeUser),
			b:    auth.NewScopeSet(auth.ScopeOneTime),
			want: false,
		},
		{
			name: "both empty",
			a:    auth.NewScopeSet(),
			b:    auth.NewScopeSet(),
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Equal(tt.b))
			assert.Equal(t, tt.want, tt.b.Equal(tt.a))
		})
	}
}

func TestScopeSetIntersects(t *testing.T) {
	user := auth.NewScopeSet(auth.ScopeUser)
	adminUser := auth.NewScopeSet(auth.ScopeAdmin, auth.ScopeUser)
	oneTime := auth.NewScopeSet(auth.ScopeOneTime)

	assert.True(t, adminUser.Intersects(user))
	assert.True(t, user.Intersects(adminUser))
	assert.False(t, user.Intersects(oneTime))
	assert.False(t, auth.NewScopeSet().Intersects(user))
}

func TestScopeSetIsOneTime(t *testing.T) {
	assert.True(t, auth.NewScopeSet(auth.ScopeOneTime).IsOneTime())
	assert.False(t, auth.NewScopeSet(auth.ScopeUser).IsOneTime())
	assert.False(t, auth.NewScopeSet(auth.ScopeOneTime, auth.ScopeUser).IsOneTime())
	assert.False(t, auth.NewScopeSet().IsOneTime())
}

func TestScopeSetFromStringsKeepsUnknownTags(t *testing.T) {
	// tokens minted by an older build may carry scopes this build no longer
	// recognizes; the refresh comparison has to see them verbatim
	set := auth.ScopeSetFromStrings([]string{"user", "legacy-tag"})
	assert.Len(t, set, 2)
	assert.True(t, set.Equal(auth.ScopeSetFromStrings([]string{"legacy-tag", "user"})))
	assert.False(t, set.Equal(auth.NewScopeSet(auth.ScopeUser)))
}

func TestUserScopes(t *testing.T) {
	regular := &auth.User{}
	assert.True(t, regular.Scopes().Equal(auth.NewScopeSet(auth.ScopeUser)))

	admin := &auth.User{IsAdmin: true}
	assert.True(t, admin.Scopes().Equal(auth.NewScopeSet(auth.ScopeAdmin, auth.ScopeUser)))
}
