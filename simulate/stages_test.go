package simulate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		user User
		want []string
	}{
		{"both fail", User{Email: "bad", Age: 10}, []string{MsgInvalidEmail, MsgUnderage}},
		{"valid", User{Email: "a@b.com", Age: 30}, []string{}},
		{"underage only", User{Email: "a@b.com", Age: 10}, []string{MsgUnderage}},
		{"email only", User{Email: "a@b", Age: 18}, []string{MsgInvalidEmail}},
		{"whitespace in email", User{Email: "a b@c.com", Age: 40}, []string{MsgInvalidEmail}},
		{"exactly 18", User{Email: "x@y.org", Age: 18}, []string{}},
		{"no-break space in email", User{Email: "a\u00a0b@c.com", Age: 30}, []string{MsgInvalidEmail}},
		{"line separator in email", User{Email: "a@b\u2028c.com", Age: 30}, []string{MsgInvalidEmail}},
		{"byte order mark in email", User{Email: "\ufeffa@b.com", Age: 30}, []string{MsgInvalidEmail}},
		{"vertical tab in email", User{Email: "a@b.c\vom", Age: 30}, []string{MsgInvalidEmail}},
		{"non-ASCII letters allowed", User{Email: "jos\u00e9@b\u00fccher.de", Age: 30}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Validate(tt.user)
			require.Equal(t, tt.want, got.Errors)
			assert.Equal(t, len(tt.want) == 0, got.Valid())
		})
	}
}

func TestProcessRegion(t *testing.T) {
	tests := map[string]string{
		"US":   "GDPR Not Required",
		"EU":   "GDPR Required",
		"Asia": "APAC Policy",
		"Mars": "Generic",
		"":     "Generic",
	}
	for region, want := range tests {
		got := ProcessRegion(User{Name: "Sam", Region: region})
		assert.Equal(t, want, got.RegionPolicy, region)
		assert.Equal(t, "Sam", got.Name)
	}
}

func TestSendEmail(t *testing.T) {
	got := SendEmail(ProcessRegion(User{Name: "Jamie", Region: "EU"}))
	assert.Equal(t, "Dear Jamie,\nWelcome to our EU community!", got.WelcomeMessage)
	assert.Equal(t, "GDPR Required", got.RegionPolicy)
}

func TestHandleError(t *testing.T) {
	v := Validate(User{Email: "bad", Age: 30})
	got := HandleError(User{Name: "Alex"}, v)
	assert.Equal(t, FailedAtValidation, got.FailedAt)
	assert.Equal(t, []string{MsgInvalidEmail}, got.Validation.Errors)
}

func TestRandomUsers_Deterministic(t *testing.T) {
	a := NewRandomUsers(42, nil)
	b := NewRandomUsers(42, nil)

	for i := 0; i < 50; i++ {
		ua, ub := a.Next(), b.Next()
		require.Equal(t, ua.Name, ub.Name)
		require.Equal(t, ua.Email, ub.Email)
		require.Equal(t, ua.Age, ub.Age)
		require.Equal(t, ua.Region, ub.Region)
		require.GreaterOrEqual(t, ua.Age, 10)
		require.Less(t, ua.Age, 43)
		require.Contains(t, userRegions, ua.Region)
	}
}

func TestFixedUsers_WrapsAround(t *testing.T) {
	src := NewFixedUsers(User{Name: "a"}, User{Name: "b"})
	assert.Equal(t, "a", src.Next().Name)
	assert.Equal(t, "b", src.Next().Name)
	assert.Equal(t, "a", src.Next().Name)

	assert.Equal(t, User{}, NewFixedUsers().Next())
}
