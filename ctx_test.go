package taskapi_test

import (
	"context"
	"testing"

	taskapi "github.com/goliatone/go-taskapi"
	"github.com/stretchr/testify/assert"
)

func TestAuthContextHelpers(t *testing.T) {
	claims := &taskapi.JWTClaims{UserRole: taskapi.RoleAdmin, Uname: "pepe"}
	ac := &taskapi.AuthContext{Claims: claims}

	t.Run("round trip", func(t *testing.T) {
		ctx := taskapi.WithAuthContext(context.Background(), ac)

		got, ok := taskapi.AuthFromContext(ctx)
		assert.True(t, ok)
		assert.Same(t, ac, got)
	})

	t.Run("absent means anonymous", func(t *testing.T) {
		got, ok := taskapi.AuthFromContext(context.Background())
		assert.False(t, ok)
		assert.Nil(t, got)
	})

	t.Run("authorities", func(t *testing.T) {
		assert.Equal(t, []string{taskapi.RoleAdmin}, ac.Authorities())
		assert.True(t, ac.HasAuthority(taskapi.RoleAdmin))
		assert.False(t, ac.HasAuthority(taskapi.RoleUser))
	})

	t.Run("nil receiver is safe", func(t *testing.T) {
		var empty *taskapi.AuthContext
		assert.Nil(t, empty.Authorities())
		assert.False(t, empty.HasAuthority(taskapi.RoleAdmin))
	})
}

func TestClaimsContextHelpers(t *testing.T) {
	claims := &taskapi.JWTClaims{Uname: "pepe"}

	ctx := taskapi.WithClaimsContext(context.Background(), claims)

	got, ok := taskapi.GetClaims(ctx)
	assert.True(t, ok)
	assert.Equal(t, "pepe", got.Username())

	_, ok = taskapi.GetClaims(context.Background())
	assert.False(t, ok)
}
