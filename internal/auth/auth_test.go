package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harshvardhansingh3000/flower-inventory/internal/flowers"
)

func TestTokenRoundTrip(t *testing.T) {
	s := &Service{Secret: []byte("test-secret"), TokenTTL: time.Hour}

	token, err := s.IssueToken(7, flowers.RoleManager)
	require.NoError(t, err)

	actor, err := s.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), actor.ID)
	assert.Equal(t, flowers.RoleManager, actor.Role)
}

func TestVerifyTokenRejections(t *testing.T) {
	s := &Service{Secret: []byte("test-secret"), TokenTTL: time.Hour}

	_, err := s.VerifyToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	// signed with a different secret
	other := &Service{Secret: []byte("other-secret"), TokenTTL: time.Hour}
	token, err := other.IssueToken(7, flowers.RoleStaff)
	require.NoError(t, err)
	_, err = s.VerifyToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	// expired
	expired := &Service{Secret: []byte("test-secret"), TokenTTL: -time.Minute}
	token, err = expired.IssueToken(7, flowers.RoleStaff)
	require.NoError(t, err)
	_, err = s.VerifyToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	// role not in the enum
	token, err = s.IssueToken(7, flowers.Role("root"))
	require.NoError(t, err)
	_, err = s.VerifyToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
