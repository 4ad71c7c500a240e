package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alfredoptarigan/candidate-screener/internal/models"
)

func TestSessionSigner_RoundTrip(t *testing.T) {
	signer := NewSessionSigner("secret", time.Hour)
	candidateID := uuid.New()
	session := &models.InterviewSession{ID: uuid.New(), CandidateID: &candidateID}

	token, err := signer.Issue(session)
	require.NoError(t, err)

	id, err := signer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, session.ID, id)
}

func TestSessionSigner_Rejects(t *testing.T) {
	session := &models.InterviewSession{ID: uuid.New()}

	token, err := NewSessionSigner("other-secret", time.Hour).Issue(session)
	require.NoError(t, err)
	_, err = NewSessionSigner("secret", time.Hour).Verify(token)
	assert.Error(t, err, "wrong key")

	expired, err := NewSessionSigner("secret", -time.Minute).Issue(session)
	require.NoError(t, err)
	_, err = NewSessionSigner("secret", time.Hour).Verify(expired)
	assert.Error(t, err, "expired")

	_, err = NewSessionSigner("secret", time.Hour).Verify("")
	assert.Error(t, err)
}
