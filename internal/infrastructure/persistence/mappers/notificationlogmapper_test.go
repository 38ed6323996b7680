package mappers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orris-inc/paysync/internal/domain/notification"
)

func TestNotificationLogMapper_Body(t *testing.T) {
	m := NewNotificationLogMapper()

	model, err := m.ToModel(&notification.Log{Outcome: notification.OutcomeIgnored, Body: []byte(`{"type":"payment"}`)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"payment"}`, string(model.Body))

	model, err = m.ToModel(&notification.Log{Outcome: notification.OutcomeIgnored, Body: []byte(`not json`)})
	require.NoError(t, err)
	assert.JSONEq(t, `"not json"`, string(model.Body))

	model, err = m.ToModel(&notification.Log{Outcome: notification.OutcomeIgnored, Query: map[string][]string{"topic": {"payment"}}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"topic":["payment"]}`, string(model.Query))

	back, err := m.ToEntity(model)
	require.NoError(t, err)
	assert.Equal(t, []string{"payment"}, back.Query["topic"])
}
