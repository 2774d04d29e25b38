package resource

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntervalFromConfig(t *testing.T) {
	assert.Equal(t, 15*time.Second, NewResourceManager(nil).heartbeatInterval)
	assert.Equal(t, 2*time.Minute, NewResourceManager(map[string]interface{}{"heartbeat_interval": "2m"}).heartbeatInterval)
	assert.Equal(t, 30*time.Second, NewResourceManager(map[string]interface{}{"heartbeat_interval": 30}).heartbeatInterval)
	assert.Equal(t, 15*time.Second, NewResourceManager(map[string]interface{}{"heartbeat_interval": "soon"}).heartbeatInterval)
}

func TestHealth(t *testing.T) {
	rm := NewResourceManager(nil)
	var dbErr error
	rm.AddResource("pgx", func(context.Context) error { return nil })
	rm.AddResource("sql", func(context.Context) error { return dbErr })

	ok, details := rm.Health()
	assert.False(t, ok, "unchecked resources are not healthy")
	assert.Len(t, details, 2)

	rm.CheckNow()
	ok, details = rm.Health()
	assert.True(t, ok)
	assert.Equal(t, true, details["sql"].(map[string]interface{})["healthy"])

	dbErr = errors.New("connection refused")
	rm.CheckNow()
	ok, details = rm.Health()
	assert.False(t, ok)
	sqlState := details["sql"].(map[string]interface{})
	assert.Equal(t, false, sqlState["healthy"])
	assert.Equal(t, "connection refused", sqlState["error"])

	rm.RemoveResource("sql")
	ok, _ = rm.Health()
	assert.True(t, ok)
	keys := rm.ListResources()
	sort.Strings(keys)
	assert.Equal(t, []string{"pgx"}, keys)
}

func TestStartStop(t *testing.T) {
	rm := NewResourceManager(map[string]interface{}{"heartbeat_interval": "10ms"})
	calls := make(chan struct{}, 10)
	rm.AddResource("pgx", func(context.Context) error {
		select {
		case calls <- struct{}{}:
		default:
		}
		return nil
	})
	require.NoError(t, rm.Start())
	for i := 0; i < 2; i++ {
		select {
		case <-calls:
		case <-time.After(2 * time.Second):
			t.Fatal("heartbeat did not run")
		}
	}
	require.NoError(t, rm.Stop())
	require.NoError(t, rm.Stop())
}
