package appmanager

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeService struct {
	name    string
	log     *[]string
	stopErr error
}

func (f *fakeService) Name() string { return f.name }

func (f *fakeService) Start() error {
	*f.log = append(*f.log, "start "+f.name)
	return nil
}

func (f *fakeService) Stop() error {
	*f.log = append(*f.log, "stop "+f.name)
	return f.stopErr
}

func TestLoadServiceSequence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "services.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
services:
  - name: gateway
    start_order: 9
    config:
      port: 8081
      routes:
        /pca: http://localhost:7143
  - name: logger
    start_order: 1
  - name: planning
    start_order: 3
    config:
      port: 7143
`), 0o644))

	seq, err := LoadServiceSequence(path)
	require.NoError(t, err)
	require.Len(t, seq, 3)
	assert.Equal(t, "logger", seq[0].Name)
	assert.Equal(t, "planning", seq[1].Name)
	assert.Equal(t, "gateway", seq[2].Name)
	assert.Equal(t, 7143, seq[1].Config["port"])
	routes := seq[2].Config["routes"].(map[string]interface{})
	assert.Equal(t, "http://localhost:7143", routes["/pca"])

	_, err = LoadServiceSequence(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestStartStopOrder(t *testing.T) {
	var calls []string
	am := NewAppManager(nil)
	am.RegisterService(&fakeService{name: "logger", log: &calls})
	am.RegisterService(&fakeService{name: "resourcemanager", log: &calls})
	am.RegisterService(&fakeService{name: "planning", log: &calls, stopErr: errors.New("busy")})
	am.RegisterService(&fakeService{name: "gateway", log: &calls})

	require.NoError(t, am.StartAll())
	assert.Equal(t, []string{"start logger", "start planning", "start gateway", "start resourcemanager"}, calls)

	calls = nil
	err := am.StopAll()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "planning")
	assert.Equal(t, []string{"stop gateway", "stop planning", "stop resourcemanager", "stop logger"}, calls)
	assert.NotNil(t, am.GetServiceByName("gateway"))
	assert.Nil(t, am.GetServiceByName("cash"))
}

func TestAutoRegisterServices(t *testing.T) {
	am := NewAppManager(&Deps{})
	require.NoError(t, am.AutoRegisterServices([]ServiceConfig{
		{Name: "resourcemanager"},
		{Name: "gateway", Config: map[string]interface{}{"port": 0}},
	}))
	require.NotNil(t, am.GetServiceByName("resourcemanager"))
	require.NotNil(t, am.GetServiceByName("gateway"))

	ok, details := am.deps.health()
	assert.True(t, ok)
	assert.Empty(t, details)

	err := am.AutoRegisterServices([]ServiceConfig{{Name: "fx"}})
	assert.Error(t, err)
}
