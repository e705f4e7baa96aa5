package registry

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"loan-eligibility-workers/internal/common/config"
	"loan-eligibility-workers/internal/common/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_RegistersWorkers(t *testing.T) {
	reg, err := Default()
	require.NoError(t, err)

	assert.Equal(t, []string{
		"evaluate-eligibility",
		"evaluate-batch-eligibility",
		"send-match-notifications",
	}, reg.TaskTypes())

	for _, a := range reg.Activities {
		assert.NoError(t, validation.ValidateActivityNaming(a.ID), a.ID)
		assert.NotEmpty(t, a.InputSchema, a.TaskType)
	}
}

func TestInputSchema_NotificationSelector(t *testing.T) {
	schema, err := MustDefault().InputSchema("send-match-notifications")
	require.NoError(t, err)

	assert.True(t, validation.ValidateInput(map[string]interface{}{"applicantId": "A-1"}, schema).Valid)
	assert.True(t, validation.ValidateInput(map[string]interface{}{"batchId": "B-1"}, schema).Valid)
	assert.False(t, validation.ValidateInput(map[string]interface{}{}, schema).Valid)
}

func TestInputSchema_Unknown(t *testing.T) {
	_, err := MustDefault().InputSchema("does-not-exist")
	assert.Error(t, err)
}

func TestLoadRegistry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"version":"9","activities":[{"id":"a.b.c","taskType":"x"}]}`), 0o600))

	reg, err := LoadRegistry(path)
	require.NoError(t, err)
	activity, ok := reg.Find("x")
	require.True(t, ok)
	assert.Equal(t, "a.b.c", activity.ID)
}

func TestValidate(t *testing.T) {
	require.NoError(t, MustDefault().Validate())

	schema := map[string]interface{}{"type": "object"}
	tests := []struct {
		name       string
		activities []Activity
		want       string
	}{
		{name: "empty", activities: nil, want: "no activities"},
		{name: "missing id", activities: []Activity{{TaskType: "t", DisplayName: "T", InputSchema: schema}}, want: "field: id"},
		{
			name: "duplicate task type",
			activities: []Activity{
				{ID: "a", TaskType: "t", DisplayName: "A", InputSchema: schema},
				{ID: "b", TaskType: "t", DisplayName: "B", InputSchema: schema},
			},
			want: "duplicate task type: t",
		},
		{name: "no schema", activities: []Activity{{ID: "a", TaskType: "t", DisplayName: "A"}}, want: "no inputSchema"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := (&ActivityRegistry{Activities: tt.activities}).Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestActivity_TimeoutAndErrorCodes(t *testing.T) {
	activity, ok := MustDefault().Find("evaluate-eligibility")
	require.True(t, ok)

	d, err := activity.TimeoutDuration()
	require.NoError(t, err)
	assert.Equal(t, 60*time.Second, d)
	assert.True(t, activity.Throws("APPLICANT_NOT_FOUND"))
	assert.False(t, activity.Throws("TRANSPORT_ERROR"))

	_, err = Activity{ID: "x", Timeout: "soon"}.TimeoutDuration()
	assert.ErrorContains(t, err, `invalid timeout "soon"`)
}

func TestDefault_TimeoutsMatchShippedConfig(t *testing.T) {
	t.Setenv("ZEEBE_ADDRESS", "localhost:26500")
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_NAME", "loans")
	t.Setenv("DB_USER", "loans")
	t.Setenv("REDIS_ADDRESS", "localhost:6379")
	t.Setenv("AI_API_TYPE", "openai")

	cfg, err := config.LoadFromFile(filepath.Join("..", "..", "configs", "config.yaml"))
	require.NoError(t, err)

	for _, a := range MustDefault().Activities {
		want, err := a.TimeoutDuration()
		require.NoError(t, err, a.TaskType)

		worker, ok := cfg.Workers[a.TaskType]
		require.True(t, ok, a.TaskType)
		assert.Equal(t, want, config.GetDuration(worker.Timeout), a.TaskType)
	}
}
