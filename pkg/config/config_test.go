package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalYAML = `
environment: test
forecast:
  service_url: http://localhost:8001
stocks:
  - symbol: LUCK
    company: Lucky Cement
    sector: Cement
  - symbol: FFC
    company: Fauji Fertilizer
    sector: Fertilizer
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	c, err := Load(writeConfig(t, minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, "https://dps.psx.com.pk", c.PSX.BaseURL)
	assert.Equal(t, 2020, c.PSX.StartYear)
	assert.Equal(t, 1, c.PSX.StartMonth)
	assert.Equal(t, 200, c.PSX.MinRecords)
	assert.Equal(t, "file", c.Store.Backend)
	assert.Equal(t, 24*time.Hour, c.Store.MaxAge)
	assert.Equal(t, 4*time.Hour, c.Store.SentimentTTL)
	assert.Equal(t, "psx.progress", c.Kafka.ProgressTopic)
	assert.Equal(t, "psx.predictions", c.Kafka.PredictionTopic)
	assert.Positive(t, c.Forecast.Horizon)
}

func TestLoadExplicitValuesWin(t *testing.T) {
	c, err := Load(writeConfig(t, `
environment: production
psx:
  base_url: http://mirror.example
  start_year: 2022
  start_month: 6
forecast:
  service_url: http://forecast:8001
  horizon: 7
store:
  backend: redis
  max_age: 12h
stocks:
  - symbol: LUCK
`))
	require.NoError(t, err)

	assert.Equal(t, "http://mirror.example", c.PSX.BaseURL)
	assert.Equal(t, 2022, c.PSX.StartYear)
	assert.Equal(t, 6, c.PSX.StartMonth)
	assert.Equal(t, 7, c.Forecast.Horizon)
	assert.Equal(t, "redis", c.Store.Backend)
	assert.Equal(t, 12*time.Hour, c.Store.MaxAge)
}

func TestValidateErrors(t *testing.T) {
	cases := []struct {
		name string
		yaml string
		want string
	}{
		{
			"missing environment",
			`
forecast:
  service_url: http://x
stocks:
  - symbol: LUCK
`,
			"environment is required",
		},
		{
			"bad store backend",
			`
environment: test
forecast:
  service_url: http://x
store:
  backend: s3
stocks:
  - symbol: LUCK
`,
			"store.backend",
		},
		{
			"missing forecast url",
			`
environment: test
stocks:
  - symbol: LUCK
`,
			"forecast.service_url is required",
		},
		{
			"empty registry",
			`
environment: test
forecast:
  service_url: http://x
`,
			"stocks registry cannot be empty",
		},
		{
			"duplicate symbol",
			`
environment: test
forecast:
  service_url: http://x
stocks:
  - symbol: LUCK
  - symbol: LUCK
`,
			"duplicate stock symbol",
		},
		{
			"kafka enabled without brokers",
			`
environment: test
forecast:
  service_url: http://x
kafka:
  enabled: true
stocks:
  - symbol: LUCK
`,
			"kafka.brokers required",
		},
		{
			"clickhouse enabled without host",
			`
environment: test
forecast:
  service_url: http://x
clickhouse:
  enabled: true
stocks:
  - symbol: LUCK
`,
			"clickhouse.host required",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Setenv("PSX_BASE_URL", "http://env.example")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")

	c, err := LoadWithEnv(writeConfig(t, minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, "http://env.example", c.PSX.BaseURL)
	assert.True(t, c.Kafka.Enabled)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, c.Kafka.Brokers)
}

func TestRegistryIsACopy(t *testing.T) {
	c, err := Load(writeConfig(t, minimalYAML))
	require.NoError(t, err)

	reg := c.Registry()
	require.Len(t, reg, 2)
	reg[0].Symbol = "MUTATED"
	assert.Equal(t, "LUCK", c.Stocks[0].Symbol)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
