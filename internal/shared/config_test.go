package shared

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"APP_ENV", "TABLE_DRIVER", "SERVING_MAX_ATTEMPTS", "RECOMMEND_EXPECTED_COUNT", "CACHE_TTL_SECONDS", "SERVING_RPS"} {
		t.Setenv(k, "")
	}
	c := Load()
	assert.Equal(t, "prod", c.AppEnv)
	assert.Equal(t, "mysql", c.TableDriver)
	assert.Equal(t, 1, c.ServingMaxAttempts)
	assert.Equal(t, 10, c.ExpectedCount)
	assert.Equal(t, 900*time.Second, c.CacheTTL)
	assert.InDelta(t, 2.0, c.ServingRPS, 1e-9)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("TABLE_DRIVER", "sqlite")
	t.Setenv("SERVING_MAX_ATTEMPTS", "3")
	t.Setenv("SERVING_RPS", "0.5")
	t.Setenv("SERVING_TIMEOUT_SECONDS", "30")
	t.Setenv("RECOMMEND_EXPECTED_COUNT", "oops")

	c := Load()
	assert.Equal(t, "sqlite", c.TableDriver)
	assert.Equal(t, 3, c.ServingMaxAttempts)
	assert.InDelta(t, 0.5, c.ServingRPS, 1e-9)
	assert.Equal(t, 30*time.Second, c.ServingTimeout)
	assert.Equal(t, 10, c.ExpectedCount, "bad integers fall back to the default")
}
