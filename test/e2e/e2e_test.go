//go:build e2e

package e2e

import (
	"bytes"
	"encoding/json"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// Runs against a deployed krymon, e.g. E2E_API_BASE=http://localhost:8080.
type cfg struct {
	APIBase     string
	MetricsBase string
	TargetURL   string
	WaitStatus  time.Duration
}

func loadCfg() cfg {
	return cfg{
		APIBase:     getenv("E2E_API_BASE", "http://localhost:8080"),
		MetricsBase: getenv("E2E_METRICS_BASE", "http://localhost:8081"),
		TargetURL:   getenv("E2E_TARGET_URL", "http://http-echo"),
		WaitStatus:  mustParseDur(getenv("E2E_WAIT_STATUS", "3m")),
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func mustParseDur(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		panic(err)
	}
	return d
}

type serviceResp struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	URL    string `json:"url"`
	Status string `json:"status"`
}

type listResp struct {
	Services []serviceResp `json:"services"`
}

func waitHealthy(t *testing.T, c cfg) {
	t.Helper()
	require.Eventually(t, func() bool {
		resp, err := http.Get(c.MetricsBase + "/healthz")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, time.Minute, time.Second)
}

func list(t *testing.T, c cfg) listResp {
	t.Helper()
	resp, err := http.Get(c.APIBase + "/service")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out listResp
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func Test_AddedServiceGetsProbed(t *testing.T) {
	c := loadCfg()
	waitHealthy(t, c)

	body, _ := json.Marshal(map[string]string{"name": "e2e-" + time.Now().Format("150405.000"), "url": c.TargetURL})
	resp, err := http.Post(c.APIBase+"/service", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id := strings.TrimPrefix(resp.Header.Get("Location"), "/service/")
	require.NotEmpty(t, id)

	t.Cleanup(func() {
		req, _ := http.NewRequest(http.MethodDelete, c.APIBase+"/service/"+id, nil)
		if resp, err := http.DefaultClient.Do(req); err == nil {
			resp.Body.Close()
		}
	})

	require.Eventually(t, func() bool {
		for _, s := range list(t, c).Services {
			if s.ID == id {
				t.Logf("service %s is %s", id, s.Status)
				return s.Status != "UNKNOWN"
			}
		}
		return false
	}, c.WaitStatus, 2*time.Second)
}
