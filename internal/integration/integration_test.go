package integration

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"siggate/internal/api"
	"siggate/internal/governance"
	"siggate/internal/keystore"
	"siggate/internal/models"
	"siggate/internal/pipeline"
	"siggate/internal/signature"
)

// Integration tests that run the gateway end-to-end over real HTTP: a live
// upstream, the full route tree, signed client requests.

const (
	clientKeyID  = "integration-client"
	clientSecret = "integration-shared-secret"
)

// startGateway stands up an upstream and a gateway server governed by the
// given endpoint policies. Returns the gateway base URL.
func startGateway(t *testing.T, endpoints []models.EndpointPolicy, upstreamHandler http.Handler) string {
	t.Helper()

	upstream := httptest.NewServer(upstreamHandler)
	t.Cleanup(upstream.Close)

	keys, err := keystore.NewMemoryKeystore([]models.SigningKey{
		{KeyID: clientKeyID, Secret: clientSecret},
	})
	require.NoError(t, err)

	gate := governance.NewGate(
		governance.NewRateLimiter(governance.NewMemoryStore()),
		governance.NewConcurrencyLimiter(),
	)

	policies := make(map[string]governance.Policy, len(endpoints))
	for _, ep := range endpoints {
		policy := governance.Policy{}
		if ep.Rate != nil {
			policy.Rate = &governance.RateLimit{Limit: ep.Rate.Limit, Window: ep.Rate.Window}
		}
		if ep.Concurrency != nil {
			policy.Concurrency = &governance.ConcurrencyLimit{Limit: ep.Concurrency.Limit}
		}
		policies[ep.Name] = policy
	}

	p := pipeline.New(signature.NewEngine(), keys, gate, policies)

	handlers, err := api.NewHandlers(models.UpstreamConfig{URL: upstream.URL})
	require.NoError(t, err)

	router, err := api.SetupRoutes(handlers, p, models.GovernanceConfig{Endpoints: endpoints})
	require.NoError(t, err)

	gateway := httptest.NewServer(router)
	t.Cleanup(gateway.Close)
	return gateway.URL
}

// signedCall performs a signed request against the gateway and returns the
// status code and body.
func signedCall(t *testing.T, client *http.Client, method, url string) (int, string) {
	t.Helper()

	r, err := http.NewRequest(method, url, nil)
	require.NoError(t, err)
	r.Header.Set("Date", time.Now().UTC().Format(http.TimeFormat))

	engine := signature.NewEngine()
	sig, err := engine.Sign([]byte(clientSecret), signature.Spec{
		KeyID:      clientKeyID,
		Algorithm:  signature.AlgorithmHMACSHA256,
		Components: []string{signature.RequestTarget, "date"},
	}, signature.NewCanonicalRequest(r))
	require.NoError(t, err)
	r.Header.Set("Authorization", sig.Format())

	resp, err := client.Do(r)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestIntegration_RateLimitedEndpoint(t *testing.T) {
	base := startGateway(t, []models.EndpointPolicy{
		{
			Name:    "preferred",
			Path:    "/fruit",
			Methods: []string{"GET"},
			Rate:    &models.RatePolicy{Limit: 10, Window: 10 * time.Second},
		},
	}, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("orange"))
	}))

	client := &http.Client{}

	for i := 0; i < 10; i++ {
		status, body := signedCall(t, client, "GET", base+"/fruit")
		require.Equal(t, http.StatusOK, status, "call %d should be admitted", i+1)
		require.Equal(t, "orange", body)
	}

	status, _ := signedCall(t, client, "GET", base+"/fruit")
	assert.Equal(t, http.StatusTooManyRequests, status, "11th call inside the window")
}

func TestIntegration_ConcurrencyLimitedEndpoint(t *testing.T) {
	base := startGateway(t, []models.EndpointPolicy{
		{
			Name:        "preferredPost",
			Path:        "/hello",
			Methods:     []string{"POST"},
			Concurrency: &models.ConcurrencyPolicy{Limit: 2},
		},
	}, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Slow upstream keeps admitted calls in flight while the burst
		// arrives.
		time.Sleep(500 * time.Millisecond)
		w.Write([]byte("hello"))
	}))

	client := &http.Client{}

	const callers = 4
	var wg sync.WaitGroup
	codes := make(chan int, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			status, _ := signedCall(t, client, "POST", base+"/hello")
			codes <- status
		}()
	}
	wg.Wait()
	close(codes)

	counts := map[int]int{}
	for code := range codes {
		counts[code]++
	}
	assert.Equal(t, 2, counts[http.StatusOK], "exactly the limit executes")
	assert.Equal(t, 2, counts[http.StatusLocked], "the rest are turned away")

	// All slots released; a fresh call runs.
	status, body := signedCall(t, client, "POST", base+"/hello")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "hello", body)
}

func TestIntegration_AuthThenGovernance(t *testing.T) {
	base := startGateway(t, []models.EndpointPolicy{
		{
			Name: "preferred",
			Path: "/fruit",
			Rate: &models.RatePolicy{Limit: 1, Window: time.Minute},
		},
	}, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("orange"))
	}))

	client := &http.Client{}

	// Unsigned requests never reach the governed endpoint or the upstream.
	resp, err := client.Get(base + "/fruit")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// The unsigned attempt consumed no window budget.
	status, _ := signedCall(t, client, "GET", base+"/fruit")
	assert.Equal(t, http.StatusOK, status)
	status, _ = signedCall(t, client, "GET", base+"/fruit")
	assert.Equal(t, http.StatusTooManyRequests, status)
}
