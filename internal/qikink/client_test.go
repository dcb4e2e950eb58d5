package qikink

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vinayak200306/Veluno/config"
)

func tokenServer(t *testing.T, tokenCalls *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/token":
			require.NoError(t, r.ParseForm())
			assert.Equal(t, "cid", r.FormValue("client_id"))
			assert.Equal(t, "secret", r.FormValue("client_secret"))
			n := atomic.AddInt32(tokenCalls, 1)
			token := "tok_2"
			if n == 1 {
				token = "tok_1"
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"access_token": token,
				"expires_in":   3600,
			})
		default:
			http.NotFound(w, r)
		}
	}))
}

func testConfig(url string) *config.QikinkConfig {
	return &config.QikinkConfig{BaseURL: url, ClientID: "cid", ClientSecret: "secret"}
}

func TestTokenProvider_CachesUntilExpiry(t *testing.T) {
	var calls int32
	srv := tokenServer(t, &calls)
	defer srv.Close()

	tp := NewTokenProvider(testConfig(srv.URL), srv.Client())
	now := time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)
	tp.now = func() time.Time { return now }

	tok, err := tp.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok_1", tok)

	// well within the expiry window: no refresh
	now = now.Add(30 * time.Minute)
	tok, err = tp.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok_1", tok)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	// inside the one minute refresh margin: a new token is fetched
	now = now.Add(30 * time.Minute)
	tok, err = tp.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok_2", tok)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestTokenProvider_Invalidate(t *testing.T) {
	var calls int32
	srv := tokenServer(t, &calls)
	defer srv.Close()

	tp := NewTokenProvider(testConfig(srv.URL), srv.Client())
	_, err := tp.Token(context.Background())
	require.NoError(t, err)

	tp.Invalidate()
	_, err = tp.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestClient_ListProducts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/token":
			_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "tok", "expires_in": 3600})
		case "/products":
			assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
			// wrapped form of the response
			_, _ = w.Write([]byte(`{"data":[{"id":"qk1","name":"Tee","price":"499"}]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	tp := NewTokenProvider(testConfig(srv.URL), srv.Client())
	c := NewClient(testConfig(srv.URL), tp, srv.Client())

	products, err := c.ListProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "qk1", products[0].ID)
}

func TestClient_ListProducts_BareArray(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/token":
			_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "tok", "expires_in": 3600})
		case "/products":
			_, _ = w.Write([]byte(`[{"id":"qk1","name":"Tee","price":"499"},{"id":"qk2","name":"Cap","price":"299"}]`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	tp := NewTokenProvider(testConfig(srv.URL), srv.Client())
	c := NewClient(testConfig(srv.URL), tp, srv.Client())

	products, err := c.ListProducts(context.Background())
	require.NoError(t, err)
	assert.Len(t, products, 2)
}

func TestClient_UnauthorizedInvalidatesToken(t *testing.T) {
	var tokenCalls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/token":
			atomic.AddInt32(&tokenCalls, 1)
			_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "tok", "expires_in": 3600})
		case "/orders":
			w.WriteHeader(http.StatusUnauthorized)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	tp := NewTokenProvider(testConfig(srv.URL), srv.Client())
	c := NewClient(testConfig(srv.URL), tp, srv.Client())

	err := c.CreateOrder(context.Background(), &FulfillmentOrder{OrderID: "ORD-20250314-ABC123"})
	require.Error(t, err)

	// next call refetches a token instead of replaying the rejected one
	_, err = c.ListProducts(context.Background())
	require.Error(t, err) // /products is not served here, the token fetch is what we observe
	assert.Equal(t, int32(2), atomic.LoadInt32(&tokenCalls))
}
