package token_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	apperrors "github.com/jrsteele09/go-session-manager/internal/errors"
	"github.com/jrsteele09/go-session-manager/internal/metrics"
	"github.com/jrsteele09/go-session-manager/internal/utils"
	"github.com/jrsteele09/go-session-manager/oauthmodel"
	"github.com/jrsteele09/go-session-manager/token"
	"github.com/jrsteele09/go-session-manager/token/providerfake"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

const (
	testProviderID = "keycloak"
	testSessionID  = "session-1"
)

var testNow = time.Unix(1_700_000_000, 0)

type testFixture struct {
	provider *providerfake.FakeProvider
	manager  *token.Manager
	logs     *bytes.Buffer
	now      time.Time
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	f := &testFixture{
		provider: providerfake.NewFakeProvider(testProviderID),
		logs:     &bytes.Buffer{},
		now:      testNow,
	}
	f.manager = token.NewManager(
		f.provider,
		token.WithNowFunc(func() time.Time { return f.now }),
		token.WithLogger(zerolog.New(zerolog.SyncWriter(f.logs))),
		token.WithSessionIDFunc(func() string { return testSessionID }),
		token.WithMetrics(metrics.New()),
	)
	return f
}

func validCredentials() token.Credentials {
	return token.Credentials{
		ProviderID:   testProviderID,
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		IDToken:      "id-1",
		ExpiresIn:    300,
	}
}

func existingToken(expiresAt int64) *token.Token {
	return &token.Token{
		SessionID:    testSessionID,
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		IDToken:      "id-1",
		ExpiresAt:    expiresAt,
		ProviderID:   testProviderID,
	}
}

func TestEvaluate_FirstSignIn(t *testing.T) {
	t.Run("relative expiry", func(t *testing.T) {
		f := setupTestFixture(t)
		creds := validCredentials()

		tok, err := f.manager.Evaluate(context.Background(), nil, &creds)
		require.NoError(t, err)
		require.Equal(t, &token.Token{
			SessionID:    testSessionID,
			AccessToken:  "access-1",
			RefreshToken: "refresh-1",
			IDToken:      "id-1",
			ExpiresAt:    testNow.Unix() + 300,
			ProviderID:   testProviderID,
		}, tok)
		require.Empty(t, f.provider.RefreshCalls())
	})

	t.Run("absolute expiry wins", func(t *testing.T) {
		f := setupTestFixture(t)
		creds := validCredentials()
		creds.ExpiresAt = testNow.Unix() + 42

		tok, err := f.manager.Evaluate(context.Background(), nil, &creds)
		require.NoError(t, err)
		require.Equal(t, testNow.Unix()+42, tok.ExpiresAt)
	})

	t.Run("credentials replace an existing token", func(t *testing.T) {
		f := setupTestFixture(t)
		creds := validCredentials()
		creds.AccessToken = "access-new"

		tok, err := f.manager.Evaluate(context.Background(), existingToken(testNow.Unix()+1000), &creds)
		require.NoError(t, err)
		require.Equal(t, "access-new", tok.AccessToken)
	})

	t.Run("provider defaults to configured provider", func(t *testing.T) {
		f := setupTestFixture(t)
		creds := validCredentials()
		creds.ProviderID = ""

		tok, err := f.manager.SignIn(creds)
		require.NoError(t, err)
		require.Equal(t, testProviderID, tok.ProviderID)
	})
}

func TestEvaluate_MissingCredential(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*token.Credentials)
		message string
	}{
		{"access token", func(c *token.Credentials) { c.AccessToken = "" }, "access token"},
		{"refresh token", func(c *token.Credentials) { c.RefreshToken = "" }, "refresh token"},
		{"id token", func(c *token.Credentials) { c.IDToken = "" }, "ID token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupTestFixture(t)
			creds := validCredentials()
			tt.mutate(&creds)

			tok, err := f.manager.Evaluate(context.Background(), nil, &creds)
			require.Nil(t, tok)
			require.ErrorIs(t, err, apperrors.ErrMissingCredential)
			require.Contains(t, err.Error(), tt.message)
			require.Empty(t, f.provider.RefreshCalls())
		})
	}
}

func TestEvaluate_NoSession(t *testing.T) {
	f := setupTestFixture(t)

	tok, err := f.manager.Evaluate(context.Background(), nil, nil)
	require.Nil(t, tok)
	require.ErrorIs(t, err, apperrors.ErrNoSession)
}

func TestEvaluate_ValidTokenIsReused(t *testing.T) {
	f := setupTestFixture(t)
	current := existingToken(testNow.Unix() + 1)

	tok, err := f.manager.Evaluate(context.Background(), current, nil)
	require.NoError(t, err)
	require.Same(t, current, tok)
	require.Equal(t, *existingToken(testNow.Unix() + 1), *tok)
	require.Empty(t, f.provider.RefreshCalls())
}

func TestEvaluate_ExpiredTokenIsRefreshed(t *testing.T) {
	t.Run("expiry equal to now counts as expired", func(t *testing.T) {
		f := setupTestFixture(t)
		f.provider.RefreshFunc = func(string) (*oauthmodel.TokenResponse, error) {
			return &oauthmodel.TokenResponse{AccessToken: "access-2", ExpiresIn: 60}, nil
		}

		tok, err := f.manager.Evaluate(context.Background(), existingToken(testNow.Unix()), nil)
		require.NoError(t, err)
		require.Equal(t, "access-2", tok.AccessToken)
		require.Equal(t, []string{"refresh-1"}, f.provider.RefreshCalls())
	})

	t.Run("rotated credentials are adopted", func(t *testing.T) {
		f := setupTestFixture(t)
		f.provider.RefreshFunc = func(string) (*oauthmodel.TokenResponse, error) {
			return &oauthmodel.TokenResponse{
				AccessToken:      "access-2",
				RefreshToken:     utils.Ptr("refresh-2"),
				IdToken:          utils.Ptr("id-2"),
				ExpiresIn:        300,
				RefreshExpiresIn: 1800,
			}, nil
		}

		tok, err := f.manager.Evaluate(context.Background(), existingToken(testNow.Unix()-10), nil)
		require.NoError(t, err)
		require.Equal(t, &token.Token{
			SessionID:    testSessionID,
			AccessToken:  "access-2",
			RefreshToken: "refresh-2",
			IDToken:      "id-2",
			ExpiresAt:    testNow.Unix() + 300,
			ProviderID:   testProviderID,
		}, tok)
	})

	t.Run("omitted credentials are kept", func(t *testing.T) {
		f := setupTestFixture(t)
		f.provider.RefreshFunc = func(string) (*oauthmodel.TokenResponse, error) {
			return &oauthmodel.TokenResponse{AccessToken: "access-2", ExpiresIn: 300}, nil
		}

		tok, err := f.manager.Evaluate(context.Background(), existingToken(testNow.Unix()-10), nil)
		require.NoError(t, err)
		require.Equal(t, "refresh-1", tok.RefreshToken)
		require.Equal(t, "id-1", tok.IDToken)
	})

	t.Run("error flag is cleared", func(t *testing.T) {
		f := setupTestFixture(t)
		f.provider.RefreshFunc = func(string) (*oauthmodel.TokenResponse, error) {
			return &oauthmodel.TokenResponse{AccessToken: "access-2", ExpiresIn: 300}, nil
		}
		current := existingToken(testNow.Unix() - 10)
		current.Error = token.RefreshAccessTokenError

		tok, err := f.manager.Evaluate(context.Background(), current, nil)
		require.NoError(t, err)
		require.Empty(t, tok.Error)
	})
}

func TestEvaluate_RefreshFailure(t *testing.T) {
	tests := []struct {
		name    string
		refresh func(string) (*oauthmodel.TokenResponse, error)
	}{
		{"provider error", func(string) (*oauthmodel.TokenResponse, error) {
			return nil, errors.New(`oauth2: "invalid_grant" "Token is not active"`)
		}},
		{"network error", func(string) (*oauthmodel.TokenResponse, error) {
			return nil, errors.New("dial tcp: connection refused")
		}},
		{"empty access token", func(string) (*oauthmodel.TokenResponse, error) {
			return &oauthmodel.TokenResponse{ExpiresIn: 300}, nil
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupTestFixture(t)
			f.provider.RefreshFunc = tt.refresh
			current := existingToken(testNow.Unix() - 10)

			tok, err := f.manager.Evaluate(context.Background(), current, nil)
			require.NoError(t, err)

			expected := *existingToken(testNow.Unix() - 10)
			expected.Error = token.RefreshAccessTokenError
			require.Equal(t, expected, *tok)
			require.Empty(t, current.Error, "the caller's token must not be mutated")
			require.Contains(t, f.logs.String(), "Error refreshing access token")
		})
	}
}

func TestEvaluate_ErroredTokenRetriesWhenExpired(t *testing.T) {
	f := setupTestFixture(t)
	attempts := 0
	f.provider.RefreshFunc = func(string) (*oauthmodel.TokenResponse, error) {
		attempts++
		if attempts == 1 {
			return nil, errors.New("temporarily unavailable")
		}
		return &oauthmodel.TokenResponse{AccessToken: "access-2", ExpiresIn: 300}, nil
	}

	tok, err := f.manager.Evaluate(context.Background(), existingToken(testNow.Unix()-10), nil)
	require.NoError(t, err)
	require.Equal(t, token.RefreshAccessTokenError, tok.Error)

	tok, err = f.manager.Evaluate(context.Background(), tok, nil)
	require.NoError(t, err)
	require.Empty(t, tok.Error)
	require.Equal(t, "access-2", tok.AccessToken)
	require.Len(t, f.provider.RefreshCalls(), 2)
}

func TestRefresh_ConcurrentCallsShareOneRequest(t *testing.T) {
	f := setupTestFixture(t)
	release := make(chan struct{})
	f.provider.RefreshFunc = func(string) (*oauthmodel.TokenResponse, error) {
		<-release
		return &oauthmodel.TokenResponse{AccessToken: "access-2", RefreshToken: utils.Ptr("refresh-2"), ExpiresIn: 300}, nil
	}

	const callers = 8
	results := make([]*token.Token, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = f.manager.Evaluate(context.Background(), existingToken(testNow.Unix()-10), nil)
		}(i)
	}

	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()

	require.Len(t, f.provider.RefreshCalls(), 1)
	for i, tok := range results {
		require.NoError(t, errs[i])
		require.Equal(t, "access-2", tok.AccessToken)
		require.Equal(t, "refresh-2", tok.RefreshToken)
	}
	require.NotSame(t, results[0], results[1], "callers must not share a token value")
}

func TestSignOut(t *testing.T) {
	t.Run("matching provider", func(t *testing.T) {
		f := setupTestFixture(t)

		f.manager.SignOut(context.Background(), *existingToken(testNow.Unix()))
		require.Equal(t, []string{"id-1"}, f.provider.EndSessionCalls())
		require.Contains(t, f.logs.String(), "Completed post-logout handshake")
	})

	t.Run("other provider", func(t *testing.T) {
		f := setupTestFixture(t)
		tok := existingToken(testNow.Unix())
		tok.ProviderID = "github"

		f.manager.SignOut(context.Background(), *tok)
		require.Empty(t, f.provider.EndSessionCalls())
	})

	t.Run("handshake failure is swallowed", func(t *testing.T) {
		f := setupTestFixture(t)
		f.provider.EndSessionFunc = func(string) (int, error) {
			return http.StatusBadGateway, errors.New("bad gateway")
		}

		require.NotPanics(t, func() {
			f.manager.SignOut(context.Background(), *existingToken(testNow.Unix()))
		})
		require.Len(t, f.provider.EndSessionCalls(), 1)
		require.Contains(t, f.logs.String(), "Unable to perform post-logout handshake")
	})
}

func TestToken_Session(t *testing.T) {
	tok := existingToken(testNow.Unix())
	tok.Error = token.RefreshAccessTokenError

	require.Equal(t, token.Session{
		AccessToken: "access-1",
		Error:       token.RefreshAccessTokenError,
	}, tok.Session())
}
