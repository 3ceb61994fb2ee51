package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"

	"taskdeck/internal/errs"
	"taskdeck/internal/session"
)

// refreshPath is relative to the base URL.
const refreshPath = "/token/refresh/"

type retriedKey struct{}

// isRetry reports whether ctx belongs to a request already replayed after a refresh.
func isRetry(ctx context.Context) bool {
	v, _ := ctx.Value(retriedKey{}).(bool)
	return v
}

// isTokenEndpoint reports whether path is a login or refresh call.
// A 401 from those is a real credential failure, never a reason to refresh.
func isTokenEndpoint(path string) bool {
	return strings.Contains(path, "/token/")
}

// authTransport attaches the bearer token and, on a 401, exchanges the
// refresh token once and replays the request.
type authTransport struct {
	next     http.RoundTripper
	session  *session.Session
	baseURL  string
	logger   *zap.Logger
	onLogout func()
	flights  singleflight.Group
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	getBody, err := replayableBody(req)
	if err != nil {
		return nil, err
	}

	used := t.session.Token()
	first, err := withToken(req.Context(), req, getBody, used)
	if err != nil {
		return nil, err
	}
	resp, err := t.next.RoundTrip(first)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusUnauthorized || isTokenEndpoint(req.URL.Path) || isRetry(req.Context()) {
		return resp, nil
	}

	if used.RefreshToken == "" {
		return resp, nil
	}
	discard(resp)

	if err := t.refresh(req.Context(), used); err != nil {
		if interrupted(req.Context(), err) {
			return nil, err
		}
		t.logger.Info("token refresh failed, clearing session", zap.Error(err))
		if clearErr := t.session.Clear(); clearErr != nil {
			t.logger.Warn("failed to clear session", zap.Error(clearErr))
		}
		if t.onLogout != nil {
			t.onLogout()
		}
		return nil, fmt.Errorf("%w: %v", errs.ErrSessionExpired, err)
	}

	ctx := context.WithValue(req.Context(), retriedKey{}, true)
	retry, err := withToken(ctx, req, getBody, t.session.Token())
	if err != nil {
		return nil, err
	}
	t.logger.Debug("replaying request after refresh", zap.String("method", req.Method), zap.String("path", req.URL.Path))
	return t.next.RoundTrip(retry)
}

// interrupted reports whether a refresh failed because the request was
// cancelled or timed out. The refresh token is still good in that case.
func interrupted(ctx context.Context, err error) bool {
	return ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// refresh exchanges the refresh token of used for a new access token and
// stores it. Concurrent callers holding the same refresh token share one
// exchange, and a caller whose token was already replaced skips it.
func (t *authTransport) refresh(ctx context.Context, used oauth2.Token) error {
	_, err, _ := t.flights.Do(used.RefreshToken, func() (interface{}, error) {
		cur := t.session.Token()
		if cur.RefreshToken != used.RefreshToken || cur.AccessToken != used.AccessToken {
			return nil, nil
		}
		pair, err := t.exchange(ctx, used.RefreshToken)
		if err != nil {
			return nil, err
		}
		if pair.Refresh != "" {
			return nil, t.session.Login(pair.Access, pair.Refresh)
		}
		return nil, t.session.SetAccess(pair.Access)
	})
	return err
}

type refreshResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

func (t *authTransport) exchange(ctx context.Context, refresh string) (refreshResponse, error) {
	var out refreshResponse

	body, err := json.Marshal(map[string]string{"refresh": refresh})
	if err != nil {
		return out, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+refreshPath, bytes.NewReader(body))
	if err != nil {
		return out, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := t.next.RoundTrip(req)
	if err != nil {
		return out, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return out, decodeError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return out, fmt.Errorf("invalid refresh response: %w", err)
	}
	if out.Access == "" {
		return out, fmt.Errorf("refresh response has no access token")
	}
	return out, nil
}

// replayableBody returns a function producing fresh copies of the request body.
func replayableBody(req *http.Request) (func() (io.ReadCloser, error), error) {
	if req.Body == nil || req.Body == http.NoBody {
		return nil, nil
	}
	if req.GetBody != nil {
		req.Body.Close()
		return req.GetBody, nil
	}
	data, err := io.ReadAll(req.Body)
	req.Body.Close()
	if err != nil {
		return nil, err
	}
	return func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	}, nil
}

// withToken clones req onto ctx with a fresh body and the bearer header of tok.
func withToken(ctx context.Context, req *http.Request, getBody func() (io.ReadCloser, error), tok oauth2.Token) (*http.Request, error) {
	out := req.Clone(ctx)
	if getBody != nil {
		body, err := getBody()
		if err != nil {
			return nil, err
		}
		out.Body = body
		out.GetBody = getBody
	}
	out.Header.Del("Authorization")
	if tok.AccessToken != "" {
		tok.SetAuthHeader(out)
	}
	return out, nil
}

func discard(resp *http.Response) {
	io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	resp.Body.Close()
}
