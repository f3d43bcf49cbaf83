package providerfake

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/jrsteele09/go-session-manager/oauthmodel"
	"github.com/jrsteele09/go-session-manager/token"
)

var _ token.Provider = (*FakeProvider)(nil)

// FakeProvider records every call and answers with the configured functions.
type FakeProvider struct {
	ProviderID     string
	RefreshFunc    func(refreshToken string) (*oauthmodel.TokenResponse, error)
	EndSessionFunc func(idToken string) (int, error)

	lock            sync.Mutex
	refreshCalls    []string
	endSessionCalls []string
}

func NewFakeProvider(providerID string) *FakeProvider {
	return &FakeProvider{ProviderID: providerID}
}

func (p *FakeProvider) ID() string {
	return p.ProviderID
}

func (p *FakeProvider) Refresh(_ context.Context, refreshToken string) (*oauthmodel.TokenResponse, error) {
	p.lock.Lock()
	p.refreshCalls = append(p.refreshCalls, refreshToken)
	f := p.RefreshFunc
	p.lock.Unlock()

	if f == nil {
		return nil, errors.New("refresh not configured")
	}
	return f(refreshToken)
}

func (p *FakeProvider) EndSession(_ context.Context, idToken string) (int, error) {
	p.lock.Lock()
	p.endSessionCalls = append(p.endSessionCalls, idToken)
	f := p.EndSessionFunc
	p.lock.Unlock()

	if f == nil {
		return http.StatusNoContent, nil
	}
	return f(idToken)
}

func (p *FakeProvider) RefreshCalls() []string {
	p.lock.Lock()
	defer p.lock.Unlock()
	return append([]string(nil), p.refreshCalls...)
}

func (p *FakeProvider) EndSessionCalls() []string {
	p.lock.Lock()
	defer p.lock.Unlock()
	return append([]string(nil), p.endSessionCalls...)
}
