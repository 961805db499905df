package session

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/seumatch/seumatch/internal/identity"
)

// fakeProvider implementa identity.Provider en memoria para los tests del
// manager.
type fakeProvider struct {
	mu        sync.Mutex
	current   *identity.User
	observers []identity.Observer

	token      string
	tokenErr   error
	tokenDelay time.Duration
	tokenCalls int32

	idpResult *identity.PopupResult
	idpErr    error
	idpEmits  bool // emitir el evento del stream al resolver el popup

	signOutCalls int32
	reloadUser   *identity.User
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{token: "tok-1"}
}

// emit simula un evento del stream de autenticación del proveedor.
func (f *fakeProvider) emit(u *identity.User) {
	f.mu.Lock()
	f.current = u
	obs := make([]identity.Observer, len(f.observers))
	copy(obs, f.observers)
	f.mu.Unlock()
	for _, fn := range obs {
		fn(u)
	}
}

func (f *fakeProvider) Register(_ context.Context, email, _ string) (*identity.User, error) {
	u := &identity.User{UID: "reg-" + email, Email: email}
	f.emit(u)
	return u, nil
}

func (f *fakeProvider) SignInPassword(_ context.Context, email, _ string) (*identity.User, error) {
	u := &identity.User{UID: "pw-" + email, Email: email}
	f.emit(u)
	return u, nil
}

func (f *fakeProvider) SignInIDP(_ context.Context, _ *identity.Credential) (*identity.PopupResult, error) {
	if f.idpErr != nil {
		return nil, f.idpErr
	}
	res := f.idpResult
	f.mu.Lock()
	f.current = res.User
	f.mu.Unlock()
	if f.idpEmits {
		f.emit(res.User)
	}
	return res, nil
}

func (f *fakeProvider) SignOut(_ context.Context) error {
	atomic.AddInt32(&f.signOutCalls, 1)
	f.emit(nil)
	return nil
}

func (f *fakeProvider) Observe(fn identity.Observer) (cancel func()) {
	f.mu.Lock()
	f.observers = append(f.observers, fn)
	cur := f.current
	f.mu.Unlock()
	fn(cur)
	return func() {}
}

func (f *fakeProvider) Token(_ context.Context, _ bool) (string, error) {
	atomic.AddInt32(&f.tokenCalls, 1)
	if f.tokenDelay > 0 {
		time.Sleep(f.tokenDelay)
	}
	if f.tokenErr != nil {
		return "", f.tokenErr
	}
	return f.token, nil
}

func (f *fakeProvider) UpdateProfile(_ context.Context, up identity.ProfileUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.current == nil {
		return &identity.Error{Code: identity.CodeNoCurrentUser}
	}
	u := *f.current
	if up.DisplayName != nil {
		u.DisplayName = *up.DisplayName
	}
	if up.PhotoURL != nil {
		u.PhotoURL = *up.PhotoURL
	}
	f.current = &u
	return nil
}

func (f *fakeProvider) SendVerificationEmail(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.current == nil {
		return &identity.Error{Code: identity.CodeNoCurrentUser}
	}
	return nil
}

func (f *fakeProvider) Reload(_ context.Context) (*identity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.reloadUser != nil {
		f.current = f.reloadUser
		return f.reloadUser, nil
	}
	if f.current == nil {
		return nil, &identity.Error{Code: identity.CodeNoCurrentUser}
	}
	return f.current, nil
}

func (f *fakeProvider) CurrentUser() *identity.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

// fakeCleaner implementa CacheCleaner con errores inyectables.
type fakeCleaner struct {
	mu         sync.Mutex
	cleared    []string
	clearedAll bool
	err        error
}

func (c *fakeCleaner) ClearUserData(_ context.Context, email string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cleared = append(c.cleared, email)
	return c.err
}

func (c *fakeCleaner) ClearAll(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clearedAll = true
	return c.err
}

// fakeSync implementa SyncReleaser.
type fakeSync struct {
	released int32
	err      error
}

func (s *fakeSync) Release(_ context.Context) error {
	atomic.AddInt32(&s.released, 1)
	return s.err
}
