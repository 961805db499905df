package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/seumatch/seumatch/internal/identity"
	"github.com/seumatch/seumatch/internal/metrics"
	"github.com/seumatch/seumatch/internal/observability/logger"
)

// CacheCleaner es el colaborador de cache local invocado en el logout.
// Best-effort: un fallo se loguea y no impide completar el sign-out.
type CacheCleaner interface {
	ClearUserData(ctx context.Context, email string) error
	ClearAll(ctx context.Context) error
}

// SyncReleaser libera recursos de sincronización cross-tab en el logout.
type SyncReleaser interface {
	Release(ctx context.Context) error
}

// Options configura el manager.
type Options struct {
	// DomainSuffix es el sufijo institucional obligatorio (ej: "@seu.edu.bd").
	DomainSuffix string

	// ResolveWait es la ventana máxima de espera por un evento adicional
	// del stream cuando las vías directas no resuelven email. Default: 3s.
	ResolveWait time.Duration

	// Userinfo es el fallback HTTP de resolución de email. Opcional.
	Userinfo *UserinfoClient

	Cache CacheCleaner // opcional
	Sync  SyncReleaser // opcional
}

// waiter representa una espera acotada pendiente. Pertenece a un intento de
// resolución; un intento nuevo la cierra vía done sin efectos.
type waiter struct {
	ch   chan *identity.User
	done chan struct{}
}

// Manager es la máquina de estados de sesión: se suscribe al stream del
// proveedor, aplica la política de dominio, canaliza cada evento crudo por
// el normalizador y mantiene el único valor de sesión vigente.
type Manager struct {
	provider identity.Provider
	norm     *Normalizer
	opts     Options
	log      *zap.Logger

	mu      sync.Mutex
	state   State
	current *Session
	loading bool
	subs    map[int]func(Snapshot)
	nextSub int
	attempt string  // ID del intento de resolución dueño del ciclo actual
	w       *waiter // espera acotada pendiente, si hay
	popup   bool    // flujo popup en curso: el stream no inicia resoluciones

	cancelObs func()
}

// NewManager construye el manager y se suscribe al stream del proveedor
// (Uninitialized → Resolving). Loading queda en true hasta que el primer
// evento se resuelva por completo.
func NewManager(p identity.Provider, opts Options) *Manager {
	if opts.ResolveWait <= 0 {
		opts.ResolveWait = 3 * time.Second
	}
	m := &Manager{
		provider: p,
		norm:     NewNormalizer(p),
		opts:     opts,
		log:      logger.With(logger.Component("session.manager")),
		state:    StateUninitialized,
		loading:  true,
		subs:     map[int]func(Snapshot){},
	}
	m.state = StateResolving
	m.cancelObs = p.Observe(m.onAuthState)
	return m
}

// Close cancela la suscripción al stream y cualquier espera pendiente.
func (m *Manager) Close() {
	if m.cancelObs != nil {
		m.cancelObs()
	}
	m.mu.Lock()
	m.supersedeLocked()
	m.mu.Unlock()
}

// Subscribe registra un callback de snapshots. Lo invoca de inmediato con
// el estado actual y retorna una función de cancelación.
func (m *Manager) Subscribe(fn func(Snapshot)) (cancel func()) {
	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	snap := Snapshot{Session: m.current, Loading: m.loading}
	m.mu.Unlock()

	fn(snap)
	return func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	}
}

// Snapshot retorna el estado observable actual.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{Session: m.current, Loading: m.loading}
}

// State retorna el estado de la máquina.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// ---- Stream del proveedor ----

// onAuthState es el único punto de entrada de transiciones dirigidas por el
// proveedor. Puede correr concurrente con operaciones mutantes.
func (m *Manager) onAuthState(raw *identity.User) {
	m.mu.Lock()

	// Una espera acotada pendiente es dueña del próximo evento.
	if m.w != nil {
		w := m.w
		m.w = nil
		m.mu.Unlock()
		select {
		case w.ch <- raw:
		default:
		}
		return
	}

	// El flujo popup en curso es dueño de todas las transiciones.
	if m.popup {
		m.mu.Unlock()
		return
	}

	if raw == nil {
		m.mu.Unlock()
		m.publish(nil)
		return
	}

	// Re-confirmación del mismo uid ya resuelto: no-op. Nunca regresa una
	// sesión resuelta a loading.
	if m.state == StateAuthenticated && m.current != nil && m.current.UID == raw.UID {
		m.mu.Unlock()
		m.log.Debug("stream re-confirmed current session", logger.UID(raw.UID))
		return
	}

	m.state = StateResolving
	m.loading = true
	m.mu.Unlock()

	go func() {
		_, _ = m.resolve(context.Background(), raw, nil)
	}()
}

// ---- Pipeline de resolución ----

// resolve ejecuta el pipeline de validación en orden, con short-circuit:
// estrategias del normalizador → lookup userinfo con la credencial del
// popup → espera acotada por un evento más del stream → política de
// dominio → publicación. UnauthorizedDomain y NoEmailResolved son
// terminales para el intento: fuerzan sign-out.
func (m *Manager) resolve(ctx context.Context, raw *identity.User, cred *identity.Credential) (*Session, error) {
	attemptID := uuid.NewString()
	log := m.log.With(logger.Attempt(attemptID), logger.UID(raw.UID))

	m.mu.Lock()
	m.supersedeLocked()
	m.attempt = attemptID
	m.mu.Unlock()

	started := time.Now()
	email, via, ok := m.norm.ResolveEmail(raw)

	if !ok && cred != nil && cred.AccessToken != "" && m.opts.Userinfo != nil {
		v, err := m.opts.Userinfo.Email(ctx, cred.AccessToken)
		if err != nil {
			log.Debug("userinfo lookup failed", logger.Err(err))
		}
		if v != "" {
			email, via, ok = v, "userinfo", true
		}
	}

	if !ok {
		ev, err := m.awaitStreamEvent(attemptID)
		if err == errSuperseded {
			log.Debug("attempt superseded during bounded wait")
			return nil, errSuperseded
		}
		if err == nil && ev != nil {
			if e2, v2, ok2 := m.norm.ResolveEmail(ev); ok2 {
				raw, email, via, ok = ev, e2, v2, true
			}
		}
		if !ok {
			metrics.SessionResolutions.WithLabelValues("no_email").Inc()
			return nil, m.failResolution(ctx, log, ErrNoEmailResolved)
		}
	}

	if !m.domainAllowed(email) {
		log.Warn("resolved email outside institutional domain", logger.Email(email))
		metrics.SessionResolutions.WithLabelValues("unauthorized_domain").Inc()
		return nil, m.failResolution(ctx, log, ErrUnauthorizedDomain)
	}

	// Solo el intento dueño del ciclo publica.
	m.mu.Lock()
	if m.attempt != attemptID {
		m.mu.Unlock()
		return nil, errSuperseded
	}
	m.attempt = ""
	m.mu.Unlock()

	sess := m.norm.Normalize(raw, email)
	m.publish(sess)
	metrics.SessionResolutions.WithLabelValues("published").Inc()
	metrics.ResolutionDuration.Observe(time.Since(started).Seconds())
	log.Info("session published",
		logger.Email(email),
		logger.String("email_via", via),
		logger.DurationMs(time.Since(started).Milliseconds()),
	)
	return sess, nil
}

// awaitStreamEvent espera a lo sumo un evento más del stream, hasta
// ResolveWait. Cancelable: si otro intento arranca primero, la espera se
// abandona sin efectos.
func (m *Manager) awaitStreamEvent(attemptID string) (*identity.User, error) {
	w := &waiter{ch: make(chan *identity.User, 1), done: make(chan struct{})}

	m.mu.Lock()
	if m.attempt != attemptID {
		m.mu.Unlock()
		return nil, errSuperseded
	}
	m.w = w
	m.mu.Unlock()

	t := time.NewTimer(m.opts.ResolveWait)
	defer t.Stop()
	select {
	case ev := <-w.ch:
		return ev, nil
	case <-w.done:
		return nil, errSuperseded
	case <-t.C:
		m.mu.Lock()
		if m.w == w {
			m.w = nil
		}
		m.mu.Unlock()
		return nil, nil
	}
}

// supersedeLocked invalida el intento vigente y su espera pendiente.
// Requiere m.mu.
func (m *Manager) supersedeLocked() {
	if m.w != nil {
		close(m.w.done)
		m.w = nil
	}
	m.attempt = ""
}

// failResolution fuerza sign-out para que ninguna sesión inválida sea
// observable, ni siquiera momentáneamente, y publica "sin sesión".
func (m *Manager) failResolution(ctx context.Context, log *zap.Logger, terr error) error {
	log.Warn("login attempt terminated", logger.Err(terr))
	if err := m.provider.SignOut(ctx); err != nil {
		log.Error("forced sign-out failed", logger.Err(err))
	}
	m.publish(nil)
	return terr
}

func (m *Manager) domainAllowed(email string) bool {
	return strings.HasSuffix(strings.ToLower(email), strings.ToLower(m.opts.DomainSuffix))
}

// publish instala un snapshot nuevo y notifica fuera del lock. El valor
// publicado es inmutable: cada actualización es un Session nuevo.
func (m *Manager) publish(sess *Session) {
	m.mu.Lock()
	if sess != nil {
		m.state = StateAuthenticated
	} else {
		m.state = StateUnauthenticated
	}
	m.current = sess
	m.loading = false
	snap := Snapshot{Session: sess, Loading: false}
	subs := make([]func(Snapshot), 0, len(m.subs))
	for _, fn := range m.subs {
		subs = append(subs, fn)
	}
	m.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}

// setLoading publica el snapshot actual con loading=true.
func (m *Manager) setLoading() {
	m.mu.Lock()
	m.loading = true
	m.state = StateResolving
	snap := Snapshot{Session: m.current, Loading: true}
	subs := make([]func(Snapshot), 0, len(m.subs))
	for _, fn := range m.subs {
		subs = append(subs, fn)
	}
	m.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}

// clearLoading restaura loading=false sin cambiar la sesión vigente.
// Usado cuando una operación mutante falla antes de producir un evento.
func (m *Manager) clearLoading() {
	m.mu.Lock()
	m.loading = false
	if m.current != nil {
		m.state = StateAuthenticated
	} else {
		m.state = StateUnauthenticated
	}
	snap := Snapshot{Session: m.current, Loading: false}
	subs := make([]func(Snapshot), 0, len(m.subs))
	for _, fn := range m.subs {
		subs = append(subs, fn)
	}
	m.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}

// ---- Operaciones mutantes ----
// Pass-throughs finos al proveedor: errores conocidos se traducen a la
// taxonomía, el resto se re-lanza sin cambios.

// Register crea una cuenta email/password. La resolución/publicación la
// dispara el evento del stream que produce el proveedor.
func (m *Manager) Register(ctx context.Context, email, password string) (*identity.User, error) {
	m.setLoading()
	u, err := m.provider.Register(ctx, email, password)
	if err != nil {
		m.clearLoading()
		return nil, mapProviderError(err)
	}
	metrics.SignIns.WithLabelValues(identity.PasswordProviderID, "register").Inc()
	return u, nil
}

// SignInPassword autentica con email/password.
func (m *Manager) SignInPassword(ctx context.Context, email, password string) (*identity.User, error) {
	m.setLoading()
	u, err := m.provider.SignInPassword(ctx, email, password)
	if err != nil {
		m.clearLoading()
		return nil, mapProviderError(err)
	}
	metrics.SignIns.WithLabelValues(identity.PasswordProviderID, "ok").Inc()
	return u, nil
}

// SignInSocialPopup ejecuta el login social. Limpia cualquier sesión previa
// antes de abrir el flujo, corre el pipeline sobre el resultado del popup y
// retorna la sesión armada desde ese resultado, sin esperar el próximo
// evento del stream. El evento posterior para el mismo uid es una
// re-confirmación no-op.
func (m *Manager) SignInSocialPopup(ctx context.Context, cred *identity.Credential) (*Session, error) {
	m.mu.Lock()
	if m.popup {
		m.mu.Unlock()
		return nil, ErrConcurrentPopupRequest
	}
	m.popup = true
	m.supersedeLocked()
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		m.popup = false
		m.mu.Unlock()
	}()

	// Sesión previa fuera: evita carreras con una sesión obsoleta.
	if m.provider.CurrentUser() != nil {
		if err := m.provider.SignOut(ctx); err != nil {
			m.log.Warn("pre-popup sign-out failed", logger.Err(err))
		}
	}
	m.setLoading()

	res, err := m.provider.SignInIDP(ctx, cred)
	if err != nil {
		m.publish(nil)
		metrics.SignIns.WithLabelValues(identity.GoogleProviderID, "error").Inc()
		return nil, mapProviderError(err)
	}

	sess, err := m.resolve(ctx, res.User, res.Credential)
	if err != nil {
		metrics.SignIns.WithLabelValues(identity.GoogleProviderID, "rejected").Inc()
		if err == errSuperseded {
			return nil, ErrConcurrentPopupRequest
		}
		return nil, err
	}
	metrics.SignIns.WithLabelValues(identity.GoogleProviderID, "ok").Inc()
	return sess, nil
}

// SignOut cierra la sesión. Registra el email saliente antes del sign-out y
// después limpia los datos locales de ese usuario; la limpieza es
// best-effort y nunca impide completar el logout.
func (m *Manager) SignOut(ctx context.Context) error {
	m.mu.Lock()
	var email string
	if m.current != nil {
		email = m.current.Email
	}
	m.supersedeLocked()
	m.mu.Unlock()
	m.setLoading()

	if err := m.provider.SignOut(ctx); err != nil {
		m.clearLoading()
		return mapProviderError(err)
	}

	if m.opts.Cache != nil {
		var cerr error
		if email != "" {
			cerr = m.opts.Cache.ClearUserData(ctx, email)
		} else {
			cerr = m.opts.Cache.ClearAll(ctx)
		}
		if cerr != nil {
			m.log.Warn("local cache cleanup failed", logger.Email(email), logger.Err(cerr))
		}
	}
	if m.opts.Sync != nil {
		if err := m.opts.Sync.Release(ctx); err != nil {
			m.log.Warn("sync release failed", logger.Err(err))
		}
	}

	m.publish(nil)
	m.log.Info("signed out", logger.Email(email))
	return nil
}

// UpdateProfile actualiza displayName/photoURL del usuario vivo.
func (m *Manager) UpdateProfile(ctx context.Context, up identity.ProfileUpdate) error {
	if m.provider.CurrentUser() == nil {
		return ErrNoActiveSession
	}
	if err := m.provider.UpdateProfile(ctx, up); err != nil {
		return mapProviderError(err)
	}
	return nil
}

// RequestEmailVerification dispara el email de verificación del proveedor.
func (m *Manager) RequestEmailVerification(ctx context.Context) error {
	if m.provider.CurrentUser() == nil {
		return ErrNoActiveSession
	}
	if err := m.provider.SendVerificationEmail(ctx); err != nil {
		return mapProviderError(err)
	}
	return nil
}

// Reload re-consulta el usuario vivo, re-normaliza y re-publica. Sirve para
// levantar cambios out-of-band (verificación, foto) sin re-autenticar.
func (m *Manager) Reload(ctx context.Context) (*Session, error) {
	raw, err := m.provider.Reload(ctx)
	if err != nil {
		return nil, mapProviderError(err)
	}
	email, _, ok := m.norm.ResolveEmail(raw)
	if !ok {
		return nil, m.failResolution(ctx, m.log, ErrNoEmailResolved)
	}
	if !m.domainAllowed(email) {
		return nil, m.failResolution(ctx, m.log, ErrUnauthorizedDomain)
	}
	sess := m.norm.Normalize(raw, email)
	m.publish(sess)
	return sess, nil
}
