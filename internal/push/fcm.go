package push

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/seumatch/seumatch/internal/metrics"
	"github.com/seumatch/seumatch/internal/observability/logger"
)

const defaultFCMBaseURL = "https://fcmregistrations.googleapis.com/v1"

// Config configura el registrar FCM.
type Config struct {
	Enabled  bool
	VapidKey string
	BaseURL  string // override para testing
	APIKey   string
	Project  string
}

// FCM implementa Registrar contra el endpoint de registro de FCM, con un
// buzón in-process para los mensajes en primer plano.
type FCM struct {
	cfg  Config
	http *http.Client

	mu         sync.Mutex
	permission Permission
	token      string
	inbox      chan *Message
}

func NewFCM(cfg Config) *FCM {
	perm := PermissionDefault
	if !cfg.Enabled {
		perm = PermissionUnsupported
	}
	return &FCM{
		cfg:        cfg,
		http:       &http.Client{Timeout: 10 * time.Second},
		permission: perm,
		inbox:      make(chan *Message, 16),
	}
}

func (f *FCM) IsSupported() bool {
	return f.cfg.Enabled
}

func (f *FCM) CurrentPermission() Permission {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.permission
}

// RequestPermission registra el dispositivo contra FCM. Un rechazo del
// servicio se trata como permiso denegado: token vacío, sin error.
func (f *FCM) RequestPermission(ctx context.Context) (string, error) {
	if !f.cfg.Enabled {
		return "", ErrUnsupported
	}

	f.mu.Lock()
	if f.permission == PermissionGranted && f.token != "" {
		tok := f.token
		f.mu.Unlock()
		return tok, nil
	}
	f.mu.Unlock()

	tok, denied, err := f.register(ctx)
	if err != nil {
		return "", err
	}

	f.mu.Lock()
	if denied {
		f.permission = PermissionDenied
		f.token = ""
	} else {
		f.permission = PermissionGranted
		f.token = tok
	}
	perm := f.permission
	f.mu.Unlock()

	metrics.PushRegistrations.WithLabelValues(string(perm)).Inc()
	logger.L().Info("push registration resolved",
		logger.Component("push.fcm"),
		logger.String("permission", string(perm)),
	)
	if denied {
		return "", nil
	}
	return tok, nil
}

// register llama al endpoint de registro. denied=true cuando el servicio
// respondió 403 (el permiso fue rechazado, no es un fallo).
func (f *FCM) register(ctx context.Context) (token string, denied bool, err error) {
	base := strings.TrimRight(f.cfg.BaseURL, "/")
	if base == "" {
		base = defaultFCMBaseURL
	}
	body, _ := json.Marshal(map[string]any{
		"web": map[string]string{
			"applicationPubKey": f.cfg.VapidKey,
		},
	})
	u := fmt.Sprintf("%s/projects/%s/registrations", base, f.cfg.Project)
	req, _ := http.NewRequestWithContext(ctx, "POST", u, strings.NewReader(string(body)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Api-Key", f.cfg.APIKey)

	resp, err := f.http.Do(req)
	if err != nil {
		return "", false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusForbidden {
		return "", true, nil
	}
	if resp.StatusCode/100 != 2 {
		return "", false, fmt.Errorf("push: registration http %d", resp.StatusCode)
	}
	var out struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", false, err
	}
	return out.Token, false, nil
}

// OnForegroundMessage espera el próximo mensaje entregado a esta instancia.
func (f *FCM) OnForegroundMessage(ctx context.Context) (*Message, error) {
	if !f.cfg.Enabled {
		return nil, ErrUnsupported
	}
	select {
	case m := <-f.inbox:
		return m, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Deliver encola un mensaje en el buzón de primer plano. Lo usa el webhook
// del servicio de mensajería. Descarta si el buzón está lleno.
func (f *FCM) Deliver(m *Message) {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	select {
	case f.inbox <- m:
	default:
		logger.L().Warn("foreground inbox full, dropping message",
			logger.Component("push.fcm"),
			logger.String("message_id", m.ID),
		)
	}
}
