package session

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const defaultUserinfoURL = "https://openidconnect.googleapis.com/v1/userinfo"

// UserinfoClient consulta el endpoint userinfo de Google con la credencial
// de acceso obtenida del resultado del popup. Un solo intento, con timeout
// acotado: es el fallback intermedio de la resolución de email.
type UserinfoClient struct {
	URL  string
	http *http.Client
}

func NewUserinfoClient(timeout time.Duration) *UserinfoClient {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &UserinfoClient{
		URL:  defaultUserinfoURL,
		http: &http.Client{Timeout: timeout},
	}
}

// Email retorna el email reportado por userinfo, o "" si no viene.
func (c *UserinfoClient) Email(ctx context.Context, accessToken string) (string, error) {
	u := c.URL
	if u == "" {
		u = defaultUserinfoURL
	}
	req, _ := http.NewRequestWithContext(ctx, "GET", u, nil)
	req.Header.Set("Authorization", "Bearer "+accessToken)
	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return "", fmt.Errorf("userinfo http %d", resp.StatusCode)
	}
	var body struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", err
	}
	return strings.TrimSpace(body.Email), nil
}
