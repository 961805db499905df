package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

// seumatchctl: cliente de línea de comandos contra la API del servidor.

type client struct {
	BaseURL   string
	OutFormat string // "json" | "text"
	HTTP      *http.Client
}

func (c *client) do(method, path string, body []byte) (int, []byte, error) {
	url := strings.TrimRight(c.BaseURL, "/") + path
	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	if err != nil {
		return 0, nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, b, nil
}

func (c *client) print(status int, body []byte) {
	if c.OutFormat == "json" {
		var v any
		if json.Unmarshal(body, &v) == nil {
			p, _ := json.MarshalIndent(v, "", "  ")
			fmt.Println(string(p))
			return
		}
	}
	if len(body) > 0 {
		fmt.Println(string(body))
	} else {
		fmt.Printf("status=%d\n", status)
	}
}

func main() {
	c := &client{HTTP: &http.Client{Timeout: 30 * time.Second}}

	root := &cobra.Command{
		Use:   "seumatchctl",
		Short: "CLI client for the seumatch server API",
	}
	root.PersistentFlags().StringVar(&c.BaseURL, "base-url", envOr("SEUMATCH_URL", "http://localhost:8080"), "server base URL")
	root.PersistentFlags().StringVarP(&c.OutFormat, "output", "o", "json", "output format: json|text")

	root.AddCommand(
		sessionCmd(c),
		loginCmd(c),
		logoutCmd(c),
		reloadCmd(c),
		themeCmd(c),
		pushCmd(c),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func sessionCmd(c *client) *cobra.Command {
	return &cobra.Command{
		Use:   "session",
		Short: "Show the current session snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, body, err := c.do("GET", "/v1/auth/session", nil)
			if err != nil {
				return err
			}
			c.print(status, body)
			return nil
		},
	}
}

func loginCmd(c *client) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with email/password",
		RunE: func(cmd *cobra.Command, args []string) error {
			b, _ := json.Marshal(map[string]string{"email": email, "password": password})
			status, body, err := c.do("POST", "/v1/auth/login", b)
			if err != nil {
				return err
			}
			c.print(status, body)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func logoutCmd(c *client) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and clear cached user data",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, body, err := c.do("POST", "/v1/auth/logout", nil)
			if err != nil {
				return err
			}
			c.print(status, body)
			return nil
		},
	}
}

func reloadCmd(c *client) *cobra.Command {
	return &cobra.Command{
		Use:   "reload",
		Short: "Reload the live provider user and republish the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, body, err := c.do("POST", "/v1/auth/reload", nil)
			if err != nil {
				return err
			}
			c.print(status, body)
			return nil
		},
	}
}

func themeCmd(c *client) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "theme",
		Short: "Inspect or toggle the persisted UI theme",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "get",
			Short: "Show the active theme",
			RunE: func(cmd *cobra.Command, args []string) error {
				status, body, err := c.do("GET", "/v1/theme/", nil)
				if err != nil {
					return err
				}
				c.print(status, body)
				return nil
			},
		},
		&cobra.Command{
			Use:   "toggle",
			Short: "Toggle light/dark",
			RunE: func(cmd *cobra.Command, args []string) error {
				status, body, err := c.do("POST", "/v1/theme/toggle", nil)
				if err != nil {
					return err
				}
				c.print(status, body)
				return nil
			},
		},
	)
	return cmd
}

func pushCmd(c *client) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "push",
		Short: "Push registration operations",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "status",
			Short: "Show push support and permission state",
			RunE: func(cmd *cobra.Command, args []string) error {
				status, body, err := c.do("GET", "/v1/push/status", nil)
				if err != nil {
					return err
				}
				c.print(status, body)
				return nil
			},
		},
		&cobra.Command{
			Use:   "register",
			Short: "Request permission and register for push",
			RunE: func(cmd *cobra.Command, args []string) error {
				status, body, err := c.do("POST", "/v1/push/register", nil)
				if err != nil {
					return err
				}
				c.print(status, body)
				return nil
			},
		},
	)
	return cmd
}
