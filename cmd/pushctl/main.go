package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/dropDatabas3/hellopush/internal/jwks"
)

type client struct {
	BaseURL string
	HTTP    *http.Client
}

func (c *client) do(method, path string, body []byte, headers map[string]string) (int, []byte, error) {
	req, err := http.NewRequest(method, strings.TrimRight(c.BaseURL, "/")+path, bytes.NewReader(body))
	if err != nil {
		return 0, nil, err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, b, nil
}

func envOr(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

// buildEnvelope arma el body que mandaría Pub/Sub para data.
func buildEnvelope(data, subscription string, attrs map[string]string) ([]byte, string, error) {
	id := uuid.NewString()
	env := map[string]any{
		"message": map[string]any{
			"data":        base64.StdEncoding.EncodeToString([]byte(data)),
			"attributes":  attrs,
			"messageId":   id,
			"publishTime": time.Now().UTC().Format(time.RFC3339Nano),
		},
		"subscription": subscription,
	}
	b, err := json.Marshal(env)
	return b, id, err
}

func newRootCmd() *cobra.Command {
	var (
		baseURL = envOr("HELLOPUSH_URL", "http://localhost:8080")
		timeout = 30 * time.Second
	)
	cl := &client{HTTP: &http.Client{Timeout: timeout}}

	root := &cobra.Command{
		Use:           "pushctl",
		Short:         "CLI de desarrollo para hellopush (publicar, simular pushes, ver claves)",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cl.BaseURL = baseURL
		},
	}
	root.PersistentFlags().StringVar(&baseURL, "url", baseURL, "URL base del servicio (env HELLOPUSH_URL)")

	// publish: POST / con el form
	var payload string
	publishCmd := &cobra.Command{
		Use:   "publish",
		Short: "Publicar un mensaje vía el form de la página índice",
		RunE: func(cmd *cobra.Command, args []string) error {
			if payload == "" {
				return fmt.Errorf("--payload es requerido")
			}
			form := url.Values{"payload": {payload}}.Encode()
			status, body, err := cl.do(http.MethodPost, "/", []byte(form), map[string]string{
				"Content-Type": "application/x-www-form-urlencoded",
			})
			if err != nil {
				return err
			}
			if status/100 != 2 {
				return fmt.Errorf("publish fallo: status=%d body=%s", status, string(body))
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(body))
			return nil
		},
	}
	publishCmd.Flags().StringVar(&payload, "payload", "", "Texto a publicar")

	// push: simula una entrega de Pub/Sub
	var (
		pushToken     string
		pushData      string
		pushBearer    string
		pushSub       string
		pushAttrs     map[string]string
		pushPrintOnly bool
	)
	pushCmd := &cobra.Command{
		Use:   "push",
		Short: "Enviar un push envelope a /pubsub/push (o authenticated-push con --bearer)",
		RunE: func(cmd *cobra.Command, args []string) error {
			body, id, err := buildEnvelope(pushData, pushSub, pushAttrs)
			if err != nil {
				return err
			}
			if pushPrintOnly {
				fmt.Fprintln(cmd.OutOrStdout(), string(body))
				return nil
			}
			path := "/pubsub/push"
			headers := map[string]string{"Content-Type": "application/json"}
			if pushBearer != "" {
				path = "/pubsub/authenticated-push"
				headers["Authorization"] = "Bearer " + pushBearer
			}
			status, resp, err := cl.do(http.MethodPost, path+"?token="+url.QueryEscape(pushToken), body, headers)
			if err != nil {
				return err
			}
			if status/100 != 2 {
				return fmt.Errorf("push fallo: status=%d body=%s", status, string(resp))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "push %s aceptado (status=%d)\n", id, status)
			return nil
		},
	}
	pushCmd.Flags().StringVar(&pushToken, "token", envOr("PUBSUB_VERIFICATION_TOKEN", ""), "Token de verificación (env PUBSUB_VERIFICATION_TOKEN)")
	pushCmd.Flags().StringVar(&pushData, "data", "", "Contenido del mensaje (texto plano)")
	pushCmd.Flags().StringVar(&pushBearer, "bearer", "", "ID token para authenticated-push")
	pushCmd.Flags().StringVar(&pushSub, "subscription", "projects/local/subscriptions/pushctl", "Nombre de la suscripción")
	pushCmd.Flags().StringToStringVar(&pushAttrs, "attr", nil, "Atributos key=value")
	pushCmd.Flags().BoolVar(&pushPrintOnly, "print", false, "Sólo imprimir el envelope, sin enviarlo")

	// keys: baja el key set y lista los kids
	var jwksURL, discoveryURL string
	keysCmd := &cobra.Command{
		Use:   "keys",
		Short: "Listar las claves de firma publicadas por el IdP",
		RunE: func(cmd *cobra.Command, args []string) error {
			f := jwks.NewHTTPFetcher(jwks.HTTPFetcherConfig{
				JWKSURL:      jwksURL,
				DiscoveryURL: discoveryURL,
				Timeout:      timeout,
			})
			set, err := f.Fetch(context.Background())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, kid := range set.KeyIDs() {
				k, _ := set.Lookup(kid)
				alg := k.Algorithm
				if alg == "" {
					alg = "-"
				}
				fmt.Fprintf(out, "%s\t%s\t%T\n", kid, alg, k.Public)
			}
			if !set.ExpiresAt.IsZero() {
				fmt.Fprintf(out, "expires_at=%s\n", set.ExpiresAt.UTC().Format(time.RFC3339))
			}
			return nil
		},
	}
	keysCmd.Flags().StringVar(&jwksURL, "jwks-url", "", "URL del JWKS (default: certs de Google)")
	keysCmd.Flags().StringVar(&discoveryURL, "discovery-url", "", "URL del discovery OIDC (usa jwks_uri)")

	root.AddCommand(publishCmd, pushCmd, keysCmd)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
