package api

import (
	"crypto/sha256"
	"encoding/hex"
	"net"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/op/go-logging"
)

var log = logging.MustGetLogger("API")

// GatewayConfig holds the settings for the local API gateway.
type GatewayConfig struct {
	Listener   net.Listener
	NoCors     bool
	AllowedIPs map[string]bool
	Username   string
	Password   string
}

// Gateway represents the local HTTP API over the wallet.
type Gateway struct {
	listener net.Listener
	wallet   WalletIface
	handler  http.Handler
	config   *GatewayConfig
}

// NewGateway instantiates a new gateway over the given wallet.
func NewGateway(w WalletIface, config *GatewayConfig) (*Gateway, error) {
	g := &Gateway{
		wallet:   w,
		config:   config,
		listener: config.Listener,
	}

	r := g.newV1Router()

	if !config.NoCors {
		r.Use(mux.CORSMethodMiddleware(r))
	}
	r.Use(g.AuthenticationMiddleware)

	g.handler = r
	return g, nil
}

// Close shuts down the Gateway listener.
func (g *Gateway) Close() error {
	return g.listener.Close()
}

// Serve begins listening on the configured address.
func (g *Gateway) Serve() error {
	log.Infof("Gateway/API server listening on %s", g.listener.Addr())
	return http.Serve(g.listener, g.handler)
}

func (g *Gateway) newV1Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/v1/wallet/txos", g.handleGETTxos).Methods("GET")
	r.HandleFunc("/v1/wallet/transaction/{txID}", g.handleGETTransaction).Methods("GET")
	r.HandleFunc("/v1/wallet/transaction/{txID}/submit", g.handlePOSTSubmit).Methods("POST")
	r.HandleFunc("/v1/wallet/assets", g.handleGETAssets).Methods("GET")
	r.HandleFunc("/v1/wallet/identities", g.handleGETIdentities).Methods("GET")

	return r
}

// AuthenticationMiddleware is called for each request. It checks the
// IP whitelist and validates basic authentication if set in the
// config.
func (g *Gateway) AuthenticationMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(g.config.AllowedIPs) > 0 {
			remoteAddr := strings.Split(r.RemoteAddr, ":")
			if !g.config.AllowedIPs[remoteAddr[0]] {
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}
		}
		if g.config.Username != "" && g.config.Password != "" {
			username, password, ok := r.BasicAuth()
			h := sha256.Sum256([]byte(password))
			password = hex.EncodeToString(h[:])
			if !ok || username != g.config.Username || password != g.config.Password {
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
