package api

import (
	"fmt"
	"net/http"
	"net/url"

	"QuickBill305/api/constants"

	"github.com/gorilla/mux"
)

// NewRouter builds the gateway: auth endpoints served locally, /fees/
// proxied to the fees service at feesTarget.
func NewRouter(svc Authenticator, feesTarget string) (*mux.Router, error) {
	target, err := url.Parse(feesTarget)
	if err != nil || target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("gateway: bad fees target %q", feesTarget)
	}

	router := mux.NewRouter()
	router.Use(RequestLogger)

	router.HandleFunc("/auth/login", LoginHandler(svc)).Methods(http.MethodPost)
	router.HandleFunc("/auth/logout", LogoutHandler(svc)).Methods(http.MethodPost)
	router.HandleFunc("/healthz", HealthHandler).Methods(http.MethodGet)
	router.PathPrefix("/fees/").Handler(createReverseProxy(target))

	router.NotFoundHandler = http.HandlerFunc(notFoundHandler)
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		RespondWithError(w, http.StatusMethodNotAllowed, constants.ErrMethodNotAllowed)
	})
	return router, nil
}
