package api

import (
	"net/http"

	"github.com/AlexZinkM/stealth-link/claim"
	"github.com/AlexZinkM/stealth-link/internal/handler"
	"github.com/AlexZinkM/stealth-link/internal/metrics"

	httpSwagger "github.com/swaggo/http-swagger"
)

// SetupRouter sets up router with handlers.
// metricsHandler is mounted on /metrics when not nil.
func SetupRouter(claimSvc *claim.Service, recorder metrics.Recorder, metricsHandler http.Handler) (http.Handler, error) {
	stealthHandler, err := handler.NewStealthHandler(recorder)
	if err != nil {
		return nil, err
	}
	claimHandler, err := handler.NewClaimHandler(claimSvc)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()

	// Swagger UI
	mux.HandleFunc("/swagger/", httpSwagger.WrapHandler)

	// Stealth wallet endpoints
	mux.HandleFunc("/stealth/generate", stealthHandler.Generate)
	mux.HandleFunc("/stealth/import", stealthHandler.Import)
	mux.HandleFunc("/stealth/meta", stealthHandler.Meta)
	mux.HandleFunc("/stealth/derive", stealthHandler.Derive)
	mux.HandleFunc("/stealth/check", stealthHandler.Check)
	mux.HandleFunc("/stealth/scan", stealthHandler.Scan)
	mux.HandleFunc("/stealth/export", stealthHandler.Export)

	// Claim link endpoints
	mux.HandleFunc("/claim/create", claimHandler.Create)
	mux.HandleFunc("/claim/inspect", claimHandler.Inspect)
	mux.HandleFunc("/claim/redeem", claimHandler.Redeem)

	if metricsHandler != nil {
		mux.Handle("/metrics", metricsHandler)
	}

	return mux, nil
}
