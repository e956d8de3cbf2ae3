package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/AlexZinkM/stealth-link/internal/config"
	"github.com/AlexZinkM/stealth-link/internal/crypto"
	"github.com/AlexZinkM/stealth-link/internal/log"
	"github.com/AlexZinkM/stealth-link/internal/metrics"
	"github.com/AlexZinkM/stealth-link/internal/model"
	"github.com/AlexZinkM/stealth-link/stealth"
	"github.com/AlexZinkM/stealth-link/wallet"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
)

const exportWarning = "Anyone holding this string can find and spend every payment to your meta-address. Store it offline."

// StealthHandler serves the receiver's stealth wallet
type StealthHandler struct {
	filePath string
	metrics  metrics.Recorder
}

// NewStealthHandler creates a new StealthHandler with config values
func NewStealthHandler(recorder metrics.Recorder) (*StealthHandler, error) {
	filePath := config.GetStealthFilePath()
	if filePath == "" {
		return nil, errors.New("STEALTH_FILE_PATH not set")
	}
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}

	return &StealthHandler{
		filePath: filePath,
		metrics:  recorder,
	}, nil
}

// Generate handles POST /stealth/generate
// @Summary      Generate stealth wallet
// @Description  Generates spending and viewing keypairs and saves them to the .cwt file
// @Tags         stealth
// @Accept       json
// @Produce      json
// @Success      200  {object}  model.GenerateResponse
// @Failure      409  {object}  model.ErrorResponse
// @Router       /stealth/generate [post]
func (h *StealthHandler) Generate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. should be POST", http.StatusMethodNotAllowed)
		return
	}

	passwordBytes, err := config.GetPasswordBytes()
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	defer clear(passwordBytes) // Always clear password from memory

	metaAddress, err := wallet.GenerateStealthWallet(h.filePath, passwordBytes)
	if err != nil {
		if wallet.IsFileExistsError(err) {
			writeError(w, http.StatusConflict, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	h.writeMeta(w, "Wallet generated successfully", metaAddress)
}

// Import handles POST /stealth/import
// @Summary      Import stealth wallet
// @Description  Saves a previously exported wallet to the .cwt file
// @Tags         stealth
// @Accept       json
// @Produce      json
// @Param        request  body      model.ImportRequest  true  "Exported wallet"
// @Success      200      {object}  model.GenerateResponse
// @Failure      400      {object}  model.ErrorResponse
// @Failure      409      {object}  model.ErrorResponse
// @Router       /stealth/import [post]
func (h *StealthHandler) Import(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. Should be POST", http.StatusMethodNotAllowed)
		return
	}

	var req model.ImportRequest
	if err := decodeRequest(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	passwordBytes, err := config.GetPasswordBytes()
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	defer clear(passwordBytes)

	metaAddress, err := wallet.ImportStealthWallet(h.filePath, req.Wallet, passwordBytes)
	switch {
	case err == nil:
	case wallet.IsFileExistsError(err):
		writeError(w, http.StatusConflict, err)
		return
	case errors.Is(err, stealth.ErrMalformedEncoding):
		writeError(w, http.StatusBadRequest, err)
		return
	default:
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	h.writeMeta(w, "Wallet imported successfully", metaAddress)
}

func (h *StealthHandler) writeMeta(w http.ResponseWriter, message, metaAddress string) {
	qr, err := wallet.QRCode(metaAddress)
	if err != nil {
		// The wallet is saved, a missing QR is not worth failing for
		log.Warn("failed to render meta-address QR", zap.Error(err))
	}

	writeJSON(w, http.StatusOK, model.GenerateResponse{
		Success:     true,
		Message:     message,
		MetaAddress: metaAddress,
		QR:          qr,
	})
}

// Meta handles GET /stealth/meta
// @Summary      Get meta-address
// @Description  Reads the meta-address from the keyfile header, no password needed
// @Tags         stealth
// @Produce      json
// @Success      200  {object}  model.MetaResponse
// @Router       /stealth/meta [get]
func (h *StealthHandler) Meta(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. Should be GET", http.StatusMethodNotAllowed)
		return
	}

	metaAddress, err := wallet.ReadMetaAddress(h.filePath)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	meta, err := stealth.ParseMetaAddress(metaAddress)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, model.MetaResponse{
		MetaAddress:    metaAddress,
		SpendingPubKey: meta.SpendingPubKey.String(),
		ViewingPubKey:  meta.ViewingPubKey.String(),
	})
}

// Derive handles POST /stealth/derive
// @Summary      Derive one-time address
// @Description  Derives a fresh one-time address and ephemeral key for any meta-address
// @Tags         stealth
// @Accept       json
// @Produce      json
// @Param        request  body      model.DeriveRequest  true  "Receiver meta-address"
// @Success      200      {object}  model.DeriveResponse
// @Failure      400      {object}  model.ErrorResponse
// @Router       /stealth/derive [post]
func (h *StealthHandler) Derive(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. Should be POST", http.StatusMethodNotAllowed)
		return
	}

	var req model.DeriveRequest
	if err := decodeRequest(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	payment, err := stealth.DeriveStealthAddress(req.MetaAddress)
	if err != nil {
		// Low-order viewing keys fail the primitive, still the caller's input
		if errors.Is(err, stealth.ErrMalformedEncoding) || errors.Is(err, stealth.ErrCryptoPrimitive) {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	h.metrics.IncCounter(metrics.PaymentDerived, nil)
	writeJSON(w, http.StatusOK, model.DeriveResponse{
		OneTimeAddress:  payment.OneTimeAddress.String(),
		EphemeralPubKey: stealth.EncodeEphemeralKey(payment.EphemeralPubKey[:]),
	})
}

// Check handles POST /stealth/check
// @Summary      Check payment ownership
// @Description  Reports whether a one-time address belongs to this wallet
// @Tags         stealth
// @Accept       json
// @Produce      json
// @Param        request  body      model.CheckRequest  true  "Announcement"
// @Success      200      {object}  model.CheckResponse
// @Failure      400      {object}  model.ErrorResponse
// @Router       /stealth/check [post]
func (h *StealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. Should be POST", http.StatusMethodNotAllowed)
		return
	}

	var req model.CheckRequest
	if err := decodeRequest(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	ephemeral, err := stealth.DecodeEphemeralKey(req.EphemeralPubKey)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	address, err := solana.PublicKeyFromBase58(req.OneTimeAddress)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	sw, ok := h.loadWallet(w)
	if !ok {
		return
	}
	defer sw.Wipe()

	writeJSON(w, http.StatusOK, model.CheckResponse{
		Owned: stealth.CheckStealthPayment(sw, ephemeral, address),
	})
}

// Scan handles POST /stealth/scan
// @Summary      Scan announcements
// @Description  Returns the announcements paying this wallet, optionally with their spending keys
// @Tags         stealth
// @Accept       json
// @Produce      json
// @Param        request  body      model.ScanRequest  true  "Announcements to scan"
// @Success      200      {object}  model.ScanResponse
// @Failure      400      {object}  model.ErrorResponse
// @Router       /stealth/scan [post]
func (h *StealthHandler) Scan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. Should be POST", http.StatusMethodNotAllowed)
		return
	}

	var req model.ScanRequest
	if err := decodeRequest(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	sw, ok := h.loadWallet(w)
	if !ok {
		return
	}
	defer sw.Wipe()

	started := time.Now()
	resp := wallet.ScanAnnouncements(sw, req.Announcements, req.IncludeKeys)
	h.metrics.ObserveLatency("scan", time.Since(started), map[string]string{"result": "ok"})
	for i := 0; i < resp.Scanned; i++ {
		h.metrics.IncCounter(metrics.PaymentsScanned, nil)
	}
	for range resp.Owned {
		h.metrics.IncCounter(metrics.PaymentOwned, nil)
	}

	log.Debug("scan finished",
		zap.Int("scanned", resp.Scanned),
		zap.Int("skipped", resp.Skipped),
		zap.Int("owned", len(resp.Owned)),
	)
	writeJSON(w, http.StatusOK, resp)
}

// Export handles POST /stealth/export
// @Summary      Export stealth wallet
// @Description  Returns both private keys as a portable string
// @Tags         stealth
// @Produce      json
// @Success      200  {object}  model.ExportResponse
// @Router       /stealth/export [post]
func (h *StealthHandler) Export(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. Should be POST", http.StatusMethodNotAllowed)
		return
	}

	sw, ok := h.loadWallet(w)
	if !ok {
		return
	}
	defer sw.Wipe()

	exported, err := stealth.ExportWallet(sw)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	log.Warn("stealth wallet exported", zap.String("metaAddress", sw.MetaAddress))
	writeJSON(w, http.StatusOK, model.ExportResponse{
		Wallet:  exported,
		Warning: exportWarning,
	})
}

// loadWallet decrypts the keyfile with the in-memory password, writing the error response on failure
func (h *StealthHandler) loadWallet(w http.ResponseWriter) (*stealth.Wallet, bool) {
	passwordBytes, err := config.GetPasswordBytes()
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return nil, false
	}
	defer clear(passwordBytes)

	sw, err := wallet.LoadStealthWallet(h.filePath, passwordBytes)
	if err != nil {
		if errors.Is(err, crypto.ErrInvalidPassword) {
			writeError(w, http.StatusUnauthorized, err)
			return nil, false
		}
		writeError(w, http.StatusInternalServerError, err)
		return nil, false
	}
	return sw, true
}
