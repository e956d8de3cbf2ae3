package handler

import (
	"errors"
	"net/http"

	"github.com/AlexZinkM/stealth-link/claim"
	"github.com/AlexZinkM/stealth-link/internal/common"
	"github.com/AlexZinkM/stealth-link/internal/log"
	"github.com/AlexZinkM/stealth-link/internal/model"
	"github.com/AlexZinkM/stealth-link/wallet"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ClaimHandler serves the claim-link lifecycle
type ClaimHandler struct {
	svc *claim.Service
}

// NewClaimHandler creates a new ClaimHandler
func NewClaimHandler(svc *claim.Service) (*ClaimHandler, error) {
	if svc == nil {
		return nil, errors.New("claim service not configured")
	}
	return &ClaimHandler{svc: svc}, nil
}

// Create handles POST /claim/create
// @Summary      Create claim link
// @Description  Bridges funds to a fresh one-time address and returns a bearer claim link
// @Tags         claim
// @Accept       json
// @Produce      json
// @Param        request  body      model.CreateClaimRequest  true  "Funding request"
// @Success      200      {object}  model.ClaimResponse
// @Failure      400      {object}  model.ErrorResponse
// @Failure      422      {object}  model.ErrorResponse
// @Failure      429      {object}  model.ErrorResponse
// @Failure      502      {object}  model.ClaimResponse
// @Failure      503      {object}  model.ErrorResponse
// @Router       /claim/create [post]
func (h *ClaimHandler) Create(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. Should be POST", http.StatusMethodNotAllowed)
		return
	}

	var req model.CreateClaimRequest
	if err := decodeRequest(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	c, err := h.svc.Create(r.Context(), claim.CreateRequest{
		OriginChain: req.OriginChain,
		OriginToken: req.OriginToken,
		Token:       req.Token,
		Amount:      req.Amount,
	})
	if c != nil && c.Link != nil {
		defer c.Link.Wipe()
	}
	if err != nil {
		switch {
		case errors.Is(err, claim.ErrCooldown):
			writeError(w, http.StatusTooManyRequests, err)
		case errors.Is(err, claim.ErrUnknownToken), errors.Is(err, claim.ErrInvalidRequest):
			writeError(w, http.StatusBadRequest, err)
		case errors.Is(err, claim.ErrNoRoute):
			writeErrorCode(w, http.StatusUnprocessableEntity, "NO_ROUTE", err)
		case errors.Is(err, claim.ErrFunderUnavailable):
			writeErrorCode(w, http.StatusServiceUnavailable, "NO_FUNDER", err)
		case c != nil:
			// Abandoned after the claim existed: report its state, and the link if funds may still land
			resp := claimResponse(c)
			resp.Error = err.Error()
			writeJSON(w, http.StatusBadGateway, resp)
		default:
			writeError(w, http.StatusInternalServerError, err)
		}
		return
	}

	writeJSON(w, http.StatusOK, claimResponse(c))
}

// Inspect handles POST /claim/inspect
// @Summary      Inspect claim link
// @Description  Shows what a link holds, valued in USD when prices are available
// @Tags         claim
// @Accept       json
// @Produce      json
// @Param        request  body      model.InspectRequest  true  "Claim link"
// @Success      200      {object}  model.InspectResponse
// @Failure      400      {object}  model.ErrorResponse
// @Router       /claim/inspect [post]
func (h *ClaimHandler) Inspect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. Should be POST", http.StatusMethodNotAllowed)
		return
	}

	var req model.InspectRequest
	if err := decodeRequest(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	insp, err := h.svc.Inspect(r.Context(), req.Link)
	if err != nil {
		if errors.Is(err, claim.ErrInvalidLink) {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		writeError(w, http.StatusBadGateway, err)
		return
	}

	writeJSON(w, http.StatusOK, h.inspectResponse(insp))
}

// Redeem handles POST /claim/redeem
// @Summary      Redeem claim link
// @Description  Sweeps everything at the link's address to the destination wallet
// @Tags         claim
// @Accept       json
// @Produce      json
// @Param        request  body      model.RedeemRequest  true  "Link and destination"
// @Success      200      {object}  model.ClaimResponse
// @Failure      400      {object}  model.ErrorResponse
// @Failure      409      {object}  model.ErrorResponse
// @Router       /claim/redeem [post]
func (h *ClaimHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. Should be POST", http.StatusMethodNotAllowed)
		return
	}

	var req model.RedeemRequest
	if err := decodeRequest(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	c, err := h.svc.Redeem(r.Context(), claim.RedeemRequest{
		Link:        req.Link,
		Destination: req.Destination,
		Sponsored:   req.Sponsored,
	})
	if err != nil {
		switch {
		case errors.Is(err, claim.ErrInvalidLink), errors.Is(err, claim.ErrInvalidRequest):
			writeError(w, http.StatusBadRequest, err)
		case errors.Is(err, claim.ErrLinkEmpty):
			writeErrorCode(w, http.StatusConflict, "LINK_EMPTY", err)
		case errors.Is(err, claim.ErrFeesRequired):
			writeErrorCode(w, http.StatusPaymentRequired, "FEES_REQUIRED", err)
		case errors.Is(err, claim.ErrSponsorUnavailable):
			writeErrorCode(w, http.StatusServiceUnavailable, "NO_SPONSOR", err)
		default:
			writeError(w, http.StatusBadGateway, err)
		}
		return
	}

	resp := claimResponse(c)
	// The redeemer already holds the link
	resp.Link = ""
	writeJSON(w, http.StatusOK, resp)
}

func claimResponse(c *claim.Claim) model.ClaimResponse {
	resp := model.ClaimResponse{
		State:          string(c.State),
		OneTimeAddress: c.OneTimeAddress.String(),
		FundingTx:      c.FundingTx,
		ClaimTx:        c.ClaimTx,
		Reason:         c.Reason,
	}
	if c.EphemeralPubKey != (solana.PublicKey{}) {
		resp.EphemeralPubKey = c.EphemeralPubKey.String()
	}
	if c.Link != nil && len(c.Link.SecretKey) > 0 {
		resp.Link = c.Link.String()
		qr, err := wallet.QRCode(resp.Link)
		if err != nil {
			log.Warn("failed to render claim link QR", zap.Error(err))
		}
		resp.QR = qr
	}
	return resp
}

func (h *ClaimHandler) inspectResponse(insp *claim.Inspection) model.InspectResponse {
	resp := model.InspectResponse{
		OneTimeAddress: insp.Link.OneTimeAddress.String(),
		Chain:          insp.Link.Chain,
		Token:          insp.Link.Token,
		Empty:          insp.IsEmpty(),
		Balances:       []model.TokenAmount{},
		Activity:       insp.Activity,
	}
	if resp.Activity == nil {
		resp.Activity = []model.Activity{}
	}

	total := decimal.Zero
	priced := false
	line := func(t model.Token, amount uint64) model.TokenAmount {
		ta := model.TokenAmount{
			Symbol: t.Symbol,
			Mint:   t.Mint,
			Amount: common.FormatUnits(amount, t.Decimals),
		}
		if price, ok := insp.Prices[t.CoingeckoID]; ok {
			value := common.USDValue(amount, t.Decimals, price)
			ta.USDValue = value.StringFixed(2)
			total = total.Add(value)
			priced = true
		}
		return ta
	}

	if insp.Balances.Lamports > 0 {
		native := model.Token{Symbol: "SOL", Decimals: common.SOLDecimals}
		for _, t := range h.svc.Tokens() {
			if t.IsNative() {
				native = t
				break
			}
		}
		resp.Balances = append(resp.Balances, line(native, insp.Balances.Lamports))
	}
	for _, tb := range insp.Balances.Tokens {
		if tb.Amount == 0 {
			continue
		}
		resp.Balances = append(resp.Balances, line(tb.Token, tb.Amount))
	}

	if priced {
		resp.TotalUSD = total.StringFixed(2)
	}
	return resp
}
