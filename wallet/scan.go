package wallet

import (
	"github.com/AlexZinkM/stealth-link/internal/model"
	"github.com/AlexZinkM/stealth-link/stealth"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
)

// ScanAnnouncements finds the announcements that pay w.
// Malformed announcements are counted as skipped, never fail the scan.
func ScanAnnouncements(w *stealth.Wallet, announcements []model.Announcement, includeKeys bool) *model.ScanResponse {
	resp := &model.ScanResponse{Owned: []model.OwnedPayment{}}

	for _, a := range announcements {
		resp.Scanned++

		ephemeral, err := stealth.DecodeEphemeralKey(a.EphemeralPubKey)
		if err != nil {
			resp.Skipped++
			continue
		}
		address, err := solana.PublicKeyFromBase58(a.OneTimeAddress)
		if err != nil {
			resp.Skipped++
			continue
		}

		key, err := stealth.DeriveStealthPrivateKey(w, ephemeral)
		if err != nil {
			resp.Skipped++
			continue
		}

		if key.PublicKey().Equals(address) {
			owned := model.OwnedPayment{
				OneTimeAddress:  address.String(),
				EphemeralPubKey: a.EphemeralPubKey,
			}
			if includeKeys {
				owned.SecretKey = base58.Encode(key)
			}
			resp.Owned = append(resp.Owned, owned)
		}
		clear(key)
	}

	return resp
}
