package stealth

import (
	"bytes"
	"errors"
	"sync"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"
)

func TestDerivationAgreement(t *testing.T) {
	w, err := GenerateWallet()
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		payment, err := DeriveStealthAddress(w.MetaAddress)
		require.NoError(t, err)

		key, err := DeriveStealthPrivateKey(w, payment.EphemeralPubKey[:])
		require.NoError(t, err)
		require.Equal(t, payment.OneTimeAddress, key.PublicKey())
	}
}

func TestDeriveStealthAddressNeverRepeats(t *testing.T) {
	w, err := GenerateWallet()
	require.NoError(t, err)

	first, err := DeriveStealthAddress(w.MetaAddress)
	require.NoError(t, err)
	second, err := DeriveStealthAddress(w.MetaAddress)
	require.NoError(t, err)

	require.NotEqual(t, first.EphemeralPubKey, second.EphemeralPubKey)
	require.NotEqual(t, first.OneTimeAddress, second.OneTimeAddress)
	require.NotEqual(t, solana.PublicKey{}, first.OneTimeAddress)
}

func TestDeriveStealthAddressIsDeterministicForFixedRandomness(t *testing.T) {
	w, err := generateWallet(bytes.NewReader(append(bytes.Repeat([]byte{7}, 32), bytes.Repeat([]byte{9}, 32)...)))
	require.NoError(t, err)

	ephemeralSeed := bytes.Repeat([]byte{42}, 32)
	first, err := deriveStealthAddress(bytes.NewReader(ephemeralSeed), w.MetaAddress)
	require.NoError(t, err)
	second, err := deriveStealthAddress(bytes.NewReader(ephemeralSeed), w.MetaAddress)
	require.NoError(t, err)

	require.Equal(t, first, second)
	require.Equal(t, keyFromSeed(ephemeralSeed).PublicKey(), first.EphemeralPubKey)
}

func TestCheckStealthPayment(t *testing.T) {
	alice, err := GenerateWallet()
	require.NoError(t, err)
	bob, err := GenerateWallet()
	require.NoError(t, err)

	payment, err := DeriveStealthAddress(alice.MetaAddress)
	require.NoError(t, err)

	require.True(t, CheckStealthPayment(alice, payment.EphemeralPubKey[:], payment.OneTimeAddress))
	require.False(t, CheckStealthPayment(bob, payment.EphemeralPubKey[:], payment.OneTimeAddress))

	bobPayment, err := DeriveStealthAddress(bob.MetaAddress)
	require.NoError(t, err)
	require.False(t, CheckStealthPayment(alice, bobPayment.EphemeralPubKey[:], bobPayment.OneTimeAddress))

	// Wrong candidate for the right ephemeral key
	require.False(t, CheckStealthPayment(alice, payment.EphemeralPubKey[:], bobPayment.OneTimeAddress))
	// Malformed input is not an error, just not ours
	require.False(t, CheckStealthPayment(alice, payment.EphemeralPubKey[:31], payment.OneTimeAddress))
	require.False(t, CheckStealthPayment(nil, payment.EphemeralPubKey[:], payment.OneTimeAddress))
}

func TestDeriveStealthAddressRejectsInvalidMetaAddress(t *testing.T) {
	payment, err := DeriveStealthAddress("st1")
	require.Nil(t, payment)
	require.ErrorIs(t, err, ErrMalformedEncoding)

	// 0x02..02 is not an Ed25519 point
	offCurve := EncodeMetaAddress(
		solana.PublicKeyFromBytes(bytes.Repeat([]byte{0x01}, 32)),
		solana.PublicKeyFromBytes(bytes.Repeat([]byte{0x02}, 32)),
	)
	payment, err = DeriveStealthAddress(offCurve)
	require.Nil(t, payment)
	require.ErrorIs(t, err, ErrMalformedEncoding)
}

func TestDeriveStealthPrivateKeyRejectsBadEphemeralKey(t *testing.T) {
	w, err := GenerateWallet()
	require.NoError(t, err)

	for _, size := range []int{0, 31, 33, 64} {
		key, err := DeriveStealthPrivateKey(w, make([]byte, size))
		require.Nil(t, key)
		require.ErrorIs(t, err, ErrMalformedEncoding)
	}

	// Identity point is on the curve but has low order
	identity := make([]byte, 32)
	identity[0] = 1
	key, err := DeriveStealthPrivateKey(w, identity)
	require.Nil(t, key)
	require.ErrorIs(t, err, ErrCryptoPrimitive)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("entropy source exhausted")
}

func TestRandomSourceFailureIsReported(t *testing.T) {
	w, err := generateWallet(failingReader{})
	require.Nil(t, w)
	require.ErrorIs(t, err, ErrCryptoPrimitive)

	receiver, err := GenerateWallet()
	require.NoError(t, err)

	payment, err := deriveStealthAddress(failingReader{}, receiver.MetaAddress)
	require.Nil(t, payment)
	require.ErrorIs(t, err, ErrCryptoPrimitive)
}

func TestNewWalletRejectsInconsistentKeys(t *testing.T) {
	w, err := GenerateWallet()
	require.NoError(t, err)

	tampered := append(solana.PrivateKey(nil), w.SpendingKey...)
	tampered[40] ^= 0xff

	_, err = NewWallet(tampered, w.ViewingKey)
	require.ErrorIs(t, err, ErrMalformedEncoding)

	_, err = NewWallet(w.SpendingKey[:32], w.ViewingKey)
	require.ErrorIs(t, err, ErrMalformedEncoding)
}

func TestWalletWipe(t *testing.T) {
	w, err := GenerateWallet()
	require.NoError(t, err)

	w.Wipe()
	require.Equal(t, make(solana.PrivateKey, 64), w.SpendingKey)
	require.Equal(t, make(solana.PrivateKey, 64), w.ViewingKey)
}

func TestConcurrentDerivations(t *testing.T) {
	w, err := GenerateWallet()
	require.NoError(t, err)

	const workers = 16
	payments := make([]*Payment, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			payments[i], errs[i] = DeriveStealthAddress(w.MetaAddress)
		}(i)
	}
	wg.Wait()

	seen := make(map[solana.PublicKey]bool, workers)
	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		require.False(t, seen[payments[i].OneTimeAddress])
		seen[payments[i].OneTimeAddress] = true
		require.True(t, CheckStealthPayment(w, payments[i].EphemeralPubKey[:], payments[i].OneTimeAddress))
	}
}
