// Package wallet holds the two local keypairs the engine needs:
// the executor wallet that signs and submits transactions, and the relay
// identity used only to sign the Flashbots-style authentication header.
package wallet

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/ostium-labs/arbbot/internal/primitives"
)

// LocalWallet is a local secp256k1 keypair used to sign transactions and
// authentication headers without a remote signer.
type LocalWallet struct {
	PublicKey primitives.Address
	privateKey *ecdsa.PrivateKey
}

// New loads a wallet from a hex-encoded private key, with or without a
// leading "0x".
func New(privateKeyHex string) (LocalWallet, error) {
	trimmed := strings.TrimPrefix(strings.TrimPrefix(privateKeyHex, "0x"), "0X")
	key, err := crypto.HexToECDSA(trimmed)
	if err != nil {
		return LocalWallet{}, fmt.Errorf("wallet: decode private key: %w", err)
	}
	return LocalWallet{
		PublicKey: crypto.PubkeyToAddress(key.PublicKey),
		privateKey: key,
	}, nil
}

// Address renders the wallet's public address as a lowercase 0x-prefixed
// hex string, deliberately skipping EIP-55 checksum casing.
func (w LocalWallet) Address() string {
	return strings.ToLower(w.PublicKey.Hex())
}

// Sign produces a 65-byte [R || S || V] signature over digest (which must
// already be the final 32-byte hash to sign), with V in Electrum notation
// (27 or 28) rather than go-ethereum's native 0/1.
func (w LocalWallet) Sign(digest [32]byte) ([65]byte, error) {
	sig, err := crypto.Sign(digest[:], w.privateKey)
	if err != nil {
		return [65]byte{}, fmt.Errorf("wallet: sign: %w", err)
	}
	var out [65]byte
	copy(out[:], sig)
	out[64] += 27
	return out, nil
}

// SignTransaction signs tx for chainID using the EIP-155 signer.
func (w LocalWallet) SignTransaction(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	signer := types.LatestSignerForChainID(chainID)
	signed, err := types.SignTx(tx, signer, w.privateKey)
	if err != nil {
		return nil, fmt.Errorf("wallet: sign transaction: %w", err)
	}
	return signed, nil
}

// SignTransactions signs each of txs in order with strictly sequential
// nonces starting from startNonce (step 1, ordering guarantee).
func (w LocalWallet) SignTransactions(txs []*types.Transaction, startNonce uint64, chainID *big.Int) ([]*types.Transaction, error) {
	signed := make([]*types.Transaction, len(txs))
	nonce := startNonce
	for i, tx := range txs {
		renoncedInner := types.NewTx(&types.LegacyTx{
			Nonce: nonce,
			GasPrice: tx.GasPrice(),
			Gas: tx.Gas(),
			To: tx.To(),
			Value: tx.Value(),
			Data: tx.Data(),
		})
		s, err := w.SignTransaction(renoncedInner, chainID)
		if err != nil {
			return nil, fmt.Errorf("wallet: sign transaction %d: %w", i, err)
		}
		signed[i] = s
		nonce++
	}
	return signed, nil
}
