package relay

import (
	"fmt"
	"strings"

	"github.com/ostium-labs/arbbot/internal/primitives"
	"github.com/ostium-labs/arbbot/internal/wallet"
)

// eip191Prefix is the EIP-191 personal-message salt: "66" is the fixed hex
// length of the inner keccak digest ("0x" + 64 hex chars), not computed
// dynamically, since it never changes for this message shape.
const eip191Prefix = "\x19Ethereum Signed Message:\n66"

// signBody computes the X-Flashbots-Signature header value for body,
// signed by signer (step 3).
func signBody(body []byte, signer wallet.LocalWallet) (string, error) {
	innerDigest := primitives.Keccak256(body)
	innerHex := "0x" + fmt.Sprintf("%x", innerDigest[:])
	outerDigest := primitives.Keccak256([]byte(eip191Prefix), []byte(innerHex))

	sig, err := signer.Sign(outerDigest)
	if err != nil {
		return "", fmt.Errorf("relay: sign body: %w", err)
	}

	return fmt.Sprintf("%s:0x%x", strings.ToLower(signer.Address()), sig[:]), nil
}
