package verifier

import (
	"context"
	"crypto/md5"
	"crypto/subtle"
	"encoding/hex"
	"sort"
	"strings"

	"github.com/go-pay/gopay"
	"github.com/go-pay/gopay/alipay"
)

// Sign types carried in sign_type.
const (
	SignTypeMD5  = "MD5"
	SignTypeRSA  = "RSA"
	SignTypeRSA2 = "RSA2"
)

// SignatureVerifier checks the sign parameter according to sign_type: MD5
// with the partner key, or RSA/RSA2 with the wallet's public key.
type SignatureVerifier struct {
	md5Key    string
	publicKey string
}

// NewSignatureVerifier creates a signature verifier. An empty key disables
// the corresponding sign type.
func NewSignatureVerifier(md5Key, publicKey string) *SignatureVerifier {
	return &SignatureVerifier{md5Key: md5Key, publicKey: publicKey}
}

// Verify implements Verifier.
func (v *SignatureVerifier) Verify(_ context.Context, n *Notification) error {
	sign := n.Get("sign")
	if sign == "" {
		return unverified("missing sign")
	}

	signType := strings.ToUpper(n.Get("sign_type"))
	switch signType {
	case SignTypeMD5:
		if v.md5Key == "" {
			return unverified("md5 key not configured")
		}
		expected := MD5Sign(n.Params, v.md5Key)
		if subtle.ConstantTimeCompare([]byte(strings.ToLower(sign)), []byte(expected)) != 1 {
			return unverified("md5 signature mismatch")
		}
		return nil
	case SignTypeRSA, SignTypeRSA2, "":
		if v.publicKey == "" {
			return unverified("public key not configured")
		}
		return v.verifyRSA(n)
	default:
		return unverified("unsupported sign_type %q", signType)
	}
}

func (v *SignatureVerifier) verifyRSA(n *Notification) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = unverified("rsa verification panicked: %v", r)
		}
	}()

	bm := make(gopay.BodyMap)
	for key := range n.Params {
		bm.Set(key, n.Params.Get(key))
	}
	ok, verr := alipay.VerifySign(v.publicKey, bm)
	if verr != nil {
		return unverified("rsa signature: %v", verr)
	}
	if !ok {
		return unverified("rsa signature mismatch")
	}
	return nil
}

// MD5Sign computes the legacy MD5 signature: non-empty parameters except sign
// and sign_type, sorted by key, joined as k=v with &, followed by the key.
func MD5Sign(params map[string][]string, key string) string {
	keys := make([]string, 0, len(params))
	for k, vs := range params {
		if k == "sign" || k == "sign_type" || len(vs) == 0 || vs[0] == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(params[k][0])
	}
	b.WriteString(key)

	sum := md5.Sum([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}
