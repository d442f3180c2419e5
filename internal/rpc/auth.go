package rpc

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/LeJamon/goFracVault/internal/core/types"
	"github.com/LeJamon/goFracVault/internal/crypto"
	"github.com/LeJamon/goFracVault/internal/rpc/rpc_types"
	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	// signatureWindow bounds how far ahead a signed request may expire.
	signatureWindow = 5 * time.Minute

	// replayCacheSize bounds the remembered request digests.
	replayCacheSize = 1 << 16
)

// authenticator checks signed requests. A request is accepted once, until
// it expires, and only for the account its key derives.
type authenticator struct {
	mu   sync.Mutex
	seen *lru.Cache[[32]byte, time.Time]
	now  func() time.Time
}

func newAuthenticator() *authenticator {
	seen, err := lru.New[[32]byte, time.Time](replayCacheSize)
	if err != nil {
		panic(err)
	}
	return &authenticator{seen: seen, now: time.Now}
}

// authorize checks the signature of a call to a signed method. Admin
// callers may omit the signature; a signature that is present is always
// checked.
func (a *authenticator) authorize(method string, signer rpc_types.SignedMethod, role rpc_types.Role, params json.RawMessage) *rpc_types.RpcError {
	fields := map[string]json.RawMessage{}
	if len(params) > 0 {
		if err := json.Unmarshal(params, &fields); err != nil {
			return rpc_types.RpcErrorInvalidParams("Invalid parameters: " + err.Error())
		}
	}
	if _, signed := fields[rpc_types.FieldSignature]; !signed {
		if role >= rpc_types.RoleAdmin {
			return nil
		}
		return rpc_types.NewRpcError(rpc_types.RpcCOMMAND_UNTRUSTED, "commandUntrusted", "commandUntrusted",
			"Method '"+method+"' requires a signed request")
	}

	var signature, publicKey string
	var expires int64
	if rpcErr := stringField(fields, rpc_types.FieldSignature, &signature); rpcErr != nil {
		return rpcErr
	}
	if rpcErr := stringField(fields, rpc_types.FieldPublicKey, &publicKey); rpcErr != nil {
		return rpcErr
	}
	raw, ok := fields[rpc_types.FieldExpires]
	if !ok {
		return rpc_types.RpcErrorMissingField(rpc_types.FieldExpires)
	}
	if err := json.Unmarshal(raw, &expires); err != nil {
		return rpc_types.RpcErrorInvalidField(rpc_types.FieldExpires)
	}

	now := a.now()
	deadline := time.Unix(expires, 0)
	if !deadline.After(now) {
		return rpc_types.RpcErrorSignatureExpired()
	}
	if deadline.After(now.Add(signatureWindow)) {
		return rpc_types.RpcErrorInvalidField(rpc_types.FieldExpires)
	}

	payload, err := rpc_types.SigningPayload(method, params)
	if err != nil {
		return rpc_types.RpcErrorInvalidParams("Invalid parameters: " + err.Error())
	}
	if err := crypto.Verify(payload, publicKey, signature); err != nil {
		if errors.Is(err, crypto.ErrInvalidPublicKey) {
			return rpc_types.RpcErrorPublicMalformed()
		}
		return rpc_types.RpcErrorBadSignature("Signature verification failed: " + err.Error())
	}

	field := signer.SignerField()
	var account string
	if rpcErr := stringField(fields, field, &account); rpcErr != nil {
		return rpcErr
	}
	addr, err := types.ParseAddress(account)
	if err != nil {
		return rpc_types.RpcErrorActMalformed(field)
	}
	key, _ := crypto.ParsePublicKey(publicKey)
	if crypto.AccountID(key) != addr {
		return rpc_types.RpcErrorBadSignature("Signing key does not belong to '" + field + "'.")
	}

	digest := crypto.Sha512Half(payload)
	a.mu.Lock()
	defer a.mu.Unlock()
	if until, ok := a.seen.Get(digest); ok && until.After(now) {
		return rpc_types.RpcErrorAlreadySubmitted()
	}
	a.seen.Add(digest, deadline)
	return nil
}

func stringField(fields map[string]json.RawMessage, name string, out *string) *rpc_types.RpcError {
	raw, ok := fields[name]
	if !ok {
		return rpc_types.RpcErrorMissingField(name)
	}
	if err := json.Unmarshal(raw, out); err != nil || *out == "" {
		return rpc_types.RpcErrorInvalidField(name)
	}
	return nil
}
