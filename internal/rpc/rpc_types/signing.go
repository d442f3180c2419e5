package rpc_types

import (
	"bytes"
	"encoding/json"
	"errors"
	"time"

	"github.com/LeJamon/goFracVault/internal/crypto"
)

// Fields carried next to the parameters of a signed request
const (
	FieldPublicKey = "public_key"
	FieldSignature = "signature"
	FieldExpires   = "expires"
)

// SignedMethod is implemented by methods that act for an account. The
// account named by SignerField must be the one whose key signed the
// request.
type SignedMethod interface {
	SignerField() string
}

// SigningPayload returns the bytes a client signs for a call: the method
// name, a zero byte, then the parameters without the signature as compact
// JSON with sorted keys. Numbers keep their literal text.
func SigningPayload(method string, params json.RawMessage) ([]byte, error) {
	if len(params) == 0 {
		return nil, errors.New("signed request has no parameters")
	}
	var fields map[string]interface{}
	dec := json.NewDecoder(bytes.NewReader(params))
	dec.UseNumber()
	if err := dec.Decode(&fields); err != nil {
		return nil, err
	}
	if fields == nil {
		return nil, errors.New("signed request parameters must be an object")
	}
	delete(fields, FieldSignature)

	body, err := json.Marshal(fields)
	if err != nil {
		return nil, err
	}
	payload := make([]byte, 0, len(method)+1+len(body))
	payload = append(payload, method...)
	payload = append(payload, 0)
	return append(payload, body...), nil
}

// SignRequest adds public_key, expires and signature to params so the
// call is accepted from any client until expires.
func SignRequest(key *crypto.KeyPair, method string, params map[string]interface{}, expires time.Time) error {
	delete(params, FieldSignature)
	params[FieldPublicKey] = key.PublicKeyHex()
	params[FieldExpires] = expires.Unix()

	raw, err := json.Marshal(params)
	if err != nil {
		return err
	}
	payload, err := SigningPayload(method, raw)
	if err != nil {
		return err
	}
	params[FieldSignature] = key.SignHex(payload)
	return nil
}
