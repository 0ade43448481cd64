package main

import (
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/northbeam/leadsite/internal/crm"
)

const capturedEvent = `{"id":"01HZX","type":"contact.created","data":{"email":"ada@example.com"}}`

func TestCRMVerify_ValidSignature(t *testing.T) {
	ts := time.Now().Unix()
	sig := crm.Sign("topsecret", ts, []byte(capturedEvent))

	out, err := runRoot(t, capturedEvent, "crm", "verify",
		"--secret", "topsecret",
		"--signature", sig,
		"--timestamp", strconv.FormatInt(ts, 10))
	require.NoError(t, err)
	assert.Contains(t, out, "signature valid")
}

func TestCRMVerify_SecretFromEnv(t *testing.T) {
	lookupEnv = func(key string) string {
		if key == "CRM_WEBHOOK_SECRET" {
			return "envsecret"
		}
		return ""
	}
	defer func() { lookupEnv = os.Getenv }()

	ts := time.Now().Unix()
	sig := crm.Sign("envsecret", ts, []byte(capturedEvent))

	_, err := runRoot(t, capturedEvent, "crm", "verify", "--signature", sig, "--timestamp", strconv.FormatInt(ts, 10))
	assert.NoError(t, err)
}

func TestCRMVerify_Rejects(t *testing.T) {
	ts := time.Now().Unix()
	sig := crm.Sign("topsecret", ts, []byte(capturedEvent))

	_, err := runRoot(t, capturedEvent+" ", "crm", "verify",
		"--secret", "topsecret", "--signature", sig, "--timestamp", strconv.FormatInt(ts, 10))
	assert.ErrorIs(t, err, crm.ErrInvalidSignature)

	old := ts - 3600
	oldSig := crm.Sign("topsecret", old, []byte(capturedEvent))
	_, err = runRoot(t, capturedEvent, "crm", "verify",
		"--secret", "topsecret", "--signature", oldSig, "--timestamp", strconv.FormatInt(old, 10))
	assert.ErrorIs(t, err, crm.ErrReplayWindowExceeded)

	_, err = runRoot(t, capturedEvent, "crm", "verify",
		"--secret", "topsecret", "--signature", oldSig, "--timestamp", strconv.FormatInt(old, 10), "--window", "2h")
	assert.NoError(t, err)
}
