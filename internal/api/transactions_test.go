package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/punchamoorthee/dodoledger/internal/domain"
	"github.com/punchamoorthee/dodoledger/internal/service"
)

type fakeLedger struct {
	result *service.MovementResult
	err    error

	gotBusinessID int64
	gotCredit     *domain.CreditRequest
	gotDebit      *domain.DebitRequest
	gotTransfer   *domain.TransferRequest
}

func (f *fakeLedger) Credit(ctx context.Context, businessID int64, req domain.CreditRequest) (*service.MovementResult, error) {
	f.gotBusinessID, f.gotCredit = businessID, &req
	return f.result, f.err
}

func (f *fakeLedger) Debit(ctx context.Context, businessID int64, req domain.DebitRequest) (*service.MovementResult, error) {
	f.gotBusinessID, f.gotDebit = businessID, &req
	return f.result, f.err
}

func (f *fakeLedger) Transfer(ctx context.Context, businessID int64, req domain.TransferRequest) (*service.MovementResult, error) {
	f.gotBusinessID, f.gotTransfer = businessID, &req
	return f.result, f.err
}

func movementRequest(t *testing.T, path, body string) *http.Request {
	t.Helper()
	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	ctx := context.WithValue(req.Context(), businessIDKey, int64(7))
	return req.WithContext(ctx)
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) apiResponse {
	t.Helper()
	var resp apiResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestCreditCreated(t *testing.T) {
	ledger := &fakeLedger{result: &service.MovementResult{TxnID: 42}}
	h := NewHandler(nil, ledger, nil, zap.NewNop())

	rec := httptest.NewRecorder()
	h.Credit(rec, movementRequest(t, "/transaction/credit",
		`{"to_account_id":7,"amount":"100.00","idempotency_key":"K1"}`))

	assert.Equal(t, http.StatusCreated, rec.Code)
	resp := decodeEnvelope(t, rec)
	assert.True(t, resp.Success)
	assert.Equal(t, int64(7), ledger.gotBusinessID)
	require.NotNil(t, ledger.gotCredit)
	assert.Equal(t, "100", ledger.gotCredit.Amount.String())
}

func TestCreditReplayReturns200WithOriginalID(t *testing.T) {
	ledger := &fakeLedger{result: &service.MovementResult{TxnID: 42, Replay: true}}
	h := NewHandler(nil, ledger, nil, zap.NewNop())

	rec := httptest.NewRecorder()
	h.Credit(rec, movementRequest(t, "/transaction/credit",
		`{"to_account_id":7,"amount":"100.00","idempotency_key":"K1"}`))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"txn_id":42`)
}

func TestMovementValidation(t *testing.T) {
	cases := map[string]string{
		"zero amount":     `{"to_account_id":7,"amount":"0","idempotency_key":"K1"}`,
		"negative amount": `{"to_account_id":7,"amount":"-5","idempotency_key":"K1"}`,
		"missing idem":    `{"to_account_id":7,"amount":"10"}`,
		"malformed json":  `{"to_account_id":`,
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			ledger := &fakeLedger{}
			h := NewHandler(nil, ledger, nil, zap.NewNop())

			rec := httptest.NewRecorder()
			h.Credit(rec, movementRequest(t, "/transaction/credit", body))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Nil(t, ledger.gotCredit, "ledger must not be called")
		})
	}
}

func TestDebitErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		code int
		msg  string
	}{
		{service.ErrInsufficientFunds, http.StatusBadRequest, "Insufficient balance or frozen account"},
		{service.ErrAccountNotFound, http.StatusNotFound, "account not found"},
		{service.ErrNoWebhook, http.StatusNotFound, "Register a Webhook First"},
		{context.DeadlineExceeded, http.StatusInternalServerError, "Internal Server Error"},
	}

	for _, tc := range cases {
		ledger := &fakeLedger{err: tc.err}
		h := NewHandler(nil, ledger, nil, zap.NewNop())

		rec := httptest.NewRecorder()
		h.Debit(rec, movementRequest(t, "/transaction/debit",
			`{"from_account_id":7,"amount":"50.00","idempotency_key":"K2"}`))

		assert.Equal(t, tc.code, rec.Code)
		resp := decodeEnvelope(t, rec)
		assert.False(t, resp.Success)
		assert.Equal(t, tc.msg, resp.Error)
	}
}

func TestTransferSameAccountRejected(t *testing.T) {
	ledger := &fakeLedger{err: service.ErrSameAccount}
	h := NewHandler(nil, ledger, nil, zap.NewNop())

	rec := httptest.NewRecorder()
	h.Transfer(rec, movementRequest(t, "/transaction/transfer",
		`{"from_account_id":7,"to_account_id":7,"amount":"25.00","idempotency_key":"K3"}`))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMovementWithoutAuthContext(t *testing.T) {
	h := NewHandler(nil, &fakeLedger{}, nil, zap.NewNop())

	req := httptest.NewRequest("POST", "/transaction/credit",
		strings.NewReader(`{"to_account_id":7,"amount":"1","idempotency_key":"K"}`))
	rec := httptest.NewRecorder()
	h.Credit(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
