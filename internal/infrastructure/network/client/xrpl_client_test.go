package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"xrpl_control_room/internal/domain/entity"
	"xrpl_control_room/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAddress = "rHb9CJAWyB4rj91VRWn96DkukG4bwdtyTh"

type rpcCall struct {
	Method string
	Params map[string]any
}

type rpcServer struct {
	*httptest.Server
	hits    atomic.Int32
	callsMu sync.Mutex
	calls   []rpcCall
}

func (s *rpcServer) Calls() []rpcCall {
	s.callsMu.Lock()
	defer s.callsMu.Unlock()
	return append([]rpcCall(nil), s.calls...)
}

func newRPCServer(t *testing.T, handle func(call rpcCall) (int, string)) *rpcServer {
	t.Helper()
	s := &rpcServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.hits.Add(1)
		body, _ := io.ReadAll(r.Body)
		var req rpcRequest
		_ = json.Unmarshal(body, &req)
		call := rpcCall{Method: req.Method}
		if len(req.Params) > 0 {
			call.Params = req.Params[0]
		}
		s.callsMu.Lock()
		s.calls = append(s.calls, call)
		s.callsMu.Unlock()

		status, payload := handle(call)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(payload))
	}))
	t.Cleanup(s.Close)
	return s
}

func okServer(t *testing.T, payload string) *rpcServer {
	return newRPCServer(t, func(rpcCall) (int, string) { return http.StatusOK, payload })
}

func failingServer(t *testing.T) *rpcServer {
	return newRPCServer(t, func(rpcCall) (int, string) { return http.StatusInternalServerError, "boom" })
}

func newTestClient(t *testing.T, opts Options, endpoints ...string) *XRPLClient {
	t.Helper()
	c, err := NewXRPLClient(endpoints, opts, logger.NewNop())
	require.NoError(t, err)
	return c
}

const accountInfoNested = `{"result":{"account_data":{"Account":"rHb9CJAWyB4rj91VRWn96DkukG4bwdtyTh","Balance":"1234500","Sequence":5,"OwnerCount":2},"ledger_index":100,"validated":true,"status":"success"}}`

func TestAccountInfo_NestedResult(t *testing.T) {
	srv := okServer(t, accountInfoNested)
	c := newTestClient(t, Options{}, srv.URL)

	info, err := c.AccountInfo(context.Background(), testAddress)
	require.NoError(t, err)
	assert.True(t, info.Exists)
	assert.Equal(t, "1.2345", info.Balance.String())
	assert.Equal(t, uint32(5), info.Sequence)
	assert.Equal(t, uint32(2), info.OwnerCount)
	assert.Equal(t, uint32(100), info.LedgerIndex)

	calls := srv.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "account_info", calls[0].Method)
	assert.Equal(t, testAddress, calls[0].Params["account"])
}

func TestAccountInfo_FlatResultWithStringNumbers(t *testing.T) {
	srv := okServer(t, `{"account_data":{"Balance":"25000000","Sequence":"7","OwnerCount":"0"},"ledger_current_index":"42","status":"success"}`)
	c := newTestClient(t, Options{}, srv.URL)

	info, err := c.AccountInfo(context.Background(), testAddress)
	require.NoError(t, err)
	assert.True(t, info.Exists)
	assert.Equal(t, "25", info.Balance.String())
	assert.Equal(t, uint32(7), info.Sequence)
	assert.Equal(t, uint32(42), info.LedgerIndex)
	assert.Equal(t, testAddress, info.Address)
}

func TestAccountInfo_NotFoundIsNotAnError(t *testing.T) {
	notFound := okServer(t, `{"result":{"error":"actNotFound","error_code":19,"error_message":"Account not found.","status":"error"}}`)
	backup := okServer(t, accountInfoNested)
	c := newTestClient(t, Options{}, notFound.URL, backup.URL)

	info, err := c.AccountInfo(context.Background(), testAddress)
	require.NoError(t, err)
	assert.False(t, info.Exists)
	assert.True(t, info.Balance.IsZero())
	assert.Zero(t, info.Sequence)
	assert.Equal(t, int32(0), backup.hits.Load(), "not found must not rotate")
}

func TestCall_FailoverIsSticky(t *testing.T) {
	bad := failingServer(t)
	good := okServer(t, accountInfoNested)
	c := newTestClient(t, Options{}, bad.URL, good.URL)

	_, err := c.AccountInfo(context.Background(), testAddress)
	require.NoError(t, err)
	assert.Equal(t, int32(1), bad.hits.Load())
	assert.Equal(t, int32(1), good.hits.Load())

	_, err = c.AccountInfo(context.Background(), testAddress)
	require.NoError(t, err)
	assert.Equal(t, int32(1), bad.hits.Load(), "second call starts at the endpoint that last worked")
	assert.Equal(t, int32(2), good.hits.Load())
}

func TestCall_NodeErrorFailsOver(t *testing.T) {
	busy := okServer(t, `{"result":{"error":"tooBusy","error_message":"The server is too busy.","status":"error"}}`)
	good := okServer(t, accountInfoNested)
	c := newTestClient(t, Options{}, busy.URL, good.URL)

	info, err := c.AccountInfo(context.Background(), testAddress)
	require.NoError(t, err)
	assert.True(t, info.Exists)
	assert.Equal(t, int32(1), busy.hits.Load())
}

func TestCall_AllEndpointsFail(t *testing.T) {
	a := failingServer(t)
	b := failingServer(t)
	c := newTestClient(t, Options{}, a.URL, b.URL)

	_, err := c.AccountInfo(context.Background(), testAddress)
	require.Error(t, err)
	assert.ErrorIs(t, err, entity.ErrAllEndpointsFailed)
	var statusErr *HTTPStatusError
	assert.ErrorAs(t, err, &statusErr)
	assert.Equal(t, int32(1), a.hits.Load())
	assert.Equal(t, int32(1), b.hits.Load())
}

func TestCall_AttemptTimeoutFailsOver(t *testing.T) {
	slow := newRPCServer(t, func(rpcCall) (int, string) {
		time.Sleep(300 * time.Millisecond)
		return http.StatusOK, accountInfoNested
	})
	good := okServer(t, accountInfoNested)
	c := newTestClient(t, Options{AttemptTimeout: 50 * time.Millisecond}, slow.URL, good.URL)

	info, err := c.AccountInfo(context.Background(), testAddress)
	require.NoError(t, err)
	assert.True(t, info.Exists)
	assert.Equal(t, int32(1), good.hits.Load())
}

func TestCall_ParentCancelStopsRotation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	first := newRPCServer(t, func(rpcCall) (int, string) {
		cancel()
		return http.StatusServiceUnavailable, "down"
	})
	second := okServer(t, accountInfoNested)
	c := newTestClient(t, Options{}, first.URL, second.URL)

	_, err := c.AccountInfo(ctx, testAddress)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(0), second.hits.Load())

	_, err = c.AccountInfo(ctx, testAddress)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(1), first.hits.Load(), "cancelled context issues no request")
}

func TestAccountLines_FollowsMarker(t *testing.T) {
	srv := newRPCServer(t, func(call rpcCall) (int, string) {
		if call.Params["marker"] == nil {
			return http.StatusOK, `{"result":{"account":"r","lines":[{"account":"rIssuer1","currency":"USD","balance":"10.5","limit":"100"}],"marker":"page2","status":"success"}}`
		}
		return http.StatusOK, `{"result":{"account":"r","lines":[{"account":"rIssuer2","currency":"5850554E4B000000000000000000000000000000","balance":"-3","limit":"0"},{"account":"rBad","currency":"EUR","balance":"n/a"}],"status":"success"}}`
	})
	c := newTestClient(t, Options{}, srv.URL)

	lines, err := c.AccountLines(context.Background(), testAddress)
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, "USD", lines[0].Currency)
	assert.Equal(t, "10.5", lines[0].Balance.String())
	assert.Equal(t, "-3", lines[1].Balance.String())
	calls := srv.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "page2", calls[1].Params["marker"])
}

func TestAccountNFTs_DecodesURI(t *testing.T) {
	srv := okServer(t, `{"result":{"account_nfts":[{"NFTokenID":"000800006","Issuer":"rIssuer","NFTokenTaxon":3,"nft_serial":12,"Flags":8,"TransferFee":500,"URI":"697066733A2F2F516D54657374"},{"NFTokenID":"000800007","Issuer":"rIssuer","NFTokenTaxon":0,"nft_serial":13}],"status":"success"}}`)
	c := newTestClient(t, Options{}, srv.URL)

	nfts, err := c.AccountNFTs(context.Background(), testAddress)
	require.NoError(t, err)
	require.Len(t, nfts, 2)
	assert.Equal(t, "ipfs://QmTest", nfts[0].URI)
	assert.Equal(t, uint32(3), nfts[0].Taxon)
	assert.Equal(t, uint32(12), nfts[0].Serial)
	assert.Equal(t, uint32(500), nfts[0].TransferFee)
	assert.Equal(t, testAddress, nfts[0].Owner)
	assert.Equal(t, entity.MetadataNone, nfts[1].MetadataStatus)
	assert.Empty(t, nfts[1].URI)
}

func TestAccountOverview_PartsFailIndependently(t *testing.T) {
	srv := newRPCServer(t, func(call rpcCall) (int, string) {
		switch call.Method {
		case "account_lines":
			return http.StatusOK, `{"result":{"lines":[{"account":"rI","currency":"USD","balance":"1","limit":"5"}],"status":"success"}}`
		case "account_nfts":
			return http.StatusOK, `{"result":{"error":"internal","status":"error"}}`
		default:
			return http.StatusOK, `{"result":{"transactions":[{"tx":{"hash":"ABC","TransactionType":"Payment","Account":"rA","Destination":"rB","Amount":"2000000","Fee":"12","date":1,"ledger_index":7},"meta":{"TransactionResult":"tesSUCCESS"},"validated":true}],"status":"success"}}`
		}
	})
	c := newTestClient(t, Options{}, srv.URL)

	overview := c.AccountOverview(context.Background(), testAddress, 5)
	assert.Len(t, overview.Lines, 1)
	assert.Empty(t, overview.NFTs)
	require.Len(t, overview.Transactions, 1)
	assert.NoError(t, overview.Err(entity.OverviewLines))
	assert.Error(t, overview.Err(entity.OverviewNFTs))
	assert.NoError(t, overview.Err(entity.OverviewTransactions))

	tx := overview.Transactions[0]
	assert.Equal(t, "ABC", tx.Hash)
	assert.Equal(t, "tesSUCCESS", tx.Result)
	require.NotNil(t, tx.AmountXRP)
	assert.Equal(t, "2", tx.AmountXRP.String())
	assert.Equal(t, "0.000012", tx.Fee.String())
	assert.Equal(t, int64(rippleEpochOffset+1), tx.Date.Unix())
}

func TestServerInfoAt_UsesOnlyThatEndpoint(t *testing.T) {
	bad := failingServer(t)
	good := okServer(t, `{"result":{"info":{"build_version":"2.3.0","pubkey_node":"n9Key","server_state":"full","validated_ledger":{"seq":90000000},"complete_ledgers":"32570-90000000","peers":21,"load_factor":1,"uptime":3600},"status":"success"}}`)
	c := newTestClient(t, Options{}, bad.URL, good.URL)

	_, err := c.ServerInfoAt(context.Background(), bad.URL)
	require.Error(t, err)
	assert.Equal(t, int32(0), good.hits.Load())

	info, err := c.ServerInfoAt(context.Background(), good.URL)
	require.NoError(t, err)
	assert.Equal(t, "n9Key", info.PublicKey)
	assert.Equal(t, uint32(90000000), info.ValidatedLedgerIndex)
	assert.Equal(t, 21, info.Peers)
	assert.Equal(t, good.URL, info.Endpoint)

	served, err := c.ServerInfo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, good.URL, served.Endpoint)
}

func TestNewXRPLClient_RequiresEndpoints(t *testing.T) {
	_, err := NewXRPLClient(nil, Options{}, logger.NewNop())
	assert.Error(t, err)
}

func TestClassify(t *testing.T) {
	testCases := []struct {
		name  string
		err   error
		class Class
	}{
		{"cancelled caller", context.Canceled, ClassTerminal},
		{"wrapped cancel", errors.Join(errors.New("x"), context.Canceled), ClassTerminal},
		{"deadline", context.DeadlineExceeded, ClassFailover},
		{"not found", &RPCError{Code: "actNotFound"}, ClassTerminal},
		{"node busy", &RPCError{Code: "tooBusy"}, ClassFailover},
		{"http 503", &HTTPStatusError{StatusCode: 503}, ClassFailover},
		{"transport", errors.New("connection refused"), ClassFailover},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.class, Classify(tc.err).Class)
		})
	}
}
