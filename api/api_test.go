// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"bytes"
	"encoding/json"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/common/expfmt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakeledger/api/accounts"
	"github.com/vechain/stakeledger/api/params"
	"github.com/vechain/stakeledger/api/staker"
	"github.com/vechain/stakeledger/api/transactions"
	"github.com/vechain/stakeledger/api/utils"
	builtinstaker "github.com/vechain/stakeledger/builtin/staker"
	"github.com/vechain/stakeledger/lvldb"
	"github.com/vechain/stakeledger/metrics"
	"github.com/vechain/stakeledger/runtime"
	"github.com/vechain/stakeledger/state"
	"github.com/vechain/stakeledger/thor"
)

func init() {
	metrics.InitializePrometheusMetrics()
}

var (
	owner     = thor.BytesToAddress([]byte("owner"))
	genesisA  = thor.BytesToAddress([]byte("genesis-a"))
	delegator = thor.BytesToAddress([]byte("delegator"))
)

func newTestServer(t *testing.T, opts Options) *httptest.Server {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	rt := runtime.New(state.NewStater(db, 0))
	require.NoError(t, rt.Apply(func(c *runtime.Contracts) error {
		if err := c.Params.Init(owner); err != nil {
			return err
		}
		if err := c.Token.Mint(delegator, big.NewInt(1000)); err != nil {
			return err
		}
		return c.Staker.Initialize([]thor.Address{genesisA}, builtinstaker.Rules{
			MaxValidators:   2,
			SelfBondAmount:  big.NewInt(100),
			MinCommission:   5,
			UnbondingPeriod: 7,
		})
	}))
	_, err = rt.Commit()
	require.NoError(t, err)

	ts := httptest.NewServer(New(rt, opts))
	t.Cleanup(ts.Close)
	return ts
}

func httpGet(t *testing.T, url string) ([]byte, int) {
	res, err := http.Get(url) //#nosec G107
	require.NoError(t, err)
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return body, res.StatusCode
}

func httpPost(t *testing.T, url string, obj any) ([]byte, int) {
	data, err := json.Marshal(obj)
	require.NoError(t, err)
	res, err := http.Post(url, "application/json", bytes.NewReader(data)) //#nosec G107
	require.NoError(t, err)
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return body, res.StatusCode
}

func amount(v int64) string {
	return big.NewInt(v).String()
}

func sendClause(t *testing.T, ts *httptest.Server, caller thor.Address, now uint64, clause map[string]any) ([]byte, int) {
	return httpPost(t, ts.URL+"/transactions", map[string]any{
		"caller": caller,
		"time":   now,
		"clause": clause,
	})
}

func TestStakerFlow(t *testing.T) {
	ts := newTestServer(t, Options{AllowedOrigins: "*"})

	body, code := httpGet(t, ts.URL+"/staker")
	require.Equal(t, http.StatusOK, code, string(body))
	var summary staker.Summary
	require.NoError(t, json.Unmarshal(body, &summary))
	assert.Equal(t, runtime.StakerAddress, summary.Address)
	assert.Equal(t, int64(100), (*big.Int)(summary.TotalPower).Int64())
	assert.Equal(t, int64(0), (*big.Int)(summary.TotalEscrowed).Int64())
	assert.Equal(t, 1, summary.ValidatorCount)
	assert.Equal(t, uint32(5), summary.Rules.MinCommission)

	body, code = sendClause(t, ts, delegator, 0, map[string]any{"method": "approve", "to": runtime.StakerAddress, "amount": amount(1000)})
	require.Equal(t, http.StatusOK, code, string(body))
	body, code = sendClause(t, ts, delegator, 0, map[string]any{"method": "delegate", "validator": genesisA, "amount": "0x32"})
	require.Equal(t, http.StatusOK, code, string(body))
	var receipt transactions.Receipt
	require.NoError(t, json.Unmarshal(body, &receipt))
	assert.Equal(t, "delegate", receipt.Method)
	assert.Equal(t, delegator, receipt.Caller)
	assert.False(t, receipt.StateRoot.IsZero())

	body, code = httpGet(t, ts.URL+"/staker/validators/"+genesisA.String())
	require.Equal(t, http.StatusOK, code, string(body))
	var val staker.Validator
	require.NoError(t, json.Unmarshal(body, &val))
	assert.True(t, val.Active)
	assert.True(t, val.GenesisNode)
	assert.Equal(t, int64(150), (*big.Int)(val.Power).Int64())
	assert.Equal(t, int64(100), (*big.Int)(val.Locked).Int64())
	assert.Nil(t, val.UnbondingAt)

	body, code = httpGet(t, ts.URL+"/staker/delegations/"+delegator.String()+"/"+genesisA.String())
	require.Equal(t, http.StatusOK, code, string(body))
	var d staker.Delegation
	require.NoError(t, json.Unmarshal(body, &d))
	assert.Equal(t, int64(50), (*big.Int)(d.Amount).Int64())
	assert.Equal(t, uint32(1), d.EpochJoined)

	body, code = httpGet(t, ts.URL+"/staker/validators/active")
	require.Equal(t, http.StatusOK, code, string(body))
	var active []staker.Validator
	require.NoError(t, json.Unmarshal(body, &active))
	require.Len(t, active, 1)
	assert.Equal(t, genesisA, active[0].Address)

	body, code = sendClause(t, ts, delegator, 10, map[string]any{"method": "announceDelegatorLeave", "validator": genesisA})
	require.Equal(t, http.StatusOK, code, string(body))
	body, code = httpGet(t, ts.URL+"/staker/delegations/"+delegator.String()+"/"+genesisA.String())
	require.Equal(t, http.StatusOK, code, string(body))
	require.NoError(t, json.Unmarshal(body, &d))
	require.NotNil(t, d.UnbondingAt)
	assert.Equal(t, uint64(17), *d.UnbondingAt)

	body, code = httpGet(t, ts.URL+"/accounts/"+delegator.String())
	require.Equal(t, http.StatusOK, code, string(body))
	var acc accounts.Account
	require.NoError(t, json.Unmarshal(body, &acc))
	assert.Equal(t, int64(950), (*big.Int)(acc.Balance).Int64())
	assert.Equal(t, int64(950), (*big.Int)(acc.StakerAllowance).Int64())
	assert.False(t, acc.IsValidator)

	body, code = httpGet(t, ts.URL+"/accounts/"+genesisA.String())
	require.Equal(t, http.StatusOK, code, string(body))
	require.NoError(t, json.Unmarshal(body, &acc))
	assert.True(t, acc.IsValidator)
	assert.True(t, acc.IsGenesisNode)
	assert.Equal(t, int64(100), (*big.Int)(acc.ValidatorPower).Int64())
}

func TestTransactions_Rejects(t *testing.T) {
	ts := newTestServer(t, Options{})

	body, code := sendClause(t, ts, delegator, 0, map[string]any{"method": "delegate", "validator": genesisA, "amount": amount(0)})
	assert.Equal(t, http.StatusBadRequest, code)
	var revert utils.RevertResponse
	require.NoError(t, json.Unmarshal(body, &revert))
	assert.Equal(t, "InsufficientValue", revert.Kind)

	body, code = sendClause(t, ts, delegator, 0, map[string]any{"method": "delegatorLeave", "validator": genesisA})
	assert.Equal(t, http.StatusBadRequest, code)
	require.NoError(t, json.Unmarshal(body, &revert))
	assert.Equal(t, "AuthorizationState", revert.Kind)

	body, code = sendClause(t, ts, delegator, 0, map[string]any{"method": "mint"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, string(body), "invalid clause")

	_, code = httpPost(t, ts.URL+"/transactions", map[string]any{"caller": delegator, "clause": map[string]any{"method": "join"}, "gas": 1})
	assert.Equal(t, http.StatusBadRequest, code, "unknown fields are rejected")

	_, code = httpPost(t, ts.URL+"/transactions", map[string]any{"clause": map[string]any{"method": "join"}})
	assert.Equal(t, http.StatusBadRequest, code, "caller is required")

	// nothing was applied
	body, code = httpGet(t, ts.URL+"/accounts/"+delegator.String())
	require.Equal(t, http.StatusOK, code)
	var acc accounts.Account
	require.NoError(t, json.Unmarshal(body, &acc))
	assert.Equal(t, int64(1000), (*big.Int)(acc.Balance).Int64())
}

func TestStaker_Lookups(t *testing.T) {
	ts := newTestServer(t, Options{})

	_, code := httpGet(t, ts.URL+"/staker/validators/"+delegator.String())
	assert.Equal(t, http.StatusNotFound, code)
	_, code = httpGet(t, ts.URL+"/staker/validators/0xzz")
	assert.Equal(t, http.StatusBadRequest, code)
	_, code = httpGet(t, ts.URL+"/staker/delegations/0x01/"+genesisA.String())
	assert.Equal(t, http.StatusBadRequest, code)
	_, code = httpGet(t, ts.URL+"/accounts/0x")
	assert.Equal(t, http.StatusBadRequest, code)

	body, code := httpGet(t, ts.URL+"/staker/validators")
	require.Equal(t, http.StatusOK, code)
	var list []staker.Validator
	require.NoError(t, json.Unmarshal(body, &list))
	require.Len(t, list, 1)
	assert.Equal(t, genesisA, list[0].Address)

	// an empty delegation is not an error
	body, code = httpGet(t, ts.URL+"/staker/delegations/"+delegator.String()+"/"+genesisA.String())
	require.Equal(t, http.StatusOK, code)
	var d staker.Delegation
	require.NoError(t, json.Unmarshal(body, &d))
	assert.Equal(t, int64(0), (*big.Int)(d.Amount).Int64())
}

func TestParams(t *testing.T) {
	ts := newTestServer(t, Options{})

	body, code := httpGet(t, ts.URL+"/params/owner")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(body), owner.String())

	body, code = sendClause(t, ts, owner, 0, map[string]any{"method": "setParam", "key": thor.BytesToBytes32([]byte("fee")), "amount": amount(42)})
	require.Equal(t, http.StatusOK, code, string(body))

	body, code = httpGet(t, ts.URL+"/params/fee")
	require.Equal(t, http.StatusOK, code)
	var p params.Param
	require.NoError(t, json.Unmarshal(body, &p))
	assert.Equal(t, thor.BytesToBytes32([]byte("fee")), p.Key)
	assert.Equal(t, int64(42), (*big.Int)(p.Value).Int64())

	body, code = httpGet(t, ts.URL+"/params/"+thor.BytesToBytes32([]byte("fee")).String())
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(body, &p))
	assert.Equal(t, int64(42), (*big.Int)(p.Value).Int64())

	_, code = httpGet(t, ts.URL+"/params/"+strings.Repeat("k", 33))
	assert.Equal(t, http.StatusBadRequest, code)

	body, code = sendClause(t, ts, delegator, 0, map[string]any{"method": "setParam", "key": thor.BytesToBytes32([]byte("fee")), "amount": amount(1)})
	assert.Equal(t, http.StatusBadRequest, code, string(body))
}

func TestMetricsMiddleware(t *testing.T) {
	ts := newTestServer(t, Options{EnableMetrics: true})
	metricsServer := httptest.NewServer(metrics.HTTPHandler())
	defer metricsServer.Close()

	httpGet(t, ts.URL+"/staker")
	httpGet(t, ts.URL+"/staker/validators/"+delegator.String())
	httpGet(t, ts.URL+"/staker/validators/"+delegator.String())

	body, _ := httpGet(t, metricsServer.URL)
	parser := expfmt.TextParser{}
	families, err := parser.TextToMetricFamilies(bytes.NewReader(body))
	require.NoError(t, err)

	family, ok := families["stakeledger_api_request_count"]
	require.True(t, ok)

	counts := make(map[string]float64)
	for _, m := range family.GetMetric() {
		labels := make(map[string]string)
		for _, l := range m.GetLabel() {
			labels[l.GetName()] = l.GetValue()
		}
		counts[labels["name"]+" "+labels["code"]] += m.GetCounter().GetValue()
	}
	assert.Equal(t, float64(1), counts["GET /staker 200"])
	assert.Equal(t, float64(2), counts["GET /staker/validators/{address} 404"])

	_, ok = families["stakeledger_api_duration_ms"]
	assert.True(t, ok)
}

func TestRequestLogger(t *testing.T) {
	ts := newTestServer(t, Options{EnableReqLogger: true})

	body, code := sendClause(t, ts, delegator, 0, map[string]any{"method": "approve", "to": runtime.StakerAddress, "amount": amount(1)})
	assert.Equal(t, http.StatusOK, code, string(body), "the body is still readable after logging")
}

func TestCORS(t *testing.T) {
	ts := newTestServer(t, Options{AllowedOrigins: "https://Example.org"})

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/staker", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://example.org")
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, "https://example.org", res.Header.Get("Access-Control-Allow-Origin"))
}
