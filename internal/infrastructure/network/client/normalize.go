package client

import (
	"fmt"
	"strings"
	"time"

	"xrpl_control_room/internal/domain/entity"
	"xrpl_control_room/internal/pkg/utils"

	jsoniter "github.com/json-iterator/go"
	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

// UseNumber keeps drop amounts and ledger indexes exact until cast converts them.
var json = jsoniter.Config{
	EscapeHTML:             true,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
	UseNumber:              true,
}.Froze()

// rippleEpochOffset is the number of seconds between the Unix epoch and 2000-01-01.
const rippleEpochOffset = 946684800

// rpcResult is the single internal shape every response is decoded into,
// whether the node wrapped it in "result" or returned it flat.
type rpcResult map[string]any

func normalizeResponse(body []byte) (rpcResult, error) {
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if raw == nil {
		return nil, fmt.Errorf("empty response body")
	}

	result := raw
	if nested, ok := raw["result"].(map[string]any); ok {
		result = nested
		if err := detectRPCError(raw); err != nil {
			return nil, err
		}
	}
	if err := detectRPCError(result); err != nil {
		return nil, err
	}
	return rpcResult(result), nil
}

func detectRPCError(m map[string]any) error {
	status := cast.ToString(m["status"])
	var code, message string
	number := cast.ToInt(m["error_code"])

	switch e := m["error"].(type) {
	case nil:
	case map[string]any:
		// JSON-RPC 2.0 style error object
		code = cast.ToString(e["message"])
		number = cast.ToInt(e["code"])
		message = cast.ToString(e["data"])
	default:
		code = cast.ToString(e)
	}

	if code == "" && status != "error" {
		return nil
	}
	if code == "" {
		code = "unknown"
	}
	if message == "" {
		message = cast.ToString(m["error_message"])
	}
	return &RPCError{Code: code, Number: number, Message: message}
}

func (r rpcResult) str(key string) string {
	return cast.ToString(r[key])
}

func (r rpcResult) uint32(key string) uint32 {
	return cast.ToUint32(r[key])
}

func (r rpcResult) object(key string) rpcResult {
	m, _ := r[key].(map[string]any)
	return m
}

func (r rpcResult) list(key string) []rpcResult {
	items, _ := r[key].([]any)
	out := make([]rpcResult, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

// marker returns the pagination cursor, nil on the last page.
func (r rpcResult) marker() any {
	m, ok := r["marker"]
	if !ok || m == nil || m == "" {
		return nil
	}
	return m
}

func (r rpcResult) ledgerIndex() uint32 {
	if idx := r.uint32("ledger_index"); idx != 0 {
		return idx
	}
	return r.uint32("ledger_current_index")
}

func parseDecimal(v any) (decimal.Decimal, error) {
	s := strings.TrimSpace(cast.ToString(v))
	if s == "" {
		return decimal.Zero, fmt.Errorf("empty amount")
	}
	return decimal.NewFromString(s)
}

func parseAccountInfo(address string, r rpcResult) (entity.AccountInfo, error) {
	data := r.object("account_data")
	if data == nil {
		return entity.AccountInfo{}, fmt.Errorf("account_info response for %s has no account_data", address)
	}
	balance, err := utils.ParseDropsToXRP(data.str("Balance"))
	if err != nil {
		return entity.AccountInfo{}, fmt.Errorf("account_info balance for %s: %w", address, err)
	}
	if account := data.str("Account"); account != "" {
		address = account
	}
	return entity.AccountInfo{
		Address:     address,
		Balance:     balance,
		Sequence:    data.uint32("Sequence"),
		OwnerCount:  data.uint32("OwnerCount"),
		LedgerIndex: r.ledgerIndex(),
		Exists:      true,
	}, nil
}

func parseTrustLines(r rpcResult) []entity.TrustLine {
	items := r.list("lines")
	lines := make([]entity.TrustLine, 0, len(items))
	for _, item := range items {
		balance, err := parseDecimal(item["balance"])
		if err != nil {
			continue
		}
		limit, _ := parseDecimal(item["limit"])
		lines = append(lines, entity.TrustLine{
			Account:  item.str("account"),
			Currency: item.str("currency"),
			Balance:  balance,
			Limit:    limit,
		})
	}
	return lines
}

func parseNFTs(owner string, r rpcResult) []entity.NFTAsset {
	items := r.list("account_nfts")
	nfts := make([]entity.NFTAsset, 0, len(items))
	for _, item := range items {
		nft := entity.NFTAsset{
			TokenID:        item.str("NFTokenID"),
			Owner:          owner,
			Issuer:         item.str("Issuer"),
			Taxon:          item.uint32("NFTokenTaxon"),
			Serial:         item.uint32("nft_serial"),
			Flags:          item.uint32("Flags"),
			TransferFee:    item.uint32("TransferFee"),
			URI:            utils.DecodeHexURI(item.str("URI")),
			MetadataStatus: entity.MetadataNone,
		}
		if nft.TokenID == "" {
			continue
		}
		nfts = append(nfts, nft)
	}
	return nfts
}

func parseAccountTx(r rpcResult) []entity.AccountTx {
	items := r.list("transactions")
	txs := make([]entity.AccountTx, 0, len(items))
	for _, item := range items {
		tx := item.object("tx_json")
		if tx == nil {
			tx = item.object("tx")
		}
		if tx == nil {
			continue
		}
		meta := item.object("meta")

		entry := entity.AccountTx{
			Hash:        firstNonEmpty(item.str("hash"), tx.str("hash")),
			Type:        tx.str("TransactionType"),
			Account:     tx.str("Account"),
			Destination: tx.str("Destination"),
			LedgerIndex: firstNonZero(item.uint32("ledger_index"), tx.uint32("ledger_index")),
			Validated:   cast.ToBool(item["validated"]),
		}
		if fee, err := utils.ParseDropsToXRP(tx.str("Fee")); err == nil {
			entry.Fee = fee
		}
		amount := tx["Amount"]
		if tx["DeliverMax"] != nil {
			amount = tx["DeliverMax"]
		}
		if _, isObject := amount.(map[string]any); !isObject && amount != nil {
			if xrp, err := utils.ParseDropsToXRP(cast.ToString(amount)); err == nil {
				entry.AmountXRP = &xrp
			}
		}
		if date := tx.uint32("date"); date != 0 {
			entry.Date = time.Unix(int64(date)+rippleEpochOffset, 0).UTC()
		}
		if meta != nil {
			entry.Result = meta.str("TransactionResult")
		}
		txs = append(txs, entry)
	}
	return txs
}

func parseServerInfo(endpoint string, r rpcResult) (entity.ServerInfo, error) {
	info := r.object("info")
	if info == nil {
		return entity.ServerInfo{}, fmt.Errorf("server_info response from %s has no info", endpoint)
	}
	return entity.ServerInfo{
		Endpoint:             endpoint,
		PublicKey:            info.str("pubkey_node"),
		BuildVersion:         info.str("build_version"),
		ServerState:          info.str("server_state"),
		ValidatedLedgerIndex: info.object("validated_ledger").uint32("seq"),
		CompleteLedgers:      info.str("complete_ledgers"),
		Peers:                cast.ToInt(info["peers"]),
		LoadFactor:           cast.ToFloat64(info["load_factor"]),
		UptimeSeconds:        cast.ToInt64(info["uptime"]),
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstNonZero(values ...uint32) uint32 {
	for _, v := range values {
		if v != 0 {
			return v
		}
	}
	return 0
}
