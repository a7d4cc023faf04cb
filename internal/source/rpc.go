package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
)

// RPCOptions parameterise a single JSON-RPC ledger source.
type RPCOptions struct {
	Endpoint  string
	Timeout   time.Duration
	UserAgent string
}

// RPC queries one Solana JSON-RPC endpoint. A circuit breaker in front of the
// transport turns a persistently failing endpoint into fast local errors
// instead of repeated timeouts.
type RPC struct {
	opts    RPCOptions
	id      string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
	logger  zerolog.Logger
}

// NewRPC constructs a JSON-RPC source client.
func NewRPC(opts RPCOptions, logger zerolog.Logger) *RPC {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	id := sourceID(opts.Endpoint)

	settings := gobreaker.Settings{Name: id}
	settings.Interval = 60 * time.Second
	settings.Timeout = 30 * time.Second
	settings.ReadyToTrip = func(counts gobreaker.Counts) bool {
		if counts.ConsecutiveFailures >= 5 {
			return true
		}
		if counts.Requests < 20 {
			return false
		}
		return float64(counts.TotalFailures)/float64(counts.Requests) > 0.5
	}

	return &RPC{
		opts:    opts,
		id:      id,
		client:  &http.Client{Timeout: timeout},
		breaker: gobreaker.NewCircuitBreaker(settings),
		logger:  logger.With().Str("component", "rpc_source").Str("source", id).Logger(),
	}
}

// ID returns a stable identifier derived from the endpoint host.
func (r *RPC) ID() string {
	return r.id
}

// CurrentSlot returns the endpoint's view of the chain tip.
func (r *RPC) CurrentSlot(ctx context.Context) (uint64, error) {
	var slot uint64
	err := r.call(ctx, "getSlot", []any{map[string]string{"commitment": "confirmed"}}, &slot)
	if err != nil {
		return 0, err
	}
	return slot, nil
}

// Transaction fetches a transaction record by signature. A missing
// transaction is an error, not an empty record.
func (r *RPC) Transaction(ctx context.Context, signature string) (*Transaction, error) {
	params := []any{
		signature,
		map[string]any{
			"encoding":                       "json",
			"maxSupportedTransactionVersion": 0,
		},
	}

	var raw *rpcTransaction
	if err := r.call(ctx, "getTransaction", params, &raw); err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, fmt.Errorf("transaction %s not found on %s", signature, r.id)
	}

	tx := &Transaction{
		Slot:        raw.Slot,
		Success:     len(raw.Meta.Err) == 0 || string(raw.Meta.Err) == "null",
		AccountKeys: raw.Transaction.Message.AccountKeys,
	}
	for _, ix := range raw.Transaction.Message.Instructions {
		tx.Instructions = append(tx.Instructions, Instruction{
			ProgramIndex: ix.ProgramIDIndex,
			Data:         ix.Data,
		})
	}
	return tx, nil
}

func (r *RPC) call(ctx context.Context, method string, params []any, result any) error {
	payload, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", method, err)
	}

	body, err := r.breaker.Execute(func() (any, error) {
		return r.post(ctx, payload)
	})
	if err != nil {
		return fmt.Errorf("%s on %s: %w", method, r.id, err)
	}

	var resp rpcResponse
	if err := json.Unmarshal(body.([]byte), &resp); err != nil {
		return fmt.Errorf("decode %s response from %s: %w", method, r.id, err)
	}
	if resp.Error != nil {
		return fmt.Errorf("%s on %s: rpc error %d: %s", method, r.id, resp.Error.Code, resp.Error.Message)
	}
	if result != nil && len(resp.Result) > 0 {
		if err := json.Unmarshal(resp.Result, result); err != nil {
			return fmt.Errorf("decode %s result from %s: %w", method, r.id, err)
		}
	}
	return nil
}

func (r *RPC) post(ctx context.Context, payload []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.opts.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if ua := strings.TrimSpace(r.opts.UserAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return body, nil
}

func sourceID(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" {
		return endpoint
	}
	return u.Host
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcTransaction struct {
	Slot uint64 `json:"slot"`
	Meta struct {
		Err json.RawMessage `json:"err"`
	} `json:"meta"`
	Transaction struct {
		Message struct {
			AccountKeys  []string `json:"accountKeys"`
			Instructions []struct {
				ProgramIDIndex int    `json:"programIdIndex"`
				Data           string `json:"data"`
			} `json:"instructions"`
		} `json:"message"`
	} `json:"transaction"`
}

var _ Client = (*RPC)(nil)
