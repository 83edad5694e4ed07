package rpc

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"nftauction/native/gate"
	"nftauction/native/oracle"
	"nftauction/native/upgrade"
	"nftauction/observability"
)

const (
	jsonRPCVersion  = "2.0"
	maxRequestBytes = 1 << 20 // 1 MiB
)

const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeUnauthorized   = -32001
	codeServerError    = -32000
)

// Server exposes the auction engine over JSON-RPC 2.0.
type Server struct {
	proxy     *upgrade.Proxy
	feeds     *oracle.Registry
	gate      *gate.Gate
	logger    *slog.Logger
	authToken string
	nowFn     func() int64
}

// NewServer constructs an RPC server. Admin methods additionally require the
// bearer token from AUCTION_RPC_TOKEN when one is configured.
func NewServer(proxy *upgrade.Proxy, feeds *oracle.Registry, g *gate.Gate, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		proxy:     proxy,
		feeds:     feeds,
		gate:      g,
		logger:    logger,
		authToken: strings.TrimSpace(os.Getenv("AUCTION_RPC_TOKEN")),
		nowFn:     func() int64 { return time.Now().Unix() },
	}
}

// SetNowFunc overrides the time source used when deriving auction status in
// responses. Primarily intended for tests.
func (s *Server) SetNowFunc(now func() int64) {
	if now == nil {
		s.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	s.nowFn = now
}

// Handler returns the HTTP handler serving the RPC endpoint.
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(s.handle)
}

type RPCRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
	ID      interface{}       `json:"id"`
}

type RPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func writeError(w http.ResponseWriter, status int, id interface{}, code int, message string) {
	if status <= 0 {
		status = http.StatusBadRequest
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Error: &RPCError{Code: code, Message: message}}
	_ = json.NewEncoder(w).Encode(resp)
}

func writeResult(w http.ResponseWriter, id interface{}, result interface{}) {
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Result: result}
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, nil, codeInvalidRequest, "POST required")
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "failed to read request body")
		return
	}
	var req RPCRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "invalid JSON payload")
		return
	}
	if req.JSONRPC != "" && req.JSONRPC != jsonRPCVersion {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "unsupported JSON-RPC version")
		return
	}

	corrID := uuid.NewString()
	start := time.Now()
	result, rpcErr := s.dispatch(r, &req)
	outcome := "ok"
	if rpcErr != nil {
		outcome = "error"
	}
	observability.AuctionMetrics().ObserveRPC(req.Method, outcome, time.Since(start))
	s.logger.Info("rpc request",
		"method", req.Method,
		"outcome", outcome,
		"correlationId", corrID,
		"elapsed", time.Since(start).String(),
	)

	if rpcErr != nil {
		status := http.StatusBadRequest
		switch rpcErr.Code {
		case codeUnauthorized:
			status = http.StatusForbidden
		case codeServerError:
			status = http.StatusInternalServerError
		case codeMethodNotFound:
			status = http.StatusNotFound
		}
		writeError(w, status, req.ID, rpcErr.Code, rpcErr.Message)
		return
	}
	writeResult(w, req.ID, result)
}

func (s *Server) dispatch(r *http.Request, req *RPCRequest) (interface{}, *RPCError) {
	switch req.Method {
	case "auction_create":
		return s.handleCreateAuction(req.Params)
	case "auction_bid":
		return s.handleBid(req.Params)
	case "auction_end":
		if rpcErr := s.requireAuth(r); rpcErr != nil {
			return nil, rpcErr
		}
		return s.handleEndAuction(req.Params)
	case "auction_get":
		return s.handleGetAuction(req.Params)
	case "auction_nextId":
		return s.handleNextID()
	case "auction_admin":
		return s.handleAdmin()
	case "auction_version":
		return s.handleVersion()
	case "oracle_setFeed":
		if rpcErr := s.requireAuth(r); rpcErr != nil {
			return nil, rpcErr
		}
		return s.handleSetFeed(req.Params)
	case "oracle_getFeed":
		return s.handleGetFeed(req.Params)
	case "oracle_latestPrice":
		return s.handleLatestPrice(req.Params)
	default:
		return nil, &RPCError{Code: codeMethodNotFound, Message: "method not found"}
	}
}

// requireAuth enforces the transport-level bearer token on admin methods when
// a token is configured. The admin identity check itself happens through the
// gate inside each handler.
func (s *Server) requireAuth(r *http.Request) *RPCError {
	if s.authToken == "" {
		return nil
	}
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return &RPCError{Code: codeUnauthorized, Message: "missing bearer token"}
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	if subtle.ConstantTimeCompare([]byte(token), []byte(s.authToken)) != 1 {
		return &RPCError{Code: codeUnauthorized, Message: "invalid bearer token"}
	}
	return nil
}

func decodeSingleParam(params []json.RawMessage, out interface{}) *RPCError {
	if len(params) != 1 {
		return &RPCError{Code: codeInvalidParams, Message: "expected a single parameter object"}
	}
	if err := json.Unmarshal(params[0], out); err != nil {
		return &RPCError{Code: codeInvalidParams, Message: "malformed parameter object"}
	}
	return nil
}

func errorToRPC(err error) *RPCError {
	switch {
	case errors.Is(err, gate.ErrUnauthorized):
		return &RPCError{Code: codeUnauthorized, Message: err.Error()}
	case errors.Is(err, upgrade.ErrNotInitialized):
		return &RPCError{Code: codeServerError, Message: err.Error()}
	default:
		return &RPCError{Code: codeInvalidParams, Message: err.Error()}
	}
}
