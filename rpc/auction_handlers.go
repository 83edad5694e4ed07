package rpc

import (
	"encoding/json"
	"strconv"

	"nftauction/crypto"
	"nftauction/observability"
)

type createAuctionParams struct {
	Seller       string `json:"seller"`
	ItemContract string `json:"itemContract"`
	ItemID       string `json:"itemId"`
	StartPrice   string `json:"startPrice"`
	StartTime    int64  `json:"startTime"`
	Duration     int64  `json:"duration"`
	Asset        string `json:"asset"`
}

func (s *Server) handleCreateAuction(params []json.RawMessage) (interface{}, *RPCError) {
	var p createAuctionParams
	if rpcErr := decodeSingleParam(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	seller, err := parseAddressParam("seller", p.Seller)
	if err != nil {
		return nil, &RPCError{Code: codeInvalidParams, Message: err.Error()}
	}
	itemContract, err := parseAssetParam("itemContract", p.ItemContract)
	if err != nil {
		return nil, &RPCError{Code: codeInvalidParams, Message: err.Error()}
	}
	itemID, err := parseAmountParam("itemId", p.ItemID)
	if err != nil {
		return nil, &RPCError{Code: codeInvalidParams, Message: err.Error()}
	}
	startPrice, err := parseAmountParam("startPrice", p.StartPrice)
	if err != nil {
		return nil, &RPCError{Code: codeInvalidParams, Message: err.Error()}
	}
	asset, err := parseAssetParam("asset", p.Asset)
	if err != nil {
		return nil, &RPCError{Code: codeInvalidParams, Message: err.Error()}
	}
	logic, err := s.proxy.Logic()
	if err != nil {
		return nil, errorToRPC(err)
	}
	id, err := logic.CreateAuction(seller, itemContract, itemID, startPrice, p.StartTime, p.Duration, asset)
	if err != nil {
		return nil, errorToRPC(err)
	}
	observability.AuctionMetrics().RecordAuctionCreated()
	return map[string]string{"auctionId": strconv.FormatUint(id, 10)}, nil
}

type bidParams struct {
	From      string `json:"from"`
	AuctionID uint64 `json:"auctionId"`
	Amount    string `json:"amount"`
	Asset     string `json:"asset"`
}

func (s *Server) handleBid(params []json.RawMessage) (interface{}, *RPCError) {
	var p bidParams
	if rpcErr := decodeSingleParam(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	bidder, err := parseAddressParam("from", p.From)
	if err != nil {
		return nil, &RPCError{Code: codeInvalidParams, Message: err.Error()}
	}
	amount, err := parseAmountParam("amount", p.Amount)
	if err != nil {
		return nil, &RPCError{Code: codeInvalidParams, Message: err.Error()}
	}
	asset, err := parseAssetParam("asset", p.Asset)
	if err != nil {
		return nil, &RPCError{Code: codeInvalidParams, Message: err.Error()}
	}
	logic, err := s.proxy.Logic()
	if err != nil {
		return nil, errorToRPC(err)
	}
	record, err := logic.Auction(p.AuctionID)
	if err != nil {
		return nil, errorToRPC(err)
	}
	if err := logic.Bid(bidder, p.AuctionID, amount, asset); err != nil {
		observability.AuctionMetrics().RecordBid("rejected")
		return nil, errorToRPC(err)
	}
	observability.AuctionMetrics().RecordBid("accepted")
	if record.HasBid() {
		observability.AuctionMetrics().RecordRefund()
	}
	return map[string]bool{"accepted": true}, nil
}

type endAuctionParams struct {
	From      string `json:"from"`
	AuctionID uint64 `json:"auctionId"`
}

func (s *Server) handleEndAuction(params []json.RawMessage) (interface{}, *RPCError) {
	var p endAuctionParams
	if rpcErr := decodeSingleParam(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	caller, err := parseAddressParam("from", p.From)
	if err != nil {
		return nil, &RPCError{Code: codeInvalidParams, Message: err.Error()}
	}
	cap, err := s.gate.Authorize(caller)
	if err != nil {
		return nil, errorToRPC(err)
	}
	logic, err := s.proxy.Logic()
	if err != nil {
		return nil, errorToRPC(err)
	}
	record, err := logic.Auction(p.AuctionID)
	if err != nil {
		return nil, errorToRPC(err)
	}
	if err := logic.EndAuction(cap, p.AuctionID); err != nil {
		return nil, errorToRPC(err)
	}
	result := "no_bids"
	if record.HasBid() {
		result = "winner"
	}
	observability.AuctionMetrics().RecordSettlement(result)
	return map[string]bool{"ended": true}, nil
}

type getAuctionParams struct {
	AuctionID uint64 `json:"auctionId"`
}

func (s *Server) handleGetAuction(params []json.RawMessage) (interface{}, *RPCError) {
	var p getAuctionParams
	if rpcErr := decodeSingleParam(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	logic, err := s.proxy.Logic()
	if err != nil {
		return nil, errorToRPC(err)
	}
	record, err := logic.Auction(p.AuctionID)
	if err != nil {
		return nil, errorToRPC(err)
	}
	return formatAuction(record, s.nowFn()), nil
}

func (s *Server) handleNextID() (interface{}, *RPCError) {
	logic, err := s.proxy.Logic()
	if err != nil {
		return nil, errorToRPC(err)
	}
	next, err := logic.NextAuctionID()
	if err != nil {
		return nil, errorToRPC(err)
	}
	return map[string]uint64{"nextId": next}, nil
}

func (s *Server) handleAdmin() (interface{}, *RPCError) {
	admin, err := s.gate.Admin()
	if err != nil {
		return nil, errorToRPC(err)
	}
	return map[string]string{"admin": crypto.MustNewAddress(admin[:]).String()}, nil
}

func (s *Server) handleVersion() (interface{}, *RPCError) {
	return map[string]string{"version": s.proxy.Version()}, nil
}
