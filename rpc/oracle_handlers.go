package rpc

import "encoding/json"

type setFeedParams struct {
	From  string `json:"from"`
	Asset string `json:"asset"`
	Feed  string `json:"feed"`
}

func (s *Server) handleSetFeed(params []json.RawMessage) (interface{}, *RPCError) {
	var p setFeedParams
	if rpcErr := decodeSingleParam(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	caller, err := parseAddressParam("from", p.From)
	if err != nil {
		return nil, &RPCError{Code: codeInvalidParams, Message: err.Error()}
	}
	asset, err := parseAssetParam("asset", p.Asset)
	if err != nil {
		return nil, &RPCError{Code: codeInvalidParams, Message: err.Error()}
	}
	cap, err := s.gate.Authorize(caller)
	if err != nil {
		return nil, errorToRPC(err)
	}
	if err := s.feeds.SetFeed(cap, asset, p.Feed); err != nil {
		return nil, errorToRPC(err)
	}
	return map[string]bool{"updated": true}, nil
}

type assetParams struct {
	Asset string `json:"asset"`
}

func (s *Server) handleGetFeed(params []json.RawMessage) (interface{}, *RPCError) {
	var p assetParams
	if rpcErr := decodeSingleParam(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	asset, err := parseAssetParam("asset", p.Asset)
	if err != nil {
		return nil, &RPCError{Code: codeInvalidParams, Message: err.Error()}
	}
	feed, ok, err := s.feeds.Feed(asset)
	if err != nil {
		return nil, errorToRPC(err)
	}
	if !ok {
		return map[string]string{"feed": ""}, nil
	}
	return map[string]string{"feed": feed}, nil
}

func (s *Server) handleLatestPrice(params []json.RawMessage) (interface{}, *RPCError) {
	var p assetParams
	if rpcErr := decodeSingleParam(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	asset, err := parseAssetParam("asset", p.Asset)
	if err != nil {
		return nil, &RPCError{Code: codeInvalidParams, Message: err.Error()}
	}
	price, decimals, err := s.feeds.LatestPrice(asset)
	if err != nil {
		return nil, errorToRPC(err)
	}
	return PriceResult{Price: price.String(), Decimals: decimals}, nil
}
