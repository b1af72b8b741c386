// Package ledgerpb 定義 LedgerService 的 gRPC 介面
//
// 訊息以 JSON 編碼傳輸 (content-subtype "json")，伺服器端透過 init 註冊的 Codec 解碼，
// 客戶端由 NewLedgerServiceClient 在每次呼叫自動帶上 CallContentSubtype。
package ledgerpb

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

// CodecName 註冊於 grpc encoding 的名稱
const CodecName = "json"

// Codec 以 encoding/json 編解碼 gRPC 訊息
type Codec struct{}

func (Codec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (Codec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (Codec) Name() string {
	return CodecName
}

func init() {
	encoding.RegisterCodec(Codec{})
}
