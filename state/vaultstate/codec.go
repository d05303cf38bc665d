package vaultstate

import (
	"encoding/json"
	"math/big"
)

func marshalJSON(value interface{}) ([]byte, error) {
	return json.Marshal(value)
}

func unmarshalJSON(blob []byte, value interface{}) error {
	return json.Unmarshal(blob, value)
}

// Amounts are stored as decimal text so signed utilization values round-trip
// and raw records stay inspectable with db tooling.
func bigToBytes(v *big.Int) []byte {
	if v == nil {
		return []byte("0")
	}
	return []byte(v.String())
}

func bytesToBig(blob []byte) *big.Int {
	v, ok := new(big.Int).SetString(string(blob), 10)
	if !ok {
		return big.NewInt(0)
	}
	return v
}
