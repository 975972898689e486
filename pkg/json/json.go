package json

import (
	"bytes"
	"io"

	jsoniter "github.com/json-iterator/go"
)

// API is the jsoniter configuration shared by every encoder in the module.
var API = jsoniter.ConfigCompatibleWithStandardLibrary

var api = API

func Marshal(v interface{}) ([]byte, error) {
	return api.Marshal(v)
}

func Unmarshal(data []byte, v interface{}) error {
	return api.Unmarshal(data, v)
}

func NewEncoder(w io.Writer) *jsoniter.Encoder {
	return api.NewEncoder(w)
}

// UnmarshalNumber keeps integers as json.Number when v is an interface map,
// so uint64 quantities do not lose precision through float64.
func UnmarshalNumber(data []byte, v interface{}) error {
	return DecodeUseNumber(bytes.NewReader(data), v)
}

func DecodeUseNumber(r io.Reader, v interface{}) error {
	d := api.NewDecoder(r)
	d.UseNumber()
	return d.Decode(v)
}
