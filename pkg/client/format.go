package client

import (
	"marketplace/pkg/json"
	"marketplace/pkg/replace"
)

type TransportContent struct {
	Request  string `json:"request"`
	Response string `json:"response"`
	Status   string `json:"status"`
}

// FormatContent renders content with secrets masked.
func FormatContent(content *TransportContent) string {
	masked := TransportContent{
		Request:  replace.SecretReplaceStr(content.Request),
		Response: replace.SecretReplaceStr(content.Response),
		Status:   content.Status,
	}
	result, _ := json.Marshal(masked)
	return string(result)
}
