package inspection

import (
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"io"

	"qscope/internal/constants"
	apperrors "qscope/pkg/errors"
	"qscope/pkg/models"
)

// DecodeBody parses a message body as a single JSON value. Numbers are kept
// as json.Number so large identifiers survive unchanged.
func DecodeBody(body string) (interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(body)))
	dec.UseNumber()

	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, apperrors.ErrDecode.WithCause(err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, apperrors.ErrDecode.WithDetail("reason", "trailing data after JSON value")
	}
	return v, nil
}

// Format builds the display form of a raw message. A body that is not valid
// JSON is kept as the raw string.
func Format(raw models.RawMessage, queueName string) models.FormattedMessage {
	var body interface{} = raw.Body
	if decoded, err := DecodeBody(raw.Body); err == nil {
		body = decoded
	}

	attributes := raw.Attributes
	if attributes == nil {
		attributes = map[string]string{}
	}
	extended := raw.ExtendedAttributes
	if extended == nil {
		extended = map[string]interface{}{}
	}

	return models.FormattedMessage{
		QueueName:          queueName,
		MessageID:          raw.ID,
		ReceiptToken:       truncateReceipt(raw.ReceiptToken),
		Body:               body,
		Attributes:         attributes,
		ExtendedAttributes: extended,
		BodyChecksum:       checksum(raw),
	}
}

func FormatAll(raws []models.RawMessage, queueName string) []models.FormattedMessage {
	out := make([]models.FormattedMessage, 0, len(raws))
	for _, raw := range raws {
		out = append(out, Format(raw, queueName))
	}
	return out
}

func truncateReceipt(token string) string {
	if token == "" {
		return ""
	}
	runes := []rune(token)
	if len(runes) > constants.ReceiptDisplayLength {
		runes = runes[:constants.ReceiptDisplayLength]
	}
	return string(runes) + constants.ReceiptEllipsis
}

func checksum(raw models.RawMessage) string {
	if raw.Checksum != "" {
		return raw.Checksum
	}
	sum := md5.Sum([]byte(raw.Body))
	return hex.EncodeToString(sum[:])
}
