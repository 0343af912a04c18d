// Package schemas defines the request and response shapes of the items API
// and normalizes raw request bodies into values the persistence layer can
// rely on.
package schemas

import (
	"bytes"
	"encoding/json"
	"sort"

	"github.com/dmitrijs2005/itemkeeper/internal/common"
	"github.com/dmitrijs2005/itemkeeper/internal/server/models"
)

const (
	FieldName        = "name"
	FieldDescription = "description"
)

const (
	reasonRequired   = "field required"
	reasonNotString  = "must be a string"
	reasonExtraField = "extra fields not permitted"
	reasonNotObject  = "body must be a JSON object"
)

var nullLiteral = []byte("null")

// ItemCreate is a normalized create request. Description is never null.
type ItemCreate struct {
	Name        string
	Description string
}

// ItemResponse is the wire form of an item. Description is a pointer so a
// legacy NULL column is rendered as null instead of being masked.
type ItemResponse struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

// DeleteResponse confirms a deletion and echoes the removed item.
type DeleteResponse struct {
	Message string       `json:"message"`
	Item    ItemResponse `json:"item"`
}

// NormalizeCreate validates a create body. name must be a string; description
// must be present and be a string or null, null becoming "".
func NormalizeCreate(body []byte) (ItemCreate, error) {
	fields, err := decodeObject(body)
	if err != nil {
		return ItemCreate{}, err
	}

	var req ItemCreate

	raw, ok := fields[FieldName]
	if !ok {
		return ItemCreate{}, common.NewValidationError(FieldName, reasonRequired)
	}
	if isNull(raw) {
		return ItemCreate{}, common.NewValidationError(FieldName, reasonNotString)
	}
	if req.Name, err = decodeString(FieldName, raw); err != nil {
		return ItemCreate{}, err
	}

	raw, ok = fields[FieldDescription]
	if !ok {
		return ItemCreate{}, common.NewValidationError(FieldDescription, reasonRequired)
	}
	if !isNull(raw) {
		if req.Description, err = decodeString(FieldDescription, raw); err != nil {
			return ItemCreate{}, err
		}
	}

	return req, nil
}

// NormalizeUpdate validates a partial update body. Each of name and
// description may be omitted or null (no change) or a string (including "").
// Any other key is rejected.
func NormalizeUpdate(body []byte) (models.ItemUpdate, error) {
	fields, err := decodeObject(body)
	if err != nil {
		return models.ItemUpdate{}, err
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if k != FieldName && k != FieldDescription {
			return models.ItemUpdate{}, common.NewValidationError(k, reasonExtraField)
		}
	}

	var upd models.ItemUpdate
	if upd.Name, err = optionalString(FieldName, fields); err != nil {
		return models.ItemUpdate{}, err
	}
	if upd.Description, err = optionalString(FieldDescription, fields); err != nil {
		return models.ItemUpdate{}, err
	}
	return upd, nil
}

// RenderItem exposes a stored item verbatim.
func RenderItem(item *models.Item) ItemResponse {
	resp := ItemResponse{ID: item.ID, Name: item.Name}
	if item.Description.Valid {
		d := item.Description.String
		resp.Description = &d
	}
	return resp
}

// RenderItems renders a list, never returning nil so it encodes as [].
func RenderItems(items []*models.Item) []ItemResponse {
	out := make([]ItemResponse, 0, len(items))
	for _, it := range items {
		out = append(out, RenderItem(it))
	}
	return out
}

// RenderDeleted builds the confirmation body for a removed item.
func RenderDeleted(item *models.Item) DeleteResponse {
	return DeleteResponse{Message: "Item deleted", Item: RenderItem(item)}
}

func decodeObject(body []byte) (map[string]json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil || fields == nil {
		return nil, common.NewValidationError("", reasonNotObject)
	}
	return fields, nil
}

func optionalString(field string, fields map[string]json.RawMessage) (models.OptionalString, error) {
	raw, ok := fields[field]
	if !ok || isNull(raw) {
		return models.NoChange(), nil
	}
	s, err := decodeString(field, raw)
	if err != nil {
		return models.OptionalString{}, err
	}
	return models.Value(s), nil
}

func decodeString(field string, raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", common.NewValidationError(field, reasonNotString)
	}
	return s, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), nullLiteral)
}
