package jellyfin

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/mmcdole/jellyshelf/internal/domain"
)

// DecodeListing parses a listing response body and transforms its items.
//
// Three shapes are accepted: a bare array of items, an ItemsResponse object,
// and an array whose first element is an ItemsResponse. Items without an Id
// make the whole response malformed. Duplicate ids keep the first occurrence.
func DecodeListing(body []byte, opts domain.ViewOptions) (domain.Listing, error) {
	wrapper, err := decodeWrapper(bytes.TrimSpace(body))
	if err != nil {
		return domain.Listing{}, err
	}

	raw := make([]Item, 0, len(wrapper.items))
	seen := make(map[string]struct{}, len(wrapper.items))
	for i, msg := range wrapper.items {
		var probe rawItem
		if err := json.Unmarshal(msg, &probe); err != nil {
			return domain.Listing{}, fmt.Errorf("%w: item %d: %v", domain.ErrMalformedResponse, i, err)
		}
		if probe.ID == nil || *probe.ID == "" {
			return domain.Listing{}, fmt.Errorf("%w: item %d has no Id", domain.ErrMalformedResponse, i)
		}
		if _, dup := seen[*probe.ID]; dup {
			continue
		}
		seen[*probe.ID] = struct{}{}

		var item Item
		if err := json.Unmarshal(msg, &item); err != nil {
			return domain.Listing{}, fmt.Errorf("%w: item %s: %v", domain.ErrMalformedResponse, *probe.ID, err)
		}
		raw = append(raw, item)
	}

	items := TransformAll(raw, opts)
	for i := range items {
		items[i].BaselineItemName = wrapper.baseline
	}

	total := len(items)
	if wrapper.total != nil {
		total = *wrapper.total
	}

	return domain.Listing{
		Items:            items,
		TotalCount:       total,
		BaselineItemName: wrapper.baseline,
	}, nil
}

type listingEnvelope struct {
	items    []json.RawMessage
	total    *int
	baseline string
}

func decodeWrapper(body []byte) (listingEnvelope, error) {
	if len(body) == 0 {
		return listingEnvelope{}, fmt.Errorf("%w: empty body", domain.ErrMalformedResponse)
	}

	switch body[0] {
	case '[':
		var list []json.RawMessage
		if err := json.Unmarshal(body, &list); err != nil {
			return listingEnvelope{}, fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
		}
		if len(list) > 0 {
			if env, ok := asWrapper(list[0]); ok {
				return env, nil
			}
		}
		return listingEnvelope{items: list}, nil
	case '{':
		env, ok := asWrapper(body)
		if !ok {
			return listingEnvelope{}, fmt.Errorf("%w: object without Items", domain.ErrMalformedResponse)
		}
		return env, nil
	default:
		return listingEnvelope{}, fmt.Errorf("%w: unexpected body", domain.ErrMalformedResponse)
	}
}

func asWrapper(msg json.RawMessage) (listingEnvelope, bool) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(msg, &obj); err != nil || !isWrapper(obj) {
		return listingEnvelope{}, false
	}

	var env listingEnvelope
	if string(bytes.TrimSpace(obj["Items"])) != "null" {
		if err := json.Unmarshal(obj["Items"], &env.items); err != nil {
			return listingEnvelope{}, false
		}
	}
	if v, ok := obj["TotalRecordCount"]; ok {
		var n int
		if err := json.Unmarshal(v, &n); err == nil {
			env.total = &n
		}
	}
	if v, ok := obj["BaselineItemName"]; ok {
		_ = json.Unmarshal(v, &env.baseline)
	}
	return env, true
}
