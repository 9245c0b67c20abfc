package fileio

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"pricebook-recon/internal/reconcile/model"
)

// section keys of a snapshot bundle, first present key wins
var (
	itemKeys   = []string{"items", "products"}
	ruleKeys   = []string{"rules", "pricing_rules"}
	optionKeys = []string{"options", "priced_options"}
)

func readJSON(r io.Reader) (model.Snapshot, error) {
	var doc any
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return model.Snapshot{}, err
	}
	return fromDocument(doc)
}

// fromDocument builds a snapshot from a decoded JSON/YAML document:
// either a bundle object or a bare list of items.
func fromDocument(doc any) (model.Snapshot, error) {
	switch v := doc.(type) {
	case nil:
		return model.Snapshot{}, nil
	case []any:
		items, err := toRecords("items", v)
		return model.Snapshot{Items: items}, err
	case map[string]any:
		var snap model.Snapshot
		if id, ok := v["id"]; ok && id != nil {
			snap.ID = snapshotID(id)
		}
		for _, sec := range []struct {
			keys []string
			dst  *[]model.Record
		}{
			{itemKeys, &snap.Items},
			{ruleKeys, &snap.Rules},
			{optionKeys, &snap.Options},
		} {
			for _, k := range sec.keys {
				raw, ok := v[k]
				if !ok {
					continue
				}
				recs, err := toRecords(k, raw)
				if err != nil {
					return model.Snapshot{}, err
				}
				*sec.dst = recs
				break
			}
		}
		return snap, nil
	default:
		return model.Snapshot{}, fmt.Errorf("snapshot document: unexpected %T", doc)
	}
}

// snapshotID renders an id as text; numeric ids keep their decimal form (20260115, not 2.0260115e+07).
func snapshotID(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}

func toRecords(section string, raw any) ([]model.Record, error) {
	if raw == nil {
		return nil, nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("%s: expected a list, got %T", section, raw)
	}
	out := make([]model.Record, 0, len(list))
	for i, e := range list {
		switch m := e.(type) {
		case nil:
			continue
		case map[string]any:
			out = append(out, model.Record(m))
		default:
			return nil, fmt.Errorf("%s[%d]: expected an object, got %T", section, i, e)
		}
	}
	return out, nil
}
