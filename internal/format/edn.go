package format

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"olympos.io/encoding/edn"
)

// WriteEDN renders v as EDN with keyword map keys and deterministic (sorted)
// key order. The value is first normalized through JSON so arbitrary structs,
// time.Time, etc. reduce to the plain shapes the renderer understands.
func WriteEDN(w io.Writer, v any, pretty bool) error {
	normalized, err := normalizeJSON(v)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := renderEDN(&buf, normalized, pretty, 0); err != nil {
		return err
	}
	buf.WriteByte('\n')
	_, err = w.Write(buf.Bytes())
	return err
}

func normalizeJSON(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// keywordize turns a JSON map key into an EDN keyword name. Whitespace is not
// legal in keywords; collapse it to dashes.
func keywordize(key string) string {
	fields := strings.Fields(key)
	if len(fields) == 0 {
		return "_"
	}
	return strings.Join(fields, "-")
}

func renderEDN(buf *bytes.Buffer, v any, pretty bool, depth int) error {
	switch val := v.(type) {
	case nil:
		buf.WriteString("nil")
	case bool:
		buf.WriteString(strconv.FormatBool(val))
	case string:
		b, err := edn.Marshal(val)
		if err != nil {
			return err
		}
		buf.Write(b)
	case float64:
		// JSON numbers arrive as float64; print integral values as ints.
		if val == math.Trunc(val) && !math.IsInf(val, 0) {
			buf.WriteString(strconv.FormatInt(int64(val), 10))
		} else {
			buf.WriteString(strconv.FormatFloat(val, 'g', -1, 64))
		}
	case json.Number:
		buf.WriteString(val.String())
	case []any:
		return renderEDNList(buf, val, pretty, depth)
	case map[string]any:
		return renderEDNMap(buf, val, pretty, depth)
	default:
		return fmt.Errorf("cannot render %T as edn", v)
	}
	return nil
}

func renderEDNList(buf *bytes.Buffer, items []any, pretty bool, depth int) error {
	buf.WriteByte('[')
	for i, item := range items {
		if i > 0 {
			writeSep(buf, pretty, depth+1)
		}
		if err := renderEDN(buf, item, pretty, depth+1); err != nil {
			return err
		}
	}
	buf.WriteByte(']')
	return nil
}

func renderEDNMap(buf *bytes.Buffer, m map[string]any, pretty bool, depth int) error {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			writeSep(buf, pretty, depth+1)
		}
		buf.WriteByte(':')
		buf.WriteString(keywordize(k))
		buf.WriteByte(' ')
		if err := renderEDN(buf, m[k], pretty, depth+1); err != nil {
			return err
		}
	}
	buf.WriteByte('}')
	return nil
}

func writeSep(buf *bytes.Buffer, pretty bool, depth int) {
	if !pretty {
		buf.WriteByte(' ')
		return
	}
	buf.WriteByte('\n')
	buf.WriteString(strings.Repeat(" ", depth))
}
