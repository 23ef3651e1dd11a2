package tools

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
)

var renderOptions = &pretty.Options{Width: 80, Indent: "  ", SortKeys: true}

// renderJSON turns a raw exchange response into indented text with sorted keys.
func renderJSON(raw json.RawMessage) string {
	if len(bytes.TrimSpace(raw)) == 0 {
		return "null"
	}
	if !gjson.ValidBytes(raw) {
		return string(raw)
	}
	return strings.TrimRight(string(pretty.PrettyOptions(raw, renderOptions)), "\n")
}

func errorResult(err error) *mcp.CallToolResult {
	return mcp.NewToolResultError("Error: " + err.Error())
}

// maxExactInt is the largest integer a JSON number holds without rounding.
const maxExactInt = 1<<53 - 1

// stringArg returns "" when key is absent. Any other non-string is rejected
// so a mistyped symbol never widens a query to every market.
func stringArg(args map[string]any, key string) (string, error) {
	return stringArgOr(args, key, "")
}

func stringArgOr(args map[string]any, key, fallback string) (string, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return fallback, nil
	}
	v, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("%s must be a string", key)
	}
	return v, nil
}

func integral(key string, v float64) (int64, error) {
	if v != math.Trunc(v) {
		return 0, fmt.Errorf("%s must be an integer", key)
	}
	if math.Abs(v) > maxExactInt {
		return 0, fmt.Errorf("%s is out of range", key)
	}
	return int64(v), nil
}

func intArgOr(args map[string]any, key string, fallback int) (int, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return fallback, nil
	}
	switch v := raw.(type) {
	case float64:
		n, err := integral(key, v)
		return int(n), err
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case json.Number:
		n, err := strconv.Atoi(v.String())
		if err != nil {
			return 0, fmt.Errorf("%s must be an integer", key)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("%s must be a number", key)
	}
}

func int64Arg(args map[string]any, key string) (int64, error) {
	switch v := args[key].(type) {
	case nil:
		return 0, fmt.Errorf("%s parameter is required", key)
	case float64:
		return integral(key, v)
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, fmt.Errorf("%s must be an integer", key)
		}
		return n, nil
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%s must be an integer", key)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("%s must be a number", key)
	}
}

// decimalArg passes strings through untouched. Numbers are written in their
// shortest exact decimal form so 0.1 never becomes 0.1000000000000000055.
func decimalArg(args map[string]any, key string) (string, error) {
	switch v := args[key].(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case float64:
		return decimal.NewFromFloat(v).String(), nil
	case int:
		return strconv.Itoa(v), nil
	case json.Number:
		return v.String(), nil
	default:
		return "", fmt.Errorf("%s must be a string or number", key)
	}
}
