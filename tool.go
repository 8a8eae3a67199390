package tpsa

import (
	"encoding/json"
	"fmt"
	"math"
)

// ============================================================
// Tool Interface
// ============================================================

type ToolRequest struct {
	Tool   string                 `json:"tool"`
	Params map[string]interface{} `json:"params"`
}

type ToolResponse struct {
	Result interface{} `json:"result,omitempty"`
	String string      `json:"string,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// SeriesResult is the Result payload of the series and function tools.
type SeriesResult struct {
	Order  int       `json:"order"`
	At     float64   `json:"at"`
	Coeffs []float64 `json:"coeffs"`
	Taylor []float64 `json:"taylor"`
}

// DefaultMaxOrder bounds the truncation order a tool request may ask for.
// Binomial coefficients overflow float64 a little past order 1000.
const DefaultMaxOrder = 100

// ToolHandler executes tool requests.
type ToolHandler struct {
	// MaxOrder is the largest order a request may ask for; zero means
	// DefaultMaxOrder.
	MaxOrder int
}

// HandleToolCall executes one tool request with the default order bound.
func HandleToolCall(req ToolRequest) ToolResponse {
	return ToolHandler{}.Handle(req)
}

// Handle executes one tool request. Every request gets its own Config, so
// requests never share truncation state.
func (h ToolHandler) Handle(req ToolRequest) (resp ToolResponse) {
	defer func() {
		if rec := recover(); rec != nil {
			resp = ToolResponse{Error: fmt.Sprint(rec)}
		}
	}()

	maxOrder := h.MaxOrder
	if maxOrder <= 0 {
		maxOrder = DefaultMaxOrder
	}
	getConfig := func() (*Config, error) {
		v, ok := req.Params["order"]
		if !ok {
			return NewConfig(DefaultOrder)
		}
		order, err := OrderFromValue(v)
		if err != nil {
			return nil, err
		}
		if order > maxOrder {
			return nil, fmt.Errorf("order %d exceeds maximum %d: %w", order, maxOrder, ErrOrderValue)
		}
		return NewConfig(order)
	}
	getNumber := func(key string, def float64) (float64, error) {
		v, ok := req.Params[key]
		if !ok {
			return def, nil
		}
		f, ok := toFloat(v)
		if !ok {
			return 0, fmt.Errorf("param %s must be a number", key)
		}
		return f, nil
	}
	getString := func(key string) (string, error) {
		v, ok := req.Params[key]
		if !ok {
			return "", fmt.Errorf("missing param: %s", key)
		}
		s, ok := v.(string)
		if !ok {
			return "", fmt.Errorf("param %s must be a string", key)
		}
		return s, nil
	}
	getExpr := func(key string) (Expr, error) {
		v, ok := req.Params[key]
		if !ok {
			return nil, fmt.Errorf("missing param: %s", key)
		}
		m, ok := v.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("invalid type for param %s", key)
		}
		return FromJSON(m)
	}
	respond := func(s *Series, at float64) ToolResponse {
		if !allFinite(s.Coeffs()) {
			return ToolResponse{String: s.String(), Error: "series has non-finite coefficients"}
		}
		return ToolResponse{
			Result: SeriesResult{Order: s.Order(), At: at, Coeffs: s.Coeffs(), Taylor: s.Taylor()},
			String: s.String(),
		}
	}
	fail := func(err error) ToolResponse { return ToolResponse{Error: err.Error()} }

	switch req.Tool {
	case "series":
		cfg, err := getConfig()
		if err != nil {
			return fail(err)
		}
		at, err := getNumber("at", 0)
		if err != nil {
			return fail(err)
		}
		e, err := getExpr("expr")
		if err != nil {
			return fail(err)
		}
		s, err := e.Eval(cfg.Var(at))
		if err != nil {
			return fail(err)
		}
		return respond(s, at)

	case "function":
		cfg, err := getConfig()
		if err != nil {
			return fail(err)
		}
		at, err := getNumber("at", 0)
		if err != nil {
			return fail(err)
		}
		name, err := getString("name")
		if err != nil {
			return fail(err)
		}
		s, err := Call(name, cfg.Var(at))
		if err != nil {
			return fail(err)
		}
		return respond(s, at)

	case "binomial":
		cfg, err := getConfig()
		if err != nil {
			return fail(err)
		}
		table := cfg.Binomial()
		for _, row := range table {
			if !allFinite(row) {
				return ToolResponse{Error: "binomial table has non-finite entries"}
			}
		}
		return ToolResponse{Result: table, String: fmt.Sprint(table)}

	case "equal":
		cfg, err := getConfig()
		if err != nil {
			return fail(err)
		}
		at, err := getNumber("at", 0)
		if err != nil {
			return fail(err)
		}
		rtol, err := getNumber("rtol", DefaultRelTol)
		if err != nil {
			return fail(err)
		}
		atol, err := getNumber("atol", DefaultAbsTol)
		if err != nil {
			return fail(err)
		}
		a, err := getExpr("expr")
		if err != nil {
			return fail(err)
		}
		b, err := getExpr("other")
		if err != nil {
			return fail(err)
		}
		x := cfg.Var(at)
		sa, err := a.Eval(x)
		if err != nil {
			return fail(err)
		}
		sb, err := b.Eval(x)
		if err != nil {
			return fail(err)
		}
		eq := sa.ApproxEqual(sb, rtol, atol)
		return ToolResponse{Result: map[string]interface{}{"equal": eq}, String: fmt.Sprint(eq)}

	case "functions":
		names := Functions()
		return ToolResponse{Result: names, String: fmt.Sprint(names)}

	case "tool_spec":
		return ToolResponse{String: ToolSpec()}
	}
	return ToolResponse{Error: fmt.Sprintf("unknown tool: %s", req.Tool)}
}

// NaN and Inf cannot be encoded as JSON numbers.
func allFinite(vs []float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// ============================================================
// Tool schema
// ============================================================

func ToolSpec() string {
	tools := []map[string]interface{}{
		ts("series", "Evaluate an expression on the series of x at a point. Returns derivatives up to order", []string{"expr"}, map[string]string{"expr": "object", "at": "number", "order": "integer"}),
		ts("function", "Derivatives of an elementary function at a point", []string{"name"}, map[string]string{"name": "string", "at": "number", "order": "integer"}),
		ts("equal", "Compare the series of two expressions at a point within relative and absolute tolerances", []string{"expr", "other"}, map[string]string{"expr": "object", "other": "object", "at": "number", "order": "integer", "rtol": "number", "atol": "number"}),
		ts("binomial", "Binomial coefficient table used by series multiplication", []string{}, map[string]string{"order": "integer"}),
		ts("functions", "List elementary function names", []string{}, map[string]string{}),
		ts("tool_spec", "Return this tool schema", []string{}, map[string]string{}),
	}
	spec := map[string]interface{}{"tools": tools}
	b, _ := json.MarshalIndent(spec, "", "  ")
	return string(b)
}

func ts(name, description string, required []string, props map[string]string) map[string]interface{} {
	properties := map[string]interface{}{}
	for k, typ := range props {
		properties[k] = map[string]interface{}{"type": typ}
	}
	return map[string]interface{}{
		"name":        name,
		"description": description,
		"inputSchema": map[string]interface{}{
			"type":       "object",
			"properties": properties,
			"required":   required,
		},
	}
}
