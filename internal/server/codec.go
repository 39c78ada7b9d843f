package server

import (
	"encoding/json"
	"fmt"
	"math"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/ChuLiYu/drone-dispatch/internal/report"
)

// SolveRequest is the typed form of a Solve request.
type SolveRequest struct {
	Problem  string // problem file contents
	Strategy string
	Builder  string
	Seed     int64
	HasSeed  bool
	Commands bool // return the command lines
}

// SolveResponse is the typed form of a Solve response.
type SolveResponse struct {
	Summary  report.Summary
	Commands []string
}

func encodeSolveRequest(req SolveRequest) (*structpb.Struct, error) {
	fields := map[string]any{
		"problem":  req.Problem,
		"commands": req.Commands,
	}
	if req.Strategy != "" {
		fields["strategy"] = req.Strategy
	}
	if req.Builder != "" {
		fields["builder"] = req.Builder
	}
	if req.HasSeed {
		fields["seed"] = float64(req.Seed)
	}
	return structpb.NewStruct(fields)
}

func decodeSolveRequest(in *structpb.Struct) (SolveRequest, error) {
	var req SolveRequest
	fields := in.GetFields()

	v, ok := fields["problem"]
	if !ok || v.GetStringValue() == "" {
		return req, fmt.Errorf("problem is required")
	}
	req.Problem = v.GetStringValue()
	req.Strategy = fields["strategy"].GetStringValue()
	req.Builder = fields["builder"].GetStringValue()
	req.Commands = fields["commands"].GetBoolValue()

	if v, ok := fields["seed"]; ok {
		seed, err := intField("seed", v)
		if err != nil {
			return req, err
		}
		req.Seed, req.HasSeed = seed, true
	}
	return req, nil
}

// intField reads a whole number. Struct numbers are doubles, so values
// beyond 2^53 are not exact.
func intField(name string, v *structpb.Value) (int64, error) {
	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return 0, fmt.Errorf("%s must be a number", name)
	}
	if n.NumberValue != math.Trunc(n.NumberValue) {
		return 0, fmt.Errorf("%s must be a whole number, got %v", name, n.NumberValue)
	}
	return int64(n.NumberValue), nil
}

// summaryFields converts s through its JSON form so the Struct keys match
// the summary file.
func summaryFields(s report.Summary) (map[string]any, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

func decodeSummary(fields map[string]any) (report.Summary, error) {
	var s report.Summary
	data, err := json.Marshal(fields)
	if err != nil {
		return s, err
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("decode summary: %w", err)
	}
	return s, nil
}

func encodeSolveResponse(s report.Summary, commands []string) (*structpb.Struct, error) {
	fields, err := summaryFields(s)
	if err != nil {
		return nil, err
	}
	if commands != nil {
		lines := make([]any, len(commands))
		for i, c := range commands {
			lines[i] = c
		}
		fields["commands"] = lines
	}
	return structpb.NewStruct(fields)
}

func decodeSolveResponse(out *structpb.Struct) (*SolveResponse, error) {
	fields := out.AsMap()

	var commands []string
	if raw, ok := fields["commands"].([]any); ok {
		for _, c := range raw {
			line, _ := c.(string)
			commands = append(commands, line)
		}
		delete(fields, "commands")
	}

	s, err := decodeSummary(fields)
	if err != nil {
		return nil, err
	}
	return &SolveResponse{Summary: s, Commands: commands}, nil
}

func encodeRuns(runs []report.Summary) (*structpb.Struct, error) {
	list := make([]any, len(runs))
	for i, s := range runs {
		fields, err := summaryFields(s)
		if err != nil {
			return nil, err
		}
		list[i] = fields
	}
	return structpb.NewStruct(map[string]any{"runs": list})
}

func decodeRuns(out *structpb.Struct) ([]report.Summary, error) {
	raw, _ := out.AsMap()["runs"].([]any)
	runs := make([]report.Summary, 0, len(raw))
	for _, r := range raw {
		fields, ok := r.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("decode runs: unexpected element %T", r)
		}
		s, err := decodeSummary(fields)
		if err != nil {
			return nil, err
		}
		runs = append(runs, s)
	}
	return runs, nil
}
