package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/c360/balanceguard/rule"
)

// parseValue turns a flag value into a number when possible. Empty means absent.
func parseValue(s string) any {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

// parseAssignments parses prop=value pairs.
func parseAssignments(pairs []string) (map[string]float64, error) {
	out := make(map[string]float64, len(pairs))
	for _, pair := range pairs {
		key, raw, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid assignment %q, want prop=value", pair)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid value in %q: %w", pair, err)
		}
		out[key] = v
	}
	return out, nil
}

// parseRelated parses type.prop=value pairs into related values.
func parseRelated(pairs []string) (map[string]map[string]float64, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]map[string]float64)
	for _, pair := range pairs {
		target, raw, ok := strings.Cut(pair, "=")
		bubbleType, prop, okDot := strings.Cut(strings.TrimSpace(target), ".")
		if !ok || !okDot || bubbleType == "" || prop == "" {
			return nil, fmt.Errorf("invalid related value %q, want type.prop=value", pair)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid value in %q: %w", pair, err)
		}
		if out[bubbleType] == nil {
			out[bubbleType] = make(map[string]float64)
		}
		out[bubbleType][prop] = v
	}
	return out, nil
}

// parseCanvas parses WIDTHxHEIGHT.
func parseCanvas(s string) (*rule.CanvasSize, error) {
	if s == "" {
		return nil, nil
	}
	w, h, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return nil, fmt.Errorf("invalid canvas %q, want WIDTHxHEIGHT", s)
	}
	width, errW := strconv.ParseFloat(w, 64)
	height, errH := strconv.ParseFloat(h, 64)
	if errW != nil || errH != nil || width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid canvas %q, want positive WIDTHxHEIGHT", s)
	}
	return &rule.CanvasSize{Width: width, Height: height}, nil
}

func parseFilter(category, severity string) (rule.Filter, error) {
	filter := rule.Filter{Category: rule.Category(category)}
	if severity != "" {
		s, err := rule.ParseSeverity(severity)
		if err != nil {
			return filter, err
		}
		filter.Severity = s
	}
	return filter, nil
}
