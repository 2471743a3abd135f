// Package request normalizes the loosely-structured output of the
// interpretation step into a strict Spec. The upstream service may wrap the
// request object, use any of several key aliases for the same concept, or
// return an explicit error object; all of that is absorbed here so the rest
// of the pipeline only sees the normalized form.
package request

import (
	"errors"
	"fmt"
)

// ErrUpstream reports that the interpretation step returned an explicit
// error object instead of a request.
var ErrUpstream = errors.New("interpretation returned an error")

// Spec is a normalized extraction request. It is built once per pipeline
// run and not mutated afterwards; the single fallback period substitution
// goes through WithPeriod, which copies.
type Spec struct {
	Platform string
	Period   PeriodSpec
	Metrics  []string
	Filters  map[string]string
}

// WithPeriod returns a copy of the spec with the period replaced.
func (s Spec) WithPeriod(p PeriodSpec) Spec {
	out := s
	out.Period = p
	out.Metrics = append([]string(nil), s.Metrics...)
	out.Filters = make(map[string]string, len(s.Filters))
	for k, v := range s.Filters {
		out.Filters[k] = v
	}
	return out
}

// wrapperKeys are accepted envelope keys around the request object.
var wrapperKeys = []string{"solicitud", "request"}

// periodKeys are accepted aliases for the period descriptor, in precedence order.
var periodKeys = []string{"periodo_de_tiempo", "rango_tiempo", "report_period", "time_period"}

// metricKeys are accepted aliases for the metric list, in precedence order.
var metricKeys = []string{"metricas_requeridas", "metrics", "required_metrics"}

// filterKeys are accepted aliases for the filter mapping, in precedence order.
var filterKeys = []string{"filters", "additional_filters"}

// platformKeys are accepted aliases for the platform string, in precedence order.
var platformKeys = []string{"advertising_platform", "platform", "plataforma"}

// metricAliases maps upstream metric spellings onto catalog logical names.
// The interpretation step answers in whatever language the user asked in.
var metricAliases = map[string]string{
	"impresiones":    "impressions",
	"clics":          "clicks",
	"gasto":          "spend",
	"conversiones":   "conversions",
	"CPC":            "cpc",
	"cost_per_click": "cpc",
	"CTR":            "ctr",
}

// Normalize maps the untrusted interpretation output onto a Spec. An
// explicit {"error": ...} object aborts with ErrUpstream. Unknown keys are
// ignored; missing ones fall back to documented defaults.
func Normalize(input map[string]any) (Spec, error) {
	if input == nil {
		return Spec{}, fmt.Errorf("%w: empty input", ErrUpstream)
	}
	if msg, ok := input["error"]; ok {
		return Spec{}, fmt.Errorf("%w: %v", ErrUpstream, msg)
	}

	req := unwrap(input)

	spec := Spec{
		Period:  ParsePeriod(firstValue(req, periodKeys)),
		Metrics: normalizeMetrics(req),
		Filters: normalizeFilters(firstValue(req, filterKeys)),
	}
	if v := firstValue(req, platformKeys); v != nil {
		spec.Platform = fmt.Sprint(v)
	}
	return spec, nil
}

// unwrap strips the optional request envelope.
func unwrap(input map[string]any) map[string]any {
	for _, key := range wrapperKeys {
		if inner, ok := input[key].(map[string]any); ok {
			return inner
		}
	}
	return input
}

// firstValue returns the first non-nil, non-empty value among the aliases.
func firstValue(m map[string]any, keys []string) any {
	for _, key := range keys {
		v, ok := m[key]
		if !ok || v == nil {
			continue
		}
		switch t := v.(type) {
		case string:
			if t == "" {
				continue
			}
		case map[string]any:
			if len(t) == 0 {
				continue
			}
		case []any:
			if len(t) == 0 {
				continue
			}
		}
		return v
	}
	return nil
}

// normalizeMetrics resolves the metric list and its two defaulting rules:
// an absent metric key, a bare conversions+lead pair, or a conversions_lead
// entry all substitute the broad default set, while a present-but-empty
// list falls back to the extraction default.
func normalizeMetrics(req map[string]any) []string {
	raw, present := rawMetrics(req)

	if !present || conversionsOnly(raw) {
		return []string{"impressions", "clicks", "spend", "conversions"}
	}
	if len(raw) == 0 {
		return []string{"impressions", "clicks", "spend", "cpc"}
	}

	out := make([]string, 0, len(raw))
	for _, name := range raw {
		if canonical, ok := metricAliases[name]; ok {
			name = canonical
		}
		out = append(out, name)
	}
	return out
}

// rawMetrics extracts the metric name list from any of the accepted keys.
func rawMetrics(req map[string]any) ([]string, bool) {
	for _, key := range metricKeys {
		v, ok := req[key]
		if !ok {
			continue
		}
		switch t := v.(type) {
		case []any:
			names := make([]string, 0, len(t))
			for _, item := range t {
				names = append(names, fmt.Sprint(item))
			}
			return names, true
		case []string:
			return t, true
		}
	}
	return nil, false
}

// conversionsOnly reports whether the list is the degenerate conversions
// request the interpretation step sometimes produces for lead questions.
func conversionsOnly(raw []string) bool {
	seen := make(map[string]bool, len(raw))
	for _, name := range raw {
		if name == "conversions_lead" {
			return true
		}
		seen[name] = true
	}
	return len(seen) == 2 && seen["conversions"] && seen["lead"]
}

// normalizeFilters flattens the filter mapping to string values.
func normalizeFilters(v any) map[string]string {
	out := map[string]string{}
	m, ok := v.(map[string]any)
	if !ok {
		return out
	}
	for k, val := range m {
		out[k] = fmt.Sprint(val)
	}
	return out
}
