// Package survey defines the survey record shapes read from the input files
// and the classifier that reduces each record to per-technology "would use"
// indicators.
package survey

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Technology describes one framework whose adoption is being measured.
type Technology struct {
	// Key matches the entry under "tools" in the survey answers, e.g. "react".
	Key string `mapstructure:"key" validate:"required"`
	// Title is the display label used by chart consumers.
	Title string `mapstructure:"title"`
	// Line is the RGB colour of the technology's chart series.
	Line []int `mapstructure:"line" validate:"omitempty,len=3,dive,min=0,max=255"`
}

// Keys returns the technology keys in configured order.
func Keys(techs []Technology) []string {
	keys := make([]string, 0, len(techs))
	for _, t := range techs {
		keys = append(keys, t.Key)
	}
	return keys
}

// Record is one survey response. Only the fields used for classification are
// decoded; everything else in the line is ignored.
type Record struct {
	Year  Year  `json:"year"`
	Tools Tools `json:"tools"`
}

// Tools maps technology keys to answers. A value that is not a JSON object
// decodes to no answers at all, and entries that are not objects are dropped.
type Tools map[string]Tool

// UnmarshalJSON implements json.Unmarshaler.
func (t *Tools) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil || raw == nil {
		*t = nil
		return nil
	}
	tools := make(Tools, len(raw))
	for key, msg := range raw {
		if !bytes.HasPrefix(bytes.TrimSpace(msg), []byte("{")) {
			continue
		}
		var tool Tool
		if err := json.Unmarshal(msg, &tool); err != nil {
			continue
		}
		tools[key] = tool
	}
	*t = tools
	return nil
}

// Tool holds a respondent's answer for a single technology. A value that is
// not a JSON object decodes to the zero Tool.
type Tool struct {
	Experience Experience `json:"experience"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Tool) UnmarshalJSON(data []byte) error {
	type plain Tool
	var v plain
	if err := json.Unmarshal(data, &v); err != nil {
		*t = Tool{}
		return nil
	}
	*t = Tool(v)
	return nil
}

// Experience is the free-form answer string. Non-string JSON values decode to
// the empty answer instead of failing the record.
type Experience string

// UnmarshalJSON implements json.Unmarshaler.
func (e *Experience) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		*e = ""
		return nil
	}
	*e = Experience(s)
	return nil
}

// Year is the survey edition. It accepts a JSON number or a numeric string;
// anything else decodes to zero, which never matches a configured year.
type Year int

// UnmarshalJSON implements json.Unmarshaler.
func (y *Year) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(data, `"`)
	n, err := strconv.Atoi(string(data))
	if err != nil {
		*y = 0
		return nil
	}
	*y = Year(n)
	return nil
}

// String formats the year the way aggregate tables key it.
func (y Year) String() string {
	return strconv.Itoa(int(y))
}

// Reduced is the compact form of a Record: one boolean per tracked technology
// plus the survey year.
type Reduced struct {
	Year  Year
	Votes map[string]bool
}
