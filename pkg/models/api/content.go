package api

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Content is a page as returned by the document store REST API
type Content struct {
	ID      string          `json:"id,omitempty"`
	Type    string          `json:"type"`
	Title   string          `json:"title"`
	Space   *ContentSpace   `json:"space,omitempty"`
	Version *ContentVersion `json:"version,omitempty"`
	Body    *ContentBody    `json:"body,omitempty"`
}

type ContentSpace struct {
	Key string `json:"key"`
}

type ContentVersion struct {
	Number int `json:"number"`
}

type ContentBody struct {
	Storage StorageValue `json:"storage"`
}

type StorageValue struct {
	Value          string `json:"value"`
	Representation string `json:"representation"`
}

// ContentLookup is the response of a content search.
// Depending on the server version the payload is either an object with a
// results array or a bare array; both decode into Results.
type ContentLookup struct {
	Results []Content
	Shape   LookupShape
}

type LookupShape string

const (
	LookupShapeResults LookupShape = "results"
	LookupShapeList    LookupShape = "list"
)

func (l *ContentLookup) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return fmt.Errorf("empty lookup response")
	}

	switch trimmed[0] {
	case '[':
		var list []Content
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return fmt.Errorf("decode content list: %w", err)
		}
		l.Results = list
		l.Shape = LookupShapeList
		return nil
	case '{':
		var wrapped struct {
			Results *[]Content `json:"results"`
		}
		if err := json.Unmarshal(trimmed, &wrapped); err != nil {
			return fmt.Errorf("decode content results: %w", err)
		}
		if wrapped.Results == nil {
			return fmt.Errorf("lookup response has no results field")
		}
		l.Results = *wrapped.Results
		l.Shape = LookupShapeResults
		return nil
	default:
		return fmt.Errorf("unexpected lookup response starting with %q", trimmed[0])
	}
}
