// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package loglist

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/certificate-transparency-go/loglist3"
	"github.com/xeipuuv/gojsonschema"
)

// Schema names reported by [DetectSchema].
const (
	SchemaV1 = "v1"
	SchemaV2 = "v2"
)

// ErrUnknownSchema is wrapped by [JSONFormat] when a document matches
// neither schema.
var ErrUnknownSchema = errors.New("loglist: document matches no known log list schema")

// Shape checks only. Field level validation is left to the parsers so that
// their errors name the offending log.
const (
	shapeV2 = `{
		"type": "object",
		"required": ["operators"],
		"not": {"required": ["logs"]},
		"properties": {
			"operators": {
				"type": "array",
				"items": {"type": "object", "required": ["name", "logs"]}
			}
		}
	}`

	shapeV1 = `{
		"type": "object",
		"required": ["logs"],
		"properties": {
			"logs": {
				"type": "array",
				"items": {"type": "object", "required": ["key"]}
			}
		}
	}`
)

type schemas struct {
	v2, v1 *gojsonschema.Schema
}

var loadSchemas = sync.OnceValues(func() (schemas, error) {
	v2, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(shapeV2))
	if err != nil {
		return schemas{}, err
	}
	v1, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(shapeV1))
	if err != nil {
		return schemas{}, err
	}
	return schemas{v2: v2, v1: v1}, nil
})

// DetectSchema reports which parser understands data: [SchemaV2] for
// operator-grouped lists, [SchemaV1] for flat lists.
func DetectSchema(data []byte) (string, error) {
	s, err := loadSchemas()
	if err != nil {
		return "", err
	}

	doc := gojsonschema.NewBytesLoader(data)
	res, err := s.v2.Validate(doc)
	if err != nil {
		return "", err
	}
	if res.Valid() {
		return SchemaV2, nil
	}

	res, err = s.v1.Validate(doc)
	if err != nil {
		return "", err
	}
	if res.Valid() {
		return SchemaV1, nil
	}

	var details []string
	for _, e := range res.Errors() {
		details = append(details, e.String())
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownSchema, strings.Join(details, "; "))
}

// Parse parses an authenticated log list document. It returns [Valid] or
// one of [JSONFormat], [LogServerInvalidKey] and [NoLogServers].
func Parse(data []byte) Result {
	schema, err := DetectSchema(data)
	if err != nil {
		return JSONFormat{Err: err}
	}

	var list *LogList
	var inv Invalid
	switch schema {
	case SchemaV2:
		list, inv = parseV2(data)
	default:
		list, inv = parseV1(data)
	}
	if inv != nil {
		return inv
	}
	if list.Len() == 0 {
		return NoLogServers{}
	}
	return Valid{List: list}
}

func parseV2(data []byte) (*LogList, Invalid) {
	ll, err := loglist3.NewFromJSON(data)
	if err != nil {
		return nil, JSONFormat{Err: err}
	}

	list := NewLogList()
	list.Version = ll.Version
	list.Timestamp = ll.LogListTimestamp

	for _, op := range ll.Operators {
		for _, l := range op.Logs {
			state, validUntil, ok := stateOf(l.State)
			if !ok {
				continue
			}
			s, inv := newServer(l.Description, l.Key, l.LogID)
			if inv != nil {
				return nil, inv
			}
			s.URL = l.URL
			s.Operator = op.Name
			s.State = state
			s.MMD = time.Duration(l.MMD) * time.Second
			s.ValidUntil = validUntil
			list.servers[s.ID] = s
		}
		for _, l := range op.TiledLogs {
			state, validUntil, ok := stateOf(l.State)
			if !ok {
				continue
			}
			s, inv := newServer(l.Description, l.Key, l.LogID)
			if inv != nil {
				return nil, inv
			}
			s.URL = l.SubmissionURL
			s.Operator = op.Name
			s.State = state
			s.ValidUntil = validUntil
			list.servers[s.ID] = s
		}
	}
	return list, nil
}

// stateOf maps a v2 lifecycle state to inclusion and validity. Pending,
// rejected and stateless logs are not trusted at all.
func stateOf(st *loglist3.LogStates) (string, *time.Time, bool) {
	switch {
	case st == nil:
		return "", nil, false
	case st.Usable != nil:
		return "usable", nil, true
	case st.Qualified != nil:
		return "qualified", nil, true
	case st.ReadOnly != nil:
		t := st.ReadOnly.Timestamp
		return "readonly", &t, true
	case st.Retired != nil:
		t := st.Retired.Timestamp
		return "retired", &t, true
	}
	return "", nil, false
}

type v1List struct {
	Operators []struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	} `json:"operators"`
	Logs []struct {
		Description       string `json:"description"`
		Key               string `json:"key"`
		URL               string `json:"url"`
		MaximumMergeDelay int64  `json:"maximum_merge_delay"`
		OperatedBy        []int  `json:"operated_by"`
		DisqualifiedAt    *int64 `json:"disqualified_at"`
		FinalSTH          *struct {
			TreeSize  uint64 `json:"tree_size"`
			Timestamp int64  `json:"timestamp"`
		} `json:"final_sth"`
	} `json:"logs"`
}

func parseV1(data []byte) (*LogList, Invalid) {
	var doc v1List
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, JSONFormat{Err: err}
	}

	operators := make(map[int]string, len(doc.Operators))
	for _, op := range doc.Operators {
		operators[op.ID] = op.Name
	}

	list := NewLogList()
	for _, l := range doc.Logs {
		der, err := base64.StdEncoding.DecodeString(l.Key)
		if err != nil {
			return nil, LogServerInvalidKey{Log: l.Description, Err: err}
		}
		s, inv := newServer(l.Description, der, nil)
		if inv != nil {
			return nil, inv
		}
		s.URL = l.URL
		s.MMD = time.Duration(l.MaximumMergeDelay) * time.Second
		s.State = "usable"
		if len(l.OperatedBy) > 0 {
			s.Operator = operators[l.OperatedBy[0]]
		}

		// disqualified_at is in seconds, final_sth.timestamp in milliseconds.
		var until *time.Time
		if l.DisqualifiedAt != nil {
			t := time.Unix(*l.DisqualifiedAt, 0).UTC()
			until = &t
			s.State = "disqualified"
		}
		if l.FinalSTH != nil {
			t := time.UnixMilli(l.FinalSTH.Timestamp).UTC()
			if until == nil || t.Before(*until) {
				until = &t
			}
			if s.State == "usable" {
				s.State = "frozen"
			}
		}
		s.ValidUntil = until
		list.servers[s.ID] = s
	}
	return list, nil
}

// newServer parses the key and derives the log ID. A declared ID that
// disagrees with the key is rejected.
func newServer(description string, der, declaredID []byte) (*LogServer, Invalid) {
	key, err := parseLogKey(der)
	if err != nil {
		return nil, LogServerInvalidKey{Log: description, Err: err}
	}
	s := &LogServer{
		ID:          sha256.Sum256(der),
		Key:         key,
		KeyDER:      der,
		Description: description,
	}
	if len(declaredID) > 0 && string(declaredID) != string(s.ID[:]) {
		return nil, LogServerInvalidKey{Log: description, Err: errors.New("log_id does not match key")}
	}
	return s, nil
}

func parseLogKey(der []byte) (crypto.PublicKey, error) {
	if len(der) == 0 {
		return nil, errors.New("empty key")
	}
	key, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return nil, err
	}
	switch k := key.(type) {
	case *ecdsa.PublicKey:
		if k.Curve != elliptic.P256() {
			return nil, fmt.Errorf("unsupported curve %s", k.Curve.Params().Name)
		}
	case *rsa.PublicKey:
	default:
		return nil, fmt.Errorf("unsupported key type %T", key)
	}
	return key, nil
}
