package models

import (
	"bytes"
	"encoding/json"

	"go.mongodb.org/mongo-driver/bson"
)

type IndexInfo struct {
	Name   string `bson:"name" json:"name"`
	Key    bson.D `bson:"key" json:"key"`
	Unique bool   `bson:"unique,omitempty" json:"unique,omitempty"`
}

// MarshalJSON writes the key pattern as an object in index field order,
// e.g. {"author":1,"published_year":-1}.
func (i IndexInfo) MarshalJSON() ([]byte, error) {
	var key bytes.Buffer
	key.WriteByte('{')
	for n, e := range i.Key {
		if n > 0 {
			key.WriteByte(',')
		}
		name, err := json.Marshal(e.Key)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(e.Value)
		if err != nil {
			return nil, err
		}
		key.Write(name)
		key.WriteByte(':')
		key.Write(value)
	}
	key.WriteByte('}')

	return json.Marshal(struct {
		Name   string          `json:"name"`
		Key    json.RawMessage `json:"key"`
		Unique bool            `json:"unique,omitempty"`
	}{Name: i.Name, Key: key.Bytes(), Unique: i.Unique})
}

// ExplainSummary is the part of an executionStats explain worth printing.
type ExplainSummary struct {
	Stage               string `json:"stage"`
	IndexName           string `json:"indexName,omitempty"`
	NReturned           int64  `json:"nReturned"`
	TotalKeysExamined   int64  `json:"totalKeysExamined"`
	TotalDocsExamined   int64  `json:"totalDocsExamined"`
	ExecutionTimeMillis int64  `json:"executionTimeMillis"`
}

// UsesIndex reports whether the winning plan read an index instead of
// scanning the collection.
func (s ExplainSummary) UsesIndex() bool {
	return s.Stage == "IXSCAN" || s.IndexName != ""
}

const IndexEntity = "index"
