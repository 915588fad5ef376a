package artifact

import (
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Artifact is a structured, schema-validated JSON document that is
// filled in incrementally through discrete edit operations. Drafts may
// be invalid against their schema; finalizing requires a clean
// validation result.
type Artifact struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Document  []byte    `json:"document"`
	Version   int64     `json:"version"`
	Final     bool      `json:"final"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Op enumerates the edit operations a patch can carry.
type Op string

const (
	OpSet    Op = "set"
	OpAppend Op = "append"
	OpRemove Op = "remove"
)

// Patch is one edit operation against an artifact document. Value is
// either a JSON literal or a bare string; bare strings are stored as
// JSON strings.
type Patch struct {
	Op    Op     `json:"op"`
	Path  string `json:"path"`
	Value string `json:"value,omitempty"`
}

// Apply applies the patch to the artifact, bumping its version. The
// document is left untouched when the patch is rejected.
func (a *Artifact) Apply(p Patch) error {
	if a.Final {
		return fmt.Errorf("artifact %s is finalized", a.ID)
	}

	doc, err := applyPatch(a.Document, p)
	if err != nil {
		return err
	}

	a.Document = doc
	a.Version++
	a.UpdatedAt = time.Now()
	return nil
}

func applyPatch(doc []byte, p Patch) ([]byte, error) {
	if p.Path == "" {
		return nil, fmt.Errorf("patch path is required")
	}

	switch p.Op {
	case OpSet:
		return setValue(doc, p.Path, p.Value)
	case OpAppend:
		existing := gjson.GetBytes(doc, p.Path)
		if existing.Exists() && !existing.IsArray() {
			return nil, fmt.Errorf("cannot append to %s: not an array", p.Path)
		}
		return setValue(doc, p.Path+".-1", p.Value)
	case OpRemove:
		if !gjson.GetBytes(doc, p.Path).Exists() {
			return nil, fmt.Errorf("cannot remove %s: no such path", p.Path)
		}
		return sjson.DeleteBytes(doc, p.Path)
	default:
		return nil, fmt.Errorf("unknown patch op %q", p.Op)
	}
}

func setValue(doc []byte, path, value string) ([]byte, error) {
	if isJSONLiteral(value) {
		return sjson.SetRawBytes(doc, path, []byte(value))
	}
	return sjson.SetBytes(doc, path, value)
}

// isJSONLiteral reports whether value parses as standalone JSON. Bare
// words like "tomato" do not and are treated as strings.
func isJSONLiteral(value string) bool {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return false
	}
	return gjson.Valid(trimmed)
}
