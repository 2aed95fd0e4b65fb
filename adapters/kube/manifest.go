package kube

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
	"k8s.io/apimachinery/pkg/runtime"
)

// BuildManifest serializes rendered objects into one multi-document YAML
// manifest. Each document is preceded by --- and stripped of encoding noise
// (null values, empty maps, creationTimestamp, empty status), so identical
// object lists produce byte-identical manifests. The diff reporter depends on
// that stability.
func BuildManifest(objs []runtime.Object) (string, error) {
	var buf bytes.Buffer
	for _, obj := range objs {
		if obj == nil {
			continue
		}
		doc, err := objectToDoc(obj)
		if err != nil {
			return "", err
		}
		buf.WriteString("---\n")
		if err := encodeDoc(&buf, doc); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}

// objectToDoc converts one object to a generic map and scrubs the fields a
// manifest should not carry.
func objectToDoc(obj runtime.Object) (map[string]any, error) {
	doc, err := runtime.DefaultUnstructuredConverter.ToUnstructured(obj)
	if err != nil {
		return nil, fmt.Errorf("to unstructured: %w", err)
	}
	prune(doc)
	if meta, ok := doc["metadata"].(map[string]any); ok {
		delete(meta, "creationTimestamp")
		if len(meta) == 0 {
			delete(doc, "metadata")
		}
	}
	if st, ok := doc["status"].(map[string]any); ok && len(st) == 0 {
		delete(doc, "status")
	}
	return doc, nil
}

func encodeDoc(buf *bytes.Buffer, doc map[string]any) error {
	var ybuf bytes.Buffer
	enc := yaml.NewEncoder(&ybuf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	_ = enc.Close()
	b := ybuf.Bytes()
	buf.Write(b)
	if len(b) == 0 || b[len(b)-1] != '\n' {
		buf.WriteByte('\n')
	}
	return nil
}

// ParseManifest decodes a multi-document YAML manifest into one map per
// document. Empty documents are skipped.
func ParseManifest(manifest string) ([]map[string]any, error) {
	var docs []map[string]any
	dec := yaml.NewDecoder(strings.NewReader(manifest))
	for {
		var doc map[string]any
		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode manifest document %d: %w", len(docs)+1, err)
		}
		if len(doc) == 0 {
			continue
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// prune removes nil values and empty maps in place, descending through maps
// and slices. Empty slices are kept: an explicitly empty list is meaningful,
// an empty map is encoding noise.
func prune(v any) any {
	switch x := v.(type) {
	case map[string]any:
		for k, val := range x {
			switch cv := prune(val).(type) {
			case nil:
				delete(x, k)
			case map[string]any:
				if len(cv) == 0 {
					delete(x, k)
				} else {
					x[k] = cv
				}
			default:
				x[k] = cv
			}
		}
		return x
	case []any:
		for i, it := range x {
			x[i] = prune(it)
		}
		return x
	default:
		return x
	}
}
