package store

import "testing"

func TestDecodeDetail(t *testing.T) {
	detail, err := decodeDetail([]byte(`{"status":"Resolved","from":"Open"}`))
	if err != nil {
		t.Fatalf("decodeDetail() error = %v", err)
	}
	if detail["status"] != "Resolved" || detail["from"] != "Open" {
		t.Fatalf("decodeDetail() = %v", detail)
	}

	if detail, err := decodeDetail(nil); err != nil || detail != nil {
		t.Fatalf("decodeDetail(nil) = %v, %v", detail, err)
	}

	for _, raw := range []string{`{"votes": 16}`, `[]`, `{"broken"`} {
		if _, err := decodeDetail([]byte(raw)); err == nil {
			t.Fatalf("decodeDetail(%s) expected an error", raw)
		}
	}
}
