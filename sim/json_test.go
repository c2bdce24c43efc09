package sim

import (
	"encoding/json"
	"testing"

	"github.com/db47h/hdlsim/elaborate"
	"github.com/db47h/hdlsim/resolver"
)

func TestFullTableJSON_Not(t *testing.T) {
	r := resolver.New(nil)
	nl, err := elaborate.Elaborate(r, "Not", nil)
	if err != nil {
		t.Fatal(err)
	}
	raw, err := FullTableJSON(nl, 1)
	if err != nil {
		t.Fatal(err)
	}
	var decoded [2]json.RawMessage
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatal(err)
	}
	var names []string
	if err := json.Unmarshal(decoded[0], &names); err != nil {
		t.Fatal(err)
	}
	if len(names) != 2 || names[0] != "in" || names[1] != "out" {
		t.Fatalf("expected port names [in out], got %v", names)
	}
	var rows [][][]interface{}
	if err := json.Unmarshal(decoded[1], &rows); err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0][0][0].(float64) != 0 || rows[0][1][0].(float64) != 1 {
		t.Fatalf("Not(0) should be 1, got row %v", rows[0])
	}
	if rows[1][0][0].(float64) != 1 || rows[1][1][0].(float64) != 0 {
		t.Fatalf("Not(1) should be 0, got row %v", rows[1])
	}
}
