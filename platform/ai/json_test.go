package ai

import (
	"errors"
	"testing"
)

func TestDecodeLenientRecoversCommonModelOutput(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"strict", `{"a":1}`},
		{"code fence", "```json\n{\"a\":1}\n```"},
		{"single quotes and trailing comma", "{'a':1,}"},
		{"surrounding noise", "noise {\"a\":1} noise"},
		{"smart quotes", "{“a”: 1}"},
		{"fence without language", "```\n{\"a\":1,}\n```"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var got struct {
				A int `json:"a"`
			}
			if err := DecodeLenient(tc.raw, &got); err != nil {
				t.Fatalf("expected %q to decode, got %v", tc.raw, err)
			}
			if got.A != 1 {
				t.Fatalf("expected a=1, got %d", got.A)
			}
		})
	}
}

func TestDecodeLenientRejectsGarbage(t *testing.T) {
	for _, raw := range []string{"not json at all", "", "{ unclosed"} {
		var v map[string]any
		if err := DecodeLenient(raw, &v); !errors.Is(err, ErrMalformedJSON) {
			t.Fatalf("expected ErrMalformedJSON for %q, got %v", raw, err)
		}
	}
}

func TestDecodeLenientArrays(t *testing.T) {
	raw := "Here are the businesses:\n[{'name': 'Acme Kahve', 'address': 'Moda Cd. 5'},]\nDone."
	var got []struct {
		Name    string `json:"name"`
		Address string `json:"address"`
	}
	if err := DecodeLenient(raw, &got); err != nil {
		t.Fatalf("expected array to decode, got %v", err)
	}
	if len(got) != 1 || got[0].Name != "Acme Kahve" {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestCoerceSingleQuotesKeepsApostrophesInDoubleStrings(t *testing.T) {
	got := coerceSingleQuotes(`{"note": "it's fine", 'k': 'say "hi"'}`)
	want := `{"note": "it's fine", "k": "say \"hi\""}`
	if got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestStripTrailingCommasIgnoresStrings(t *testing.T) {
	got := stripTrailingCommas(`{"a": "x,}", "b": [1, 2, ],}`)
	want := `{"a": "x,}", "b": [1, 2 ]}`
	if got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
}
