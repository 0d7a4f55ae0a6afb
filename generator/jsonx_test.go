package generator

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
)

func TestRecoverStructure(t *testing.T) {
	tests := []struct {
		name string
		text string
		want any
	}{
		{
			"fenced json block",
			"```json\n{\"item_id\":[\"1\"]}\n```",
			map[string]any{"item_id": []any{"1"}},
		},
		{
			"fenced block without language tag",
			"```\n{\"item_id\":[\"1\",\"2\"]}\n```",
			map[string]any{"item_id": []any{"1", "2"}},
		},
		{
			"bare object",
			`{"item_id": ["1"]}`,
			map[string]any{"item_id": []any{"1"}},
		},
		{
			"object buried in prose",
			`Sure! {"item_id": ["1"]} Thanks`,
			map[string]any{"item_id": []any{"1"}},
		},
		{
			"single quotes and trailing comma",
			`{'item_id': ['1', '2',], 'customer': None,}`,
			map[string]any{"item_id": []any{"1", "2"}, "customer": nil},
		},
		{
			"python booleans",
			`{'ok': True, 'bad': False}`,
			map[string]any{"ok": true, "bad": false},
		},
		{
			"numbers survive as literals",
			`{"quantity": [3.10]}`,
			map[string]any{"quantity": []any{json.Number("3.10")}},
		},
	}
	for _, tt := range tests {
		got, err := RecoverStructure(tt.text)
		if err != nil {
			t.Errorf("%s: RecoverStructure: %v", tt.name, err)
			continue
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("%s: got %#v, want %#v", tt.name, got, tt.want)
		}
	}
}

func TestRecoverStructureFailure(t *testing.T) {
	for _, text := range []string{
		"",
		"no brackets at all",
		"I could not find an invoice in the input.",
		"{ broken",
	} {
		if _, err := RecoverStructure(text); !errors.Is(err, ErrExtraction) {
			t.Errorf("RecoverStructure(%q) err = %v, want ErrExtraction", text, err)
		}
	}
}

func TestParsePermissiveEscapes(t *testing.T) {
	got, err := parsePermissive(`['O\'Brien', "tab\there"]`)
	if err != nil {
		t.Fatal(err)
	}
	want := []any{"O'Brien", "tab\there"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %#v, want %#v", got, want)
	}
}

func TestParsePermissiveSurrogatePair(t *testing.T) {
	// UTF-16 escapes arrive as high+low surrogate pairs; they must
	// decode to one code point, not two replacement characters.
	got, err := parsePermissive(`'\ud83d\ude00 ok'`)
	if err != nil {
		t.Fatal(err)
	}
	if got != "\U0001F600 ok" {
		t.Errorf("got %q, want %q", got, "\U0001F600 ok")
	}

	// A lone surrogate degrades to the replacement character.
	got, err = parsePermissive(`'\ud83d!'`)
	if err != nil {
		t.Fatal(err)
	}
	if got != "�!" {
		t.Errorf("lone surrogate: got %q, want %q", got, "�!")
	}
}
