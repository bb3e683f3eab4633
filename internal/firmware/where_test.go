package firmware

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
)

func TestBuildWhere(t *testing.T) {
	user := Where{"metadata.research.status": map[string]any{"equals": "failed"}}
	session := SessionClause("ses_1")

	tests := []struct {
		name string
		opts WhereOptions
		want Where
	}{
		{"nothing", WhereOptions{}, nil},
		{"session flag without id", WhereOptions{CurrentSessionOnly: true}, nil},
		{"id without flag", WhereOptions{SessionID: "ses_1"}, nil},
		{"session only", WhereOptions{SessionID: "ses_1", CurrentSessionOnly: true}, session},
		{"user only", WhereOptions{SessionID: "ses_1", User: user}, user},
		{"both", WhereOptions{SessionID: "ses_1", CurrentSessionOnly: true, User: user},
			Where{"and": []any{session, user}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildWhere(tt.opts)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("BuildWhere = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestBuildWhere_JSONShape(t *testing.T) {
	w := BuildWhere(WhereOptions{
		SessionID:          "s",
		CurrentSessionOnly: true,
		User:               Where{"title": map[string]any{"like": "x"}},
	})
	b, err := json.Marshal(w)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"and":[{"metadata.research.topic":{"contains":"SESSION:s"}},{"title":{"like":"x"}}]}`
	if string(b) != want {
		t.Errorf("json = %s, want %s", b, want)
	}
}

func TestParseWhere(t *testing.T) {
	w, err := ParseWhere(`{"title":{"like":"ai"}}`)
	if err != nil {
		t.Fatalf("ParseWhere: %v", err)
	}
	if _, ok := w["title"]; !ok {
		t.Errorf("where = %v, want title clause", w)
	}

	for _, raw := range []string{`{not json`, ``, `{"a":1}x`} {
		if _, err := ParseWhere(raw); !errors.Is(err, ErrWhereInvalidJSON) {
			t.Errorf("ParseWhere(%q) err = %v, want ErrWhereInvalidJSON", raw, err)
		}
	}
	for _, raw := range []string{`[]`, `[{"a":1}]`, `"str"`, `42`, `null`, `true`} {
		if _, err := ParseWhere(raw); !errors.Is(err, ErrWhereNotObject) {
			t.Errorf("ParseWhere(%q) err = %v, want ErrWhereNotObject", raw, err)
		}
	}
}
