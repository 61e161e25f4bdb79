package scoring_test

import (
	"encoding/json"
	"testing"

	"github.com/nyashahama/realyou-backend/internal/scoring"
)

func TestQuestionValidate(t *testing.T) {
	tests := []struct {
		name    string
		q       scoring.Question
		wantErr bool
	}{
		{"ok", scoring.Question{ID: "a", Dimension: scoring.AxisEI, PositiveTrait: "I", Pro: "x"}, false},
		{"legacy no trait", scoring.Question{ID: "a", Dimension: scoring.AxisJP, Pro: "x"}, false},
		{"missing id", scoring.Question{Dimension: scoring.AxisEI, Pro: "x"}, true},
		{"bad dimension", scoring.Question{ID: "a", Dimension: "XY", Pro: "x"}, true},
		{"trait off axis", scoring.Question{ID: "a", Dimension: scoring.AxisEI, PositiveTrait: "N", Pro: "x"}, true},
		{"missing prompt", scoring.Question{ID: "a", Dimension: scoring.AxisEI}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.q.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewBank_SkipsIncompleteEntries(t *testing.T) {
	b := scoring.NewBank([]scoring.Question{
		{ID: "", Dimension: scoring.AxisEI},
		{ID: "x", Dimension: "??"},
		{ID: "ok", Dimension: scoring.AxisTF},
	})
	if b.Len() != 1 {
		t.Errorf("Len() = %d, want 1", b.Len())
	}
	if _, ok := b.Lookup("x"); ok {
		t.Error("entry with unknown dimension should be skipped")
	}
	if got := b.CountByAxis()[scoring.AxisTF]; got != 1 {
		t.Errorf("TF count = %d, want 1", got)
	}
	if b.Duplicates() != nil {
		t.Errorf("duplicates = %v, want none", b.Duplicates())
	}
}

func TestValue_JSON(t *testing.T) {
	tests := []struct {
		raw   string
		valid bool
		n     int
	}{
		{`5`, true, 5},
		{`"2"`, true, 2},
		{`" 4 "`, true, 4},
		{`2.5`, true, 3},
		{`-1.5`, true, -2},
		{`""`, false, 0},
		{`"abc"`, false, 0},
		{`null`, false, 0},
		{`false`, false, 0},
		{`{"a":1}`, false, 0},
		{`"NaN"`, false, 0},
		{`1e300`, false, 0},
		{`2147483647`, true, 2147483647},
		{`2147483648`, false, 0},
		{`"-2147483648"`, false, 0},
	}
	for _, tt := range tests {
		var v scoring.Value
		if err := json.Unmarshal([]byte(tt.raw), &v); err != nil {
			t.Fatalf("%s: unexpected error %v", tt.raw, err)
		}
		if v.Valid() != tt.valid {
			t.Errorf("%s: Valid() = %v, want %v", tt.raw, v.Valid(), tt.valid)
			continue
		}
		if tt.valid && v.Int() != tt.n {
			t.Errorf("%s: Int() = %d, want %d", tt.raw, v.Int(), tt.n)
		}
	}
}

func TestValue_MarshalInvalidAsNull(t *testing.T) {
	b, err := json.Marshal(scoring.Answer{QuestionID: "q", Value: scoring.InvalidValue()})
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `{"question_id":"q","value":null}` {
		t.Errorf("got %s", b)
	}
}

func TestAnswers_AcceptsListAndObject(t *testing.T) {
	var list scoring.Answers
	if err := json.Unmarshal([]byte(`[{"question_id":"b","value":5},{"question_id":"a","value":"1"}]`), &list); err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].QuestionID != "b" || list[1].Value.Int() != 1 {
		t.Errorf("list form = %+v", list)
	}

	var obj scoring.Answers
	if err := json.Unmarshal([]byte(`{"b":5,"a":null,"c":"4"}`), &obj); err != nil {
		t.Fatal(err)
	}
	if len(obj) != 3 {
		t.Fatalf("object form = %+v", obj)
	}
	if obj[0].QuestionID != "a" || obj[0].Value.Valid() || obj[2].QuestionID != "c" || obj[2].Value.Int() != 4 {
		t.Errorf("object form not sorted or values wrong: %+v", obj)
	}

	var bad scoring.Answers
	if err := json.Unmarshal([]byte(`"nope"`), &bad); err == nil {
		t.Error("expected error for a bare string")
	}
}
