package agent

import "testing"

func TestNewUserProfileDefaults(t *testing.T) {
	p := NewUserProfile()
	if p.Name() != "Boss" || p.City() != "India" || p.State() != "" ||
		p.Profession() != "Professional" || p.Interests() != "Success" {
		t.Errorf("Unexpected defaults: name=%q city=%q state=%q profession=%q interests=%q",
			p.Name(), p.City(), p.State(), p.Profession(), p.Interests())
	}
}

func TestMergeTruthyValuesWin(t *testing.T) {
	p := NewUserProfile()
	p.Merge(map[string]interface{}{
		"name":       "Abraham",
		"city":       "Kochi",
		"profession": "",      // falsy: must not erase the default
		"interests":  nil,     // falsy
		"timezone":   "Asia/Kolkata",
		"age":        float64(29),
	})

	if p.Name() != "Abraham" {
		t.Errorf("Expected name Abraham, got %q", p.Name())
	}
	if p.City() != "Kochi" {
		t.Errorf("Expected city Kochi, got %q", p.City())
	}
	if p.Profession() != DefaultProfession {
		t.Errorf("Falsy value erased profession: %q", p.Profession())
	}
	if p.Interests() != DefaultInterests {
		t.Errorf("Nil value erased interests: %q", p.Interests())
	}
	// Arbitrary extra keys pass through
	if p.Get("timezone") != "Asia/Kolkata" {
		t.Errorf("Extra key not merged: %q", p.Get("timezone"))
	}
	if p.Get("age") != "29" {
		t.Errorf("Numeric value not stringified: %q", p.Get("age"))
	}
}

func TestMergeLaterUpdateDoesNotEraseEarlierFields(t *testing.T) {
	p := NewUserProfile()
	p.Merge(map[string]interface{}{"name": "Abraham", "city": "Kochi"})
	p.Merge(map[string]interface{}{"profession": "Engineer"})

	if p.Name() != "Abraham" || p.City() != "Kochi" || p.Profession() != "Engineer" {
		t.Errorf("Partial update erased learned fields: name=%q city=%q profession=%q",
			p.Name(), p.City(), p.Profession())
	}
}

func TestMergeOverwritesWithNewTruthyValue(t *testing.T) {
	p := NewUserProfile()
	p.Merge(map[string]interface{}{"city": "Kochi"})
	p.Merge(map[string]interface{}{"city": "Bangalore"})

	if p.City() != "Bangalore" {
		t.Errorf("Expected last truthy value to win, got %q", p.City())
	}
}

func TestSetIgnoresEmpty(t *testing.T) {
	p := NewUserProfile()
	p.Set("name", "")
	if p.Name() != DefaultName {
		t.Errorf("Empty Set erased name: %q", p.Name())
	}
}

func TestTruthyString(t *testing.T) {
	cases := []struct {
		in     interface{}
		out    string
		truthy bool
	}{
		{"Kochi", "Kochi", true},
		{"", "", false},
		{float64(0), "", false},
		{float64(7), "7", true},
		{true, "true", true},
		{false, "", false},
		{nil, "", false},
	}
	for _, c := range cases {
		got, ok := truthyString(c.in)
		if ok != c.truthy {
			t.Errorf("truthyString(%v): truthy=%v, want %v", c.in, ok, c.truthy)
			continue
		}
		if ok && got != c.out {
			t.Errorf("truthyString(%v) = %q, want %q", c.in, got, c.out)
		}
	}
}
