package models

import "testing"

func TestActionFlagString(t *testing.T) {
	tests := []struct {
		flag ActionFlag
		want string
	}{
		{ActionAddition, "ADDITION"},
		{ActionChange, "CHANGE"},
		{ActionDeletion, "DELETION"},
		{ActionFlag(0), "UNKNOWN"},
		{ActionFlag(7), "UNKNOWN"},
	}

	for _, tt := range tests {
		if got := tt.flag.String(); got != tt.want {
			t.Errorf("ActionFlag(%d).String() = %q, want %q", int(tt.flag), got, tt.want)
		}
	}
}

func TestContentTypeName(t *testing.T) {
	tests := []struct {
		model string
		want  string
	}{
		{"post", "post"},
		{"category", "category"},
		{"Comment", "comment"},
		{"", ""},
	}

	for _, tt := range tests {
		ct := &ContentType{AppLabel: "blog", Model: tt.model}
		if got := ct.Name(); got != tt.want {
			t.Errorf("ContentType{Model: %q}.Name() = %q, want %q", tt.model, got, tt.want)
		}
	}
}
